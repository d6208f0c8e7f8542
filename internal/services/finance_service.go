package services

import (
	"eims/internal/access"
	"eims/internal/models"
	"eims/pkg/logger"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FinanceService struct {
	db *gorm.DB
}

func NewFinanceService(db *gorm.DB) *FinanceService {
	return &FinanceService{db: db}
}

// ========== 费用单 ==========

// CreateInvoice 为学员开费用单，可选分期计划
//
// installments > 1 时金额均分，余数归到最后一期；各期到期日按月递延。
func (s *FinanceService) CreateInvoice(studentID uint, totalAmount float64, dueDate time.Time, installments int, notes string) (*models.Invoice, error) {
	if totalAmount <= 0 {
		return nil, fmt.Errorf("费用金额必须大于0")
	}
	if installments < 1 {
		installments = 1
	}
	if installments > 24 {
		return nil, fmt.Errorf("分期数不能超过24")
	}

	var student models.Student
	if err := s.db.Where("is_deleted = ?", false).First(&student, studentID).Error; err != nil {
		return nil, fmt.Errorf("学员不存在")
	}

	var invoice *models.Invoice
	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := s.nextInvoiceNumber(tx, dueDate)
		if err != nil {
			return err
		}

		due := dueDate.UTC().Truncate(24 * time.Hour)
		invoice = &models.Invoice{
			InvoiceNumber: number,
			StudentID:     studentID,
			BranchID:      student.BranchID,
			CourseID:      student.CourseID,
			TotalAmount:   totalAmount,
			PaidAmount:    0,
			BalanceAmount: totalAmount,
			Status:        models.InvoiceStatusPending,
			DueDate:       &due,
			Notes:         notes,
		}
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}

		// 分期均分，余数并入最后一期
		per := float64(int(totalAmount*100)/installments) / 100
		for i := 1; i <= installments; i++ {
			amount := per
			if i == installments {
				amount = totalAmount - per*float64(installments-1)
			}
			plan := models.Installment{
				InvoiceID:  invoice.ID,
				SequenceNo: i,
				Amount:     amount,
				DueDate:    due.AddDate(0, i-1, 0),
				Status:     models.InstallmentStatusPending,
			}
			if err := tx.Create(&plan).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.db.Preload("Installments").First(invoice, invoice.ID).Error
	return invoice, err
}

func (s *FinanceService) nextInvoiceNumber(tx *gorm.DB, at time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", at.Year())
	var count int64
	if err := tx.Model(&models.Invoice{}).Where("invoice_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d", prefix, count+1), nil
}

// GetInvoiceByID 根据ID获取费用单
func (s *FinanceService) GetInvoiceByID(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.Where("is_deleted = ?", false).
		Preload("Student").Preload("Installments").
		First(&invoice, id).Error
	return &invoice, err
}

// GetInvoicesWithPage 分页查询费用单，范围过滤来自访问决定
func (s *FinanceService) GetInvoicesWithPage(decision access.Decision, status string, studentID uint, page, pageSize int) ([]*models.Invoice, int64, error) {
	var invoices []*models.Invoice
	var total int64

	query := s.db.Model(&models.Invoice{}).Where("is_deleted = ?", false)
	query = decision.ScopeQuery(query, "branch_id")

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if studentID != 0 {
		query = query.Where("student_id = ?", studentID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Preload("Student").
		Offset(offset).Limit(pageSize).Find(&invoices).Error
	return invoices, total, err
}

// CancelInvoice 作废费用单（已有收款的不允许作废）
func (s *FinanceService) CancelInvoice(id uint) error {
	var invoice models.Invoice
	if err := s.db.Where("is_deleted = ?", false).First(&invoice, id).Error; err != nil {
		return err
	}
	if invoice.PaidAmount > 0 {
		return fmt.Errorf("该费用单已有收款记录，不允许作废")
	}
	return s.db.Model(&invoice).Update("status", models.InvoiceStatusCancelled).Error
}

// ========== 收款 ==========

// RecordPayment 记录一笔收款并更新费用单余额
//
// 收款、分期核销、费用单状态在同一事务内完成；收据号全局唯一。
func (s *FinanceService) RecordPayment(invoiceID uint, installmentID *uint, amount float64, method string, receivedBy uint, notes string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("收款金额必须大于0")
	}
	if !models.IsValidPaymentMethod(method) {
		return nil, fmt.Errorf("非法的收款方式: %s", method)
	}

	var payment *models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.Where("is_deleted = ?", false).First(&invoice, invoiceID).Error; err != nil {
			return fmt.Errorf("费用单不存在")
		}
		if invoice.Status == models.InvoiceStatusCancelled {
			return fmt.Errorf("费用单已作废")
		}
		if amount > invoice.BalanceAmount {
			return fmt.Errorf("收款金额 %.2f 超过剩余应收 %.2f", amount, invoice.BalanceAmount)
		}

		now := time.Now().UTC()

		if installmentID != nil {
			var plan models.Installment
			if err := tx.First(&plan, *installmentID).Error; err != nil {
				return fmt.Errorf("分期不存在")
			}
			if plan.InvoiceID != invoiceID {
				return fmt.Errorf("分期不属于该费用单")
			}
			if plan.Status == models.InstallmentStatusPaid {
				return fmt.Errorf("该分期已结清")
			}
			plan.Status = models.InstallmentStatusPaid
			plan.PaidAt = &now
			if err := tx.Save(&plan).Error; err != nil {
				return err
			}
		}

		receipt := fmt.Sprintf("RCPT-%s", strings.ToUpper(uuid.New().String()[:8]))
		payment = &models.Payment{
			ReceiptNumber: receipt,
			InvoiceID:     invoiceID,
			InstallmentID: installmentID,
			StudentID:     invoice.StudentID,
			BranchID:      invoice.BranchID,
			Amount:        amount,
			Method:        method,
			PaidOn:        now,
			ReceivedBy:    receivedBy,
			Notes:         notes,
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		invoice.PaidAmount += amount
		invoice.BalanceAmount = invoice.TotalAmount - invoice.PaidAmount
		if invoice.BalanceAmount <= 0 {
			invoice.Status = models.InvoiceStatusPaid
		} else {
			invoice.Status = models.InvoiceStatusPartial
		}
		return tx.Save(&invoice).Error
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// GetPaymentsWithPage 分页查询收款记录，范围过滤来自访问决定
func (s *FinanceService) GetPaymentsWithPage(decision access.Decision, method string, invoiceID uint, page, pageSize int) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	query := s.db.Model(&models.Payment{})
	query = decision.ScopeQuery(query, "branch_id")

	if method != "" {
		query = query.Where("method = ?", method)
	}
	if invoiceID != 0 {
		query = query.Where("invoice_id = ?", invoiceID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("paid_on DESC").Offset(offset).Limit(pageSize).Find(&payments).Error
	return payments, total, err
}

// ========== 逾期扫描 ==========

// MarkOverdueInstallments 将到期未付的分期标记为逾期
//
// 由定时任务每日调用，幂等：已标记的行不会重复更新。
func (s *FinanceService) MarkOverdueInstallments(now time.Time) (int64, error) {
	result := s.db.Model(&models.Installment{}).
		Where("status = ? AND due_date < ?", models.InstallmentStatusPending, now.UTC().Truncate(24*time.Hour)).
		Update("status", models.InstallmentStatusOverdue)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		logger.GetLogger().Infof("逾期扫描完成，标记 %d 条分期为逾期", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
