package services

import (
	"eims/internal/access"
	"eims/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoiceSplitsInstallments(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)

	branch := createTestBranch(t, db, "FIN1")
	student := createTestStudent(t, db, "张三", branch.ID, nil)

	due := time.Now().UTC().AddDate(0, 1, 0)
	invoice, err := svc.CreateInvoice(student.ID, 10000, due, 3, "")
	require.NoError(t, err)

	assert.Equal(t, models.InvoiceStatusPending, invoice.Status)
	assert.Equal(t, float64(10000), invoice.BalanceAmount)
	assert.Equal(t, branch.ID, invoice.BranchID)
	require.Len(t, invoice.Installments, 3)

	// 各期金额之和必须精确等于总额，余数归最后一期
	var sum float64
	for _, plan := range invoice.Installments {
		sum += plan.Amount
		assert.Equal(t, models.InstallmentStatusPending, plan.Status)
	}
	assert.InDelta(t, 10000, sum, 0.001)

	// 到期日按月递延
	assert.True(t, invoice.Installments[1].DueDate.After(invoice.Installments[0].DueDate))
	assert.True(t, invoice.Installments[2].DueDate.After(invoice.Installments[1].DueDate))
}

func TestCreateInvoiceRejectsInvalidAmount(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)

	branch := createTestBranch(t, db, "FIN2")
	student := createTestStudent(t, db, "李四", branch.ID, nil)

	_, err := svc.CreateInvoice(student.ID, 0, time.Now(), 1, "")
	assert.Error(t, err)

	_, err = svc.CreateInvoice(student.ID, -100, time.Now(), 1, "")
	assert.Error(t, err)
}

func TestRecordPaymentUpdatesInvoiceBalance(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)

	branch := createTestBranch(t, db, "FIN3")
	student := createTestStudent(t, db, "王五", branch.ID, nil)
	cashier := createTestUser(t, db, "cashier3", models.RoleStaff)

	invoice, err := svc.CreateInvoice(student.ID, 6000, time.Now().UTC(), 2, "")
	require.NoError(t, err)

	// 第一笔：核销第一期，状态转 partial
	first := invoice.Installments[0]
	payment, err := svc.RecordPayment(invoice.ID, &first.ID, 3000, models.PaymentMethodCash, cashier.ID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, payment.ReceiptNumber)
	assert.Equal(t, branch.ID, payment.BranchID)

	reloaded, err := svc.GetInvoiceByID(invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPartial, reloaded.Status)
	assert.Equal(t, float64(3000), reloaded.PaidAmount)
	assert.Equal(t, float64(3000), reloaded.BalanceAmount)

	var plan models.Installment
	require.NoError(t, db.First(&plan, first.ID).Error)
	assert.Equal(t, models.InstallmentStatusPaid, plan.Status)
	require.NotNil(t, plan.PaidAt)

	// 第二笔结清
	second := invoice.Installments[1]
	_, err = svc.RecordPayment(invoice.ID, &second.ID, 3000, models.PaymentMethodUPI, cashier.ID, "")
	require.NoError(t, err)

	reloaded, err = svc.GetInvoiceByID(invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, reloaded.Status)
	assert.Equal(t, float64(0), reloaded.BalanceAmount)
}

func TestRecordPaymentRejectsOverpayment(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)

	branch := createTestBranch(t, db, "FIN4")
	student := createTestStudent(t, db, "赵六", branch.ID, nil)
	cashier := createTestUser(t, db, "cashier4", models.RoleStaff)

	invoice, err := svc.CreateInvoice(student.ID, 1000, time.Now().UTC(), 1, "")
	require.NoError(t, err)

	_, err = svc.RecordPayment(invoice.ID, nil, 1500, models.PaymentMethodCash, cashier.ID, "")
	assert.Error(t, err)

	// 超额被拒后余额不变
	reloaded, err := svc.GetInvoiceByID(invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(1000), reloaded.BalanceAmount)
}

func TestRecordPaymentRejectsPaidInstallment(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)

	branch := createTestBranch(t, db, "FIN5")
	student := createTestStudent(t, db, "钱七", branch.ID, nil)
	cashier := createTestUser(t, db, "cashier5", models.RoleStaff)

	invoice, err := svc.CreateInvoice(student.ID, 2000, time.Now().UTC(), 2, "")
	require.NoError(t, err)

	first := invoice.Installments[0]
	_, err = svc.RecordPayment(invoice.ID, &first.ID, 1000, models.PaymentMethodCard, cashier.ID, "")
	require.NoError(t, err)

	_, err = svc.RecordPayment(invoice.ID, &first.ID, 1000, models.PaymentMethodCard, cashier.ID, "")
	assert.Error(t, err)
}

func TestCancelInvoiceBlockedAfterPayment(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)

	branch := createTestBranch(t, db, "FIN6")
	student := createTestStudent(t, db, "孙八", branch.ID, nil)
	cashier := createTestUser(t, db, "cashier6", models.RoleStaff)

	invoice, err := svc.CreateInvoice(student.ID, 1000, time.Now().UTC(), 1, "")
	require.NoError(t, err)

	// 未收款可作废
	require.NoError(t, svc.CancelInvoice(invoice.ID))

	invoice2, err := svc.CreateInvoice(student.ID, 1000, time.Now().UTC(), 1, "")
	require.NoError(t, err)
	_, err = svc.RecordPayment(invoice2.ID, nil, 500, models.PaymentMethodCash, cashier.ID, "")
	require.NoError(t, err)

	assert.Error(t, svc.CancelInvoice(invoice2.ID))
}

func TestMarkOverdueInstallmentsIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)

	branch := createTestBranch(t, db, "FIN7")
	student := createTestStudent(t, db, "周九", branch.ID, nil)

	// 到期日在过去的分期
	past := time.Now().UTC().AddDate(0, -2, 0)
	invoice, err := svc.CreateInvoice(student.ID, 3000, past, 2, "")
	require.NoError(t, err)

	now := time.Now()
	marked, err := svc.MarkOverdueInstallments(now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	// 第二次扫描不再重复标记
	marked, err = svc.MarkOverdueInstallments(now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), marked)

	var count int64
	db.Model(&models.Installment{}).
		Where("invoice_id = ? AND status = ?", invoice.ID, models.InstallmentStatusOverdue).
		Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestGetInvoicesWithPageAppliesScope(t *testing.T) {
	db := newTestDB(t)
	svc := NewFinanceService(db)

	branchA := createTestBranch(t, db, "FIN8A")
	branchB := createTestBranch(t, db, "FIN8B")
	studentA := createTestStudent(t, db, "甲", branchA.ID, nil)
	studentB := createTestStudent(t, db, "乙", branchB.ID, nil)

	_, err := svc.CreateInvoice(studentA.ID, 1000, time.Now().UTC(), 1, "")
	require.NoError(t, err)
	_, err = svc.CreateInvoice(studentB.ID, 2000, time.Now().UTC(), 1, "")
	require.NoError(t, err)

	scoped := access.Decision{
		Effect:    access.EffectAllowScoped,
		BranchIDs: []uint{branchA.ID},
	}
	invoices, total, err := svc.GetInvoicesWithPage(scoped, "", 0, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, invoices, 1)
	assert.Equal(t, branchA.ID, invoices[0].BranchID)

	unscoped := access.Decision{Effect: access.EffectAllow, Unscoped: true}
	_, total, err = svc.GetInvoicesWithPage(unscoped, "", 0, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
