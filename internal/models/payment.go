package models

import (
	"time"
)

// Payment 收款记录
type Payment struct {
	BaseModel
	ReceiptNumber string    `json:"receipt_number" gorm:"unique;not null;size:40;index"`
	InvoiceID     uint      `json:"invoice_id" gorm:"not null;index"`
	InstallmentID *uint     `json:"installment_id" gorm:"index"`
	StudentID     uint      `json:"student_id" gorm:"not null;index"`
	BranchID      uint      `json:"branch_id" gorm:"not null;index"` // 分支归属，范围过滤的依据
	Amount        float64   `json:"amount" gorm:"not null"`
	Method        string    `json:"method" gorm:"not null;size:20"` // cash/card/upi/bank
	PaidOn        time.Time `json:"paid_on" gorm:"not null"`
	ReceivedBy    uint      `json:"received_by" gorm:"not null"`
	Notes         string    `json:"notes" gorm:"size:255"`
}

// TableName 表名
func (Payment) TableName() string {
	return "payments"
}

// 收款方式常量
const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
	PaymentMethodUPI  = "upi"
	PaymentMethodBank = "bank"
)

// IsValidPaymentMethod 校验收款方式
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodBank:
		return true
	}
	return false
}
