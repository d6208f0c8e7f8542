package handlers

import (
	"fmt"
	"strconv"
	"time"

	"eims/internal/middleware"
	"eims/internal/services"
	"eims/pkg/pagination"
	"eims/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FinanceHandler 费用与收款处理器
type FinanceHandler struct {
	financeService *services.FinanceService
	studentService *services.StudentService
	audit          *services.AuditService
}

func NewFinanceHandler(financeService *services.FinanceService, studentService *services.StudentService, audit *services.AuditService) *FinanceHandler {
	return &FinanceHandler{
		financeService: financeService,
		studentService: studentService,
		audit:          audit,
	}
}

// CreateInvoice 开费用单
func (h *FinanceHandler) CreateInvoice(c *gin.Context) {
	var req struct {
		StudentID    uint    `json:"student_id" binding:"required"`
		TotalAmount  float64 `json:"total_amount" binding:"required,gt=0"`
		DueDate      string  `json:"due_date" binding:"required"`
		Installments int     `json:"installments" binding:"omitempty,min=1,max=24"`
		Notes        string  `json:"notes" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		response.BadRequest(c, "到期日格式错误，应为 YYYY-MM-DD")
		return
	}

	student, err := h.studentService.GetByID(req.StudentID)
	if err != nil {
		response.NotFound(c, "学员不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(student.BranchID) {
		response.Forbidden(c, "目标学员不在操作范围内")
		return
	}

	invoice, err := h.financeService.CreateInvoice(req.StudentID, req.TotalAmount, dueDate, req.Installments, req.Notes)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, invoice)
}

// GetInvoices 分页查询费用单
func (h *FinanceHandler) GetInvoices(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	status := c.Query("status")
	decision := middleware.GetDecision(c)

	var studentID uint
	if v := c.Query("student_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.BadRequest(c, "学员ID格式错误")
			return
		}
		studentID = uint(parsed)
	}

	invoices, total, err := h.financeService.GetInvoicesWithPage(decision, status, studentID, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询费用单失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, invoices, pageInfo)
}

// GetInvoiceByID 根据ID获取费用单
func (h *FinanceHandler) GetInvoiceByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "费用单ID格式错误")
		return
	}

	invoice, err := h.financeService.GetInvoiceByID(uint(id))
	if err != nil {
		response.NotFound(c, "费用单不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(invoice.BranchID) {
		response.Forbidden(c, "目标费用单不在操作范围内")
		return
	}

	response.Success(c, invoice)
}

// CancelInvoice 作废费用单
func (h *FinanceHandler) CancelInvoice(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "费用单ID格式错误")
		return
	}

	invoice, err := h.financeService.GetInvoiceByID(uint(id))
	if err != nil {
		response.NotFound(c, "费用单不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(invoice.BranchID) {
		response.Forbidden(c, "目标费用单不在操作范围内")
		return
	}

	if err := h.financeService.CancelInvoice(uint(id)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if principal := middleware.GetPrincipal(c); principal != nil {
		h.audit.LogChange(principal, decision, "invoice", uint(id), c.ClientIP(), map[string]interface{}{
			"change":         "cancelled",
			"invoice_number": invoice.InvoiceNumber,
		})
	}

	response.SuccessWithMessage(c, "费用单已作废", nil)
}

// RecordPayment 记录收款
func (h *FinanceHandler) RecordPayment(c *gin.Context) {
	var req struct {
		InvoiceID     uint    `json:"invoice_id" binding:"required"`
		InstallmentID *uint   `json:"installment_id"`
		Amount        float64 `json:"amount" binding:"required,gt=0"`
		Method        string  `json:"method" binding:"required,oneof=cash card upi bank"`
		Notes         string  `json:"notes" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		// 解析验证错误，提供更友好的提示
		if validationErr, ok := err.(validator.ValidationErrors); ok {
			errorMsg := "参数验证失败"
			for _, fieldErr := range validationErr {
				switch fieldErr.Field() {
				case "InvoiceID":
					errorMsg = "必须指定费用单"
				case "Amount":
					errorMsg = "收款金额必须大于0"
				case "Method":
					errorMsg = "收款方式必须是 cash、card、upi 或 bank"
				default:
					errorMsg = fmt.Sprintf("字段 %s 验证失败", fieldErr.Field())
				}
				break // 只返回第一个错误
			}
			response.BadRequest(c, errorMsg)
			return
		}
		response.BadRequest(c, "请求参数格式错误")
		return
	}

	invoice, err := h.financeService.GetInvoiceByID(req.InvoiceID)
	if err != nil {
		response.NotFound(c, "费用单不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(invoice.BranchID) {
		response.Forbidden(c, "目标费用单不在操作范围内")
		return
	}

	principal := middleware.GetPrincipal(c)
	if principal == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	payment, err := h.financeService.RecordPayment(req.InvoiceID, req.InstallmentID, req.Amount, req.Method, principal.UserID, req.Notes)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	h.audit.LogChange(principal, decision, "payment", payment.ID, c.ClientIP(), map[string]interface{}{
		"receipt_number": payment.ReceiptNumber,
		"invoice_id":     payment.InvoiceID,
		"amount":         payment.Amount,
		"method":         payment.Method,
	})

	response.Success(c, payment)
}

// GetPayments 分页查询收款记录
func (h *FinanceHandler) GetPayments(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	method := c.Query("method")
	decision := middleware.GetDecision(c)

	var invoiceID uint
	if v := c.Query("invoice_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.BadRequest(c, "费用单ID格式错误")
			return
		}
		invoiceID = uint(parsed)
	}

	payments, total, err := h.financeService.GetPaymentsWithPage(decision, method, invoiceID, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询收款记录失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, payments, pageInfo)
}
