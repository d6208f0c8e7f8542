package handlers

import (
	"strconv"
	"time"

	"eims/internal/middleware"
	"eims/internal/services"
	"eims/pkg/pagination"
	"eims/pkg/response"

	"github.com/gin-gonic/gin"
)

// StaffHandler 员工档案与分支指派处理器
type StaffHandler struct {
	staffService *services.StaffService
	audit        *services.AuditService
}

func NewStaffHandler(staffService *services.StaffService, audit *services.AuditService) *StaffHandler {
	return &StaffHandler{
		staffService: staffService,
		audit:        audit,
	}
}

// ========== 员工档案 ==========

// GetAll 分页获取员工档案
func (h *StaffHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	department := c.Query("department")
	keyword := c.Query("keyword")
	decision := middleware.GetDecision(c)

	profiles, total, err := h.staffService.GetWithPage(decision, department, keyword, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询员工档案失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, profiles, pageInfo)
}

// GetByUserID 获取用户的员工档案
func (h *StaffHandler) GetByUserID(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	profile, err := h.staffService.GetByUserID(uint(userID))
	if err != nil {
		response.NotFound(c, "员工档案不存在")
		return
	}

	response.Success(c, profile)
}

// CreateProfile 创建员工档案
func (h *StaffHandler) CreateProfile(c *gin.Context) {
	var req struct {
		UserID      uint    `json:"user_id" binding:"required"`
		Designation string  `json:"designation" binding:"max=100"`
		Department  string  `json:"department" binding:"max=100"`
		Phone       string  `json:"phone" binding:"max=20"`
		Email       string  `json:"email" binding:"omitempty,email"`
		JoinDate    string  `json:"join_date"`
		Salary      float64 `json:"salary" binding:"omitempty,min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	var joinDate *time.Time
	if req.JoinDate != "" {
		parsed, err := time.Parse("2006-01-02", req.JoinDate)
		if err != nil {
			response.BadRequest(c, "入职日期格式错误，应为 YYYY-MM-DD")
			return
		}
		joinDate = &parsed
	}

	profile, err := h.staffService.CreateProfile(req.UserID, req.Designation, req.Department, req.Phone, req.Email, joinDate, req.Salary)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, profile)
}

// UpdateProfile 更新员工档案
func (h *StaffHandler) UpdateProfile(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	var req struct {
		Designation string  `json:"designation"`
		Department  string  `json:"department"`
		Phone       string  `json:"phone" binding:"max=20"`
		Email       string  `json:"email" binding:"omitempty,email"`
		Status      string  `json:"status"`
		Salary      float64 `json:"salary" binding:"omitempty,min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	profile, err := h.staffService.UpdateProfile(uint(userID), req.Designation, req.Department, req.Phone, req.Email, req.Status, req.Salary)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, profile)
}

// DeleteProfile 软删除员工档案
func (h *StaffHandler) DeleteProfile(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	if err := h.staffService.DeleteProfile(uint(userID)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// ========== 分支指派 ==========

// AssignToBranch 指派用户到分支
func (h *StaffHandler) AssignToBranch(c *gin.Context) {
	var req struct {
		UserID       uint   `json:"user_id" binding:"required"`
		BranchID     uint   `json:"branch_id" binding:"required"`
		RoleAtBranch string `json:"role_at_branch"`
		Notes        string `json:"notes" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(req.BranchID) {
		response.Forbidden(c, "目标分支不在操作范围内")
		return
	}

	principal := middleware.GetPrincipal(c)
	var assignedBy *uint
	if principal != nil {
		assignedBy = &principal.UserID
	}

	assignment, err := h.staffService.AssignToBranch(c.Request.Context(), req.UserID, req.BranchID, req.RoleAtBranch, assignedBy, req.Notes)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if principal != nil {
		h.audit.LogChange(principal, decision, "branch_assignment", assignment.ID, c.ClientIP(), map[string]interface{}{
			"user_id":        req.UserID,
			"branch_id":      req.BranchID,
			"role_at_branch": assignment.RoleAtBranch,
		})
	}

	response.Success(c, assignment)
}

// RemoveFromBranch 解除分支指派
func (h *StaffHandler) RemoveFromBranch(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}
	branchID, err := strconv.ParseUint(c.Param("branch_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "分支ID格式错误")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(uint(branchID)) {
		response.Forbidden(c, "目标分支不在操作范围内")
		return
	}

	if err := h.staffService.RemoveFromBranch(c.Request.Context(), uint(userID), uint(branchID)); err != nil {
		response.NotFound(c, "指派不存在")
		return
	}

	if principal := middleware.GetPrincipal(c); principal != nil {
		h.audit.LogChange(principal, decision, "branch_assignment", 0, c.ClientIP(), map[string]interface{}{
			"user_id":   uint(userID),
			"branch_id": uint(branchID),
			"change":    "deactivated",
		})
	}

	response.SuccessWithMessage(c, "指派已解除", nil)
}

// GetUserAssignments 获取用户的指派历史
func (h *StaffHandler) GetUserAssignments(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	assignments, err := h.staffService.GetUserAssignments(uint(userID))
	if err != nil {
		response.ServerError(c, "查询指派历史失败")
		return
	}

	response.Success(c, assignments)
}

// GetBranchMembers 获取分支下的活跃成员
func (h *StaffHandler) GetBranchMembers(c *gin.Context) {
	branchID, err := strconv.ParseUint(c.Param("branch_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "分支ID格式错误")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(uint(branchID)) {
		response.Forbidden(c, "目标分支不在操作范围内")
		return
	}

	members, err := h.staffService.GetBranchMembers(uint(branchID))
	if err != nil {
		response.ServerError(c, "查询分支成员失败")
		return
	}

	response.Success(c, members)
}
