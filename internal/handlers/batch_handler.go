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

// BatchHandler 班级处理器
//
// 列表查询用决定注入范围过滤；按ID的操作先取实体再做目标校验，
// 范围外的实体一律按403处理，不暴露存在性。
type BatchHandler struct {
	batchService *services.BatchService
	audit        *services.AuditService
}

func NewBatchHandler(batchService *services.BatchService, audit *services.AuditService) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
		audit:        audit,
	}
}

// Create 创建班级
func (h *BatchHandler) Create(c *gin.Context) {
	var req struct {
		Name         string     `json:"name" binding:"required,min=2,max=100"`
		CourseID     uint       `json:"course_id" binding:"required"`
		BranchID     uint       `json:"branch_id" binding:"required"`
		StartDate    *time.Time `json:"start_date"`
		EndDate      *time.Time `json:"end_date"`
		CheckinTime  string     `json:"checkin_time"`
		CheckoutTime string     `json:"checkout_time"`
		MaxCapacity  int        `json:"max_capacity" binding:"omitempty,min=1,max=500"`
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

	batch, err := h.batchService.Create(req.Name, req.CourseID, req.BranchID,
		req.StartDate, req.EndDate, req.CheckinTime, req.CheckoutTime, req.MaxCapacity)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, batch)
}

// GetAll 分页获取班级列表
func (h *BatchHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	status := c.Query("status")
	decision := middleware.GetDecision(c)

	batches, total, err := h.batchService.GetWithPage(decision, status, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询班级失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, batches, pageInfo)
}

// GetByID 根据ID获取班级
func (h *BatchHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "班级ID格式错误")
		return
	}

	batch, err := h.batchService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "班级不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(batch.BranchID) || !decision.BatchInScope(batch.ID) {
		response.Forbidden(c, "目标班级不在操作范围内")
		return
	}

	response.Success(c, batch)
}

// Update 更新班级
func (h *BatchHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "班级ID格式错误")
		return
	}

	batch, err := h.batchService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "班级不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(batch.BranchID) || !decision.BatchInScope(batch.ID) {
		response.Forbidden(c, "目标班级不在操作范围内")
		return
	}

	var req struct {
		Name         string `json:"name"`
		Status       string `json:"status"`
		CheckinTime  string `json:"checkin_time"`
		CheckoutTime string `json:"checkout_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	updated, err := h.batchService.Update(uint(id), req.Name, req.Status, req.CheckinTime, req.CheckoutTime)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, updated)
}

// Delete 软删除班级
func (h *BatchHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "班级ID格式错误")
		return
	}

	batch, err := h.batchService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "班级不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(batch.BranchID) {
		response.Forbidden(c, "目标班级不在操作范围内")
		return
	}

	if err := h.batchService.Delete(uint(id)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// ========== 讲师指派 ==========

// AssignTrainer 指派讲师到班级
func (h *BatchHandler) AssignTrainer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "班级ID格式错误")
		return
	}

	batch, err := h.batchService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "班级不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(batch.BranchID) {
		response.Forbidden(c, "目标班级不在操作范围内")
		return
	}

	var req struct {
		TrainerID   uint   `json:"trainer_id" binding:"required"`
		RoleInBatch string `json:"role_in_batch"`
		Notes       string `json:"notes" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	principal := middleware.GetPrincipal(c)
	var assignedBy *uint
	if principal != nil {
		assignedBy = &principal.UserID
	}

	assignment, err := h.batchService.AssignTrainer(uint(id), req.TrainerID, assignedBy, req.RoleInBatch, req.Notes)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if principal != nil {
		h.audit.LogChange(principal, decision, "batch_trainer_assignment", assignment.ID, c.ClientIP(), map[string]interface{}{
			"batch_id":      uint(id),
			"trainer_id":    req.TrainerID,
			"role_in_batch": assignment.RoleInBatch,
		})
	}

	response.Success(c, assignment)
}

// RemoveTrainer 解除讲师指派
func (h *BatchHandler) RemoveTrainer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "班级ID格式错误")
		return
	}
	trainerID, err := strconv.ParseUint(c.Param("trainer_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "讲师ID格式错误")
		return
	}

	batch, err := h.batchService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "班级不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(batch.BranchID) {
		response.Forbidden(c, "目标班级不在操作范围内")
		return
	}

	if err := h.batchService.RemoveTrainer(uint(id), uint(trainerID)); err != nil {
		response.NotFound(c, "指派不存在")
		return
	}

	if principal := middleware.GetPrincipal(c); principal != nil {
		h.audit.LogChange(principal, decision, "batch_trainer_assignment", 0, c.ClientIP(), map[string]interface{}{
			"batch_id":   uint(id),
			"trainer_id": uint(trainerID),
			"change":     "deactivated",
		})
	}

	response.SuccessWithMessage(c, "指派已解除", nil)
}

// GetTrainers 获取班级的活跃讲师
func (h *BatchHandler) GetTrainers(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "班级ID格式错误")
		return
	}

	batch, err := h.batchService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "班级不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(batch.BranchID) || !decision.BatchInScope(batch.ID) {
		response.Forbidden(c, "目标班级不在操作范围内")
		return
	}

	assignments, err := h.batchService.GetTrainers(uint(id))
	if err != nil {
		response.ServerError(c, "查询讲师指派失败")
		return
	}

	response.Success(c, assignments)
}
