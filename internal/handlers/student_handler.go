package handlers

import (
	"strconv"

	"eims/internal/middleware"
	"eims/internal/services"
	"eims/pkg/pagination"
	"eims/pkg/response"

	"github.com/gin-gonic/gin"
)

// StudentHandler 学员处理器
type StudentHandler struct {
	studentService *services.StudentService
}

func NewStudentHandler(studentService *services.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// Enroll 报名学员
func (h *StudentHandler) Enroll(c *gin.Context) {
	var req struct {
		FullName string `json:"full_name" binding:"required,min=2,max=100"`
		Phone    string `json:"phone" binding:"max=20"`
		Email    string `json:"email" binding:"omitempty,email"`
		BranchID uint   `json:"branch_id" binding:"required"`
		CourseID *uint  `json:"course_id"`
		BatchID  *uint  `json:"batch_id"`
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

	student, err := h.studentService.Enroll(req.FullName, req.Phone, req.Email, req.BranchID, req.CourseID, req.BatchID)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, student)
}

// GetAll 分页获取学员列表
func (h *StudentHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	status := c.Query("status")
	keyword := c.Query("keyword")

	var batchID uint
	if batchIDStr := c.Query("batch_id"); batchIDStr != "" {
		parsed, err := strconv.ParseUint(batchIDStr, 10, 32)
		if err != nil {
			response.BadRequest(c, "班级ID格式错误")
			return
		}
		batchID = uint(parsed)
	}

	decision := middleware.GetDecision(c)

	students, total, err := h.studentService.GetWithPage(decision, status, keyword, batchID, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询学员失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, students, pageInfo)
}

// GetByID 根据ID获取学员
func (h *StudentHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "学员ID格式错误")
		return
	}

	student, err := h.studentService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "学员不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(student.BranchID) {
		response.Forbidden(c, "目标学员不在操作范围内")
		return
	}

	response.Success(c, student)
}

// Update 更新学员信息
func (h *StudentHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "学员ID格式错误")
		return
	}

	student, err := h.studentService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "学员不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(student.BranchID) {
		response.Forbidden(c, "目标学员不在操作范围内")
		return
	}

	var req struct {
		FullName string `json:"full_name"`
		Phone    string `json:"phone" binding:"max=20"`
		Email    string `json:"email" binding:"omitempty,email"`
		Status   string `json:"status"`
		BatchID  *uint  `json:"batch_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	updated, err := h.studentService.Update(uint(id), req.FullName, req.Phone, req.Email, req.Status, req.BatchID)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, updated)
}

// Delete 软删除学员
func (h *StudentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "学员ID格式错误")
		return
	}

	student, err := h.studentService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "学员不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(student.BranchID) {
		response.Forbidden(c, "目标学员不在操作范围内")
		return
	}

	if err := h.studentService.Delete(uint(id)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}
