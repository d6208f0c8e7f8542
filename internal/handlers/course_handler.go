package handlers

import (
	"strconv"

	"eims/internal/services"
	"eims/pkg/pagination"
	"eims/pkg/response"

	"github.com/gin-gonic/gin"
)

// CourseHandler 课程处理器
//
// courses 是全局模块，模块权限通过后不做分支过滤。
type CourseHandler struct {
	courseService *services.CourseService
}

func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// Create 创建课程
func (h *CourseHandler) Create(c *gin.Context) {
	var req struct {
		Name          string  `json:"name" binding:"required,min=2,max=100"`
		Code          string  `json:"code" binding:"required,min=2,max=20"`
		Description   string  `json:"description" binding:"max=500"`
		DurationWeeks int     `json:"duration_weeks" binding:"omitempty,min=1,max=520"`
		Fee           float64 `json:"fee" binding:"omitempty,min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	course, err := h.courseService.Create(req.Name, req.Code, req.Description, req.DurationWeeks, req.Fee)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, course)
}

// GetAll 分页获取课程列表
func (h *CourseHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	status := c.Query("status")
	keyword := c.Query("keyword")

	courses, total, err := h.courseService.GetWithPage(status, keyword, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询课程失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, courses, pageInfo)
}

// GetByID 根据ID获取课程
func (h *CourseHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "课程ID格式错误")
		return
	}

	course, err := h.courseService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "课程不存在")
		return
	}

	response.Success(c, course)
}

// Update 更新课程
func (h *CourseHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "课程ID格式错误")
		return
	}

	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Status      string  `json:"status"`
		Fee         float64 `json:"fee" binding:"omitempty,min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	course, err := h.courseService.Update(uint(id), req.Name, req.Description, req.Status, req.Fee)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, course)
}

// Delete 软删除课程
func (h *CourseHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "课程ID格式错误")
		return
	}

	if err := h.courseService.Delete(uint(id)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}
