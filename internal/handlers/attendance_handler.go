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

// AttendanceHandler 考勤处理器
type AttendanceHandler struct {
	attendanceService *services.AttendanceService
	batchService      *services.BatchService
}

func NewAttendanceHandler(attendanceService *services.AttendanceService, batchService *services.BatchService) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
		batchService:      batchService,
	}
}

// MarkBatch 按班级批量点名
func (h *AttendanceHandler) MarkBatch(c *gin.Context) {
	var req struct {
		BatchID uint                       `json:"batch_id" binding:"required"`
		Date    string                     `json:"date" binding:"required"`
		Entries []services.AttendanceEntry `json:"entries" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.BadRequest(c, "日期格式错误，应为 YYYY-MM-DD")
		return
	}

	batch, err := h.batchService.GetByID(req.BatchID)
	if err != nil {
		response.NotFound(c, "班级不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(batch.BranchID) || !decision.BatchInScope(batch.ID) {
		response.Forbidden(c, "目标班级不在操作范围内")
		return
	}

	principal := middleware.GetPrincipal(c)
	if principal == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	marked, err := h.attendanceService.MarkBatch(req.BatchID, date, principal.UserID, req.Entries)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "点名完成", gin.H{"marked": marked})
}

// UpdateRecord 修正单条考勤记录
func (h *AttendanceHandler) UpdateRecord(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "记录ID格式错误")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=present absent late"`
		Notes  string `json:"notes" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	record, err := h.attendanceService.GetRecordByID(uint(id))
	if err != nil {
		response.NotFound(c, "考勤记录不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(record.BranchID) || !decision.BatchInScope(record.BatchID) {
		response.Forbidden(c, "目标记录不在操作范围内")
		return
	}

	principal := middleware.GetPrincipal(c)
	if principal == nil {
		response.Unauthorized(c, "请先登录")
		return
	}

	updated, err := h.attendanceService.UpdateRecord(uint(id), req.Status, req.Notes, principal.UserID)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, updated)
}

// GetAll 分页查询考勤记录
func (h *AttendanceHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	decision := middleware.GetDecision(c)

	var batchID, studentID uint
	if v := c.Query("batch_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.BadRequest(c, "班级ID格式错误")
			return
		}
		batchID = uint(parsed)
	}
	if v := c.Query("student_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.BadRequest(c, "学员ID格式错误")
			return
		}
		studentID = uint(parsed)
	}

	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(c, "起始日期格式错误，应为 YYYY-MM-DD")
			return
		}
		from = &parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(c, "结束日期格式错误，应为 YYYY-MM-DD")
			return
		}
		to = &parsed
	}

	records, total, err := h.attendanceService.GetWithPage(decision, batchID, studentID, from, to, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询考勤记录失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, records, pageInfo)
}

// GetBatchSheet 获取班级某日的点名表
func (h *AttendanceHandler) GetBatchSheet(c *gin.Context) {
	batchID, err := strconv.ParseUint(c.Param("batch_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "班级ID格式错误")
		return
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		response.BadRequest(c, "缺少日期参数")
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		response.BadRequest(c, "日期格式错误，应为 YYYY-MM-DD")
		return
	}

	batch, err := h.batchService.GetByID(uint(batchID))
	if err != nil {
		response.NotFound(c, "班级不存在")
		return
	}

	decision := middleware.GetDecision(c)
	if !decision.InScope(batch.BranchID) || !decision.BatchInScope(batch.ID) {
		response.Forbidden(c, "目标班级不在操作范围内")
		return
	}

	records, err := h.attendanceService.GetBatchSheet(uint(batchID), date)
	if err != nil {
		response.ServerError(c, "查询点名表失败")
		return
	}

	response.Success(c, records)
}
