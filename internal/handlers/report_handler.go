package handlers

import (
	"fmt"
	"time"

	"eims/internal/middleware"
	"eims/internal/services"
	"eims/pkg/response"

	"github.com/gin-gonic/gin"
)

// ReportHandler 报表处理器
//
// 导出接口挂在带 export 动作的权限检查后面，与查看接口分开授权。
type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	fromStr := c.DefaultQuery("from", time.Now().UTC().AddDate(0, -1, 0).Format("2006-01-02"))
	toStr := c.DefaultQuery("to", time.Now().UTC().Format("2006-01-02"))

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("起始日期格式错误，应为 YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("结束日期格式错误，应为 YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("结束日期不能早于起始日期")
	}
	return from, to, nil
}

// AttendanceSummary 班级考勤汇总
func (h *ReportHandler) AttendanceSummary(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	decision := middleware.GetDecision(c)
	rows, err := h.reportService.AttendanceSummary(decision, from, to)
	if err != nil {
		response.ServerError(c, "生成考勤汇总失败")
		return
	}

	response.Success(c, rows)
}

// FinanceSummary 分支收费汇总
func (h *ReportHandler) FinanceSummary(c *gin.Context) {
	decision := middleware.GetDecision(c)
	rows, err := h.reportService.FinanceSummary(decision)
	if err != nil {
		response.ServerError(c, "生成收费汇总失败")
		return
	}

	response.Success(c, rows)
}

// ExportAttendance 导出考勤汇总CSV
func (h *ReportHandler) ExportAttendance(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	decision := middleware.GetDecision(c)
	data, err := h.reportService.ExportAttendanceCSV(decision, from, to)
	if err != nil {
		response.ServerError(c, "导出考勤汇总失败")
		return
	}

	filename := fmt.Sprintf("attendance_%s_%s.csv", from.Format("20060102"), to.Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, "text/csv", data)
}

// ExportFinance 导出收费汇总CSV
func (h *ReportHandler) ExportFinance(c *gin.Context) {
	decision := middleware.GetDecision(c)
	data, err := h.reportService.ExportFinanceCSV(decision)
	if err != nil {
		response.ServerError(c, "导出收费汇总失败")
		return
	}

	filename := fmt.Sprintf("finance_%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, "text/csv", data)
}
