package services

import (
	"bytes"
	"eims/internal/access"
	"eims/internal/models"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

type ReportService struct {
	db *gorm.DB
}

// AttendanceSummaryRow 班级考勤汇总行
type AttendanceSummaryRow struct {
	BatchID   uint   `json:"batch_id"`
	BatchName string `json:"batch_name"`
	BranchID  uint   `json:"branch_id"`
	Present   int64  `json:"present"`
	Absent    int64  `json:"absent"`
	Late      int64  `json:"late"`
}

// FinanceSummaryRow 分支收费汇总行
type FinanceSummaryRow struct {
	BranchID    uint    `json:"branch_id"`
	BranchName  string  `json:"branch_name"`
	Invoiced    float64 `json:"invoiced"`
	Collected   float64 `json:"collected"`
	Outstanding float64 `json:"outstanding"`
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// AttendanceSummary 按班级汇总考勤，范围过滤来自访问决定
func (s *ReportService) AttendanceSummary(decision access.Decision, from, to time.Time) ([]AttendanceSummaryRow, error) {
	var rows []AttendanceSummaryRow

	query := s.db.Model(&models.StudentAttendance{}).
		Select(`student_attendance.batch_id AS batch_id,
			batches.name AS batch_name,
			student_attendance.branch_id AS branch_id,
			SUM(CASE WHEN student_attendance.status = 'present' THEN 1 ELSE 0 END) AS present,
			SUM(CASE WHEN student_attendance.status = 'absent' THEN 1 ELSE 0 END) AS absent,
			SUM(CASE WHEN student_attendance.status = 'late' THEN 1 ELSE 0 END) AS late`).
		Joins("JOIN batches ON batches.id = student_attendance.batch_id").
		Where("student_attendance.date >= ? AND student_attendance.date <= ?",
			from.UTC().Truncate(24*time.Hour), to.UTC().Truncate(24*time.Hour))

	query = decision.ScopeQuery(query, "student_attendance.branch_id")
	query = decision.ScopeBatchQuery(query, "student_attendance.batch_id")

	err := query.Group("student_attendance.batch_id, batches.name, student_attendance.branch_id").
		Order("student_attendance.batch_id ASC").
		Scan(&rows).Error
	return rows, err
}

// FinanceSummary 按分支汇总收费，范围过滤来自访问决定
func (s *ReportService) FinanceSummary(decision access.Decision) ([]FinanceSummaryRow, error) {
	var rows []FinanceSummaryRow

	query := s.db.Model(&models.Invoice{}).
		Select(`invoices.branch_id AS branch_id,
			branches.name AS branch_name,
			SUM(invoices.total_amount) AS invoiced,
			SUM(invoices.paid_amount) AS collected,
			SUM(invoices.balance_amount) AS outstanding`).
		Joins("JOIN branches ON branches.id = invoices.branch_id").
		Where("invoices.is_deleted = ? AND invoices.status != ?", false, models.InvoiceStatusCancelled)

	query = decision.ScopeQuery(query, "invoices.branch_id")

	err := query.Group("invoices.branch_id, branches.name").
		Order("invoices.branch_id ASC").
		Scan(&rows).Error
	return rows, err
}

// ExportAttendanceCSV 导出考勤汇总为CSV
//
// 导出是独立动作，调用方必须先通过 can_export 检查。
func (s *ReportService) ExportAttendanceCSV(decision access.Decision, from, to time.Time) ([]byte, error) {
	rows, err := s.AttendanceSummary(decision, from, to)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"batch_id", "batch_name", "branch_id", "present", "absent", "late"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatUint(uint64(row.BatchID), 10),
			row.BatchName,
			strconv.FormatUint(uint64(row.BranchID), 10),
			strconv.FormatInt(row.Present, 10),
			strconv.FormatInt(row.Absent, 10),
			strconv.FormatInt(row.Late, 10),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFinanceCSV 导出收费汇总为CSV
func (s *ReportService) ExportFinanceCSV(decision access.Decision) ([]byte, error) {
	rows, err := s.FinanceSummary(decision)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"branch_id", "branch_name", "invoiced", "collected", "outstanding"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatUint(uint64(row.BranchID), 10),
			row.BranchName,
			fmt.Sprintf("%.2f", row.Invoiced),
			fmt.Sprintf("%.2f", row.Collected),
			fmt.Sprintf("%.2f", row.Outstanding),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
