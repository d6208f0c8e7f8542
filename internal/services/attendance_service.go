package services

import (
	"eims/internal/access"
	"eims/internal/models"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceService struct {
	db *gorm.DB
}

// AttendanceEntry 单个学员的考勤录入项
type AttendanceEntry struct {
	StudentID uint   `json:"student_id" binding:"required"`
	Status    string `json:"status" binding:"required"`
	Notes     string `json:"notes"`
}

func NewAttendanceService(db *gorm.DB) *AttendanceService {
	return &AttendanceService{db: db}
}

// MarkBatch 按班级+日期批量点名
//
// 重复点名按 (student, batch, date) 覆盖已有记录，分支归属冗余自班级。
// 全部条目在同一事务内写入，任一条目非法则整批回滚。
func (s *AttendanceService) MarkBatch(batchID uint, date time.Time, markedBy uint, entries []AttendanceEntry) (int, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("考勤条目不能为空")
	}

	var batch models.Batch
	if err := s.db.Where("is_deleted = ?", false).First(&batch, batchID).Error; err != nil {
		return 0, fmt.Errorf("班级不存在")
	}

	day := date.UTC().Truncate(24 * time.Hour)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			if !models.IsValidAttendanceStatus(entry.Status) {
				return fmt.Errorf("非法的考勤状态: %s", entry.Status)
			}

			var student models.Student
			if err := tx.Where("is_deleted = ?", false).First(&student, entry.StudentID).Error; err != nil {
				return fmt.Errorf("学员 %d 不存在", entry.StudentID)
			}
			if student.BatchID == nil || *student.BatchID != batchID {
				return fmt.Errorf("学员 %d 不属于该班级", entry.StudentID)
			}

			record := models.StudentAttendance{
				StudentID: entry.StudentID,
				BatchID:   batchID,
				BranchID:  batch.BranchID,
				Date:      day,
				Status:    entry.Status,
				MarkedBy:  markedBy,
				Notes:     entry.Notes,
			}

			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "student_id"}, {Name: "batch_id"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"status", "marked_by", "notes", "updated_at",
				}),
			}).Create(&record).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// GetRecordByID 根据ID获取考勤记录
func (s *AttendanceService) GetRecordByID(id uint) (*models.StudentAttendance, error) {
	var record models.StudentAttendance
	err := s.db.First(&record, id).Error
	return &record, err
}

// UpdateRecord 修正单条考勤记录
func (s *AttendanceService) UpdateRecord(id uint, status, notes string, markedBy uint) (*models.StudentAttendance, error) {
	if !models.IsValidAttendanceStatus(status) {
		return nil, fmt.Errorf("非法的考勤状态: %s", status)
	}

	var record models.StudentAttendance
	if err := s.db.First(&record, id).Error; err != nil {
		return nil, err
	}

	record.Status = status
	record.Notes = notes
	record.MarkedBy = markedBy

	err := s.db.Save(&record).Error
	return &record, err
}

// GetWithPage 分页查询考勤记录，范围过滤来自访问决定
func (s *AttendanceService) GetWithPage(decision access.Decision, batchID, studentID uint, from, to *time.Time, page, pageSize int) ([]*models.StudentAttendance, int64, error) {
	var records []*models.StudentAttendance
	var total int64

	query := s.db.Model(&models.StudentAttendance{})
	query = decision.ScopeQuery(query, "branch_id")
	query = decision.ScopeBatchQuery(query, "batch_id") // 讲师只能查自己班级的考勤

	if batchID != 0 {
		query = query.Where("batch_id = ?", batchID)
	}
	if studentID != 0 {
		query = query.Where("student_id = ?", studentID)
	}
	if from != nil {
		query = query.Where("date >= ?", from.UTC().Truncate(24*time.Hour))
	}
	if to != nil {
		query = query.Where("date <= ?", to.UTC().Truncate(24*time.Hour))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("date DESC, id ASC").
		Preload("Student").
		Offset(offset).Limit(pageSize).Find(&records).Error
	return records, total, err
}

// GetBatchSheet 获取班级某日的点名表
func (s *AttendanceService) GetBatchSheet(batchID uint, date time.Time) ([]*models.StudentAttendance, error) {
	var records []*models.StudentAttendance
	day := date.UTC().Truncate(24 * time.Hour)
	err := s.db.Where("batch_id = ? AND date = ?", batchID, day).
		Order("student_id ASC").
		Preload("Student").
		Find(&records).Error
	return records, err
}
