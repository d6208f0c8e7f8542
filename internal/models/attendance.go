package models

import (
	"time"
)

// StudentAttendance 学员考勤记录
//
// BranchID 冗余自班级，避免范围过滤时多一次 join。
type StudentAttendance struct {
	BaseModel
	StudentID uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_student_batch_date"`
	BatchID   uint      `json:"batch_id" gorm:"not null;uniqueIndex:idx_student_batch_date"`
	BranchID  uint      `json:"branch_id" gorm:"not null;index"`
	Date      time.Time `json:"date" gorm:"not null;uniqueIndex:idx_student_batch_date"`
	Status    string    `json:"status" gorm:"not null;size:20"` // present/absent/late
	MarkedBy  uint      `json:"marked_by" gorm:"not null"`
	Notes     string    `json:"notes" gorm:"size:255"`

	// 关联
	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Batch   *Batch   `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// TableName 表名
func (StudentAttendance) TableName() string {
	return "student_attendance"
}

// 考勤状态常量
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
)

// IsValidAttendanceStatus 校验考勤状态
func IsValidAttendanceStatus(status string) bool {
	return status == AttendancePresent || status == AttendanceAbsent || status == AttendanceLate
}
