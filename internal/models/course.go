package models

// Course 课程模型 - 全局资源，不归属分支
type Course struct {
	BaseModel
	Name          string  `json:"name" gorm:"not null;size:100"`
	Code          string  `json:"code" gorm:"unique;not null;size:20;index"`
	Description   string  `json:"description" gorm:"size:255"`
	DurationWeeks int     `json:"duration_weeks" gorm:"default:0"`
	Fee           float64 `json:"fee" gorm:"default:0"`
	Status        string  `json:"status" gorm:"default:'Active';size:20"`
	IsDeleted     bool    `json:"is_deleted" gorm:"default:false;index"`
}

// TableName 表名
func (c *Course) TableName() string {
	return "courses"
}

// 课程状态常量
const (
	CourseStatusActive   = "Active"
	CourseStatusInactive = "Inactive"
)
