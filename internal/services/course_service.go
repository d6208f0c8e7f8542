package services

import (
	"eims/internal/models"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"
)

type CourseService struct {
	db *gorm.DB
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

// GetWithPage 分页获取课程
func (s *CourseService) GetWithPage(status, keyword string, page, pageSize int) ([]*models.Course, int64, error) {
	var courses []*models.Course
	var total int64

	query := s.db.Model(&models.Course{}).Where("is_deleted = ?", false)

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name LIKE ? OR code LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&courses).Error
	return courses, total, err
}

// GetByID 根据ID获取课程
func (s *CourseService) GetByID(id uint) (*models.Course, error) {
	var course models.Course
	err := s.db.Where("is_deleted = ?", false).First(&course, id).Error
	return &course, err
}

// Create 创建课程
func (s *CourseService) Create(name, code, description string, durationWeeks int, fee float64) (*models.Course, error) {
	if utf8.RuneCountInString(name) < 2 || utf8.RuneCountInString(name) > 100 {
		return nil, fmt.Errorf("课程名称长度必须在2-100之间")
	}
	if fee < 0 {
		return nil, fmt.Errorf("课程费用不能为负")
	}

	var count int64
	s.db.Model(&models.Course{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("课程代码已存在")
	}

	course := &models.Course{
		Name:          name,
		Code:          code,
		Description:   description,
		DurationWeeks: durationWeeks,
		Fee:           fee,
		Status:        models.CourseStatusActive,
	}

	err := s.db.Create(course).Error
	return course, err
}

// Update 更新课程
func (s *CourseService) Update(id uint, name, description, status string, fee float64) (*models.Course, error) {
	var course models.Course
	err := s.db.Where("is_deleted = ?", false).First(&course, id).Error
	if err != nil {
		return nil, err
	}

	if status != "" && status != models.CourseStatusActive && status != models.CourseStatusInactive {
		return nil, fmt.Errorf("状态只能是 Active/Inactive")
	}

	if name != "" {
		course.Name = name
	}
	if description != "" {
		course.Description = description
	}
	if status != "" {
		course.Status = status
	}
	if fee >= 0 {
		course.Fee = fee
	}

	err = s.db.Save(&course).Error
	return &course, err
}

// Delete 软删除课程
func (s *CourseService) Delete(id uint) error {
	var course models.Course
	err := s.db.Where("is_deleted = ?", false).First(&course, id).Error
	if err != nil {
		return err
	}

	var activeBatches int64
	s.db.Model(&models.Batch{}).
		Where("course_id = ? AND status = ? AND is_deleted = ?", id, models.BatchStatusActive, false).
		Count(&activeBatches)
	if activeBatches > 0 {
		return fmt.Errorf("该课程下仍有 %d 个进行中的班级，不允许删除", activeBatches)
	}

	return s.db.Model(&course).Update("is_deleted", true).Error
}
