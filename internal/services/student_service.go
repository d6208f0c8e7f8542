package services

import (
	"eims/internal/access"
	"eims/internal/models"
	"fmt"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

type StudentService struct {
	db *gorm.DB
}

func NewStudentService(db *gorm.DB) *StudentService {
	return &StudentService{db: db}
}

// GetWithPage 分页获取学员，范围过滤来自访问决定
func (s *StudentService) GetWithPage(decision access.Decision, status, keyword string, batchID uint, page, pageSize int) ([]*models.Student, int64, error) {
	var students []*models.Student
	var total int64

	query := s.db.Model(&models.Student{}).Where("is_deleted = ?", false)
	query = decision.ScopeQuery(query, "branch_id")

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if batchID != 0 {
		query = query.Where("batch_id = ?", batchID)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("full_name LIKE ? OR reg_number LIKE ? OR phone LIKE ?", searchPattern, searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Branch").Preload("Course").Preload("Batch").
		Offset(offset).Limit(pageSize).Find(&students).Error
	return students, total, err
}

// GetByID 根据ID获取学员
func (s *StudentService) GetByID(id uint) (*models.Student, error) {
	var student models.Student
	err := s.db.Where("is_deleted = ?", false).
		Preload("Branch").Preload("Course").Preload("Batch").
		First(&student, id).Error
	return &student, err
}

// Enroll 报名学员
//
// 学号按 分支代码+年份+序号 生成，序号取该分支当年已有学员数。
func (s *StudentService) Enroll(fullName, phone, email string, branchID uint, courseID, batchID *uint) (*models.Student, error) {
	if utf8.RuneCountInString(fullName) < 2 || utf8.RuneCountInString(fullName) > 100 {
		return nil, fmt.Errorf("学员姓名长度必须在2-100之间")
	}

	var branch models.Branch
	if err := s.db.Where("is_deleted = ?", false).First(&branch, branchID).Error; err != nil {
		return nil, fmt.Errorf("分支机构不存在")
	}

	if batchID != nil {
		var batch models.Batch
		if err := s.db.Where("is_deleted = ?", false).First(&batch, *batchID).Error; err != nil {
			return nil, fmt.Errorf("班级不存在")
		}
		if batch.BranchID != branchID {
			return nil, fmt.Errorf("班级不属于该分支")
		}
		var enrolled int64
		s.db.Model(&models.Student{}).
			Where("batch_id = ? AND is_deleted = ?", *batchID, false).
			Count(&enrolled)
		if int(enrolled) >= batch.MaxCapacity {
			return nil, fmt.Errorf("班级已满员（容量 %d）", batch.MaxCapacity)
		}
	}

	now := time.Now().UTC()
	regNumber, err := s.nextRegNumber(branch.Code, now)
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		RegNumber:  regNumber,
		FullName:   fullName,
		Phone:      phone,
		Email:      email,
		BranchID:   branchID,
		CourseID:   courseID,
		BatchID:    batchID,
		Status:     models.StudentStatusActive,
		EnrolledOn: &now,
	}

	err = s.db.Create(student).Error
	return student, err
}

func (s *StudentService) nextRegNumber(branchCode string, now time.Time) (string, error) {
	year := now.Year()
	prefix := fmt.Sprintf("%s-%d-", branchCode, year)

	var count int64
	err := s.db.Model(&models.Student{}).
		Where("reg_number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// Update 更新学员信息
func (s *StudentService) Update(id uint, fullName, phone, email, status string, batchID *uint) (*models.Student, error) {
	var student models.Student
	err := s.db.Where("is_deleted = ?", false).First(&student, id).Error
	if err != nil {
		return nil, err
	}

	switch status {
	case "", models.StudentStatusActive, models.StudentStatusCompleted, models.StudentStatusDropped:
	default:
		return nil, fmt.Errorf("非法的学员状态: %s", status)
	}

	if batchID != nil {
		var batch models.Batch
		if err := s.db.Where("is_deleted = ?", false).First(&batch, *batchID).Error; err != nil {
			return nil, fmt.Errorf("班级不存在")
		}
		if batch.BranchID != student.BranchID {
			return nil, fmt.Errorf("班级不属于学员所在分支")
		}
		student.BatchID = batchID
	}

	if fullName != "" {
		student.FullName = fullName
	}
	if phone != "" {
		student.Phone = phone
	}
	if email != "" {
		student.Email = email
	}
	if status != "" {
		student.Status = status
	}

	err = s.db.Save(&student).Error
	return &student, err
}

// Delete 软删除学员
func (s *StudentService) Delete(id uint) error {
	var student models.Student
	err := s.db.Where("is_deleted = ?", false).First(&student, id).Error
	if err != nil {
		return err
	}
	return s.db.Model(&student).Update("is_deleted", true).Error
}
