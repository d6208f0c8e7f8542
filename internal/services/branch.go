package services

import (
	"eims/internal/models"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"
)

type BranchService struct {
	db *gorm.DB
}

// BranchStats 分支机构统计信息
type BranchStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

func NewBranchService(db *gorm.DB) *BranchService {
	return &BranchService{db: db}
}

// GetWithFiltersAndPage 组合查询（分页版本）
func (s *BranchService) GetWithFiltersAndPage(status, branchType, keyword string, page, pageSize int) ([]*models.Branch, int64, error) {
	var branches []*models.Branch
	var total int64

	query := s.db.Model(&models.Branch{}).Where("is_deleted = ?", false)

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if branchType != "" {
		query = query.Where("branch_type = ?", branchType)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name LIKE ? OR code LIKE ? OR city LIKE ?", searchPattern, searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&branches).Error
	if err != nil {
		return nil, 0, err
	}

	return branches, total, nil
}

// ValidateCreateParams 校验创建参数
func (s *BranchService) ValidateCreateParams(name, code string) error {
	if utf8.RuneCountInString(name) < 2 || utf8.RuneCountInString(name) > 100 {
		return fmt.Errorf("分支名称长度必须在2-100之间")
	}
	if len(code) < 2 || len(code) > 20 {
		return fmt.Errorf("分支代码长度必须在2-20之间")
	}
	return nil
}

// Create 创建分支机构
func (s *BranchService) Create(name, code, city, branchType string) (*models.Branch, error) {
	if err := s.ValidateCreateParams(name, code); err != nil {
		return nil, err
	}

	if branchType == "" {
		branchType = models.BranchTypeFranchise
	}
	if branchType != models.BranchTypeCorporate && branchType != models.BranchTypeFranchise {
		return nil, fmt.Errorf("分支类型只能是 Corporate/Franchise")
	}

	var count int64
	s.db.Model(&models.Branch{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("分支代码已存在")
	}

	branch := &models.Branch{
		Name:       name,
		Code:       code,
		City:       city,
		BranchType: branchType,
		Status:     models.BranchStatusActive,
	}

	err := s.db.Create(branch).Error
	return branch, err
}

// GetByID 根据ID获取分支机构
func (s *BranchService) GetByID(id uint) (*models.Branch, error) {
	var branch models.Branch
	err := s.db.Where("is_deleted = ?", false).First(&branch, id).Error
	return &branch, err
}

// GetAllActive 获取所有激活的分支机构
func (s *BranchService) GetAllActive() ([]*models.Branch, error) {
	var branches []*models.Branch
	err := s.db.Where("status = ? AND is_deleted = ?", models.BranchStatusActive, false).
		Order("id ASC").Find(&branches).Error
	return branches, err
}

// Update 更新分支机构
func (s *BranchService) Update(id uint, name, city, status string) (*models.Branch, error) {
	var branch models.Branch
	err := s.db.Where("is_deleted = ?", false).First(&branch, id).Error
	if err != nil {
		return nil, err
	}

	if status != "" && status != models.BranchStatusActive && status != models.BranchStatusInactive {
		return nil, fmt.Errorf("状态只能是 Active/Inactive")
	}

	if name != "" {
		branch.Name = name
	}
	if city != "" {
		branch.City = city
	}
	if status != "" {
		branch.Status = status
	}

	err = s.db.Save(&branch).Error
	return &branch, err
}

// Delete 软删除分支机构
//
// 分支下还有活跃指派时不允许删除，避免产生悬空的会话范围。
func (s *BranchService) Delete(id uint) error {
	var branch models.Branch
	err := s.db.Where("is_deleted = ?", false).First(&branch, id).Error
	if err != nil {
		return err
	}

	var activeAssignments int64
	s.db.Model(&models.BranchAssignment{}).
		Where("branch_id = ? AND is_active = ?", id, true).
		Count(&activeAssignments)
	if activeAssignments > 0 {
		return fmt.Errorf("该分支下仍有 %d 个活跃的用户指派，请先解除", activeAssignments)
	}

	return s.db.Model(&branch).Update("is_deleted", true).Error
}

// GetStats 分支机构统计
func (s *BranchService) GetStats() (*BranchStats, error) {
	stats := &BranchStats{}
	base := s.db.Model(&models.Branch{}).Where("is_deleted = ?", false)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", models.BranchStatusActive).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	stats.Inactive = stats.Total - stats.Active
	return stats, nil
}
