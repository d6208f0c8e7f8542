package services

import (
	"context"
	"eims/internal/access"
	"eims/internal/models"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// StaffService 员工档案与分支指派的管理面
//
// 指派的增改走 access.AssignmentStore（幂等upsert、停用不删），
// 这里负责前置校验和变更后的会话失效。
type StaffService struct {
	db       *gorm.DB
	store    *access.AssignmentStore
	sessions *access.SessionContextService
}

func NewStaffService(db *gorm.DB, sessions *access.SessionContextService) *StaffService {
	return &StaffService{
		db:       db,
		store:    access.NewAssignmentStore(db),
		sessions: sessions,
	}
}

// ========== 员工档案 ==========

// GetWithPage 分页获取员工档案，范围过滤来自访问决定
//
// 档案本身不带分支字段，按用户的活跃指派分支过滤。
func (s *StaffService) GetWithPage(decision access.Decision, department, keyword string, page, pageSize int) ([]*models.StaffProfile, int64, error) {
	var profiles []*models.StaffProfile
	var total int64

	query := s.db.Model(&models.StaffProfile{}).Where("is_deleted = ?", false)

	if !decision.Unscoped {
		sub := s.db.Model(&models.BranchAssignment{}).
			Select("user_id").
			Where("is_active = ? AND branch_id IN ?", true, decision.BranchIDs)
		query = query.Where("user_id IN (?)", sub)
	}

	if department != "" {
		query = query.Where("department = ?", department)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("designation LIKE ? OR department LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("User").Offset(offset).Limit(pageSize).Find(&profiles).Error
	return profiles, total, err
}

// GetByUserID 获取用户的员工档案
func (s *StaffService) GetByUserID(userID uint) (*models.StaffProfile, error) {
	var profile models.StaffProfile
	err := s.db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Preload("User").First(&profile).Error
	return &profile, err
}

// CreateProfile 创建员工档案
func (s *StaffService) CreateProfile(userID uint, designation, department, phone, email string, joinDate *time.Time, salary float64) (*models.StaffProfile, error) {
	var user models.User
	if err := s.db.Where("is_deleted = ?", false).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("用户不存在")
	}
	if user.Role == models.RoleStudent || user.Role == models.RoleParent {
		return nil, fmt.Errorf("学员/家长账号不能建员工档案")
	}
	if salary < 0 {
		return nil, fmt.Errorf("薪资不能为负")
	}

	var count int64
	s.db.Model(&models.StaffProfile{}).Where("user_id = ? AND is_deleted = ?", userID, false).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("该用户已有员工档案")
	}

	profile := &models.StaffProfile{
		UserID:      userID,
		Designation: designation,
		Department:  department,
		Phone:       phone,
		Email:       email,
		JoinDate:    joinDate,
		Salary:      salary,
		Status:      "active",
	}
	err := s.db.Create(profile).Error
	return profile, err
}

// UpdateProfile 更新员工档案
func (s *StaffService) UpdateProfile(userID uint, designation, department, phone, email, status string, salary float64) (*models.StaffProfile, error) {
	var profile models.StaffProfile
	err := s.db.Where("user_id = ? AND is_deleted = ?", userID, false).First(&profile).Error
	if err != nil {
		return nil, err
	}

	if status != "" && status != "active" && status != "inactive" {
		return nil, fmt.Errorf("状态只能是 active/inactive")
	}

	if designation != "" {
		profile.Designation = designation
	}
	if department != "" {
		profile.Department = department
	}
	if phone != "" {
		profile.Phone = phone
	}
	if email != "" {
		profile.Email = email
	}
	if status != "" {
		profile.Status = status
	}
	if salary >= 0 {
		profile.Salary = salary
	}

	err = s.db.Save(&profile).Error
	return &profile, err
}

// DeleteProfile 软删除员工档案
func (s *StaffService) DeleteProfile(userID uint) error {
	var profile models.StaffProfile
	err := s.db.Where("user_id = ? AND is_deleted = ?", userID, false).First(&profile).Error
	if err != nil {
		return err
	}
	return s.db.Model(&profile).Update("is_deleted", true).Error
}

// ========== 分支指派 ==========

// AssignToBranch 指派用户到分支并失效其会话上下文
func (s *StaffService) AssignToBranch(ctx context.Context, userID, branchID uint, roleAtBranch string, assignedBy *uint, notes string) (*models.BranchAssignment, error) {
	var user models.User
	if err := s.db.Where("is_deleted = ?", false).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("用户不存在")
	}
	var branch models.Branch
	if err := s.db.Where("is_deleted = ?", false).First(&branch, branchID).Error; err != nil {
		return nil, fmt.Errorf("分支机构不存在")
	}
	if branch.Status != models.BranchStatusActive {
		return nil, fmt.Errorf("分支机构已停用")
	}
	if roleAtBranch != "" && !models.IsValidRole(roleAtBranch) {
		return nil, fmt.Errorf("非法的分支角色: %s", roleAtBranch)
	}
	if roleAtBranch == "" {
		roleAtBranch = user.Role
	}

	assignment, err := s.store.Assign(userID, branchID, roleAtBranch, assignedBy, notes)
	if err != nil {
		return nil, err
	}

	// 指派变更立即失效旧会话，缩短时效窗口
	if err := s.sessions.Invalidate(ctx, userID); err != nil {
		return assignment, fmt.Errorf("指派成功但会话失效失败: %w", err)
	}
	return assignment, nil
}

// RemoveFromBranch 解除分支指派并失效其会话上下文
func (s *StaffService) RemoveFromBranch(ctx context.Context, userID, branchID uint) error {
	if err := s.store.Deactivate(userID, branchID); err != nil {
		return err
	}
	if err := s.sessions.Invalidate(ctx, userID); err != nil {
		return fmt.Errorf("解除成功但会话失效失败: %w", err)
	}
	return nil
}

// GetUserAssignments 获取用户的全部指派历史
func (s *StaffService) GetUserAssignments(userID uint) ([]models.BranchAssignment, error) {
	return s.store.ListUserAssignments(userID)
}

// GetBranchMembers 获取分支下的活跃成员
func (s *StaffService) GetBranchMembers(branchID uint) ([]models.BranchAssignment, error) {
	return s.store.ListActiveAssignments(branchID)
}
