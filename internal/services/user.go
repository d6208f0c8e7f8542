package services

import (
	"eims/internal/models"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// ========== 认证相关 ==========

// Authenticate 用户名密码认证，成功与否都写登录日志
func (s *UserService) Authenticate(username, password, ip, userAgent string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ? AND is_deleted = ?", username, false).First(&user).Error
	if err != nil {
		s.writeLoginLog(0, username, ip, userAgent, false, "用户不存在")
		return nil, fmt.Errorf("用户名或密码错误")
	}

	if user.Status != models.UserStatusActive {
		s.writeLoginLog(user.ID, username, ip, userAgent, false, "用户已被禁用")
		return nil, fmt.Errorf("用户已被禁用")
	}

	if !user.CheckPassword(password) {
		s.writeLoginLog(user.ID, username, ip, userAgent, false, "密码错误")
		return nil, fmt.Errorf("用户名或密码错误")
	}

	now := time.Now().UTC()
	s.db.Model(&user).Update("last_login_at", now)
	user.LastLoginAt = &now

	s.writeLoginLog(user.ID, username, ip, userAgent, true, "登录成功")
	return &user, nil
}

func (s *UserService) writeLoginLog(userID uint, username, ip, userAgent string, success bool, message string) {
	log := &models.LoginLog{
		UserID:    userID,
		Username:  username,
		IP:        ip,
		UserAgent: userAgent,
		Success:   success,
		Message:   message,
	}
	// 登录日志写失败不阻断认证流程
	s.db.Create(log)
}

// ========== 基础CRUD方法 ==========

// GetByID 根据ID获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Where("is_deleted = ?", false).First(&user, id).Error
	return &user, err
}

// GetByUsername 根据用户名获取用户
func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ? AND is_deleted = ?", username, false).First(&user).Error
	return &user, err
}

// IsActive 检查用户是否激活
func (s *UserService) IsActive(user *models.User) bool {
	return user.Status == models.UserStatusActive && !user.IsDeleted
}

// GetBranchAssignments 获取用户的活跃分支指派
func (s *UserService) GetBranchAssignments(userID uint) ([]models.BranchAssignment, error) {
	var assignments []models.BranchAssignment
	err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("assigned_on ASC, id ASC").
		Preload("Branch").
		Find(&assignments).Error
	return assignments, err
}

// GetWithPage 分页获取用户
func (s *UserService) GetWithPage(role, status, keyword string, page, pageSize int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := s.db.Model(&models.User{}).Where("is_deleted = ?", false)

	if role != "" {
		query = query.Where("role = ?", role)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("username LIKE ? OR full_name LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Create 创建用户
func (s *UserService) Create(username, fullName, email, role, password string) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("非法角色: %s", role)
	}
	if len(username) < 3 || len(username) > 100 {
		return nil, fmt.Errorf("用户名长度必须在3-100之间")
	}

	var count int64
	s.db.Model(&models.User{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("用户名已存在")
	}

	user := &models.User{
		Username: username,
		FullName: fullName,
		Email:    email,
		Role:     role,
		Status:   models.UserStatusActive,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("设置密码失败: %v", err)
	}

	err := s.db.Create(user).Error
	return user, err
}

// Update 更新用户基本信息
func (s *UserService) Update(id uint, fullName, email, status string) (*models.User, error) {
	var user models.User
	err := s.db.Where("is_deleted = ?", false).First(&user, id).Error
	if err != nil {
		return nil, err
	}

	if status != "" && status != models.UserStatusActive &&
		status != models.UserStatusInactive && status != models.UserStatusLocked {
		return nil, fmt.Errorf("状态只能是 active/inactive/locked")
	}

	if fullName != "" {
		user.FullName = fullName
	}
	if email != "" {
		user.Email = email
	}
	if status != "" {
		user.Status = status
	}

	err = s.db.Save(&user).Error
	return &user, err
}

// UpdateRole 变更用户全局角色
//
// 角色驱动模块级权限，变更后调用方必须失效该用户的会话上下文。
func (s *UserService) UpdateRole(id uint, role string) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("非法角色: %s", role)
	}

	var user models.User
	err := s.db.Where("is_deleted = ?", false).First(&user, id).Error
	if err != nil {
		return nil, err
	}

	user.Role = role
	err = s.db.Save(&user).Error
	return &user, err
}

// Delete 软删除用户
func (s *UserService) Delete(id uint) error {
	var user models.User
	err := s.db.Where("is_deleted = ?", false).First(&user, id).Error
	if err != nil {
		return err
	}

	if user.Role == models.RoleAdmin {
		return fmt.Errorf("不允许删除管理员用户")
	}

	return s.db.Model(&user).Update("is_deleted", true).Error
}

// ResetPassword 重置密码
func (s *UserService) ResetPassword(id uint, newPassword string) error {
	var user models.User
	err := s.db.Where("is_deleted = ?", false).First(&user, id).Error
	if err != nil {
		return err
	}

	if len(newPassword) < 8 {
		return fmt.Errorf("密码长度至少8位")
	}

	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("设置密码失败: %v", err)
	}
	return s.db.Model(&user).Update("password_hash", user.PasswordHash).Error
}

// GetLoginLogsWithPage 分页查询登录日志
func (s *UserService) GetLoginLogsWithPage(username string, page, pageSize int) ([]*models.LoginLog, int64, error) {
	var logs []*models.LoginLog
	var total int64

	query := s.db.Model(&models.LoginLog{})
	if username != "" {
		query = query.Where("username = ?", username)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&logs).Error
	return logs, total, err
}
