package access

import (
	"eims/internal/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignmentStore 用户-分支指派的存取
//
// 对外只暴露活跃指派。(user_id, branch_id) 的唯一性由数据库唯一索引
// 加原子 upsert 保证，不做"先查后插"，并发指派不会产生重复活跃行。
type AssignmentStore struct {
	db *gorm.DB
}

// NewAssignmentStore 创建分支指派存储
func NewAssignmentStore(db *gorm.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

// Assign 指派用户到分支（幂等upsert）
//
// 已存在 (user, branch) 行时重新激活并覆盖 role_at_branch 等字段，
// 不产生第二行。停用过的指派由此路径恢复。
func (s *AssignmentStore) Assign(userID, branchID uint, roleAtBranch string, assignedBy *uint, notes string) (*models.BranchAssignment, error) {
	assignment := models.BranchAssignment{
		UserID:       userID,
		BranchID:     branchID,
		RoleAtBranch: roleAtBranch,
		AssignedBy:   assignedBy,
		AssignedOn:   time.Now().UTC(),
		IsActive:     true,
		Notes:        notes,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "branch_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"role_at_branch", "assigned_by", "assigned_on", "is_active", "notes", "updated_at",
		}),
	}).Create(&assignment).Error
	if err != nil {
		return nil, err
	}

	// upsert 命中已有行时 assignment.ID 不可靠，回读规范行
	var saved models.BranchAssignment
	err = s.db.Where("user_id = ? AND branch_id = ?", userID, branchID).First(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// Deactivate 解除指派
//
// 只置 is_active=false，行保留作审计历史，永不物理删除。
func (s *AssignmentStore) Deactivate(userID, branchID uint) error {
	result := s.db.Model(&models.BranchAssignment{}).
		Where("user_id = ? AND branch_id = ?", userID, branchID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListActiveBranchIDs 获取用户的活跃分支ID列表
//
// 按指派时间排序（首个即主分支），读侧防御性去重：即使数据层
// 出现重复活跃行也只计一次。空列表意味着"无权限"，调用方绝不能
// 把空集解释为"不限分支"。
func (s *AssignmentStore) ListActiveBranchIDs(userID uint) ([]uint, error) {
	var assignments []models.BranchAssignment
	err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("assigned_on ASC, id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(assignments))
	ids := make([]uint, 0, len(assignments))
	for _, a := range assignments {
		if seen[a.BranchID] {
			continue
		}
		seen[a.BranchID] = true
		ids = append(ids, a.BranchID)
	}
	return ids, nil
}

// ListActiveAssignments 获取分支下的活跃指派（反向查询）
//
// 支持"该分支可指派哪些讲师"这类场景。
func (s *AssignmentStore) ListActiveAssignments(branchID uint) ([]models.BranchAssignment, error) {
	var assignments []models.BranchAssignment
	err := s.db.Where("branch_id = ? AND is_active = ?", branchID, true).
		Order("assigned_on ASC, id ASC").
		Preload("User").
		Find(&assignments).Error
	return assignments, err
}

// ListUserAssignments 获取用户的全部指派（含已停用，审计场景）
func (s *AssignmentStore) ListUserAssignments(userID uint) ([]models.BranchAssignment, error) {
	var assignments []models.BranchAssignment
	err := s.db.Where("user_id = ?", userID).
		Order("assigned_on ASC, id ASC").
		Preload("Branch").
		Find(&assignments).Error
	return assignments, err
}

// ListTrainerBatchIDs 获取讲师被指派的活跃班级ID列表
func (s *AssignmentStore) ListTrainerBatchIDs(trainerID uint) ([]uint, error) {
	var assignments []models.BatchTrainerAssignment
	err := s.db.Where("trainer_id = ? AND is_active = ?", trainerID, true).
		Order("assigned_on ASC, id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(assignments))
	ids := make([]uint, 0, len(assignments))
	for _, a := range assignments {
		if seen[a.BatchID] {
			continue
		}
		seen[a.BatchID] = true
		ids = append(ids, a.BatchID)
	}
	return ids, nil
}
