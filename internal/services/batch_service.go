package services

import (
	"eims/internal/access"
	"eims/internal/models"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BatchService struct {
	db *gorm.DB
}

func NewBatchService(db *gorm.DB) *BatchService {
	return &BatchService{db: db}
}

// GetWithPage 分页获取班级，范围过滤来自访问决定
func (s *BatchService) GetWithPage(decision access.Decision, status string, page, pageSize int) ([]*models.Batch, int64, error) {
	var batches []*models.Batch
	var total int64

	query := s.db.Model(&models.Batch{}).Where("is_deleted = ?", false)
	query = decision.ScopeQuery(query, "branch_id")
	query = decision.ScopeBatchQuery(query, "id") // 讲师收窄：只看自己的班级

	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Course").Preload("Branch").Offset(offset).Limit(pageSize).Find(&batches).Error
	return batches, total, err
}

// GetByID 根据ID获取班级
func (s *BatchService) GetByID(id uint) (*models.Batch, error) {
	var batch models.Batch
	err := s.db.Where("is_deleted = ?", false).Preload("Course").Preload("Branch").First(&batch, id).Error
	return &batch, err
}

// Create 创建班级
func (s *BatchService) Create(name string, courseID, branchID uint, startDate, endDate *time.Time, checkinTime, checkoutTime string, maxCapacity int) (*models.Batch, error) {
	var course models.Course
	if err := s.db.Where("is_deleted = ?", false).First(&course, courseID).Error; err != nil {
		return nil, fmt.Errorf("课程不存在")
	}
	var branch models.Branch
	if err := s.db.Where("is_deleted = ?", false).First(&branch, branchID).Error; err != nil {
		return nil, fmt.Errorf("分支机构不存在")
	}

	if maxCapacity <= 0 {
		maxCapacity = 30
	}

	batch := &models.Batch{
		Name:         name,
		CourseID:     courseID,
		BranchID:     branchID,
		StartDate:    startDate,
		EndDate:      endDate,
		CheckinTime:  checkinTime,
		CheckoutTime: checkoutTime,
		MaxCapacity:  maxCapacity,
		Status:       models.BatchStatusActive,
	}

	err := s.db.Create(batch).Error
	return batch, err
}

// Update 更新班级
func (s *BatchService) Update(id uint, name, status, checkinTime, checkoutTime string) (*models.Batch, error) {
	var batch models.Batch
	err := s.db.Where("is_deleted = ?", false).First(&batch, id).Error
	if err != nil {
		return nil, err
	}

	switch status {
	case "", models.BatchStatusActive, models.BatchStatusCompleted,
		models.BatchStatusSuspended, models.BatchStatusCancelled, models.BatchStatusArchived:
	default:
		return nil, fmt.Errorf("非法的班级状态: %s", status)
	}

	if name != "" {
		batch.Name = name
	}
	if status != "" {
		batch.Status = status
	}
	if checkinTime != "" {
		batch.CheckinTime = checkinTime
	}
	if checkoutTime != "" {
		batch.CheckoutTime = checkoutTime
	}

	err = s.db.Save(&batch).Error
	return &batch, err
}

// Delete 软删除班级
func (s *BatchService) Delete(id uint) error {
	var batch models.Batch
	err := s.db.Where("is_deleted = ?", false).First(&batch, id).Error
	if err != nil {
		return err
	}
	return s.db.Model(&batch).Update("is_deleted", true).Error
}

// ========== 讲师指派 ==========

// AssignTrainer 指派讲师到班级（幂等upsert）
//
// 讲师必须是目标班级所在分支的活跃成员；重复指派重新激活已有行。
func (s *BatchService) AssignTrainer(batchID, trainerID uint, assignedBy *uint, roleInBatch, notes string) (*models.BatchTrainerAssignment, error) {
	var batch models.Batch
	if err := s.db.Where("is_deleted = ?", false).First(&batch, batchID).Error; err != nil {
		return nil, fmt.Errorf("班级不存在")
	}

	var trainer models.User
	if err := s.db.Where("role = ? AND is_deleted = ?", models.RoleTrainer, false).First(&trainer, trainerID).Error; err != nil {
		return nil, fmt.Errorf("讲师不存在")
	}

	var memberCount int64
	s.db.Model(&models.BranchAssignment{}).
		Where("user_id = ? AND branch_id = ? AND is_active = ?", trainerID, batch.BranchID, true).
		Count(&memberCount)
	if memberCount == 0 {
		return nil, fmt.Errorf("该讲师未指派到班级所在分支")
	}

	switch roleInBatch {
	case "":
		roleInBatch = models.TrainerRolePrimary
	case models.TrainerRolePrimary, models.TrainerRoleAssistant, models.TrainerRoleGuest:
	default:
		return nil, fmt.Errorf("非法的班内角色: %s", roleInBatch)
	}

	assignment := models.BatchTrainerAssignment{
		BatchID:     batchID,
		TrainerID:   trainerID,
		AssignedBy:  assignedBy,
		AssignedOn:  time.Now().UTC(),
		IsActive:    true,
		RoleInBatch: roleInBatch,
		Notes:       notes,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "batch_id"}, {Name: "trainer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"assigned_by", "assigned_on", "is_active", "role_in_batch", "notes", "updated_at",
		}),
	}).Create(&assignment).Error
	if err != nil {
		return nil, err
	}

	var saved models.BatchTrainerAssignment
	err = s.db.Where("batch_id = ? AND trainer_id = ?", batchID, trainerID).First(&saved).Error
	return &saved, err
}

// RemoveTrainer 解除讲师指派（保留行）
func (s *BatchService) RemoveTrainer(batchID, trainerID uint) error {
	result := s.db.Model(&models.BatchTrainerAssignment{}).
		Where("batch_id = ? AND trainer_id = ?", batchID, trainerID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetTrainers 获取班级的活跃讲师指派
func (s *BatchService) GetTrainers(batchID uint) ([]models.BatchTrainerAssignment, error) {
	var assignments []models.BatchTrainerAssignment
	err := s.db.Where("batch_id = ? AND is_active = ?", batchID, true).
		Order("assigned_on ASC, id ASC").
		Preload("Trainer").
		Find(&assignments).Error
	return assignments, err
}
