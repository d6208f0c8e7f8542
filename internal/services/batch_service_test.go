package services

import (
	"eims/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func assignToBranch(t *testing.T, db *gorm.DB, userID, branchID uint) {
	t.Helper()

	store := &models.BranchAssignment{
		UserID:   userID,
		BranchID: branchID,
		IsActive: true,
	}
	require.NoError(t, db.Create(store).Error)
}

func TestAssignTrainerIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewBatchService(db)

	branch := createTestBranch(t, db, "BAT1")
	course := createTestCourse(t, db, "BAT1-C")
	batch := createTestBatch(t, db, "一班", course.ID, branch.ID)
	trainer := createTestUser(t, db, "trainer-bat1", models.RoleTrainer)
	assignToBranch(t, db, trainer.ID, branch.ID)

	first, err := svc.AssignTrainer(batch.ID, trainer.ID, nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.TrainerRolePrimary, first.RoleInBatch)
	assert.True(t, first.IsActive)

	// 重复指派不产生第二行，只覆盖已有行
	second, err := svc.AssignTrainer(batch.ID, trainer.ID, nil, models.TrainerRoleAssistant, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.TrainerRoleAssistant, second.RoleInBatch)

	var count int64
	db.Model(&models.BatchTrainerAssignment{}).
		Where("batch_id = ? AND trainer_id = ?", batch.ID, trainer.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAssignTrainerRequiresBranchMembership(t *testing.T) {
	db := newTestDB(t)
	svc := NewBatchService(db)

	branch := createTestBranch(t, db, "BAT2")
	course := createTestCourse(t, db, "BAT2-C")
	batch := createTestBatch(t, db, "二班", course.ID, branch.ID)

	// 讲师没有该分支的活跃指派
	outsider := createTestUser(t, db, "trainer-bat2", models.RoleTrainer)

	_, err := svc.AssignTrainer(batch.ID, outsider.ID, nil, "", "")
	assert.Error(t, err)
}

func TestAssignTrainerRejectsNonTrainer(t *testing.T) {
	db := newTestDB(t)
	svc := NewBatchService(db)

	branch := createTestBranch(t, db, "BAT3")
	course := createTestCourse(t, db, "BAT3-C")
	batch := createTestBatch(t, db, "三班", course.ID, branch.ID)
	staff := createTestUser(t, db, "staff-bat3", models.RoleStaff)
	assignToBranch(t, db, staff.ID, branch.ID)

	_, err := svc.AssignTrainer(batch.ID, staff.ID, nil, "", "")
	assert.Error(t, err)
}

func TestRemoveTrainerKeepsRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewBatchService(db)

	branch := createTestBranch(t, db, "BAT4")
	course := createTestCourse(t, db, "BAT4-C")
	batch := createTestBatch(t, db, "四班", course.ID, branch.ID)
	trainer := createTestUser(t, db, "trainer-bat4", models.RoleTrainer)
	assignToBranch(t, db, trainer.ID, branch.ID)

	_, err := svc.AssignTrainer(batch.ID, trainer.ID, nil, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveTrainer(batch.ID, trainer.ID))

	// 行保留，只置 is_active=false
	var assignment models.BatchTrainerAssignment
	require.NoError(t, db.Where("batch_id = ? AND trainer_id = ?", batch.ID, trainer.ID).First(&assignment).Error)
	assert.False(t, assignment.IsActive)

	// 活跃讲师列表为空
	trainers, err := svc.GetTrainers(batch.ID)
	require.NoError(t, err)
	assert.Empty(t, trainers)

	// 不存在的指派报错
	assert.ErrorIs(t, svc.RemoveTrainer(batch.ID, 9999), gorm.ErrRecordNotFound)
}

func TestRemoveTrainerThenReassignReactivates(t *testing.T) {
	db := newTestDB(t)
	svc := NewBatchService(db)

	branch := createTestBranch(t, db, "BAT5")
	course := createTestCourse(t, db, "BAT5-C")
	batch := createTestBatch(t, db, "五班", course.ID, branch.ID)
	trainer := createTestUser(t, db, "trainer-bat5", models.RoleTrainer)
	assignToBranch(t, db, trainer.ID, branch.ID)

	first, err := svc.AssignTrainer(batch.ID, trainer.ID, nil, "", "")
	require.NoError(t, err)
	require.NoError(t, svc.RemoveTrainer(batch.ID, trainer.ID))

	// 重新指派复用同一行
	again, err := svc.AssignTrainer(batch.ID, trainer.ID, nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.IsActive)
}
