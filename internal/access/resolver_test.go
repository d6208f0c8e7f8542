package access

import (
	"eims/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func principal(user *models.User, branchIDs ...uint) *SessionContext {
	sc := &SessionContext{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		BranchIDs: branchIDs,
	}
	if len(branchIDs) > 0 {
		sc.PrimaryBranchID = branchIDs[0]
	}
	return sc
}

// admin 对任何模块/操作直通，不限分支范围
func TestResolve_AdminBypass(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)
	admin := createUser(t, db, "admin", models.RoleAdmin)

	// 权限矩阵为空、无任何分支指派，admin 依然放行
	for _, module := range []string{models.ModuleStudents, models.ModuleFinance, models.ModuleSettings} {
		for _, action := range []string{models.ActionRead, models.ActionDelete, models.ActionExport} {
			decision, err := resolver.Resolve(principal(admin), module, action, Target{})
			require.NoError(t, err)
			assert.Equal(t, EffectAllow, decision.Effect)
			assert.True(t, decision.Unscoped)
			assert.Equal(t, "*", decision.ScopeString())
		}
	}
}

// 非 admin 且分支集为空：即使模块权限是 full，分支范围模块一律拒绝
func TestResolve_EmptyBranchSetDenies(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	rm := createUser(t, db, "rm", models.RoleRegionalManager)
	seedGrant(t, db, models.RoleRegionalManager, models.ModuleFinance, models.PermissionFull, true, true, true, true)

	decision, err := resolver.Resolve(principal(rm), models.ModuleFinance, models.ActionRead, Target{})
	require.NoError(t, err)
	assert.Equal(t, EffectDeny, decision.Effect)
	assert.Equal(t, ReasonNoBranch, decision.Reason, "空分支集必须是拒绝，绝不是不限范围")
}

// 模块权限与分支范围是独立闸门：full 级也出不了自己的分支
func TestResolve_ScopeIntersection(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	bm := createUser(t, db, "bm", models.RoleBranchManager)
	b7 := createBranch(t, db, "Seven")
	b9 := createBranch(t, db, "Nine")
	seedGrant(t, db, models.RoleBranchManager, models.ModuleBatches, models.PermissionFull, true, true, true, true)

	// 本分支目标：放行并限定范围
	decision, err := resolver.Resolve(principal(bm, b7.ID), models.ModuleBatches, models.ActionWrite, Target{BranchID: b7.ID})
	require.NoError(t, err)
	assert.Equal(t, EffectAllowScoped, decision.Effect)
	assert.Equal(t, []uint{b7.ID}, decision.BranchIDs)

	// 其他分支目标：full 权限也拒绝
	decision, err = resolver.Resolve(principal(bm, b7.ID), models.ModuleBatches, models.ActionWrite, Target{BranchID: b9.ID})
	require.NoError(t, err)
	assert.Equal(t, EffectDeny, decision.Effect)
	assert.Equal(t, ReasonOutOfScope, decision.Reason)
}

// 示例场景：branch_manager 对 students 有 write 级但无删除位
func TestResolve_WriteLevelDoesNotImplyDelete(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	bm := createUser(t, db, "bm7", models.RoleBranchManager)
	b7 := createBranch(t, db, "Branch7")
	seedGrant(t, db, models.RoleBranchManager, models.ModuleStudents, models.PermissionWrite,
		true, true, false /*can_delete*/, true)

	// 本分支 delete：模块级就被拒，与分支无关
	decision, err := resolver.Resolve(principal(bm, b7.ID), models.ModuleStudents, models.ActionDelete, Target{BranchID: b7.ID})
	require.NoError(t, err)
	assert.Equal(t, EffectDeny, decision.Effect)
	assert.Equal(t, ReasonNoPermission, decision.Reason)

	// 本分支 write：放行
	decision, err = resolver.Resolve(principal(bm, b7.ID), models.ModuleStudents, models.ActionWrite, Target{BranchID: b7.ID})
	require.NoError(t, err)
	assert.Equal(t, EffectAllowScoped, decision.Effect)

	// 外分支 write：范围拒绝
	b9 := createBranch(t, db, "Branch9")
	decision, err = resolver.Resolve(principal(bm, b7.ID), models.ModuleStudents, models.ActionWrite, Target{BranchID: b9.ID})
	require.NoError(t, err)
	assert.Equal(t, EffectDeny, decision.Effect)
}

// 示例场景：franchise 指派到 {3,5}，5 放行、8 拒绝
func TestResolve_FranchiseMultiBranch(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	fr := createUser(t, db, "fr", models.RoleFranchise)
	b3 := createBranch(t, db, "Three")
	b5 := createBranch(t, db, "Five")
	b8 := createBranch(t, db, "Eight")
	seedGrant(t, db, models.RoleFranchise, models.ModuleFinance, models.PermissionWrite, true, true, false, true)

	decision, err := resolver.Resolve(principal(fr, b3.ID, b5.ID), models.ModuleFinance, models.ActionRead, Target{BranchID: b5.ID})
	require.NoError(t, err)
	assert.Equal(t, EffectAllowScoped, decision.Effect)
	assert.Equal(t, []uint{b3.ID, b5.ID}, decision.BranchIDs)

	decision, err = resolver.Resolve(principal(fr, b3.ID, b5.ID), models.ModuleFinance, models.ActionRead, Target{BranchID: b8.ID})
	require.NoError(t, err)
	assert.Equal(t, EffectDeny, decision.Effect)
	assert.Equal(t, ReasonOutOfScope, decision.Reason)
}

// 讲师收窄：同分支内未被指派的班级也要拒绝
func TestResolve_TrainerBatchNarrowing(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	branch := createBranch(t, db, "B")
	trainer := createUser(t, db, "tr", models.RoleTrainer)
	batchX := createBatch(t, db, "BX", branch.ID)
	batchY := createBatch(t, db, "BY", branch.ID)

	seedGrant(t, db, models.RoleTrainer, models.ModuleAttendance, models.PermissionWrite, false, true, false, true)
	require.NoError(t, db.Create(&models.BatchTrainerAssignment{
		BatchID:   batchX.ID,
		TrainerID: trainer.ID,
		IsActive:  true,
	}).Error)

	// 被指派的班级 X：放行且范围带班级收窄
	decision, err := resolver.Resolve(principal(trainer, branch.ID), models.ModuleAttendance, models.ActionWrite,
		Target{BranchID: branch.ID, BatchID: batchX.ID})
	require.NoError(t, err)
	assert.Equal(t, EffectAllowScoped, decision.Effect)
	assert.Equal(t, []uint{batchX.ID}, decision.BatchIDs)

	// 同分支的班级 Y：拒绝
	decision, err = resolver.Resolve(principal(trainer, branch.ID), models.ModuleAttendance, models.ActionWrite,
		Target{BranchID: branch.ID, BatchID: batchY.ID})
	require.NoError(t, err)
	assert.Equal(t, EffectDeny, decision.Effect)
	assert.Equal(t, ReasonNoBatch, decision.Reason)
}

// 讲师无任何班级指派时，班级收窄模块整体拒绝
func TestResolve_TrainerWithoutBatchesDenied(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	branch := createBranch(t, db, "NB")
	trainer := createUser(t, db, "tr0", models.RoleTrainer)
	seedGrant(t, db, models.RoleTrainer, models.ModuleBatches, models.PermissionRead, false, false, false, false)

	decision, err := resolver.Resolve(principal(trainer, branch.ID), models.ModuleBatches, models.ActionRead, Target{})
	require.NoError(t, err)
	assert.Equal(t, EffectDeny, decision.Effect)
	assert.Equal(t, ReasonNoBatch, decision.Reason)
}

// 讲师收窄只作用于 batches/attendance，students 只按分支过滤
func TestResolve_TrainerNarrowingOnlyForBatchModules(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	branch := createBranch(t, db, "SR")
	trainer := createUser(t, db, "tr1", models.RoleTrainer)
	seedGrant(t, db, models.RoleTrainer, models.ModuleStudents, models.PermissionRead, false, false, false, false)

	decision, err := resolver.Resolve(principal(trainer, branch.ID), models.ModuleStudents, models.ActionRead, Target{})
	require.NoError(t, err)
	assert.Equal(t, EffectAllowScoped, decision.Effect)
	assert.Empty(t, decision.BatchIDs)
}

// 全局模块（courses）通过模块权限后不做分支过滤
func TestResolve_GlobalModuleSkipsBranchScope(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	staff := createUser(t, db, "st", models.RoleStaff)
	seedGrant(t, db, models.RoleStaff, models.ModuleCourses, models.PermissionRead, false, false, false, false)

	// 无分支指派也能读全局模块
	decision, err := resolver.Resolve(principal(staff), models.ModuleCourses, models.ActionRead, Target{})
	require.NoError(t, err)
	assert.Equal(t, EffectAllow, decision.Effect)
	assert.True(t, decision.Unscoped)
}

// 未放行的决定应用到查询时必须是恒假条件
func TestScopeQuery_DenyMatchesNothing(t *testing.T) {
	db := newTestDB(t)

	branch := createBranch(t, db, "SQ")
	createBatch(t, db, "sq1", branch.ID)

	deny := Decision{Effect: EffectDeny}
	var batches []models.Batch
	require.NoError(t, deny.ScopeQuery(db.Model(&models.Batch{}), "branch_id").Find(&batches).Error)
	assert.Empty(t, batches)

	scoped := Decision{Effect: EffectAllowScoped, BranchIDs: []uint{branch.ID}}
	require.NoError(t, scoped.ScopeQuery(db.Model(&models.Batch{}), "branch_id").Find(&batches).Error)
	assert.Len(t, batches, 1)
}

// 存储层故障：决定恒为拒绝且返回错误，调用方转 5xx，绝不放行
func TestResolve_StoreErrorFailsClosed(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	user := createUser(t, db, "err", models.RoleStaff)
	branch := createBranch(t, db, "ERR")
	seedGrant(t, db, models.RoleStaff, models.ModuleStudents, models.PermissionRead, false, false, false, false)

	// 删除权限表模拟存储故障
	require.NoError(t, db.Migrator().DropTable(&models.RolePermission{}))

	decision, err := resolver.Resolve(principal(user, branch.ID), models.ModuleStudents, models.ActionRead, Target{})
	assert.Error(t, err)
	assert.Equal(t, EffectDeny, decision.Effect)
	assert.Equal(t, ReasonStoreError, decision.Reason)
	assert.False(t, decision.Allowed())
}
