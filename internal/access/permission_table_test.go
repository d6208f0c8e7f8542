package access

import (
	"eims/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 矩阵中不存在的 (role, module) 组合，任何操作都必须拒绝
func TestHasAction_DenyByDefault(t *testing.T) {
	db := newTestDB(t)
	table := NewPermissionTable(db)

	actions := []string{
		models.ActionRead, models.ActionWrite, models.ActionFull,
		models.ActionExport, models.ActionModify, models.ActionDelete, models.ActionCreate,
	}
	for _, action := range actions {
		assert.False(t, table.HasAction(models.RoleStaff, models.ModuleFinance, action),
			"缺行时 %s 不应放行", action)
	}
}

func TestHasAction_LevelHierarchy(t *testing.T) {
	db := newTestDB(t)
	table := NewPermissionTable(db)

	seedGrant(t, db, models.RoleStaff, models.ModuleStudents, models.PermissionRead, false, false, false, false)
	seedGrant(t, db, models.RoleBranchManager, models.ModuleStudents, models.PermissionWrite, false, false, false, false)
	seedGrant(t, db, models.RoleRegionalManager, models.ModuleStudents, models.PermissionFull, false, false, false, false)

	// read 级只有读
	assert.True(t, table.HasAction(models.RoleStaff, models.ModuleStudents, models.ActionRead))
	assert.False(t, table.HasAction(models.RoleStaff, models.ModuleStudents, models.ActionWrite))
	assert.False(t, table.HasAction(models.RoleStaff, models.ModuleStudents, models.ActionFull))

	// write 级包含读写，不含 full
	assert.True(t, table.HasAction(models.RoleBranchManager, models.ModuleStudents, models.ActionRead))
	assert.True(t, table.HasAction(models.RoleBranchManager, models.ModuleStudents, models.ActionWrite))
	assert.False(t, table.HasAction(models.RoleBranchManager, models.ModuleStudents, models.ActionFull))

	// full 级三者皆有
	assert.True(t, table.HasAction(models.RoleRegionalManager, models.ModuleStudents, models.ActionRead))
	assert.True(t, table.HasAction(models.RoleRegionalManager, models.ModuleStudents, models.ActionWrite))
	assert.True(t, table.HasAction(models.RoleRegionalManager, models.ModuleStudents, models.ActionFull))
}

// 细粒度布尔位独立于等级：write 级不等于可删除
func TestHasAction_FlagsIndependentOfLevel(t *testing.T) {
	db := newTestDB(t)
	table := NewPermissionTable(db)

	seedGrant(t, db, models.RoleBranchManager, models.ModuleStudents, models.PermissionWrite,
		true /*export*/, true /*modify*/, false /*delete*/, true /*create*/)

	assert.True(t, table.HasAction(models.RoleBranchManager, models.ModuleStudents, models.ActionExport))
	assert.True(t, table.HasAction(models.RoleBranchManager, models.ModuleStudents, models.ActionModify))
	assert.True(t, table.HasAction(models.RoleBranchManager, models.ModuleStudents, models.ActionCreate))
	assert.False(t, table.HasAction(models.RoleBranchManager, models.ModuleStudents, models.ActionDelete),
		"write 级不应推导出删除权")

	// 反过来：full 级但布尔位全关时，export/delete 仍拒绝
	seedGrant(t, db, models.RoleFranchise, models.ModuleReports, models.PermissionFull, false, false, false, false)
	assert.True(t, table.HasAction(models.RoleFranchise, models.ModuleReports, models.ActionFull))
	assert.False(t, table.HasAction(models.RoleFranchise, models.ModuleReports, models.ActionExport))
	assert.False(t, table.HasAction(models.RoleFranchise, models.ModuleReports, models.ActionDelete))
}

func TestHasAction_UnknownActionDenied(t *testing.T) {
	db := newTestDB(t)
	table := NewPermissionTable(db)

	seedGrant(t, db, models.RoleAdmin, models.ModuleSettings, models.PermissionFull, true, true, true, true)
	assert.False(t, table.HasAction(models.RoleAdmin, models.ModuleSettings, "escalate"))
}

func TestGetGrant_MissingRowIsNotError(t *testing.T) {
	db := newTestDB(t)
	table := NewPermissionTable(db)

	grant, err := table.GetGrant(models.RoleParent, models.ModuleFinance)
	require.NoError(t, err, "缺行是配置缺口，不是错误")
	assert.Nil(t, grant)
}
