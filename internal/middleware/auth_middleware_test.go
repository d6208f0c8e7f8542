package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eims/internal/access"
	"eims/internal/models"
	pkgerrors "eims/pkg/errors"
	"eims/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMiddlewareTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.RolePermission{},
		&models.BranchAssignment{},
		&models.BatchTrainerAssignment{},
		&models.AuditLog{},
		&models.LoginLog{},
	)
	require.NoError(t, err)
	return db
}

// newProtectedRouter 挂一条受保护的学员列表路由，回显注入的访问决定
func newProtectedRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	sessions := access.NewSessionContextService(db, nil)
	auth := NewAuthMiddleware(db, sessions)

	r := gin.New()
	r.GET("/students",
		auth.RequireLogin(),
		auth.RequireModulePermission(models.ModuleStudents, models.ActionRead),
		func(c *gin.Context) {
			decision := GetDecision(c)
			c.JSON(http.StatusOK, gin.H{
				"code":       pkgerrors.CodeSuccess,
				"effect":     decision.Effect,
				"branch_ids": decision.BranchIDs,
			})
		})
	return r
}

func createMiddlewareUser(t *testing.T, db *gorm.DB, username, role string) (*models.User, string) {
	t.Helper()

	user := &models.User{
		Username: username,
		FullName: username,
		Role:     role,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Test@123"))
	require.NoError(t, db.Create(user).Error)

	token, err := jwt.GetJWTManager().GenerateToken(user.ID, user.Username, user.Role)
	require.NoError(t, err)
	return user, token
}

func doRequest(r *gin.Engine, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRequireLoginRejectsMissingOrBadToken(t *testing.T) {
	db := newMiddlewareTestDB(t)
	r := newProtectedRouter(t, db)

	// 无token
	_, body := doRequest(r, "")
	assert.Equal(t, float64(pkgerrors.CodeUnauthorized), body["code"])

	// 伪token
	_, body = doRequest(r, "not-a-jwt")
	assert.Equal(t, float64(pkgerrors.CodeUnauthorized), body["code"])
}

func TestRequireLoginRejectsDisabledUser(t *testing.T) {
	db := newMiddlewareTestDB(t)
	r := newProtectedRouter(t, db)

	user, token := createMiddlewareUser(t, db, "mw-disabled", models.RoleStaff)
	require.NoError(t, db.Model(user).Update("status", models.UserStatusInactive).Error)

	_, body := doRequest(r, token)
	assert.Equal(t, float64(pkgerrors.CodeUnauthorized), body["code"])
}

func TestRequireModulePermissionDeniesAndAudits(t *testing.T) {
	db := newMiddlewareTestDB(t)
	r := newProtectedRouter(t, db)

	// 有分支指派但权限矩阵无行：缺行=拒绝
	branch := &models.Branch{Name: "分支", Code: "MW1", Status: models.BranchStatusActive}
	require.NoError(t, db.Create(branch).Error)
	user, token := createMiddlewareUser(t, db, "mw-norow", models.RoleStaff)
	require.NoError(t, db.Create(&models.BranchAssignment{
		UserID: user.ID, BranchID: branch.ID, IsActive: true, AssignedOn: time.Now().UTC(),
	}).Error)

	_, body := doRequest(r, token)
	assert.Equal(t, float64(pkgerrors.CodeForbidden), body["code"])

	// 拒绝事件落审计，附带决策快照
	var logs []models.AuditLog
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, string(access.EffectDeny), logs[0].Decision)
	assert.Equal(t, access.ReasonNoPermission, logs[0].Reason)
	assert.Equal(t, models.ModuleStudents, logs[0].Module)
}

func TestRequireModulePermissionDeniesWithoutBranch(t *testing.T) {
	db := newMiddlewareTestDB(t)
	r := newProtectedRouter(t, db)

	// 有模块权限但无分支指派：full 也过不了分支闸门
	require.NoError(t, db.Create(&models.RolePermission{
		Role: models.RoleStaff, Module: models.ModuleStudents,
		PermissionLevel: models.PermissionFull,
	}).Error)
	user, token := createMiddlewareUser(t, db, "mw-nobranch", models.RoleStaff)

	_, body := doRequest(r, token)
	assert.Equal(t, float64(pkgerrors.CodeForbidden), body["code"])

	var log models.AuditLog
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&log).Error)
	assert.Equal(t, access.ReasonNoBranch, log.Reason)
}

func TestRequireModulePermissionInjectsScopedDecision(t *testing.T) {
	db := newMiddlewareTestDB(t)
	r := newProtectedRouter(t, db)

	branch := &models.Branch{Name: "分支", Code: "MW2", Status: models.BranchStatusActive}
	require.NoError(t, db.Create(branch).Error)
	require.NoError(t, db.Create(&models.RolePermission{
		Role: models.RoleStaff, Module: models.ModuleStudents,
		PermissionLevel: models.PermissionWrite,
	}).Error)
	user, token := createMiddlewareUser(t, db, "mw-scoped", models.RoleStaff)
	require.NoError(t, db.Create(&models.BranchAssignment{
		UserID: user.ID, BranchID: branch.ID, IsActive: true, AssignedOn: time.Now().UTC(),
	}).Error)

	w, body := doRequest(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(pkgerrors.CodeSuccess), body["code"])
	assert.Equal(t, string(access.EffectAllowScoped), body["effect"])

	branchIDs, ok := body["branch_ids"].([]interface{})
	require.True(t, ok)
	require.Len(t, branchIDs, 1)
	assert.Equal(t, float64(branch.ID), branchIDs[0])
}

func TestAdminBypassesScope(t *testing.T) {
	db := newMiddlewareTestDB(t)
	r := newProtectedRouter(t, db)

	// admin 无需矩阵行、无需分支指派
	_, token := createMiddlewareUser(t, db, "mw-admin", models.RoleAdmin)

	w, body := doRequest(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(access.EffectAllow), body["effect"])
	assert.Nil(t, body["branch_ids"])
}
