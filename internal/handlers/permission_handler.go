package handlers

import (
	"eims/internal/middleware"
	"eims/internal/services"
	"eims/pkg/pagination"
	"eims/pkg/response"

	"github.com/gin-gonic/gin"
)

// PermissionHandler 权限矩阵处理器
type PermissionHandler struct {
	permissionService *services.PermissionService
	audit             *services.AuditService
}

func NewPermissionHandler(permissionService *services.PermissionService, audit *services.AuditService) *PermissionHandler {
	return &PermissionHandler{
		permissionService: permissionService,
		audit:             audit,
	}
}

// GetAll 分页获取权限矩阵
func (h *PermissionHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	role := c.Query("role")
	module := c.Query("module")

	grants, total, err := h.permissionService.GetWithPage(role, module, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询权限矩阵失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, grants, pageInfo)
}

// GetByRole 获取角色的全部权限行
func (h *PermissionHandler) GetByRole(c *gin.Context) {
	role := c.Param("role")

	grants, err := h.permissionService.GetByRole(role)
	if err != nil {
		response.ServerError(c, "查询角色权限失败")
		return
	}

	response.Success(c, grants)
}

// UpdateGrant 更新 (role, module) 的权限行
//
// 权限矩阵每请求现查，变更即刻生效，无需失效会话。变更落审计日志。
func (h *PermissionHandler) UpdateGrant(c *gin.Context) {
	var req struct {
		Role            string `json:"role" binding:"required"`
		Module          string `json:"module" binding:"required"`
		PermissionLevel string `json:"permission_level" binding:"required,oneof=none read write full"`
		CanExport       bool   `json:"can_export"`
		CanModify       bool   `json:"can_modify"`
		CanDelete       bool   `json:"can_delete"`
		CanCreate       bool   `json:"can_create"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	grant, err := h.permissionService.UpdateGrant(req.Role, req.Module, req.PermissionLevel,
		req.CanExport, req.CanModify, req.CanDelete, req.CanCreate)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if principal := middleware.GetPrincipal(c); principal != nil {
		h.audit.LogChange(principal, middleware.GetDecision(c), "role_permission", grant.ID, c.ClientIP(), map[string]interface{}{
			"role":             req.Role,
			"module":           req.Module,
			"permission_level": req.PermissionLevel,
			"can_export":       req.CanExport,
			"can_modify":       req.CanModify,
			"can_delete":       req.CanDelete,
			"can_create":       req.CanCreate,
		})
	}

	response.Success(c, grant)
}
