package handlers

import (
	"strconv"

	"eims/internal/access"
	"eims/internal/middleware"
	"eims/internal/services"
	"eims/pkg/pagination"
	"eims/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	userService *services.UserService
	sessions    *access.SessionContextService
	audit       *services.AuditService
}

func NewUserHandler(userService *services.UserService, sessions *access.SessionContextService, audit *services.AuditService) *UserHandler {
	return &UserHandler{
		userService: userService,
		sessions:    sessions,
		audit:       audit,
	}
}

// Create 创建用户
func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=100"`
		FullName string `json:"full_name" binding:"required,min=2,max=100"`
		Email    string `json:"email" binding:"omitempty,email"`
		Role     string `json:"role" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	user, err := h.userService.Create(req.Username, req.FullName, req.Email, req.Role, req.Password)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, user)
}

// GetAll 分页获取用户列表
func (h *UserHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	role := c.Query("role")
	status := c.Query("status")
	keyword := c.Query("keyword")

	users, total, err := h.userService.GetWithPage(role, status, keyword, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询用户失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, users, pageInfo)
}

// GetByID 根据ID获取用户
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	user, err := h.userService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "用户不存在")
		return
	}

	assignments, err := h.userService.GetBranchAssignments(user.ID)
	if err != nil {
		response.ServerError(c, "获取分支指派失败")
		return
	}

	response.Success(c, gin.H{
		"user":        user,
		"assignments": assignments,
	})
}

// Update 更新用户基本信息
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email" binding:"omitempty,email"`
		Status   string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	user, err := h.userService.Update(uint(id), req.FullName, req.Email, req.Status)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, user)
}

// UpdateRole 变更用户全局角色
//
// 角色驱动模块级权限，变更后立即失效该用户的会话上下文。
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	user, err := h.userService.UpdateRole(uint(id), req.Role)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.sessions.Invalidate(c.Request.Context(), user.ID); err != nil {
		response.ServerError(c, "角色已变更但会话失效失败")
		return
	}

	if principal := middleware.GetPrincipal(c); principal != nil {
		h.audit.LogChange(principal, middleware.GetDecision(c), "user", user.ID, c.ClientIP(), map[string]interface{}{
			"change":   "role",
			"new_role": req.Role,
		})
	}

	response.Success(c, user)
}

// Delete 软删除用户
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	if err := h.userService.Delete(uint(id)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.sessions.Invalidate(c.Request.Context(), uint(id)); err != nil {
		response.ServerError(c, "用户已删除但会话失效失败")
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// ResetPassword 重置密码
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "用户ID格式错误")
		return
	}

	var req struct {
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	if err := h.userService.ResetPassword(uint(id), req.NewPassword); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "密码重置成功", nil)
}

// GetLoginLogs 分页查询登录日志
func (h *UserHandler) GetLoginLogs(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	username := c.Query("username")

	logs, total, err := h.userService.GetLoginLogsWithPage(username, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询登录日志失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, logs, pageInfo)
}
