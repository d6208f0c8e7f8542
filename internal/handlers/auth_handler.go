package handlers

import (
	"time"

	"eims/internal/access"
	"eims/internal/services"
	"eims/pkg/jwt"
	"eims/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService *services.UserService
	sessions    *access.SessionContextService
	jwtManager  *jwt.JWTManager
}

func NewAuthHandler(userService *services.UserService, sessions *access.SessionContextService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
		jwtManager:  jwt.GetJWTManager(), // 使用全局JWT管理器
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expires_at"`
	User      UserInfo `json:"user"`
}

type UserInfo struct {
	ID              uint   `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	BranchIDs       []uint `json:"branch_ids"`
	PrimaryBranchID uint   `json:"primary_branch_id"`
}

// Login 用户登录
//
// 认证通过后构建并缓存会话上下文，分支范围以会话上下文为准，
// 令牌只携带身份。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	user, err := h.userService.Authenticate(req.Username, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}

	// 构建会话上下文（解析活跃分支指派并写缓存）
	principal, err := h.sessions.Build(c.Request.Context(), user.ID)
	if err != nil {
		response.ServerError(c, "会话上下文构建失败")
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		response.ServerError(c, "生成Token失败")
		return
	}

	expiresAt := time.Now().Add(h.jwtManager.GetTokenDuration()).Unix()

	resp := LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: UserInfo{
			ID:              user.ID,
			Username:        user.Username,
			FullName:        user.FullName,
			Email:           user.Email,
			Role:            user.Role,
			BranchIDs:       principal.BranchIDs,
			PrimaryBranchID: principal.PrimaryBranchID,
		},
	}

	response.Success(c, resp)
}

// Logout 用户登出，主动失效会话上下文
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if exists {
		if err := h.sessions.Invalidate(c.Request.Context(), userID.(uint)); err != nil {
			response.ServerError(c, "会话失效失败")
			return
		}
	}

	response.Success(c, gin.H{
		"message":     "登出成功",
		"logout_time": time.Now(),
	})
}

// RefreshToken 刷新Token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) <= 7 || authHeader[:7] != "Bearer " {
		response.Unauthorized(c, "认证头格式错误")
		return
	}
	tokenString := authHeader[7:]

	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		response.Unauthorized(c, "Token无效")
		return
	}

	user, err := h.userService.GetByID(claims.UserID)
	if err != nil {
		response.Unauthorized(c, "用户不存在")
		return
	}
	if !h.userService.IsActive(user) {
		response.Unauthorized(c, "用户已被禁用")
		return
	}

	// 角色可能已变更，用用户实体的当前角色重签
	newToken, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		response.ServerError(c, "生成新Token失败")
		return
	}

	expiresAt := time.Now().Add(h.jwtManager.GetTokenDuration()).Unix()

	response.Success(c, gin.H{
		"token":      newToken,
		"expires_at": expiresAt,
		"message":    "Token刷新成功",
	})
}

// Me 获取当前登录用户的完整信息
func (h *AuthHandler) Me(c *gin.Context) {
	principalValue, exists := c.Get("principal")
	if !exists {
		response.Unauthorized(c, "未登录")
		return
	}
	principal := principalValue.(*access.SessionContext)

	user, err := h.userService.GetByID(principal.UserID)
	if err != nil {
		response.NotFound(c, "用户不存在")
		return
	}

	assignments, err := h.userService.GetBranchAssignments(user.ID)
	if err != nil {
		response.ServerError(c, "获取分支指派失败")
		return
	}

	branches := make([]gin.H, 0, len(assignments))
	for _, a := range assignments {
		item := gin.H{
			"branch_id":      a.BranchID,
			"role_at_branch": a.RoleAtBranch,
			"assigned_on":    a.AssignedOn,
			"is_primary":     a.BranchID == principal.PrimaryBranchID,
		}
		if a.Branch != nil {
			item["branch_name"] = a.Branch.Name
			item["branch_code"] = a.Branch.Code
		}
		branches = append(branches, item)
	}

	response.Success(c, gin.H{
		"user": gin.H{
			"id":            user.ID,
			"username":      user.Username,
			"full_name":     user.FullName,
			"email":         user.Email,
			"role":          user.Role,
			"status":        user.Status,
			"created_at":    user.CreatedAt,
			"last_login_at": user.LastLoginAt,
		},
		"branches":          branches,
		"primary_branch_id": principal.PrimaryBranchID,
		"session_built_at":  principal.BuiltAt,
	})
}
