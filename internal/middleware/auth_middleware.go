package middleware

import (
	"eims/internal/access"
	"eims/internal/services"
	"eims/pkg/jwt"
	"eims/pkg/response"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// 上下文键常量
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUsername  = "username"
	ContextKeyRole      = "role"
	ContextKeyPrincipal = "principal"
	ContextKeyDecision  = "decision"
)

// AuthMiddleware 认证与访问控制中间件
//
// RequireLogin 只做身份认证并装载会话上下文；模块级的放行与范围
// 判定在 RequireModulePermission 里走解析器，两者总是成对挂载。
type AuthMiddleware struct {
	userService *services.UserService
	jwtManager  *jwt.JWTManager
	sessions    *access.SessionContextService
	resolver    *access.Resolver
	audit       *services.AuditService
}

func NewAuthMiddleware(db *gorm.DB, sessions *access.SessionContextService) *AuthMiddleware {
	return &AuthMiddleware{
		userService: services.NewUserService(db),
		jwtManager:  jwt.GetJWTManager(), // 使用全局JWT管理器
		sessions:    sessions,
		resolver:    access.NewResolver(db),
		audit:       services.NewAuditService(db),
	}
}

// RequireLogin 认证并装载会话上下文
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从Authorization头获取JWT token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		// 检查Bearer格式
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "认证头格式错误")
			c.Abort()
			return
		}

		// 提取token
		tokenString := authHeader[7:] // 去掉 "Bearer "

		// 验证token
		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Token无效或已过期")
			c.Abort()
			return
		}

		// 获取用户信息
		user, err := m.userService.GetByID(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "用户不存在")
			c.Abort()
			return
		}

		// 检查用户状态
		if !m.userService.IsActive(user) {
			response.Unauthorized(c, "用户已被禁用")
			c.Abort()
			return
		}

		// 装载会话上下文（缓存优先，分支范围以此为准而非token）
		principal, err := m.sessions.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			response.ServerError(c, "会话上下文加载失败")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyRole, principal.Role)
		c.Set(ContextKeyPrincipal, principal)

		c.Next()
	}
}

// RequireModulePermission 要求模块权限并注入查询范围
//
// 拒绝时落审计日志；存储层故障转成500，普通拒绝是403。放行后把
// 访问决定放入上下文，处理器用它做范围过滤和目标校验。
func (m *AuthMiddleware) RequireModulePermission(module, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		decision, err := m.resolver.Resolve(principal, module, action, access.Target{})
		if err != nil {
			m.audit.LogDecision(principal, decision, "", 0, c.ClientIP())
			response.ServerError(c, "权限检查失败")
			c.Abort()
			return
		}

		if !decision.Allowed() {
			m.audit.LogDecision(principal, decision, "", 0, c.ClientIP())
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}

		c.Set(ContextKeyDecision, decision)
		c.Next()
	}
}

// GetPrincipal 从上下文取会话上下文
func GetPrincipal(c *gin.Context) *access.SessionContext {
	value, exists := c.Get(ContextKeyPrincipal)
	if !exists {
		return nil
	}
	principal, ok := value.(*access.SessionContext)
	if !ok {
		return nil
	}
	return principal
}

// GetDecision 从上下文取访问决定
func GetDecision(c *gin.Context) access.Decision {
	value, exists := c.Get(ContextKeyDecision)
	if !exists {
		return access.Decision{Effect: access.EffectDeny}
	}
	decision, ok := value.(access.Decision)
	if !ok {
		return access.Decision{Effect: access.EffectDeny}
	}
	return decision
}
