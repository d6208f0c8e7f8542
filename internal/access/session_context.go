package access

import (
	"context"
	"eims/internal/models"
	"eims/pkg/cache"
	"eims/pkg/logger"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SessionContext 登录时解析好的会话上下文
//
// 每次登录构建一次并缓存，请求期间只读。分支指派变更后旧会话在
// 缓存失效前仍按旧范围放行——这是已声明的时效窗口，管理面变更
// 指派时必须调用 Invalidate 主动失效，否则以重新登录为准。
type SessionContext struct {
	UserID          uint      `json:"user_id"`
	Username        string    `json:"username"`
	Role            string    `json:"role"`
	BranchIDs       []uint    `json:"branch_ids"`        // 活跃分支，有序去重；空=无分支权限
	PrimaryBranchID uint      `json:"primary_branch_id"` // 首个指派的分支，0=无
	BuiltAt         time.Time `json:"built_at"`
}

// HasBranch 判断分支是否在会话范围内
func (sc *SessionContext) HasBranch(branchID uint) bool {
	for _, id := range sc.BranchIDs {
		if id == branchID {
			return true
		}
	}
	return false
}

// SessionContextService 会话上下文的构建与缓存
type SessionContextService struct {
	db    *gorm.DB
	store *AssignmentStore
	cache *cache.SessionCache // 可为nil（测试或Redis不可用时退化为每次重建）
}

// NewSessionContextService 创建会话上下文服务
func NewSessionContextService(db *gorm.DB, sessionCache *cache.SessionCache) *SessionContextService {
	return &SessionContextService{
		db:    db,
		store: NewAssignmentStore(db),
		cache: sessionCache,
	}
}

// Build 构建会话上下文并写缓存
//
// 角色取用户实体的全局 role，分支集取活跃指派。空分支集原样缓存，
// 绝不放大成"全部分支"——那是会泄漏跨分支数据的反向失败。
func (s *SessionContextService) Build(ctx context.Context, userID uint) (*SessionContext, error) {
	var user models.User
	err := s.db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("读取用户失败: %w", err)
	}

	branchIDs, err := s.store.ListActiveBranchIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("读取分支指派失败: %w", err)
	}

	sc := &SessionContext{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		BranchIDs: branchIDs,
		BuiltAt:   time.Now().UTC(),
	}
	if len(branchIDs) > 0 {
		sc.PrimaryBranchID = branchIDs[0]
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, sc); err != nil {
			// 缓存写失败只降级为每请求重建，不影响正确性
			logger.GetLogger().Warnf("会话上下文写缓存失败 user=%d: %v", userID, err)
		}
	}

	return sc, nil
}

// Get 获取会话上下文，缓存优先，未命中或缓存故障时重建
func (s *SessionContextService) Get(ctx context.Context, userID uint) (*SessionContext, error) {
	if s.cache != nil {
		var sc SessionContext
		err := s.cache.Get(ctx, userID, &sc)
		if err == nil {
			return &sc, nil
		}
		if !cache.IsMiss(err) {
			logger.GetLogger().Warnf("会话上下文读缓存失败 user=%d: %v", userID, err)
		}
	}
	return s.Build(ctx, userID)
}

// Invalidate 强制失效会话上下文
//
// 管理面修改用户角色或分支指派后必须调用，下次访问检查时重建。
func (s *SessionContextService) Invalidate(ctx context.Context, userID uint) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, userID)
}
