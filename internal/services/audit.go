package services

import (
	"eims/internal/access"
	"eims/internal/models"
	"eims/pkg/logger"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditService 审计日志
//
// 解析器只产出决定，落库在这里：所有拒绝访问事件与敏感变更都
// 附带决策时刻的会话上下文快照。
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// LogDecision 记录一次访问决定（通常只记拒绝）
func (s *AuditService) LogDecision(principal *access.SessionContext, decision access.Decision, targetType string, targetID uint, ip string) {
	s.write(principal, decision.ScopeString(), decision.Module, decision.Action,
		targetType, targetID, string(decision.Effect), decision.Reason, ip, nil)
}

// LogChange 记录一次敏感变更（放行后的写操作）
func (s *AuditService) LogChange(principal *access.SessionContext, decision access.Decision, targetType string, targetID uint, ip string, details map[string]interface{}) {
	s.write(principal, decision.ScopeString(), decision.Module, decision.Action,
		targetType, targetID, models.AuditDecisionAllow, decision.Reason, ip, details)
}

func (s *AuditService) write(principal *access.SessionContext, scope, module, action, targetType string, targetID uint, decision, reason, ip string, details map[string]interface{}) {
	log := &models.AuditLog{
		RequestID:   uuid.New().String(),
		UserID:      principal.UserID,
		Username:    principal.Username,
		Role:        principal.Role,
		BranchScope: scope,
		Module:      module,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Decision:    decision,
		Reason:      reason,
		IP:          ip,
	}

	if details != nil {
		if data, err := json.Marshal(details); err == nil {
			log.Details = data
		}
	}

	// 审计写失败不阻断请求，但必须留痕
	if err := s.db.Create(log).Error; err != nil {
		logger.GetLogger().Errorf("审计日志写入失败 user=%d module=%s: %v", principal.UserID, module, err)
	}
}

// GetWithPage 分页查询审计日志
func (s *AuditService) GetWithPage(module, decision string, userID uint, page, pageSize int) ([]*models.AuditLog, int64, error) {
	var logs []*models.AuditLog
	var total int64

	query := s.db.Model(&models.AuditLog{})

	if module != "" {
		query = query.Where("module = ?", module)
	}
	if decision != "" {
		query = query.Where("decision = ?", decision)
	}
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&logs).Error
	return logs, total, err
}
