package handlers

import (
	"strconv"

	"eims/internal/services"
	"eims/pkg/pagination"
	"eims/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuditHandler 审计日志处理器
type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GetAll 分页查询审计日志
func (h *AuditHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	module := c.Query("module")
	decision := c.Query("decision")

	var userID uint
	if v := c.Query("user_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.BadRequest(c, "用户ID格式错误")
			return
		}
		userID = uint(parsed)
	}

	logs, total, err := h.auditService.GetWithPage(module, decision, userID, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询审计日志失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, logs, pageInfo)
}
