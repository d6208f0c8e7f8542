package handlers

import (
	"strconv"

	"eims/internal/services"
	"eims/pkg/pagination"
	"eims/pkg/response"

	"github.com/gin-gonic/gin"
)

// BranchHandler 分支机构处理器
type BranchHandler struct {
	branchService *services.BranchService
}

func NewBranchHandler(branchService *services.BranchService) *BranchHandler {
	return &BranchHandler{branchService: branchService}
}

// Create 创建分支机构
func (h *BranchHandler) Create(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required,min=2,max=100"`
		Code       string `json:"code" binding:"required,min=2,max=20"`
		City       string `json:"city" binding:"max=100"`
		BranchType string `json:"branch_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	branch, err := h.branchService.Create(req.Name, req.Code, req.City, req.BranchType)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, branch)
}

// GetAll 分页获取分支机构列表
func (h *BranchHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)
	status := c.Query("status")
	branchType := c.Query("branch_type")
	keyword := c.Query("keyword")

	branches, total, err := h.branchService.GetWithFiltersAndPage(status, branchType, keyword, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询分支机构失败")
		return
	}

	pageInfo := pagination.NewPageInfo(params.Page, params.PageSize, total)
	response.SuccessWithPage(c, branches, pageInfo)
}

// GetByID 根据ID获取分支机构
func (h *BranchHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "分支ID格式错误")
		return
	}

	branch, err := h.branchService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "分支机构不存在")
		return
	}

	response.Success(c, branch)
}

// Update 更新分支机构
func (h *BranchHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "分支ID格式错误")
		return
	}

	var req struct {
		Name   string `json:"name"`
		City   string `json:"city"`
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	branch, err := h.branchService.Update(uint(id), req.Name, req.City, req.Status)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, branch)
}

// Delete 软删除分支机构
func (h *BranchHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "分支ID格式错误")
		return
	}

	if err := h.branchService.Delete(uint(id)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// GetStats 分支机构统计
func (h *BranchHandler) GetStats(c *gin.Context) {
	stats, err := h.branchService.GetStats()
	if err != nil {
		response.ServerError(c, "查询统计失败")
		return
	}

	response.Success(c, stats)
}
