package access

import (
	"eims/internal/models"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Effect 访问决定
type Effect string

const (
	EffectAllow       Effect = "allow"        // 不限范围
	EffectAllowScoped Effect = "allow_scoped" // 限定分支（及班级）范围
	EffectDeny        Effect = "deny"
)

// 拒绝原因常量，供审计与排查
const (
	ReasonAdminBypass     = "admin_bypass"
	ReasonModulePermitted = "module_permitted"
	ReasonNoPermission    = "no_module_permission"
	ReasonNoBranch        = "no_branch_assignment"
	ReasonOutOfScope      = "target_out_of_branch_scope"
	ReasonNoBatch         = "trainer_not_assigned_to_batch"
	ReasonStoreError      = "store_error"
)

// Target 请求针对的具体实体（零值表示模块级操作，无特定目标）
type Target struct {
	BranchID uint // 目标实体的分支归属
	BatchID  uint // 目标班级（batches/attendance 模块的讲师收窄用）
}

// Decision 访问决定 + 审计所需的上下文快照
//
// 解析器只返回决定，不写审计日志；落库由调用方完成。
type Decision struct {
	Effect    Effect `json:"effect"`
	Unscoped  bool   `json:"unscoped"`             // true 表示不做分支过滤（admin或全局模块）
	BranchIDs []uint `json:"branch_ids,omitempty"` // 查询应限定的分支集
	BatchIDs  []uint `json:"batch_ids,omitempty"`  // 讲师收窄后的班级集
	Reason    string `json:"reason"`

	// 决策时刻的主体快照
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	Module string `json:"module"`
	Action string `json:"action"`
}

// Allowed 是否放行
func (d Decision) Allowed() bool {
	return d.Effect == EffectAllow || d.Effect == EffectAllowScoped
}

// ScopeString 分支范围快照的字符串形式，审计落库用；* 表示不限
func (d Decision) ScopeString() string {
	if d.Unscoped {
		return "*"
	}
	parts := make([]string, 0, len(d.BranchIDs))
	for _, id := range d.BranchIDs {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}

// Resolver 访问控制解析器
//
// 模块权限与分支范围是两道相互独立、同时生效的闸门：full 级权限
// 不会绕过分支范围，分支内的请求也过不了没配权限的模块。
type Resolver struct {
	table *PermissionTable
	store *AssignmentStore
}

// NewResolver 创建解析器
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{
		table: NewPermissionTable(db),
		store: NewAssignmentStore(db),
	}
}

// PermissionTable 暴露底层权限矩阵查询器（管理面与报表用）
func (r *Resolver) PermissionTable() *PermissionTable {
	return r.table
}

// AssignmentStore 暴露底层指派存储
func (r *Resolver) AssignmentStore() *AssignmentStore {
	return r.store
}

// Resolve 判定主体能否对模块执行操作，并给出查询范围
//
// 判定顺序：
//  1. admin 直通，不限范围；
//  2. 查权限矩阵，无模块权限立即拒绝，与分支无关；
//  3. 非分支范围模块（courses/settings）到此放行；
//  4. 解析分支范围：跨分支角色取全部活跃指派，分支本地角色取主分支；
//     空范围一律拒绝，绝不解释为"不限"；
//  5. 指定了目标分支时取交集，不在范围内拒绝；
//  6. 讲师对 batches/attendance 追加班级收窄：只限被明确指派的班级。
//
// 返回的 error 仅在存储层故障时非 nil，此时 Decision 恒为拒绝，
// 调用方应转成 5xx；普通拒绝是正常控制流，error 为 nil。
func (r *Resolver) Resolve(principal *SessionContext, module, action string, target Target) (Decision, error) {
	decision := Decision{
		Effect: EffectDeny,
		UserID: principal.UserID,
		Role:   principal.Role,
		Module: module,
		Action: action,
	}

	// 1. admin 直通
	if principal.Role == models.RoleAdmin {
		decision.Effect = EffectAllow
		decision.Unscoped = true
		decision.Reason = ReasonAdminBypass
		return decision, nil
	}

	// 2. 模块权限
	grant, err := r.table.GetGrant(principal.Role, module)
	if err != nil {
		decision.Reason = ReasonStoreError
		return decision, err
	}
	if grant == nil || !grant.Allows(action) {
		decision.Reason = ReasonNoPermission
		return decision, nil
	}

	// 3. 全局模块到此放行
	if !models.IsBranchScopedModule(module) {
		decision.Effect = EffectAllow
		decision.Unscoped = true
		decision.Reason = ReasonModulePermitted
		return decision, nil
	}

	// 4. 分支范围
	var scope []uint
	if models.IsCrossBranchRole(principal.Role) {
		scope = principal.BranchIDs
	} else if principal.PrimaryBranchID != 0 {
		scope = []uint{principal.PrimaryBranchID}
	}
	if len(scope) == 0 {
		// 无分支指派 = 无权限，即使模块权限是 full
		decision.Reason = ReasonNoBranch
		return decision, nil
	}

	// 5. 目标分支交集
	if target.BranchID != 0 && !containsID(scope, target.BranchID) {
		decision.Reason = ReasonOutOfScope
		return decision, nil
	}

	// 6. 讲师班级收窄
	if principal.Role == models.RoleTrainer && models.IsTrainerNarrowedModule(module) {
		batchIDs, err := r.store.ListTrainerBatchIDs(principal.UserID)
		if err != nil {
			decision.Reason = ReasonStoreError
			return decision, err
		}
		if len(batchIDs) == 0 {
			decision.Reason = ReasonNoBatch
			return decision, nil
		}
		if target.BatchID != 0 && !containsID(batchIDs, target.BatchID) {
			decision.Reason = ReasonNoBatch
			return decision, nil
		}
		decision.BatchIDs = batchIDs
	}

	decision.Effect = EffectAllowScoped
	decision.BranchIDs = scope
	decision.Reason = ReasonModulePermitted
	return decision, nil
}

// ScopeQuery 把决定的分支范围应用到查询上
//
// 调用方传入实体的分支列名（如 "branch_id"）。未放行的决定返回
// 恒假条件，宁可查不出数据也不能漏过滤。
func (d Decision) ScopeQuery(query *gorm.DB, branchColumn string) *gorm.DB {
	if !d.Allowed() {
		return query.Where("1 = 0")
	}
	if d.Unscoped {
		return query
	}
	return query.Where(branchColumn+" IN ?", d.BranchIDs)
}

// InScope 判断目标分支是否在决定的范围内
//
// 处理器按ID取到实体后用它做目标校验，避免越过列表过滤直查他支数据。
func (d Decision) InScope(branchID uint) bool {
	if !d.Allowed() {
		return false
	}
	if d.Unscoped {
		return true
	}
	return containsID(d.BranchIDs, branchID)
}

// BatchInScope 判断目标班级是否在讲师收窄后的范围内
//
// 未收窄（非讲师或非班级模块）时恒为真。
func (d Decision) BatchInScope(batchID uint) bool {
	if !d.Allowed() {
		return false
	}
	if len(d.BatchIDs) == 0 {
		return true
	}
	return containsID(d.BatchIDs, batchID)
}

// ScopeBatchQuery 追加讲师的班级收窄
func (d Decision) ScopeBatchQuery(query *gorm.DB, batchColumn string) *gorm.DB {
	if len(d.BatchIDs) == 0 {
		return query
	}
	return query.Where(batchColumn+" IN ?", d.BatchIDs)
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
