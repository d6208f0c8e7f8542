package models

// Branch 分支机构模型 - 贫血模型，只包含数据结构
type Branch struct {
	BaseModel
	Name        string `json:"name" gorm:"unique;not null;size:100"`
	Code        string `json:"code" gorm:"unique;not null;size:20;index"` // 如 FR001
	Address     string `json:"address" gorm:"size:255"`
	City        string `json:"city" gorm:"size:50"`
	State       string `json:"state" gorm:"size:50"`
	Phone       string `json:"phone" gorm:"size:20"`
	Email       string `json:"email" gorm:"size:100"`
	ManagerName string `json:"manager_name" gorm:"size:100"`
	BranchType  string `json:"branch_type" gorm:"default:'Franchise';size:20"` // Corporate/Franchise
	Status      string `json:"status" gorm:"default:'Active';size:20"`
	IsDeleted   bool   `json:"is_deleted" gorm:"default:false;index"`
}

// TableName 表名
func (b *Branch) TableName() string {
	return "branches"
}

// 分支机构状态常量
const (
	BranchStatusActive   = "Active"
	BranchStatusInactive = "Inactive"
)

// 分支机构类型常量
const (
	BranchTypeCorporate = "Corporate"
	BranchTypeFranchise = "Franchise"
)
