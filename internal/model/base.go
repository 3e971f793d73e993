// Package model 定义数据库实体模型
// 所有业务表内嵌 gorm.Model（软删除 + 时间戳）和 Audit（操作人）
package model

// Audit 审计字段，记录创建人与最后修改人
type Audit struct {
	CreatorID uint `gorm:"column:creator_id;comment:创建人" json:"creatorId"`
	UpdaterID uint `gorm:"column:updater_id;comment:最后修改人" json:"updaterId"`
}

// 用户角色
const (
	RoleAdmin     = "admin"
	RolePrincipal = "principal" // 园长
	RoleTeacher   = "teacher"
	RoleParent    = "parent"
)

// ValidRole 角色是否合法
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RolePrincipal, RoleTeacher, RoleParent:
		return true
	}
	return false
}

// IsStaff 管理端角色（管理员、园长）
func IsStaff(role string) bool {
	return role == RoleAdmin || role == RolePrincipal
}

// AllModels 返回需要自动迁移的全部模型
func AllModels() []any {
	return []any{
		&User{},
		&Kindergarten{},
		&Class{},
		&Teacher{},
		&Student{},
		&Guardian{},
		&EnrollmentApplication{},
		&Activity{},
		&ActivityRegistration{},
		&Order{},
		&GroupBuy{},
		&GroupBuyParticipant{},
		&CollectActivity{},
		&CollectRecord{},
		&TieredReward{},
		&TieredRewardRecord{},
		&Notification{},
	}
}
