package model

// ── 角色枚举 ──
// 闭合集合：新增角色必须同步检查所有 switch 分支
const (
	RoleStudent = "STUDENT"
	RoleStaff   = "STAFF"
	RoleAdmin   = "ADMIN"
)

// ── 用户状态枚举 ──
const (
	UserStatusActive   = "ACTIVE"
	UserStatusInactive = "INACTIVE"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string  `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone        string  `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'STUDENT'"    json:"role"`
	AdvisorID    *string `gorm:"type:uuid"                                      json:"advisor_id,omitempty"` // 仅 STUDENT 角色有意义
	Status       string  `gorm:"type:varchar(20);not null;default:'ACTIVE'"     json:"status"`
	VersionedModel

	// 关联
	Advisor *User `gorm:"foreignKey:AdvisorID;references:UserID" json:"advisor,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
