package model

import "time"

// ── 审批阶段枚举 ──
const (
	StagePendingStaff      = "PENDING_STAFF"
	StagePendingAdmin      = "PENDING_ADMIN"
	StageApproved          = "APPROVED"
	StageApprovedStaffOnly = "APPROVED_STAFF_ONLY"
	StageRejected          = "REJECTED"
	StageCancelled         = "CANCELLED"
)

// ── 可见性枚举 ──
const (
	VisibilityPrivate   = "PRIVATE"
	VisibilityStaffOnly = "STAFF_ONLY"
	VisibilityPublic    = "PUBLIC"
)

// TerminalNegativeStages 终态否定阶段：冲突检测与配额统计均排除
var TerminalNegativeStages = []string{StageRejected, StageCancelled}

// Booking 预约表 — 对应 bookings
// approval_stage 与审批时间戳仅由审批流转与创建路径写入
type Booking struct {
	BookingID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	UserID          string     `gorm:"type:uuid;not null"                             json:"user_id"`
	ResourceID      string     `gorm:"type:uuid;not null"                             json:"resource_id"`
	BookingDate     time.Time  `gorm:"type:date;not null"                             json:"booking_date"`
	StartTime       string     `gorm:"type:time;not null"                             json:"start_time"` // "09:00"
	EndTime         string     `gorm:"type:time;not null"                             json:"end_time"`   // 右开区间
	DurationHours   int        `gorm:"not null"                                       json:"duration_hours"`
	ApprovalStage   string     `gorm:"type:varchar(30);not null"                      json:"approval_stage"`
	Visibility      string     `gorm:"type:varchar(20);not null"                      json:"visibility"`
	StaffApprovedBy *string    `gorm:"type:uuid"                                      json:"staff_approved_by,omitempty"`
	StaffApprovedAt *time.Time `gorm:""                                               json:"staff_approved_at,omitempty"`
	AdminApprovedBy *string    `gorm:"type:uuid"                                      json:"admin_approved_by,omitempty"`
	AdminApprovedAt *time.Time `gorm:""                                               json:"admin_approved_at,omitempty"`
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`

	// 关联
	User     *User     `gorm:"foreignKey:UserID;references:UserID"         json:"user,omitempty"`
	Resource *Resource `gorm:"foreignKey:ResourceID;references:ResourceID" json:"resource,omitempty"`
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }

// IsTerminalNegative 判断阶段是否为终态否定（REJECTED / CANCELLED）
func IsTerminalNegative(stage string) bool {
	return stage == StageRejected || stage == StageCancelled
}
