package model

import "time"

// BookingStatusHistory 预约状态历史表 — 对应 booking_status_history
// 仅追加的审计轨迹：每次阶段流转一条记录，创建时写入初始阶段，永不修改或删除
type BookingStatusHistory struct {
	HistoryID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"history_id"`
	BookingID string    `gorm:"type:uuid;not null"                             json:"booking_id"`
	Stage     string    `gorm:"type:varchar(30);not null"                      json:"stage"`
	ChangedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"changed_at"`
	ChangedBy *string   `gorm:"type:uuid"                                      json:"changed_by,omitempty"` // NULL 表示系统触发
}

// TableName 指定表名
func (BookingStatusHistory) TableName() string { return "booking_status_history" }
