package model

// ── 资源状态枚举 ──
const (
	ResourceStatusAvailable   = "AVAILABLE"
	ResourceStatusMaintenance = "MAINTENANCE"
	ResourceStatusRetired     = "RETIRED"
)

// Resource 可预约资源表 — 对应 resources
type Resource struct {
	ResourceID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"resource_id"`
	Name       string `gorm:"type:varchar(100);not null"                     json:"name"`
	Type       string `gorm:"type:varchar(50);not null"                      json:"type"`
	Capacity   int    `gorm:"not null;default:1"                             json:"capacity"`
	Status     string `gorm:"type:varchar(20);not null;default:'AVAILABLE'"  json:"status"`
	VersionedModel
}

// TableName 指定表名
func (Resource) TableName() string { return "resources" }
