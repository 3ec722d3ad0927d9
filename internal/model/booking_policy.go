package model

// BookingPolicy 预约配额策略表 — 对应 booking_policy
// 每角色一行的静态参考数据；空缺的上限不限制该维度，IsUnlimited 为 true 时全部放行
type BookingPolicy struct {
	Role                string `gorm:"type:varchar(20);primaryKey" json:"role"`
	MaxBookingsPerDay   *int   `gorm:""                           json:"max_bookings_per_day,omitempty"`
	MaxBookingsPerMonth *int   `gorm:""                           json:"max_bookings_per_month,omitempty"`
	MaxHoursPerDay      *int   `gorm:""                           json:"max_hours_per_day,omitempty"`
	MaxHoursPerMonth    *int   `gorm:""                           json:"max_hours_per_month,omitempty"`
	IsUnlimited         bool   `gorm:"not null;default:false"     json:"is_unlimited"`
}

// TableName 指定表名
func (BookingPolicy) TableName() string { return "booking_policy" }
