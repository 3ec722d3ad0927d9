package dto

// ── 配额策略模块 DTO ──

// PolicyRemainingResponse 剩余配额报告
// Unlimited 为 true 时四个 remaining 字段无意义（不设上限）
type PolicyRemainingResponse struct {
	Role                   string `json:"role"`
	Unlimited              bool   `json:"unlimited"`
	RemainingBookingsToday int    `json:"remaining_bookings_today"`
	RemainingBookingsMonth int    `json:"remaining_bookings_month"`
	RemainingHoursToday    int    `json:"remaining_hours_today"`
	RemainingHoursMonth    int    `json:"remaining_hours_month"`
}

// PolicyResponse 单角色配额策略
type PolicyResponse struct {
	Role                string `json:"role"`
	MaxBookingsPerDay   *int   `json:"max_bookings_per_day"`
	MaxBookingsPerMonth *int   `json:"max_bookings_per_month"`
	MaxHoursPerDay      *int   `json:"max_hours_per_day"`
	MaxHoursPerMonth    *int   `json:"max_hours_per_month"`
	IsUnlimited         bool   `json:"is_unlimited"`
}
