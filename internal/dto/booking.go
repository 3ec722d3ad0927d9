package dto

// ── 预约模块 DTO ──

// CreateBookingRequest 创建预约请求
// 时间均为半开区间 [start, end)，必须为整点小时对齐
type CreateBookingRequest struct {
	ResourceID  string `json:"resource_id"  binding:"required,uuid"`
	BookingDate string `json:"booking_date" binding:"required"` // "2026-09-01"
	StartTime   string `json:"start_time"   binding:"required"` // "09:00"
	EndTime     string `json:"end_time"     binding:"required"` // "11:00"
}

// BookingResponse 预约信息响应
type BookingResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	UserName        string  `json:"user_name,omitempty"`
	ResourceID      string  `json:"resource_id"`
	ResourceName    string  `json:"resource_name,omitempty"`
	BookingDate     string  `json:"booking_date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationHours   int     `json:"duration_hours"`
	ApprovalStage   string  `json:"approval_stage"`
	Visibility      string  `json:"visibility"`
	StaffApprovedBy *string `json:"staff_approved_by,omitempty"`
	StaffApprovedAt string  `json:"staff_approved_at,omitempty"`
	AdminApprovedBy *string `json:"admin_approved_by,omitempty"`
	AdminApprovedAt string  `json:"admin_approved_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// SlotResponse 单个可预约时段
type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
	Label     string `json:"label"` // "9:00 AM - 10:00 AM"
}

// BookingStatsResponse 审批阶段分桶统计
type BookingStatsResponse struct {
	TotalBookings    int64 `json:"total_bookings"`
	PendingBookings  int64 `json:"pending_bookings"`  // PENDING_STAFF + PENDING_ADMIN
	ApprovedBookings int64 `json:"approved_bookings"` // APPROVED + APPROVED_STAFF_ONLY
	RejectedBookings int64 `json:"rejected_bookings"`
}
