package dto

// ── 用户模块 DTO ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone,omitempty"`
	Role        string  `json:"role"`
	AdvisorID   *string `json:"advisor_id,omitempty"`
	AdvisorName string  `json:"advisor_name,omitempty"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

// UpdateUserRequest 更新用户请求（管理员）
type UpdateUserRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=2,max=100"`
	Phone     *string `json:"phone"      binding:"omitempty,max=20"`
	Role      *string `json:"role"       binding:"omitempty,oneof=STUDENT STAFF ADMIN"`
	AdvisorID *string `json:"advisor_id" binding:"omitempty,uuid"`
	Status    *string `json:"status"     binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

// StudentStatsResponse 导师名下学生统计
type StudentStatsResponse struct {
	TotalStudents   int64 `json:"total_students"`
	ActiveStudents  int64 `json:"active_students"`
	TotalBookings   int64 `json:"total_bookings"`
	PendingBookings int64 `json:"pending_bookings"`
}
