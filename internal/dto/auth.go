package dto

// ── 认证模块 DTO ──

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name      string  `json:"name"       binding:"required,min=2,max=100"`
	Email     string  `json:"email"      binding:"required,email"`
	Phone     string  `json:"phone"      binding:"omitempty,max=20"`
	Password  string  `json:"password"   binding:"required,min=8,max=72"`
	Role      string  `json:"role"       binding:"required,oneof=STUDENT STAFF"`
	AdvisorID *string `json:"advisor_id" binding:"omitempty,uuid"` // STUDENT 注册时选择导师
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest 刷新 Token 请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// AdvisorResponse 导师目录条目（注册表单下拉用）
type AdvisorResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
