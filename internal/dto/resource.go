package dto

// ── 资源模块 DTO ──

// CreateResourceRequest 创建资源请求
type CreateResourceRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Type     string `json:"type"     binding:"required,min=2,max=50"`
	Capacity int    `json:"capacity" binding:"required,min=1"`
}

// UpdateResourceRequest 更新资源请求
type UpdateResourceRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=2,max=100"`
	Type     *string `json:"type"     binding:"omitempty,min=2,max=50"`
	Capacity *int    `json:"capacity" binding:"omitempty,min=1"`
}

// ChangeResourceStatusRequest 变更资源状态请求
type ChangeResourceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=AVAILABLE MAINTENANCE RETIRED"`
}

// ResourceResponse 资源信息响应
type ResourceResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Capacity  int    `json:"capacity"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
