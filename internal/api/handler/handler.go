package handler

import "campus-booking/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Resource *ResourceHandler
	Booking  *BookingHandler
	Approval *ApprovalHandler
	Policy   *PolicyHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		User:     NewUserHandler(svc.User),
		Resource: NewResourceHandler(svc.Resource),
		Booking:  NewBookingHandler(svc.Booking, svc.Slot),
		Approval: NewApprovalHandler(svc.Approval),
		Policy:   NewPolicyHandler(svc.Policy),
		Export:   NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
