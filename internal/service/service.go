package service

import (
	"go.uber.org/zap"

	"campus-booking/backend/internal/repository"
	"campus-booking/backend/pkg/jwt"
	pkgredis "campus-booking/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth     AuthService
	User     UserService
	Resource ResourceService
	Booking  BookingService
	Slot     SlotService
	Approval ApprovalService
	Policy   PolicyService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *pkgredis.Client,
	logger *zap.Logger,
) *Service {
	validation := NewValidationService(logger)
	return &Service{
		Auth:     NewAuthService(repo, jwtMgr, rdb, logger),
		User:     NewUserService(repo, logger),
		Resource: NewResourceService(repo, logger),
		Booking:  NewBookingService(repo, validation, logger),
		Slot:     NewSlotService(repo, logger),
		Approval: NewApprovalService(repo, logger),
		Policy:   NewPolicyService(repo, logger),
		Export:   NewExportService(repo, logger),
	}
}
