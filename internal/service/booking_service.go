package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-booking/backend/internal/dto"
	"campus-booking/backend/internal/model"
	"campus-booking/backend/internal/repository"
)

// ── 预约模块业务错误 ──

var (
	ErrBookingNotFound = errors.New("预约不存在")
	ErrUserNotFound    = errors.New("用户不存在")
)

// BookingService 预约业务接口
type BookingService interface {
	// Create 创建预约：准入校验通过后以创建者角色决定初始阶段入账
	Create(ctx context.Context, req *dto.CreateBookingRequest, callerID string) (*dto.BookingResponse, error)
	// GetMyBookings 我的预约列表
	GetMyBookings(ctx context.Context, callerID string) ([]dto.BookingResponse, error)
	// GetAllBookings 全部预约列表（管理员）
	GetAllBookings(ctx context.Context) ([]dto.BookingResponse, error)
	// GetHistory 预约状态历史
	GetHistory(ctx context.Context, bookingID string) ([]model.BookingStatusHistory, error)
}

type bookingService struct {
	repo       *repository.Repository
	validation ValidationService
	logger     *zap.Logger
	now        func() time.Time
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(repo *repository.Repository, validation ValidationService, logger *zap.Logger) BookingService {
	return &bookingService{
		repo:       repo,
		validation: validation,
		logger:     logger,
		now:        time.Now,
	}
}

// ────────────────────── Create ──────────────────────

func (s *bookingService) Create(ctx context.Context, req *dto.CreateBookingRequest, callerID string) (*dto.BookingResponse, error) {
	// 本次请求的统一时间快照：所有时间比较共用，避免同一次校验内判定不一致
	now := s.now()

	user, err := s.repo.User.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}

	durationHours, err := s.validation.CalculateDurationHours(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	// 提交竞态（锁等待超时/序列化失败）允许整段校验-提交序列重试一次：
	// 重试会重新求值账本状态，而非盲目重复同一决策
	var booking *model.Booking
	for attempt := 0; ; attempt++ {
		booking, err = s.createOnce(ctx, user, req, durationHours, now)
		if err == nil {
			break
		}
		if attempt == 0 && isRetryableTxError(err) {
			s.logger.Warn("预约提交遇到并发冲突，重试一次",
				zap.String("resource_id", req.ResourceID), zap.Error(err))
			continue
		}
		return nil, err
	}

	return toBookingResponse(booking), nil
}

// createOnce 单次校验-提交序列，整体运行在一个事务内
func (s *bookingService) createOnce(ctx context.Context, user *model.User, req *dto.CreateBookingRequest, durationHours int, now time.Time) (*model.Booking, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	// 锁定资源行：同一资源上的"冲突检查 + 写入"串行化，
	// 两个并发的重叠预约至多一个能提交
	if _, err := txRepo.Resource.GetByIDForUpdate(ctx, req.ResourceID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		s.logger.Error("锁定资源失败", zap.String("resource_id", req.ResourceID), zap.Error(err))
		return nil, err
	}

	// 校验（含冲突与配额检查）与最终写入共享事务快照
	if err := s.validation.ValidateBookingCreation(ctx, txRepo, user, req, durationHours, now); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, err
	}

	bookingDate, _ := parseDate(req.BookingDate)
	startMin, _ := parseClock(req.StartTime)
	endMin, _ := parseClock(req.EndTime)

	booking := &model.Booking{
		UserID:        user.UserID,
		ResourceID:    req.ResourceID,
		BookingDate:   bookingDate,
		StartTime:     formatClock(startMin),
		EndTime:       formatClock(endMin),
		DurationHours: durationHours,
	}
	booking.CreatedBy = &user.UserID
	booking.UpdatedBy = &user.UserID

	// 初始阶段按创建者角色分派；管理员创建即自批
	switch user.Role {
	case model.RoleStudent:
		booking.ApprovalStage = model.StagePendingStaff
		booking.Visibility = model.VisibilityPrivate
	case model.RoleStaff:
		booking.ApprovalStage = model.StagePendingAdmin
		booking.Visibility = model.VisibilityPrivate
	case model.RoleAdmin:
		booking.ApprovalStage = model.StageApproved
		booking.Visibility = model.VisibilityPublic
		booking.AdminApprovedBy = &user.UserID
		approvedAt := now
		booking.AdminApprovedAt = &approvedAt
	default:
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("未知角色，无法分派初始审批阶段", zap.String("role", user.Role))
		return nil, ErrUserNotFound
	}

	if err := txRepo.Booking.Create(ctx, booking); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("写入预约失败", zap.Error(err))
		return nil, err
	}

	// 状态历史与预约写入同一事务：要么都成功要么都回滚
	if err := txRepo.BookingHistory.Create(ctx, &model.BookingStatusHistory{
		BookingID: booking.BookingID,
		Stage:     booking.ApprovalStage,
		ChangedAt: now,
		ChangedBy: &user.UserID,
	}); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("写入状态历史失败", zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	return booking, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *bookingService) GetMyBookings(ctx context.Context, callerID string) ([]dto.BookingResponse, error) {
	bookings, err := s.repo.Booking.ListByUser(ctx, callerID)
	if err != nil {
		s.logger.Error("查询我的预约失败", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}
	return toBookingResponses(bookings), nil
}

func (s *bookingService) GetAllBookings(ctx context.Context) ([]dto.BookingResponse, error) {
	bookings, err := s.repo.Booking.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询全部预约失败", zap.Error(err))
		return nil, err
	}
	return toBookingResponses(bookings), nil
}

func (s *bookingService) GetHistory(ctx context.Context, bookingID string) ([]model.BookingStatusHistory, error) {
	if _, err := s.repo.Booking.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return s.repo.BookingHistory.ListByBooking(ctx, bookingID)
}

// ── 内部辅助方法 ──

// isRetryableTxError 判定提交竞态类错误（序列化失败/死锁/锁等待）
func isRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "40P01") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize")
}

func toBookingResponse(b *model.Booking) *dto.BookingResponse {
	resp := &dto.BookingResponse{
		ID:              b.BookingID,
		UserID:          b.UserID,
		ResourceID:      b.ResourceID,
		BookingDate:     b.BookingDate.Format("2006-01-02"),
		StartTime:       normalizeClock(b.StartTime),
		EndTime:         normalizeClock(b.EndTime),
		DurationHours:   b.DurationHours,
		ApprovalStage:   b.ApprovalStage,
		Visibility:      b.Visibility,
		StaffApprovedBy: b.StaffApprovedBy,
		AdminApprovedBy: b.AdminApprovedBy,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       b.UpdatedAt.Format(time.RFC3339),
	}
	if b.StaffApprovedAt != nil {
		resp.StaffApprovedAt = b.StaffApprovedAt.Format(time.RFC3339)
	}
	if b.AdminApprovedAt != nil {
		resp.AdminApprovedAt = b.AdminApprovedAt.Format(time.RFC3339)
	}
	if b.User != nil {
		resp.UserName = b.User.Name
	}
	if b.Resource != nil {
		resp.ResourceName = b.Resource.Name
	}
	return resp
}

func toBookingResponses(bookings []model.Booking) []dto.BookingResponse {
	result := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		result = append(result, *toBookingResponse(&bookings[i]))
	}
	return result
}

// normalizeClock 将数据库扫描回的 "09:00:00" 统一为 "09:00"
func normalizeClock(s string) string {
	min, err := parseClock(s)
	if err != nil {
		return s
	}
	return formatClock(min)
}
