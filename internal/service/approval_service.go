package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-booking/backend/internal/dto"
	"campus-booking/backend/internal/model"
	"campus-booking/backend/internal/repository"
)

// ── 审批模块业务错误 ──

var (
	ErrNotPendingStaff   = errors.New("预约不在待导师审批阶段")
	ErrNotPendingAdmin   = errors.New("预约不在待管理员审批阶段")
	ErrStaffActorOnly    = errors.New("仅导师或管理员可执行导师阶段审批")
	ErrAdminActorOnly    = errors.New("仅管理员可执行管理员阶段审批")
	ErrNoAdvisorAssigned = errors.New("该学生未分配导师")
	ErrAdvisorMismatch   = errors.New("仅指定导师可审批该学生的预约")
)

// ApprovalService 审批流转业务接口
// 每次流转 = 行锁定预约 → 阶段守卫 → 字段更新 + 历史追加，同一事务内原子完成；
// approval_stage 与审批时间戳只经由此处写入
type ApprovalService interface {
	// StaffApprove 导师阶段通过：PENDING_STAFF → PENDING_ADMIN
	StaffApprove(ctx context.Context, bookingID, callerID string) (*dto.BookingResponse, error)
	// StaffReject 导师阶段驳回：PENDING_STAFF → REJECTED
	StaffReject(ctx context.Context, bookingID, callerID string) (*dto.BookingResponse, error)
	// AdminApprove 管理员阶段通过：终态由预约属主角色决定
	AdminApprove(ctx context.Context, bookingID, callerID string) (*dto.BookingResponse, error)
	// AdminReject 管理员阶段驳回：PENDING_ADMIN → REJECTED
	AdminReject(ctx context.Context, bookingID, callerID string) (*dto.BookingResponse, error)

	// GetPendingForStaff 待导师审批列表：导师只见名下学生，管理员见全量
	GetPendingForStaff(ctx context.Context, callerID string) ([]dto.BookingResponse, error)
	// GetPendingForAdmin 待管理员审批列表（全量）
	GetPendingForAdmin(ctx context.Context, callerID string) ([]dto.BookingResponse, error)
	// GetStaffStudentBookings 导师名下学生的全部预约
	GetStaffStudentBookings(ctx context.Context, callerID string) ([]dto.BookingResponse, error)
	// GetStaffBookingStats 导师视角的阶段分桶统计
	GetStaffBookingStats(ctx context.Context, callerID string) (*dto.BookingStatsResponse, error)
}

type approvalService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewApprovalService 创建 ApprovalService 实例
func NewApprovalService(repo *repository.Repository, logger *zap.Logger) ApprovalService {
	return &approvalService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── 导师阶段 ──────────────────────

func (s *approvalService) StaffApprove(ctx context.Context, bookingID, callerID string) (*dto.BookingResponse, error) {
	return s.staffTransition(ctx, bookingID, callerID, true)
}

func (s *approvalService) StaffReject(ctx context.Context, bookingID, callerID string) (*dto.BookingResponse, error) {
	return s.staffTransition(ctx, bookingID, callerID, false)
}

// staffTransition 导师阶段通过/驳回的公共流程
// 管理员可越权代行导师阶段：学生未分配导师（或导师失效）时的升级出口，
// 越权路径不受指定导师约束
func (s *approvalService) staffTransition(ctx context.Context, bookingID, callerID string, approve bool) (*dto.BookingResponse, error) {
	actor, err := s.loadActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleStaff && actor.Role != model.RoleAdmin {
		return nil, ErrStaffActorOnly
	}

	return s.transition(ctx, bookingID, func(txRepo *repository.Repository, booking *model.Booking, now time.Time) error {
		if booking.ApprovalStage != model.StagePendingStaff {
			return ErrNotPendingStaff
		}

		owner, err := txRepo.User.GetByID(ctx, booking.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		// 学生的预约仅限其指定导师审批；管理员越权不受此限
		if owner.Role == model.RoleStudent && actor.Role == model.RoleStaff {
			if owner.AdvisorID == nil {
				return ErrNoAdvisorAssigned
			}
			if *owner.AdvisorID != actor.UserID {
				return ErrAdvisorMismatch
			}
		}

		if approve {
			booking.StaffApprovedBy = &actor.UserID
			approvedAt := now
			booking.StaffApprovedAt = &approvedAt
			booking.ApprovalStage = model.StagePendingAdmin
		} else {
			booking.ApprovalStage = model.StageRejected
		}
		booking.UpdatedBy = &actor.UserID
		return nil
	}, callerID)
}

// ────────────────────── 管理员阶段 ──────────────────────

func (s *approvalService) AdminApprove(ctx context.Context, bookingID, callerID string) (*dto.BookingResponse, error) {
	actor, err := s.loadActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin {
		return nil, ErrAdminActorOnly
	}

	return s.transition(ctx, bookingID, func(txRepo *repository.Repository, booking *model.Booking, now time.Time) error {
		if booking.ApprovalStage != model.StagePendingAdmin {
			return ErrNotPendingAdmin
		}

		owner, err := txRepo.User.GetByID(ctx, booking.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		booking.AdminApprovedBy = &actor.UserID
		approvedAt := now
		booking.AdminApprovedAt = &approvedAt

		// 终态由属主角色决定：教职工预约仅对教职工可见
		if owner.Role == model.RoleStaff {
			booking.ApprovalStage = model.StageApprovedStaffOnly
			booking.Visibility = model.VisibilityStaffOnly
		} else {
			booking.ApprovalStage = model.StageApproved
			booking.Visibility = model.VisibilityPublic
		}
		booking.UpdatedBy = &actor.UserID
		return nil
	}, callerID)
}

func (s *approvalService) AdminReject(ctx context.Context, bookingID, callerID string) (*dto.BookingResponse, error) {
	actor, err := s.loadActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin {
		return nil, ErrAdminActorOnly
	}

	return s.transition(ctx, bookingID, func(txRepo *repository.Repository, booking *model.Booking, now time.Time) error {
		if booking.ApprovalStage != model.StagePendingAdmin {
			return ErrNotPendingAdmin
		}
		booking.ApprovalStage = model.StageRejected
		booking.UpdatedBy = &actor.UserID
		return nil
	}, callerID)
}

// transition 审批流转的事务骨架：行锁 → 守卫与变更 → 乐观锁更新 + 历史追加 → 提交
func (s *approvalService) transition(ctx context.Context, bookingID string, mutate func(txRepo *repository.Repository, booking *model.Booking, now time.Time) error, callerID string) (*dto.BookingResponse, error) {
	now := s.now()

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

	booking, err := txRepo.Booking.GetByIDForUpdate(ctx, bookingID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("锁定预约失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}

	if err := mutate(txRepo, booking, now); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, err
	}

	if err := txRepo.Booking.Update(ctx, booking); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新预约失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}

	if err := txRepo.BookingHistory.Create(ctx, &model.BookingStatusHistory{
		BookingID: booking.BookingID,
		Stage:     booking.ApprovalStage,
		ChangedAt: now,
		ChangedBy: &callerID,
	}); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("写入状态历史失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	return toBookingResponse(booking), nil
}

// ────────────────────── 审批查询 ──────────────────────

func (s *approvalService) GetPendingForStaff(ctx context.Context, callerID string) ([]dto.BookingResponse, error) {
	actor, err := s.loadActor(ctx, callerID)
	if err != nil {
		return nil, err
	}

	// 管理员可越权代行导师阶段审批，因此也要能看到全量待导师审批队列
	var bookings []model.Booking
	switch actor.Role {
	case model.RoleStaff:
		bookings, err = s.repo.Booking.ListByStageAndAdvisor(ctx, model.StagePendingStaff, actor.UserID)
	case model.RoleAdmin:
		bookings, err = s.repo.Booking.ListByStage(ctx, model.StagePendingStaff)
	default:
		return nil, ErrStaffActorOnly
	}
	if err != nil {
		s.logger.Error("查询待导师审批列表失败", zap.Error(err))
		return nil, err
	}
	return toBookingResponses(bookings), nil
}

func (s *approvalService) GetPendingForAdmin(ctx context.Context, callerID string) ([]dto.BookingResponse, error) {
	actor, err := s.loadActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin {
		return nil, ErrAdminActorOnly
	}

	bookings, err := s.repo.Booking.ListByStage(ctx, model.StagePendingAdmin)
	if err != nil {
		s.logger.Error("查询待管理员审批列表失败", zap.Error(err))
		return nil, err
	}
	return toBookingResponses(bookings), nil
}

func (s *approvalService) GetStaffStudentBookings(ctx context.Context, callerID string) ([]dto.BookingResponse, error) {
	actor, err := s.loadActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleStaff {
		return nil, ErrStaffActorOnly
	}

	bookings, err := s.repo.Booking.ListByAdvisor(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("查询学生预约失败", zap.Error(err))
		return nil, err
	}
	return toBookingResponses(bookings), nil
}

func (s *approvalService) GetStaffBookingStats(ctx context.Context, callerID string) (*dto.BookingStatsResponse, error) {
	actor, err := s.loadActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleStaff {
		return nil, ErrStaffActorOnly
	}

	// 分桶口径：pending = 两个待审阶段之和；approved = 两种通过终态之和
	stageBuckets := map[string][]string{
		"pending":  {model.StagePendingStaff, model.StagePendingAdmin},
		"approved": {model.StageApproved, model.StageApprovedStaffOnly},
		"rejected": {model.StageRejected},
	}

	counts := make(map[string]int64, len(stageBuckets))
	for bucket, stages := range stageBuckets {
		for _, stage := range stages {
			n, err := s.repo.Booking.CountByStageAndAdvisor(ctx, stage, actor.UserID)
			if err != nil {
				s.logger.Error("统计预约失败", zap.String("stage", stage), zap.Error(err))
				return nil, err
			}
			counts[bucket] += n
		}
	}

	total, err := s.repo.Booking.CountByAdvisor(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("统计预约总数失败", zap.Error(err))
		return nil, err
	}

	return &dto.BookingStatsResponse{
		TotalBookings:    total,
		PendingBookings:  counts["pending"],
		ApprovedBookings: counts["approved"],
		RejectedBookings: counts["rejected"],
	}, nil
}

func (s *approvalService) loadActor(ctx context.Context, callerID string) (*model.User, error) {
	actor, err := s.repo.User.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询操作者失败", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}
	return actor, nil
}
