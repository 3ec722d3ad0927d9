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

// ── 准入校验业务错误 ──

// 请求级错误（InvalidRequest：本地可判定，重试无意义）
var (
	ErrMissingFields       = errors.New("预约日期、资源与起止时间均不能为空")
	ErrNonPositiveDuration = errors.New("结束时间必须晚于开始时间")
	ErrNotWholeHour        = errors.New("预约时长必须为整小时")
)

// 业务规则拒绝（Conflict：输入不变则结果不变）
var (
	ErrPastDate              = errors.New("不能预约过去的日期")
	ErrPastStartTime         = errors.New("不能预约已经过去的时段")
	ErrOutsideOperatingHours = errors.New("预约必须在营业时间 09:00-16:00 内")
	ErrLunchOverlap          = errors.New("预约不能与午休时间 12:30-13:30 重叠")
	ErrResourceNotFound      = errors.New("资源不存在")
	ErrResourceUnavailable   = errors.New("资源当前不可预约")
	ErrTimeSlotConflict      = errors.New("该时段已被其他预约占用")
)

// 配额超限（QuotaExceeded：四个维度各自独立，便于前端区分提示）
var (
	ErrDailyBookingLimit   = errors.New("已达当日预约次数上限")
	ErrMonthlyBookingLimit = errors.New("已达当月预约次数上限")
	ErrDailyHoursLimit     = errors.New("已达当日预约小时数上限")
	ErrMonthlyHoursLimit   = errors.New("已达当月预约小时数上限")
)

// ValidationService 准入校验接口
// 纯决策：不产生副作用，对传入的账本/策略快照求值。
// repo 由调用方显式传入，创建预约时传事务内的 Repository，
// 使冲突检查、配额检查与最终写入共享同一一致性快照。
type ValidationService interface {
	// CalculateDurationHours 推导预约时长（小时），校验区间合法与整点对齐
	CalculateDurationHours(startTime, endTime string) (int, error)
	// ValidateBookingCreation 按序执行全部准入检查
	// now 为本次请求的统一时间快照，所有时间比较共用
	ValidateBookingCreation(ctx context.Context, repo *repository.Repository, user *model.User, req *dto.CreateBookingRequest, durationHours int, now time.Time) error
}

type validationService struct {
	logger *zap.Logger
}

// NewValidationService 创建 ValidationService 实例
func NewValidationService(logger *zap.Logger) ValidationService {
	return &validationService{logger: logger}
}

func (s *validationService) CalculateDurationHours(startTime, endTime string) (int, error) {
	if startTime == "" || endTime == "" {
		return 0, ErrMissingFields
	}
	start, err := parseClock(startTime)
	if err != nil {
		return 0, ErrMissingFields
	}
	end, err := parseClock(endTime)
	if err != nil {
		return 0, ErrMissingFields
	}
	minutes := end - start
	if minutes <= 0 {
		return 0, ErrNonPositiveDuration
	}
	if minutes%60 != 0 {
		return 0, ErrNotWholeHour
	}
	return minutes / 60, nil
}

func (s *validationService) ValidateBookingCreation(ctx context.Context, repo *repository.Repository, user *model.User, req *dto.CreateBookingRequest, durationHours int, now time.Time) error {
	// 1. 字段存在性
	if req.BookingDate == "" || req.ResourceID == "" {
		return ErrMissingFields
	}
	if durationHours <= 0 {
		return ErrNonPositiveDuration
	}

	bookingDate, err := parseDate(req.BookingDate)
	if err != nil {
		return ErrMissingFields
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return ErrMissingFields
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return ErrMissingFields
	}

	// 2. 时间有效性：不可预约过去
	today := dateOnly(now)
	if bookingDate.Before(today) {
		return ErrPastDate
	}

	// 3. 营业时间包含 + 午休不相交
	if start < operatingStartMin || end > operatingEndMin {
		return ErrOutsideOperatingHours
	}
	if rangesOverlap(start, end, lunchStartMin, lunchEndMin) {
		return ErrLunchOverlap
	}

	// 预约当天时，开始时刻不得早于当前时刻
	if bookingDate.Equal(today) && start < minuteOfDay(now) {
		return ErrPastStartTime
	}

	// 4. 资源存在且可用
	resource, err := repo.Resource.GetByID(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResourceNotFound
		}
		s.logger.Error("查询资源失败", zap.String("resource_id", req.ResourceID), zap.Error(err))
		return err
	}
	if resource.Status != model.ResourceStatusAvailable {
		return ErrResourceUnavailable
	}

	// 5. 冲突检查：同资源同日期非终态预约的区间相交
	conflict, err := repo.Booking.ExistsOverlap(ctx, req.ResourceID, bookingDate, formatClock(start), formatClock(end))
	if err != nil {
		s.logger.Error("冲突检查失败", zap.String("resource_id", req.ResourceID), zap.Error(err))
		return err
	}
	if conflict {
		return ErrTimeSlotConflict
	}

	// 6. 配额检查：策略不限额时全部跳过
	policy, err := repo.BookingPolicy.GetByRole(ctx, user.Role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPolicyNotFound
		}
		s.logger.Error("查询配额策略失败", zap.String("role", user.Role), zap.Error(err))
		return err
	}
	if policy.IsUnlimited {
		return nil
	}

	usage, err := loadUsage(ctx, repo, user.UserID, bookingDate)
	if err != nil {
		s.logger.Error("统计用量失败", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}

	// 缺失或为零的上限不限制该维度，只有正数上限才生效
	if cap := deref(policy.MaxBookingsPerDay); cap > 0 && usage.BookingsToday+1 > int64(cap) {
		return ErrDailyBookingLimit
	}
	if cap := deref(policy.MaxBookingsPerMonth); cap > 0 && usage.BookingsThisMonth+1 > int64(cap) {
		return ErrMonthlyBookingLimit
	}
	if cap := deref(policy.MaxHoursPerDay); cap > 0 && usage.HoursToday+int64(durationHours) > int64(cap) {
		return ErrDailyHoursLimit
	}
	if cap := deref(policy.MaxHoursPerMonth); cap > 0 && usage.HoursThisMonth+int64(durationHours) > int64(cap) {
		return ErrMonthlyHoursLimit
	}

	return nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
