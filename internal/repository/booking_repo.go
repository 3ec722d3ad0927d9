package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-booking/backend/internal/model"
	pkgerrors "campus-booking/backend/pkg/errors"
)

// BookingRepository 预约账本数据访问接口
// 计数/求和类查询一律排除终态否定阶段（REJECTED / CANCELLED）
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	// GetByIDForUpdate 使用 SELECT ... FOR UPDATE 行级锁查询预约
	// 审批流转的"检查阶段-写入"序列以此锁串行化
	GetByIDForUpdate(ctx context.Context, id string) (*model.Booking, error)
	// Update 乐观锁更新审批相关字段，版本不匹配时返回 ErrOptimisticLock
	Update(ctx context.Context, booking *model.Booking) error

	// ExistsOverlap 冲突探测：同资源同日期、阶段非终态否定、区间半开相交
	ExistsOverlap(ctx context.Context, resourceID string, date time.Time, startTime, endTime string) (bool, error)
	ListByResourceAndDate(ctx context.Context, resourceID string, date time.Time) ([]model.Booking, error)

	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	ListAll(ctx context.Context) ([]model.Booking, error)
	// ListByStageAndAdvisor 查询处于指定阶段、且属主为该导师名下学生的预约
	ListByStageAndAdvisor(ctx context.Context, stage, advisorID string) ([]model.Booking, error)
	ListByStage(ctx context.Context, stage string) ([]model.Booking, error)
	ListByAdvisor(ctx context.Context, advisorID string) ([]model.Booking, error)

	CountByStageAndAdvisor(ctx context.Context, stage, advisorID string) (int64, error)
	CountByAdvisor(ctx context.Context, advisorID string) (int64, error)

	// ── 用量聚合查询（准入配额与剩余额度报告共用）──
	CountByUserAndDate(ctx context.Context, userID string, date time.Time) (int64, error)
	CountByUserAndDateRange(ctx context.Context, userID string, from, to time.Time) (int64, error)
	SumHoursByUserAndDate(ctx context.Context, userID string, date time.Time) (int64, error)
	SumHoursByUserAndDateRange(ctx context.Context, userID string, from, to time.Time) (int64, error)
}

// bookingRepo BookingRepository 的 GORM 实现
type bookingRepo struct {
	db *gorm.DB
}

// NewBookingRepo 创建 BookingRepository 实例
func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Resource").
		Where("booking_id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDForUpdate 必须在已有事务的 *gorm.DB 上调用（通过 Repository.WithTx 注入事务连接）
func (r *bookingRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("booking_id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) Update(ctx context.Context, booking *model.Booking) error {
	oldVersion := booking.Version
	result := r.db.WithContext(ctx).
		Model(booking).
		Where("booking_id = ? AND version = ?", booking.BookingID, oldVersion).
		Updates(map[string]interface{}{
			"approval_stage":    booking.ApprovalStage,
			"visibility":        booking.Visibility,
			"staff_approved_by": booking.StaffApprovedBy,
			"staff_approved_at": booking.StaffApprovedAt,
			"admin_approved_by": booking.AdminApprovedBy,
			"admin_approved_at": booking.AdminApprovedAt,
			"updated_by":        booking.UpdatedBy,
			"version":           oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	booking.Version = oldVersion + 1
	return nil
}

// ExistsOverlap 半开区间相交判定：start1 < end2 AND start2 < end1
func (r *bookingRepo) ExistsOverlap(ctx context.Context, resourceID string, date time.Time, startTime, endTime string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("resource_id = ? AND booking_date = ?", resourceID, date).
		Where("start_time < ? AND end_time > ?", endTime, startTime).
		Where("approval_stage NOT IN ?", model.TerminalNegativeStages).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *bookingRepo) ListByResourceAndDate(ctx context.Context, resourceID string, date time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND booking_date = ?", resourceID, date).
		Where("approval_stage NOT IN ?", model.TerminalNegativeStages).
		Order("start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Preload("Resource").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Resource").
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListByStageAndAdvisor(ctx context.Context, stage, advisorID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Resource").
		Where("approval_stage = ?", stage).
		Where("user_id IN (?)", r.db.Model(&model.User{}).Select("user_id").Where("advisor_id = ?", advisorID)).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListByStage(ctx context.Context, stage string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Resource").
		Where("approval_stage = ?", stage).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListByAdvisor(ctx context.Context, advisorID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Resource").
		Where("user_id IN (?)", r.db.Model(&model.User{}).Select("user_id").Where("advisor_id = ?", advisorID)).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) CountByStageAndAdvisor(ctx context.Context, stage, advisorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("approval_stage = ?", stage).
		Where("user_id IN (?)", r.db.Model(&model.User{}).Select("user_id").Where("advisor_id = ?", advisorID)).
		Count(&count).Error
	return count, err
}

func (r *bookingRepo) CountByAdvisor(ctx context.Context, advisorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("user_id IN (?)", r.db.Model(&model.User{}).Select("user_id").Where("advisor_id = ?", advisorID)).
		Count(&count).Error
	return count, err
}

func (r *bookingRepo) CountByUserAndDate(ctx context.Context, userID string, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("user_id = ? AND booking_date = ?", userID, date).
		Where("approval_stage NOT IN ?", model.TerminalNegativeStages).
		Count(&count).Error
	return count, err
}

func (r *bookingRepo) CountByUserAndDateRange(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("user_id = ? AND booking_date BETWEEN ? AND ?", userID, from, to).
		Where("approval_stage NOT IN ?", model.TerminalNegativeStages).
		Count(&count).Error
	return count, err
}

func (r *bookingRepo) SumHoursByUserAndDate(ctx context.Context, userID string, date time.Time) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Select("COALESCE(SUM(duration_hours), 0)").
		Where("user_id = ? AND booking_date = ?", userID, date).
		Where("approval_stage NOT IN ?", model.TerminalNegativeStages).
		Scan(&sum).Error
	return sum, err
}

func (r *bookingRepo) SumHoursByUserAndDateRange(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Select("COALESCE(SUM(duration_hours), 0)").
		Where("user_id = ? AND booking_date BETWEEN ? AND ?", userID, from, to).
		Where("approval_stage NOT IN ?", model.TerminalNegativeStages).
		Scan(&sum).Error
	return sum, err
}
