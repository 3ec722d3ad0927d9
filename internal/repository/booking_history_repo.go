package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-booking/backend/internal/model"
)

// BookingHistoryRepository 预约状态历史数据访问接口
// 仅追加：无更新、无删除
type BookingHistoryRepository interface {
	Create(ctx context.Context, entry *model.BookingStatusHistory) error
	ListByBooking(ctx context.Context, bookingID string) ([]model.BookingStatusHistory, error)
}

// bookingHistoryRepo BookingHistoryRepository 的 GORM 实现
type bookingHistoryRepo struct {
	db *gorm.DB
}

// NewBookingHistoryRepo 创建 BookingHistoryRepository 实例
func NewBookingHistoryRepo(db *gorm.DB) BookingHistoryRepository {
	return &bookingHistoryRepo{db: db}
}

func (r *bookingHistoryRepo) Create(ctx context.Context, entry *model.BookingStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *bookingHistoryRepo) ListByBooking(ctx context.Context, bookingID string) ([]model.BookingStatusHistory, error) {
	var entries []model.BookingStatusHistory
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("changed_at ASC").
		Find(&entries).Error
	return entries, err
}
