package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-booking/backend/internal/model"
)

// BookingPolicyRepository 配额策略数据访问接口
// 按角色键控的静态参考数据，引擎侧只读
type BookingPolicyRepository interface {
	GetByRole(ctx context.Context, role string) (*model.BookingPolicy, error)
	List(ctx context.Context) ([]model.BookingPolicy, error)
}

// bookingPolicyRepo BookingPolicyRepository 的 GORM 实现
type bookingPolicyRepo struct {
	db *gorm.DB
}

// NewBookingPolicyRepo 创建 BookingPolicyRepository 实例
func NewBookingPolicyRepo(db *gorm.DB) BookingPolicyRepository {
	return &bookingPolicyRepo{db: db}
}

func (r *bookingPolicyRepo) GetByRole(ctx context.Context, role string) (*model.BookingPolicy, error) {
	var policy model.BookingPolicy
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		First(&policy).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *bookingPolicyRepo) List(ctx context.Context) ([]model.BookingPolicy, error) {
	var policies []model.BookingPolicy
	err := r.db.WithContext(ctx).
		Order("role ASC").
		Find(&policies).Error
	return policies, err
}
