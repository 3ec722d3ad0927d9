package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User           UserRepository
	Resource       ResourceRepository
	Booking        BookingRepository
	BookingHistory BookingHistoryRepository
	BookingPolicy  BookingPolicyRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		User:           NewUserRepo(db),
		Resource:       NewResourceRepo(db),
		Booking:        NewBookingRepo(db),
		BookingHistory: NewBookingHistoryRepo(db),
		BookingPolicy:  NewBookingPolicyRepo(db),
	}
}

// BeginTx 开启事务，返回事务连接
// 与 WithTx 配合使用：检查-写入序列必须在同一事务内完成。
// db 未注入时（单测用 mock 仓储直接构造聚合）返回 nil 事务，
// 调用方以 tx != nil 判断是否真的持有事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到指定事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
