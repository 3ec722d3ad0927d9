package service

import (
	"context"
	"time"

	"campus-booking/backend/internal/repository"
)

// UsageSummary 用户用量汇总：参照日当天与所在自然月的预约次数与小时数
// 终态否定阶段（REJECTED / CANCELLED）不计入
type UsageSummary struct {
	BookingsToday     int64
	BookingsThisMonth int64
	HoursToday        int64
	HoursThisMonth    int64
}

// loadUsage 聚合查询用户用量
// 准入配额检查与剩余额度报告共用此路径，保证口径一致
func loadUsage(ctx context.Context, repo *repository.Repository, userID string, ref time.Time) (*UsageSummary, error) {
	day := dateOnly(ref)
	monthStart, monthEnd := monthRange(ref)

	bookingsToday, err := repo.Booking.CountByUserAndDate(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	bookingsMonth, err := repo.Booking.CountByUserAndDateRange(ctx, userID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	hoursToday, err := repo.Booking.SumHoursByUserAndDate(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	hoursMonth, err := repo.Booking.SumHoursByUserAndDateRange(ctx, userID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	return &UsageSummary{
		BookingsToday:     bookingsToday,
		BookingsThisMonth: bookingsMonth,
		HoursToday:        hoursToday,
		HoursThisMonth:    hoursMonth,
	}, nil
}
