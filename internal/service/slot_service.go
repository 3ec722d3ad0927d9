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

// SlotService 时段查询业务接口
type SlotService interface {
	// GetAvailableSlots 查询资源在指定日期的可预约时段
	// 无状态：每次调用现算，不缓存
	GetAvailableSlots(ctx context.Context, resourceID, date string) ([]dto.SlotResponse, error)
}

type slotService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewSlotService 创建 SlotService 实例
func NewSlotService(repo *repository.Repository, logger *zap.Logger) SlotService {
	return &slotService{repo: repo, logger: logger, now: time.Now}
}

func (s *slotService) GetAvailableSlots(ctx context.Context, resourceID, date string) ([]dto.SlotResponse, error) {
	now := s.now()

	resource, err := s.repo.Resource.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		s.logger.Error("查询资源失败", zap.String("resource_id", resourceID), zap.Error(err))
		return nil, err
	}
	if resource.Status != model.ResourceStatusAvailable {
		return nil, ErrResourceUnavailable
	}

	queryDate, err := parseDate(date)
	if err != nil {
		return nil, ErrMissingFields
	}
	today := dateOnly(now)
	if queryDate.Before(today) {
		return nil, ErrPastDate
	}

	slots := generateDaySlots()

	// 与非终态既有预约相交的时段标记为不可用
	existing, err := s.repo.Booking.ListByResourceAndDate(ctx, resourceID, queryDate)
	if err != nil {
		s.logger.Error("查询既有预约失败", zap.String("resource_id", resourceID), zap.Error(err))
		return nil, err
	}
	for i := range slots {
		slotStart, _ := parseClock(slots[i].StartTime)
		slotEnd, _ := parseClock(slots[i].EndTime)
		for j := range existing {
			bookedStart, err := parseClock(existing[j].StartTime)
			if err != nil {
				continue
			}
			bookedEnd, err := parseClock(existing[j].EndTime)
			if err != nil {
				continue
			}
			if rangesOverlap(slotStart, slotEnd, bookedStart, bookedEnd) {
				slots[i].Available = false
				break
			}
		}
	}

	// 查询当天时，已开始的时段不可再预约
	if queryDate.Equal(today) {
		nowMin := minuteOfDay(now)
		for i := range slots {
			slotStart, _ := parseClock(slots[i].StartTime)
			if slotStart < nowMin {
				slots[i].Available = false
			}
		}
	}

	return slots, nil
}

// generateDaySlots 生成一天内的候选时段
// 自 09:00 起按 60 分钟步进，时段结束不得超过 16:00；
// 与午休相交的时段整体剔除（而非仅标记不可用）
func generateDaySlots() []dto.SlotResponse {
	var slots []dto.SlotResponse
	for start := operatingStartMin; start+slotDurationMin <= operatingEndMin; start += slotDurationMin {
		end := start + slotDurationMin
		if rangesOverlap(start, end, lunchStartMin, lunchEndMin) {
			continue
		}
		slots = append(slots, dto.SlotResponse{
			StartTime: formatClock(start),
			EndTime:   formatClock(end),
			Available: true,
			Label:     formatClockLabel(start) + " - " + formatClockLabel(end),
		})
	}
	return slots
}
