package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"campus-booking/backend/internal/model"
)

func setupSlotService(f *testFixture, now time.Time) SlotService {
	return &slotService{repo: f.repo, logger: zap.NewNop(), now: func() time.Time { return now }}
}

func TestGetAvailableSlots_FullDay(t *testing.T) {
	f := seedFixture(t)
	svc := setupSlotService(f, fixedNow)

	slots, err := svc.GetAvailableSlots(context.Background(), "res-lab", "2026-03-11")
	if err != nil {
		t.Fatalf("查询应成功: %v", err)
	}

	// 营业 09:00-16:00、60 分钟步长、剔除与午休相交时段后恰好 5 个
	want := []struct{ start, end, label string }{
		{"09:00", "10:00", "9:00 AM - 10:00 AM"},
		{"10:00", "11:00", "10:00 AM - 11:00 AM"},
		{"11:00", "12:00", "11:00 AM - 12:00 PM"},
		{"14:00", "15:00", "2:00 PM - 3:00 PM"},
		{"15:00", "16:00", "3:00 PM - 4:00 PM"},
	}
	if len(slots) != len(want) {
		t.Fatalf("期望 %d 个时段，实际 %d 个", len(want), len(slots))
	}
	for i, w := range want {
		if slots[i].StartTime != w.start || slots[i].EndTime != w.end {
			t.Errorf("第 %d 个时段期望 %s-%s，实际 %s-%s", i, w.start, w.end, slots[i].StartTime, slots[i].EndTime)
		}
		if slots[i].Label != w.label {
			t.Errorf("第 %d 个时段期望标签 %q，实际 %q", i, w.label, slots[i].Label)
		}
		if !slots[i].Available {
			t.Errorf("空账本下第 %d 个时段应可用", i)
		}
	}
}

func TestGetAvailableSlots_OccupiedMarked(t *testing.T) {
	f := seedFixture(t)
	svc := setupSlotService(f, fixedNow)
	ctx := context.Background()

	// 10:00-12:00 的在账预约应压掉两个时段
	f.repo.Booking.Create(ctx, &model.Booking{
		UserID: "stu-001", ResourceID: "res-lab",
		BookingDate: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		StartTime:   "10:00", EndTime: "12:00", DurationHours: 2,
		ApprovalStage: model.StagePendingStaff, Visibility: model.VisibilityPrivate,
	})

	slots, err := svc.GetAvailableSlots(ctx, "res-lab", "2026-03-11")
	if err != nil {
		t.Fatalf("查询应成功: %v", err)
	}

	availability := map[string]bool{}
	for _, s := range slots {
		availability[s.StartTime] = s.Available
	}
	if availability["09:00"] != true {
		t.Error("09:00 时段应可用")
	}
	if availability["10:00"] != false || availability["11:00"] != false {
		t.Error("10:00 与 11:00 时段应被占用")
	}
	if availability["14:00"] != true || availability["15:00"] != true {
		t.Error("午后时段应可用")
	}
}

func TestGetAvailableSlots_RejectedNotBlocking(t *testing.T) {
	f := seedFixture(t)
	svc := setupSlotService(f, fixedNow)
	ctx := context.Background()

	f.repo.Booking.Create(ctx, &model.Booking{
		UserID: "stu-001", ResourceID: "res-lab",
		BookingDate: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		StartTime:   "10:00", EndTime: "11:00", DurationHours: 1,
		ApprovalStage: model.StageRejected, Visibility: model.VisibilityPrivate,
	})

	slots, err := svc.GetAvailableSlots(ctx, "res-lab", "2026-03-11")
	if err != nil {
		t.Fatalf("查询应成功: %v", err)
	}
	for _, s := range slots {
		if !s.Available {
			t.Errorf("已驳回预约不应占用时段 %s", s.StartTime)
		}
	}
}

func TestGetAvailableSlots_TodayPastSlots(t *testing.T) {
	f := seedFixture(t)
	// 当前 10:30：09:00 与 10:00 起的时段已开始
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	svc := setupSlotService(f, now)

	slots, err := svc.GetAvailableSlots(context.Background(), "res-lab", "2026-03-10")
	if err != nil {
		t.Fatalf("查询应成功: %v", err)
	}

	for _, s := range slots {
		start, _ := parseClock(s.StartTime)
		if start < 10*60+30 && s.Available {
			t.Errorf("已开始的时段 %s 不应可用", s.StartTime)
		}
		if start >= 11*60 && !s.Available {
			t.Errorf("尚未开始的时段 %s 应可用", s.StartTime)
		}
	}
}

func TestGetAvailableSlots_Errors(t *testing.T) {
	f := seedFixture(t)
	svc := setupSlotService(f, fixedNow)
	ctx := context.Background()

	if _, err := svc.GetAvailableSlots(ctx, "res-missing", "2026-03-11"); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("期望 ErrResourceNotFound，实际 %v", err)
	}

	if _, err := svc.GetAvailableSlots(ctx, "res-lab", "2026-03-09"); !errors.Is(err, ErrPastDate) {
		t.Errorf("昨日查询期望 ErrPastDate，实际 %v", err)
	}

	f.repo.Resource.Create(ctx, &model.Resource{
		ResourceID: "res-ret", Name: "退役设备", Type: "EQUIPMENT",
		Capacity: 1, Status: model.ResourceStatusRetired,
	})
	if _, err := svc.GetAvailableSlots(ctx, "res-ret", "2026-03-11"); !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("期望 ErrResourceUnavailable，实际 %v", err)
	}
}
