package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"campus-booking/backend/internal/model"
)

func setupPolicyService(f *testFixture, now time.Time) PolicyService {
	return &policyService{repo: f.repo, logger: zap.NewNop(), now: func() time.Time { return now }}
}

func TestRemaining(t *testing.T) {
	limit := func(n int) *int { return &n }

	cases := []struct {
		name  string
		limit *int
		used  int64
		want  int
	}{
		{"未用满", limit(4), 1, 3},
		{"恰好用满", limit(4), 4, 0},
		{"超用截断为零", limit(4), 6, 0},
		{"上限未设", nil, 2, 0},
		{"上限非正", limit(0), 0, 0},
	}
	for _, tc := range cases {
		if got := remaining(tc.limit, tc.used); got != tc.want {
			t.Errorf("%s: remaining(%v, %d) = %d，期望 %d", tc.name, tc.limit, tc.used, got, tc.want)
		}
	}
}

func seedPolicyBooking(t *testing.T, f *testFixture, userID string, date time.Time, start, end string, hours int, stage string) {
	t.Helper()
	if err := f.repo.Booking.Create(context.Background(), &model.Booking{
		UserID: userID, ResourceID: "res-lab",
		BookingDate: date, StartTime: start, EndTime: end, DurationHours: hours,
		ApprovalStage: stage, Visibility: model.VisibilityPrivate,
	}); err != nil {
		t.Fatalf("预置预约失败: %v", err)
	}
}

func TestGetRemaining_Student(t *testing.T) {
	f := seedFixture(t)
	svc := setupPolicyService(f, fixedNow)
	ctx := context.Background()

	// 今日 1 条 2 小时；本月另一天 1 条 1 小时；一条驳回不计入
	seedPolicyBooking(t, f, "stu-001", fixedNow, "09:00", "11:00", 2, model.StagePendingStaff)
	seedPolicyBooking(t, f, "stu-001", fixedNow.AddDate(0, 0, 5), "09:00", "10:00", 1, model.StageApproved)
	seedPolicyBooking(t, f, "stu-001", fixedNow, "14:00", "16:00", 2, model.StageRejected)

	got, err := svc.GetRemaining(ctx, "stu-001")
	if err != nil {
		t.Fatalf("GetRemaining 应成功: %v", err)
	}

	if got.Role != model.RoleStudent || got.Unlimited {
		t.Fatalf("角色/上限标记不符: %+v", got)
	}
	// 策略 STUDENT：2 次/日、20 次/月、4 时/日、40 时/月
	if got.RemainingBookingsToday != 1 {
		t.Errorf("今日剩余次数期望 1，实际 %d", got.RemainingBookingsToday)
	}
	if got.RemainingBookingsMonth != 18 {
		t.Errorf("本月剩余次数期望 18，实际 %d", got.RemainingBookingsMonth)
	}
	if got.RemainingHoursToday != 2 {
		t.Errorf("今日剩余时长期望 2，实际 %d", got.RemainingHoursToday)
	}
	if got.RemainingHoursMonth != 37 {
		t.Errorf("本月剩余时长期望 37，实际 %d", got.RemainingHoursMonth)
	}
}

func TestGetRemaining_AdminUnlimited(t *testing.T) {
	f := seedFixture(t)
	svc := setupPolicyService(f, fixedNow)

	got, err := svc.GetRemaining(context.Background(), "admin-001")
	if err != nil {
		t.Fatalf("GetRemaining 应成功: %v", err)
	}
	if !got.Unlimited {
		t.Error("管理员应为不限额")
	}
}

func TestGetRemaining_Errors(t *testing.T) {
	f := seedFixture(t)
	svc := setupPolicyService(f, fixedNow)
	ctx := context.Background()

	if _, err := svc.GetRemaining(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际 %v", err)
	}

	// 角色无对应策略行
	f.repo.User.Create(ctx, &model.User{
		UserID: "odd-001", Name: "无策略", Email: "odd@campus.edu",
		Role: "VISITOR", Status: model.UserStatusActive,
	})
	if _, err := svc.GetRemaining(ctx, "odd-001"); !errors.Is(err, ErrPolicyNotFound) {
		t.Errorf("期望 ErrPolicyNotFound，实际 %v", err)
	}
}

func TestListPolicies(t *testing.T) {
	f := seedFixture(t)
	svc := setupPolicyService(f, fixedNow)

	policies, err := svc.ListPolicies(context.Background())
	if err != nil {
		t.Fatalf("ListPolicies 应成功: %v", err)
	}
	if len(policies) != 3 {
		t.Fatalf("期望 3 条策略，实际 %d", len(policies))
	}

	byRole := make(map[string]bool, len(policies))
	for _, p := range policies {
		byRole[p.Role] = p.IsUnlimited
	}
	if !byRole[model.RoleAdmin] {
		t.Error("管理员策略应为不限额")
	}
	if byRole[model.RoleStudent] || byRole[model.RoleStaff] {
		t.Error("学生与教职工策略不应为不限额")
	}
}
