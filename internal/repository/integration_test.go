//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgerrors "campus-booking/backend/pkg/errors"

	"campus-booking/backend/internal/model"
	"campus-booking/backend/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=campus_booking password=campus_booking_password dbname=campus_booking_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	err = testDB.AutoMigrate(
		&model.User{},
		&model.Resource{},
		&model.Booking{},
		&model.BookingStatusHistory{},
		&model.BookingPolicy{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestData 创建基础测试数据并返回清理函数
func setupTestData(t *testing.T) (user *model.User, resource *model.Resource, cleanup func()) {
	t.Helper()
	ctx := context.Background()

	user = &model.User{
		Name:         "测试学生",
		Email:        fmt.Sprintf("test%d@campus.edu", time.Now().UnixNano()),
		PasswordHash: "$2a$10$placeholder",
		Role:         model.RoleStudent,
		Status:       model.UserStatusActive,
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	resource = &model.Resource{
		Name:     fmt.Sprintf("测试实验室-%d", time.Now().UnixNano()),
		Type:     "LAB",
		Capacity: 10,
		Status:   model.ResourceStatusAvailable,
	}
	if err := testDB.WithContext(ctx).Create(resource).Error; err != nil {
		t.Fatalf("创建资源失败: %v", err)
	}

	cleanup = func() {
		testDB.Unscoped().Where("resource_id = ?", resource.ResourceID).Delete(&model.Booking{})
		testDB.Unscoped().Where("resource_id = ?", resource.ResourceID).Delete(&model.Resource{})
		testDB.Unscoped().Where("user_id = ?", user.UserID).Delete(&model.User{})
	}
	return
}

func newBooking(user *model.User, resource *model.Resource, start, end string, hours int) *model.Booking {
	return &model.Booking{
		UserID:        user.UserID,
		ResourceID:    resource.ResourceID,
		BookingDate:   time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		StartTime:     start,
		EndTime:       end,
		DurationHours: hours,
		ApprovalStage: model.StagePendingStaff,
		Visibility:    model.VisibilityPrivate,
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction Rollback / Commit
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	user, resource, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}

	txRepo := repo.WithTx(tx)

	booking := newBooking(user, resource, "09:00", "10:00", 1)
	if err := txRepo.Booking.Create(ctx, booking); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建预约失败: %v", err)
	}

	tx.Rollback()

	// 验证数据未持久化
	_, err = repo.Booking.GetByID(ctx, booking.BookingID)
	if err == nil {
		testDB.Unscoped().Where("booking_id = ?", booking.BookingID).Delete(&model.Booking{})
		t.Fatal("期望回滚后查不到预约，但实际查到了")
	}
}

func TestTransaction_Commit(t *testing.T) {
	user, resource, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}

	txRepo := repo.WithTx(tx)

	booking := newBooking(user, resource, "09:00", "10:00", 1)
	if err := txRepo.Booking.Create(ctx, booking); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建预约失败: %v", err)
	}

	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit 失败: %v", err)
	}

	found, err := repo.Booking.GetByID(ctx, booking.BookingID)
	if err != nil {
		t.Fatalf("提交后查询预约失败: %v", err)
	}
	if found.BookingID != booking.BookingID {
		t.Errorf("ID 不匹配: expected %s, got %s", booking.BookingID, found.BookingID)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_Booking_ConflictDetected(t *testing.T) {
	user, resource, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	booking := newBooking(user, resource, "09:00", "10:00", 1)
	if err := repo.Booking.Create(ctx, booking); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}

	// 模拟并发：获取两份副本
	copy1, _ := repo.Booking.GetByID(ctx, booking.BookingID)
	copy2, _ := repo.Booking.GetByID(ctx, booking.BookingID)

	// 第一次流转成功
	copy1.ApprovalStage = model.StagePendingAdmin
	copy1.StaffApprovedBy = &user.UserID
	now := time.Now()
	copy1.StaffApprovedAt = &now
	if err := repo.Booking.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	// 第二次流转应失败（version 已过期）
	copy2.ApprovalStage = model.StageRejected
	err := repo.Booking.Update(ctx, copy2)
	if err == nil {
		t.Fatal("期望乐观锁冲突错误，但更新成功了")
	}
	if err != pkgerrors.ErrOptimisticLock {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestOptimisticLock_VersionIncrement(t *testing.T) {
	user, resource, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	booking := newBooking(user, resource, "09:00", "10:00", 1)
	if err := repo.Booking.Create(ctx, booking); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}

	if booking.Version != 1 {
		t.Errorf("初始 version 应为 1，得到: %d", booking.Version)
	}

	// 连续更新 3 次
	for i := 0; i < 3; i++ {
		got, _ := repo.Booking.GetByID(ctx, booking.BookingID)
		if err := repo.Booking.Update(ctx, got); err != nil {
			t.Fatalf("第 %d 次更新失败: %v", i+1, err)
		}
	}

	final, _ := repo.Booking.GetByID(ctx, booking.BookingID)
	if final.Version != 4 {
		t.Errorf("期望 version=4，得到: %d", final.Version)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Row Lock (SELECT ... FOR UPDATE)
// ═══════════════════════════════════════════════════════════

func TestRowLock_SerializesApprovalTransition(t *testing.T) {
	user, resource, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	booking := newBooking(user, resource, "09:00", "10:00", 1)
	if err := repo.Booking.Create(ctx, booking); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}

	tx1, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	defer tx1.Rollback()

	if _, err := repo.WithTx(tx1).Booking.GetByIDForUpdate(ctx, booking.BookingID); err != nil {
		t.Fatalf("行锁查询失败: %v", err)
	}

	// 第二个事务在锁释放前必须阻塞
	acquired := make(chan struct{})
	go func() {
		tx2, err := repo.BeginTx(ctx)
		if err != nil {
			return
		}
		defer tx2.Rollback()
		repo.WithTx(tx2).Booking.GetByIDForUpdate(ctx, booking.BookingID)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("行锁未释放时第二个事务不应取得锁")
	case <-time.After(200 * time.Millisecond):
	}

	tx1.Rollback()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("锁释放后第二个事务应取得锁")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Overlap Detection
// ═══════════════════════════════════════════════════════════

func TestExistsOverlap(t *testing.T) {
	user, resource, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	booking := newBooking(user, resource, "10:00", "12:00", 2)
	if err := repo.Booking.Create(ctx, booking); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}

	cases := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"部分相交", "11:00", "13:00", true},
		{"完全包含", "10:00", "11:00", true},
		{"首尾相接不算冲突", "12:00", "13:00", false},
		{"前邻接不算冲突", "09:00", "10:00", false},
		{"完全错开", "14:00", "15:00", false},
	}
	for _, tc := range cases {
		got, err := repo.Booking.ExistsOverlap(ctx, resource.ResourceID, date, tc.start, tc.end)
		if err != nil {
			t.Fatalf("%s: ExistsOverlap 失败: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: 期望 %v，实际 %v", tc.name, tc.want, got)
		}
	}
}

func TestExistsOverlap_TerminalNegativeExcluded(t *testing.T) {
	user, resource, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	booking := newBooking(user, resource, "10:00", "12:00", 2)
	booking.ApprovalStage = model.StageRejected
	if err := repo.Booking.Create(ctx, booking); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}

	got, err := repo.Booking.ExistsOverlap(ctx, resource.ResourceID, date, "10:00", "12:00")
	if err != nil {
		t.Fatalf("ExistsOverlap 失败: %v", err)
	}
	if got {
		t.Error("已驳回的预约不应参与冲突检测")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Usage Aggregates
// ═══════════════════════════════════════════════════════════

func TestUsageAggregates(t *testing.T) {
	user, resource, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	// 同日两条在账，一条驳回不计入
	for _, b := range []*model.Booking{
		newBooking(user, resource, "09:00", "10:00", 1),
		newBooking(user, resource, "10:00", "12:00", 2),
	} {
		if err := repo.Booking.Create(ctx, b); err != nil {
			t.Fatalf("创建预约失败: %v", err)
		}
	}
	rejected := newBooking(user, resource, "14:00", "16:00", 2)
	rejected.ApprovalStage = model.StageRejected
	if err := repo.Booking.Create(ctx, rejected); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}

	count, err := repo.Booking.CountByUserAndDate(ctx, user.UserID, date)
	if err != nil || count != 2 {
		t.Errorf("当日计数期望 2，实际 %d (err=%v)", count, err)
	}

	hours, err := repo.Booking.SumHoursByUserAndDate(ctx, user.UserID, date)
	if err != nil || hours != 3 {
		t.Errorf("当日时长期望 3，实际 %d (err=%v)", hours, err)
	}

	monthFrom := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	monthTo := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	count, err = repo.Booking.CountByUserAndDateRange(ctx, user.UserID, monthFrom, monthTo)
	if err != nil || count != 2 {
		t.Errorf("当月计数期望 2，实际 %d (err=%v)", count, err)
	}

	hours, err = repo.Booking.SumHoursByUserAndDateRange(ctx, user.UserID, monthFrom, monthTo)
	if err != nil || hours != 3 {
		t.Errorf("当月时长期望 3，实际 %d (err=%v)", hours, err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: History Append-Only Trail
// ═══════════════════════════════════════════════════════════

func TestBookingHistory_AppendOnly(t *testing.T) {
	user, resource, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	booking := newBooking(user, resource, "09:00", "10:00", 1)
	if err := repo.Booking.Create(ctx, booking); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}

	stages := []string{model.StagePendingStaff, model.StagePendingAdmin, model.StageApproved}
	for _, stage := range stages {
		entry := &model.BookingStatusHistory{
			BookingID: booking.BookingID,
			Stage:     stage,
			ChangedAt: time.Now(),
			ChangedBy: &user.UserID,
		}
		if err := repo.BookingHistory.Create(ctx, entry); err != nil {
			t.Fatalf("追加历史失败: %v", err)
		}
	}
	defer testDB.Unscoped().Where("booking_id = ?", booking.BookingID).Delete(&model.BookingStatusHistory{})

	trail, err := repo.BookingHistory.ListByBooking(ctx, booking.BookingID)
	if err != nil {
		t.Fatalf("ListByBooking 失败: %v", err)
	}
	if len(trail) != 3 {
		t.Fatalf("期望 3 条历史，实际 %d", len(trail))
	}
	for i, stage := range stages {
		if trail[i].Stage != stage {
			t.Errorf("第 %d 条历史期望 %s，实际 %s", i+1, stage, trail[i].Stage)
		}
	}
}
