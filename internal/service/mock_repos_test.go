package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"campus-booking/backend/internal/model"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == role && u.Status == model.UserStatusActive {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) ListByAdvisor(_ context.Context, advisorID string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.AdvisorID != nil && *u.AdvisorID == advisorID {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) CountByAdvisor(_ context.Context, advisorID string, status string) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.AdvisorID == nil || *u.AdvisorID != advisorID {
			continue
		}
		if status != "" && u.Status != status {
			continue
		}
		n++
	}
	return n, nil
}

// ── Mock ResourceRepository ──

type mockResourceRepo struct {
	resources map[string]*model.Resource
	seq       int
}

func newMockResourceRepo() *mockResourceRepo {
	return &mockResourceRepo{resources: make(map[string]*model.Resource)}
}

func (m *mockResourceRepo) Create(_ context.Context, resource *model.Resource) error {
	if resource.ResourceID == "" {
		m.seq++
		resource.ResourceID = fmt.Sprintf("res-%d", m.seq)
	}
	resource.CreatedAt = time.Now()
	m.resources[resource.ResourceID] = resource
	return nil
}

func (m *mockResourceRepo) GetByID(_ context.Context, id string) (*model.Resource, error) {
	if r, ok := m.resources[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResourceRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Resource, error) {
	return m.GetByID(ctx, id)
}

func (m *mockResourceRepo) Update(_ context.Context, resource *model.Resource) error {
	if _, ok := m.resources[resource.ResourceID]; !ok {
		return gorm.ErrRecordNotFound
	}
	resource.Version++
	m.resources[resource.ResourceID] = resource
	return nil
}

func (m *mockResourceRepo) List(_ context.Context) ([]model.Resource, error) {
	var result []model.Resource
	for _, r := range m.resources {
		result = append(result, *r)
	}
	return result, nil
}

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	bookings map[string]*model.Booking
	users    *mockUserRepo // 按导师过滤时需要属主信息
	seq      int
}

func newMockBookingRepo(users *mockUserRepo) *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*model.Booking), users: users}
}

func (m *mockBookingRepo) Create(_ context.Context, booking *model.Booking) error {
	if booking.BookingID == "" {
		m.seq++
		booking.BookingID = fmt.Sprintf("bk-%d", m.seq)
	}
	if booking.Version == 0 {
		booking.Version = 1
	}
	booking.CreatedAt = time.Now()
	m.bookings[booking.BookingID] = booking
	return nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*model.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	return m.GetByID(ctx, id)
}

func (m *mockBookingRepo) Update(_ context.Context, booking *model.Booking) error {
	if _, ok := m.bookings[booking.BookingID]; !ok {
		return gorm.ErrRecordNotFound
	}
	booking.Version++
	m.bookings[booking.BookingID] = booking
	return nil
}

func (m *mockBookingRepo) ExistsOverlap(_ context.Context, resourceID string, date time.Time, startTime, endTime string) (bool, error) {
	for _, b := range m.bookings {
		if b.ResourceID != resourceID || !sameDay(b.BookingDate, date) {
			continue
		}
		if model.IsTerminalNegative(b.ApprovalStage) {
			continue
		}
		if b.StartTime < endTime && startTime < b.EndTime {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBookingRepo) ListByResourceAndDate(_ context.Context, resourceID string, date time.Time) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.ResourceID == resourceID && sameDay(b.BookingDate, date) && !model.IsTerminalNegative(b.ApprovalStage) {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ListAll(_ context.Context) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		result = append(result, *b)
	}
	return result, nil
}

func (m *mockBookingRepo) ListByStageAndAdvisor(ctx context.Context, stage, advisorID string) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.ApprovalStage == stage && m.ownerAdvisedBy(ctx, b, advisorID) {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ListByStage(_ context.Context, stage string) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.ApprovalStage == stage {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ListByAdvisor(ctx context.Context, advisorID string) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if m.ownerAdvisedBy(ctx, b, advisorID) {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) CountByStageAndAdvisor(ctx context.Context, stage, advisorID string) (int64, error) {
	list, _ := m.ListByStageAndAdvisor(ctx, stage, advisorID)
	return int64(len(list)), nil
}

func (m *mockBookingRepo) CountByAdvisor(ctx context.Context, advisorID string) (int64, error) {
	list, _ := m.ListByAdvisor(ctx, advisorID)
	return int64(len(list)), nil
}

func (m *mockBookingRepo) CountByUserAndDate(_ context.Context, userID string, date time.Time) (int64, error) {
	var n int64
	for _, b := range m.bookings {
		if b.UserID == userID && sameDay(b.BookingDate, date) && !model.IsTerminalNegative(b.ApprovalStage) {
			n++
		}
	}
	return n, nil
}

func (m *mockBookingRepo) CountByUserAndDateRange(_ context.Context, userID string, from, to time.Time) (int64, error) {
	var n int64
	for _, b := range m.bookings {
		if b.UserID == userID && inDateRange(b.BookingDate, from, to) && !model.IsTerminalNegative(b.ApprovalStage) {
			n++
		}
	}
	return n, nil
}

func (m *mockBookingRepo) SumHoursByUserAndDate(_ context.Context, userID string, date time.Time) (int64, error) {
	var sum int64
	for _, b := range m.bookings {
		if b.UserID == userID && sameDay(b.BookingDate, date) && !model.IsTerminalNegative(b.ApprovalStage) {
			sum += int64(b.DurationHours)
		}
	}
	return sum, nil
}

func (m *mockBookingRepo) SumHoursByUserAndDateRange(_ context.Context, userID string, from, to time.Time) (int64, error) {
	var sum int64
	for _, b := range m.bookings {
		if b.UserID == userID && inDateRange(b.BookingDate, from, to) && !model.IsTerminalNegative(b.ApprovalStage) {
			sum += int64(b.DurationHours)
		}
	}
	return sum, nil
}

func (m *mockBookingRepo) ownerAdvisedBy(ctx context.Context, b *model.Booking, advisorID string) bool {
	owner, err := m.users.GetByID(ctx, b.UserID)
	if err != nil {
		return false
	}
	return owner.AdvisorID != nil && *owner.AdvisorID == advisorID
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func inDateRange(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

// ── Mock BookingHistoryRepository ──

type mockHistoryRepo struct {
	entries []model.BookingStatusHistory
	seq     int
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{}
}

func (m *mockHistoryRepo) Create(_ context.Context, entry *model.BookingStatusHistory) error {
	if entry.HistoryID == "" {
		m.seq++
		entry.HistoryID = fmt.Sprintf("hist-%d", m.seq)
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockHistoryRepo) ListByBooking(_ context.Context, bookingID string) ([]model.BookingStatusHistory, error) {
	var result []model.BookingStatusHistory
	for _, e := range m.entries {
		if e.BookingID == bookingID {
			result = append(result, e)
		}
	}
	return result, nil
}

// ── Mock BookingPolicyRepository ──

type mockPolicyRepo struct {
	policies map[string]*model.BookingPolicy
}

// newMockPolicyRepo 预置与迁移种子一致的三条策略
func newMockPolicyRepo() *mockPolicyRepo {
	intp := func(v int) *int { return &v }
	return &mockPolicyRepo{policies: map[string]*model.BookingPolicy{
		model.RoleStudent: {
			Role:                model.RoleStudent,
			MaxBookingsPerDay:   intp(2),
			MaxBookingsPerMonth: intp(20),
			MaxHoursPerDay:      intp(4),
			MaxHoursPerMonth:    intp(40),
		},
		model.RoleStaff: {
			Role:                model.RoleStaff,
			MaxBookingsPerDay:   intp(4),
			MaxBookingsPerMonth: intp(40),
			MaxHoursPerDay:      intp(8),
			MaxHoursPerMonth:    intp(80),
		},
		model.RoleAdmin: {
			Role:        model.RoleAdmin,
			IsUnlimited: true,
		},
	}}
}

func (m *mockPolicyRepo) GetByRole(_ context.Context, role string) (*model.BookingPolicy, error) {
	if p, ok := m.policies[role]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPolicyRepo) List(_ context.Context) ([]model.BookingPolicy, error) {
	var result []model.BookingPolicy
	for _, p := range m.policies {
		result = append(result, *p)
	}
	return result, nil
}
