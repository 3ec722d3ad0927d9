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

// ErrPolicyNotFound 角色配额策略缺失
// 策略表按角色种子初始化，正常运行时不应触发；触发即为数据异常
var ErrPolicyNotFound = errors.New("该角色的配额策略不存在")

// PolicyService 配额策略查询接口
type PolicyService interface {
	// GetRemaining 当前用户的剩余配额报告
	GetRemaining(ctx context.Context, userID string) (*dto.PolicyRemainingResponse, error)
	// ListPolicies 全部角色的配额策略
	ListPolicies(ctx context.Context) ([]dto.PolicyResponse, error)
}

type policyService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewPolicyService 创建 PolicyService 实例
func NewPolicyService(repo *repository.Repository, logger *zap.Logger) PolicyService {
	return &policyService{repo: repo, logger: logger, now: time.Now}
}

func (s *policyService) GetRemaining(ctx context.Context, userID string) (*dto.PolicyRemainingResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	policy, err := s.repo.BookingPolicy.GetByRole(ctx, user.Role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPolicyNotFound
		}
		s.logger.Error("查询配额策略失败", zap.String("role", user.Role), zap.Error(err))
		return nil, err
	}

	if policy.IsUnlimited {
		return &dto.PolicyRemainingResponse{Role: user.Role, Unlimited: true}, nil
	}

	usage, err := loadUsage(ctx, s.repo, userID, s.now())
	if err != nil {
		s.logger.Error("聚合用量失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return &dto.PolicyRemainingResponse{
		Role:                   user.Role,
		Unlimited:              false,
		RemainingBookingsToday: remaining(policy.MaxBookingsPerDay, usage.BookingsToday),
		RemainingBookingsMonth: remaining(policy.MaxBookingsPerMonth, usage.BookingsThisMonth),
		RemainingHoursToday:    remaining(policy.MaxHoursPerDay, usage.HoursToday),
		RemainingHoursMonth:    remaining(policy.MaxHoursPerMonth, usage.HoursThisMonth),
	}, nil
}

func (s *policyService) ListPolicies(ctx context.Context) ([]dto.PolicyResponse, error) {
	policies, err := s.repo.BookingPolicy.List(ctx)
	if err != nil {
		s.logger.Error("查询配额策略列表失败", zap.Error(err))
		return nil, err
	}

	resp := make([]dto.PolicyResponse, 0, len(policies))
	for _, p := range policies {
		resp = append(resp, toPolicyResponse(&p))
	}
	return resp, nil
}

// remaining 剩余额度 = max(0, 上限 - 已用)；上限未设（NULL 或非正数）不构成约束，报 0
func remaining(limit *int, used int64) int {
	if limit == nil || *limit <= 0 {
		return 0
	}
	left := int64(*limit) - used
	if left < 0 {
		return 0
	}
	return int(left)
}

func toPolicyResponse(p *model.BookingPolicy) dto.PolicyResponse {
	return dto.PolicyResponse{
		Role:                p.Role,
		MaxBookingsPerDay:   p.MaxBookingsPerDay,
		MaxBookingsPerMonth: p.MaxBookingsPerMonth,
		MaxHoursPerDay:      p.MaxHoursPerDay,
		MaxHoursPerMonth:    p.MaxHoursPerMonth,
		IsUnlimited:         p.IsUnlimited,
	}
}
