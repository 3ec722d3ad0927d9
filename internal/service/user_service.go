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

// UserService 用户管理业务接口（管理员 + 导师视角）
type UserService interface {
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
	GetUser(ctx context.Context, id string) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, id string, req *dto.UpdateUserRequest, operatorID string) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, id string, operatorID string) error
	// GetMyStudents 导师名下学生列表
	GetMyStudents(ctx context.Context, advisorID string) ([]dto.UserResponse, error)
	// GetMyStudentsStats 导师名下学生及其预约概况
	GetMyStudentsStats(ctx context.Context, advisorID string) (*dto.StudentStatsResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.User.List(ctx)
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, err
	}
	return toUserResponses(users), nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req *dto.UpdateUserRequest, operatorID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.AdvisorID != nil {
		advisor, err := s.repo.User.GetByID(ctx, *req.AdvisorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAdvisorInvalid
			}
			return nil, err
		}
		if advisor.Role != model.RoleStaff || advisor.Status != model.UserStatusActive {
			return nil, ErrAdvisorInvalid
		}
		user.AdvisorID = req.AdvisorID
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	user.UpdatedBy = &operatorID
	user.UpdatedAt = time.Now()

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string, operatorID string) error {
	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := s.repo.User.Delete(ctx, id, operatorID); err != nil {
		s.logger.Error("删除用户失败", zap.String("user_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("用户已删除", zap.String("user_id", id), zap.String("operator", operatorID))
	return nil
}

func (s *userService) GetMyStudents(ctx context.Context, advisorID string) ([]dto.UserResponse, error) {
	students, err := s.repo.User.ListByAdvisor(ctx, advisorID)
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.String("advisor_id", advisorID), zap.Error(err))
		return nil, err
	}
	return toUserResponses(students), nil
}

func (s *userService) GetMyStudentsStats(ctx context.Context, advisorID string) (*dto.StudentStatsResponse, error) {
	total, err := s.repo.User.CountByAdvisor(ctx, advisorID, "")
	if err != nil {
		return nil, err
	}
	active, err := s.repo.User.CountByAdvisor(ctx, advisorID, model.UserStatusActive)
	if err != nil {
		return nil, err
	}
	totalBookings, err := s.repo.Booking.CountByAdvisor(ctx, advisorID)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.Booking.CountByStageAndAdvisor(ctx, model.StagePendingStaff, advisorID)
	if err != nil {
		return nil, err
	}

	return &dto.StudentStatsResponse{
		TotalStudents:   total,
		ActiveStudents:  active,
		TotalBookings:   totalBookings,
		PendingBookings: pending,
	}, nil
}

func toUserResponses(users []model.User) []dto.UserResponse {
	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, toUserResponse(&users[i]))
	}
	return resp
}
