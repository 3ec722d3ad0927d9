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

// ResourceService 资源管理业务接口
type ResourceService interface {
	CreateResource(ctx context.Context, req *dto.CreateResourceRequest, operatorID string) (*dto.ResourceResponse, error)
	UpdateResource(ctx context.Context, id string, req *dto.UpdateResourceRequest, operatorID string) (*dto.ResourceResponse, error)
	ChangeStatus(ctx context.Context, id string, req *dto.ChangeResourceStatusRequest, operatorID string) (*dto.ResourceResponse, error)
	ListResources(ctx context.Context) ([]dto.ResourceResponse, error)
	GetResource(ctx context.Context, id string) (*dto.ResourceResponse, error)
}

type resourceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewResourceService 创建 ResourceService 实例
func NewResourceService(repo *repository.Repository, logger *zap.Logger) ResourceService {
	return &resourceService{repo: repo, logger: logger}
}

func (s *resourceService) CreateResource(ctx context.Context, req *dto.CreateResourceRequest, operatorID string) (*dto.ResourceResponse, error) {
	resource := &model.Resource{
		Name:     req.Name,
		Type:     req.Type,
		Capacity: req.Capacity,
		Status:   model.ResourceStatusAvailable,
	}
	resource.CreatedBy = &operatorID

	if err := s.repo.Resource.Create(ctx, resource); err != nil {
		s.logger.Error("创建资源失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("资源已创建",
		zap.String("resource_id", resource.ResourceID),
		zap.String("name", resource.Name))

	resp := toResourceResponse(resource)
	return &resp, nil
}

func (s *resourceService) UpdateResource(ctx context.Context, id string, req *dto.UpdateResourceRequest, operatorID string) (*dto.ResourceResponse, error) {
	resource, err := s.repo.Resource.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		resource.Name = *req.Name
	}
	if req.Type != nil {
		resource.Type = *req.Type
	}
	if req.Capacity != nil {
		resource.Capacity = *req.Capacity
	}
	resource.UpdatedBy = &operatorID

	if err := s.repo.Resource.Update(ctx, resource); err != nil {
		s.logger.Error("更新资源失败", zap.String("resource_id", id), zap.Error(err))
		return nil, err
	}

	resp := toResourceResponse(resource)
	return &resp, nil
}

func (s *resourceService) ChangeStatus(ctx context.Context, id string, req *dto.ChangeResourceStatusRequest, operatorID string) (*dto.ResourceResponse, error) {
	resource, err := s.repo.Resource.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	resource.Status = req.Status
	resource.UpdatedBy = &operatorID

	if err := s.repo.Resource.Update(ctx, resource); err != nil {
		s.logger.Error("变更资源状态失败", zap.String("resource_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("资源状态已变更",
		zap.String("resource_id", id),
		zap.String("status", req.Status))

	resp := toResourceResponse(resource)
	return &resp, nil
}

func (s *resourceService) ListResources(ctx context.Context) ([]dto.ResourceResponse, error) {
	resources, err := s.repo.Resource.List(ctx)
	if err != nil {
		s.logger.Error("查询资源列表失败", zap.Error(err))
		return nil, err
	}

	resp := make([]dto.ResourceResponse, 0, len(resources))
	for i := range resources {
		resp = append(resp, toResourceResponse(&resources[i]))
	}
	return resp, nil
}

func (s *resourceService) GetResource(ctx context.Context, id string) (*dto.ResourceResponse, error) {
	resource, err := s.repo.Resource.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	resp := toResourceResponse(resource)
	return &resp, nil
}

func toResourceResponse(r *model.Resource) dto.ResourceResponse {
	return dto.ResourceResponse{
		ID:        r.ResourceID,
		Name:      r.Name,
		Type:      r.Type,
		Capacity:  r.Capacity,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
}
