package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-booking/backend/internal/model"
	pkgerrors "campus-booking/backend/pkg/errors"
)

// ResourceRepository 资源数据访问接口
type ResourceRepository interface {
	Create(ctx context.Context, resource *model.Resource) error
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	// GetByIDForUpdate 使用 SELECT ... FOR UPDATE 行级锁查询资源
	// 同一资源上的准入决策以此锁串行化，防止冲突检查与写入之间的竞态
	GetByIDForUpdate(ctx context.Context, id string) (*model.Resource, error)
	Update(ctx context.Context, resource *model.Resource) error
	List(ctx context.Context) ([]model.Resource, error)
}

// resourceRepo ResourceRepository 的 GORM 实现
type resourceRepo struct {
	db *gorm.DB
}

// NewResourceRepo 创建 ResourceRepository 实例
func NewResourceRepo(db *gorm.DB) ResourceRepository {
	return &resourceRepo{db: db}
}

func (r *resourceRepo) Create(ctx context.Context, resource *model.Resource) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *resourceRepo) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	var resource model.Resource
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", id).
		First(&resource).Error
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

// GetByIDForUpdate 必须在已有事务的 *gorm.DB 上调用（通过 Repository.WithTx 注入事务连接）
func (r *resourceRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Resource, error) {
	var resource model.Resource
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("resource_id = ?", id).
		First(&resource).Error
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

// Update 乐观锁更新：版本不匹配时返回 ErrOptimisticLock
func (r *resourceRepo) Update(ctx context.Context, resource *model.Resource) error {
	oldVersion := resource.Version
	result := r.db.WithContext(ctx).
		Model(resource).
		Where("resource_id = ? AND version = ?", resource.ResourceID, oldVersion).
		Updates(map[string]interface{}{
			"name":       resource.Name,
			"type":       resource.Type,
			"capacity":   resource.Capacity,
			"status":     resource.Status,
			"updated_by": resource.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	resource.Version = oldVersion + 1
	return nil
}

func (r *resourceRepo) List(ctx context.Context) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&resources).Error
	return resources, err
}
