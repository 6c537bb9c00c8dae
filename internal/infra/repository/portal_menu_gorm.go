package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type portalMenuGormRepository struct {
	db *gorm.DB
}

func NewPortalMenuGormRepository(db *gorm.DB) repo.PortalMenuRepository {
	return &portalMenuGormRepository{db: db}
}

func (r *portalMenuGormRepository) Create(ctx context.Context, menu *model.PortalMenu) error {
	return r.db.WithContext(ctx).Create(menu).Error
}

func (r *portalMenuGormRepository) FindByID(ctx context.Context, id int64) (*model.PortalMenu, error) {
	var menu model.PortalMenu
	err := r.db.WithContext(ctx).First(&menu, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (r *portalMenuGormRepository) Update(ctx context.Context, menu *model.PortalMenu) error {
	res := r.db.WithContext(ctx).Model(&model.PortalMenu{}).
		Where("id = ?", menu.ID).
		Select("name", "path", "icon", "parent_id", "sort_order", "updated_at").
		Updates(menu)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *portalMenuGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.PortalMenu{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
