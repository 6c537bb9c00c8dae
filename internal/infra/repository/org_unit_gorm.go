package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type orgUnitGormRepository struct {
	db *gorm.DB
}

func NewOrgUnitGormRepository(db *gorm.DB) repo.OrgUnitRepository {
	return &orgUnitGormRepository{db: db}
}

func (r *orgUnitGormRepository) Create(ctx context.Context, unit *model.OrgUnit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *orgUnitGormRepository) FindByID(ctx context.Context, id int64) (*model.OrgUnit, error) {
	var unit model.OrgUnit
	err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *orgUnitGormRepository) Update(ctx context.Context, unit *model.OrgUnit) error {
	res := r.db.WithContext(ctx).Model(&model.OrgUnit{}).
		Where("id = ?", unit.ID).
		Select("name", "code", "parent_id", "updated_at").
		Updates(unit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *orgUnitGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.OrgUnit{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
