package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type systemConfigGormRepository struct {
	db *gorm.DB
}

func NewSystemConfigGormRepository(db *gorm.DB) repo.SystemConfigRepository {
	return &systemConfigGormRepository{db: db}
}

// keyで衝突したら値を上書きする。
func (r *systemConfigGormRepository) Upsert(ctx context.Context, cfg *model.SystemConfig) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_by", "updated_at"}),
	}).Create(cfg).Error
}

func (r *systemConfigGormRepository) FindByKey(ctx context.Context, key string) (*model.SystemConfig, error) {
	var cfg model.SystemConfig
	err := r.db.WithContext(ctx).First(&cfg, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
