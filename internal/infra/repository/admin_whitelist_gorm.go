package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type adminWhitelistGormRepository struct {
	db *gorm.DB
}

func NewAdminWhitelistGormRepository(db *gorm.DB) repo.AdminWhitelistRepository {
	return &adminWhitelistGormRepository{db: db}
}

func (r *adminWhitelistGormRepository) FindByUsername(ctx context.Context, username string) (*model.AdminWhitelist, error) {
	var entry model.AdminWhitelist
	err := r.db.WithContext(ctx).First(&entry, "username = ? AND is_active = ?", username, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
