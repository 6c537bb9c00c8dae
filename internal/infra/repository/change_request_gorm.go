package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type changeRequestGormRepository struct {
	db *gorm.DB
}

func NewChangeRequestGormRepository(db *gorm.DB) repo.ChangeRequestRepository {
	return &changeRequestGormRepository{db: db}
}

func (r *changeRequestGormRepository) Create(ctx context.Context, cr *model.ChangeRequest) error {
	return r.db.WithContext(ctx).Create(cr).Error
}

func (r *changeRequestGormRepository) FindByID(ctx context.Context, id string) (*model.ChangeRequest, error) {
	var cr model.ChangeRequest
	err := r.db.WithContext(ctx).First(&cr, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

func (r *changeRequestGormRepository) Update(ctx context.Context, cr *model.ChangeRequest) error {
	res := r.db.WithContext(ctx).Model(&model.ChangeRequest{}).
		Where("id = ?", cr.ID).
		Select("*").
		Updates(cr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 状態遷移の条件付き更新（CAS）。
// WHERE status = from を付けて全フィールドを書き込む。
// 0件更新＝他の遷移に先を越されたのでErrConflict。
func (r *changeRequestGormRepository) TransitionFrom(ctx context.Context, cr *model.ChangeRequest, from model.ChangeStatus) error {
	res := r.db.WithContext(ctx).Model(&model.ChangeRequest{}).
		Where("id = ? AND status = ?", cr.ID, from).
		Select("*").
		Updates(cr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrConflict
	}
	return nil
}

func (r *changeRequestGormRepository) List(ctx context.Context, filter repo.ChangeRequestFilter) ([]model.ChangeRequest, error) {
	q := r.db.WithContext(ctx).Model(&model.ChangeRequest{})

	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.ResourceType != nil {
		q = q.Where("resource_type = ?", *filter.ResourceType)
	}
	if filter.RequestedBy != nil {
		q = q.Where("requested_by = ?", *filter.RequestedBy)
	}

	//新しい順
	q = q.Order("requested_at DESC")

	// limit/offset
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	q = q.Limit(limit).Offset(filter.Offset)

	var crs []model.ChangeRequest
	if err := q.Find(&crs).Error; err != nil {
		return nil, err
	}
	return crs, nil
}
