package repository

import (
	"context"

	"app/internal/domain/model"
)

// 組織ユニットの保存・取得の約束。
type OrgUnitRepository interface {
	Create(ctx context.Context, unit *model.OrgUnit) error
	FindByID(ctx context.Context, id int64) (*model.OrgUnit, error)
	Update(ctx context.Context, unit *model.OrgUnit) error
	Delete(ctx context.Context, id int64) error
}
