package repository

import (
	"context"

	"app/internal/domain/model"
)

// メニューノードの保存・取得の約束。
type PortalMenuRepository interface {
	Create(ctx context.Context, menu *model.PortalMenu) error
	FindByID(ctx context.Context, id int64) (*model.PortalMenu, error)
	Update(ctx context.Context, menu *model.PortalMenu) error
	Delete(ctx context.Context, id int64) error
}
