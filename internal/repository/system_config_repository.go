package repository

import (
	"context"

	"app/internal/domain/model"
)

// システム設定の保存・取得の約束。
type SystemConfigRepository interface {
	//keyが既にあれば上書き、なければ作成。
	Upsert(ctx context.Context, cfg *model.SystemConfig) error
	FindByKey(ctx context.Context, key string) (*model.SystemConfig, error)
}
