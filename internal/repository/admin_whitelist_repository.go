package repository

import (
	"context"

	"app/internal/domain/model"
)

// 事前登録された管理者の取得の約束。
type AdminWhitelistRepository interface {
	//usernameで1件取得（is_active=trueのみ）。
	FindByUsername(ctx context.Context, username string) (*model.AdminWhitelist, error)
}
