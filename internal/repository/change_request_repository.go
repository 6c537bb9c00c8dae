package repository

import (
	"context"

	"app/internal/domain/model"
)

// 一覧の絞り込み条件。
type ChangeRequestFilter struct {
	Status       *model.ChangeStatus
	ResourceType *model.ResourceType
	RequestedBy  *string
	Limit        int
	Offset       int
}

// 変更リクエストの保存・取得の約束。
type ChangeRequestRepository interface {
	//新規作成（DRAFT）
	Create(ctx context.Context, cr *model.ChangeRequest) error

	//IDで1件取得
	FindByID(ctx context.Context, id string) (*model.ChangeRequest, error)

	//DRAFTの内容更新など、状態遷移を伴わない保存。
	Update(ctx context.Context, cr *model.ChangeRequest) error

	//状態遷移の条件付き更新。
	//「現在statusがfromである場合だけ」crの全フィールドを書き込む。
	//一致しなければErrConflict（同時approve/rejectの競合防止）。
	TransitionFrom(ctx context.Context, cr *model.ChangeRequest, from model.ChangeStatus) error

	//条件で一覧取得（新しい順）。
	List(ctx context.Context, filter ChangeRequestFilter) ([]model.ChangeRequest, error)
}
