package idp

import "context"

// IdP上のユーザー表現。payloadから詰め替えて送る。
type UserRepresentation struct {
	Username   string              `json:"username,omitempty"`
	Email      string              `json:"email,omitempty"`
	FirstName  string              `json:"firstName,omitempty"`
	LastName   string              `json:"lastName,omitempty"`
	Enabled    *bool               `json:"enabled,omitempty"`
	Attributes map[string][]string `json:"attributes,omitempty"`
}

// IdP上のグループ表現。ROLEリソースの実体。
type GroupRepresentation struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// リモートIdPの管理APIの約束。
// 呼び出しは全部同期。失敗はそのままerrorで返す（リトライしない）。
type IdentityProvider interface {
	CreateUser(ctx context.Context, user UserRepresentation) (string, error)
	UpdateUser(ctx context.Context, userID string, user UserRepresentation) error
	DeleteUser(ctx context.Context, userID string) error

	//ユーザーが現在持っているrealmロール名。
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
	//ユーザーの属性バッグ。
	GetUserAttributes(ctx context.Context, userID string) (map[string][]string, error)

	AddRealmRole(ctx context.Context, userID string, role string) error
	RemoveRealmRole(ctx context.Context, userID string, role string) error

	CreateGroup(ctx context.Context, group GroupRepresentation) (string, error)
	UpdateGroup(ctx context.Context, groupID string, group GroupRepresentation) error
	DeleteGroup(ctx context.Context, groupID string) error
}
