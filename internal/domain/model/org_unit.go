package model

import "time"

// 組織ユニット。木構造はparent_idだけで表す（オブジェクトグラフは持たない）。
type OrgUnit struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"type:varchar(191);not null" json:"name"`
	Code      string `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	ParentID  *int64 `gorm:"index" json:"parent_id"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
