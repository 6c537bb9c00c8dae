package model

import "time"

// ポータルのメニューノード。こちらもparent_idだけの平坦な木。
type PortalMenu struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"type:varchar(191);not null" json:"name"`
	Path      string `gorm:"type:varchar(255)" json:"path"`
	Icon      string `gorm:"type:varchar(100)" json:"icon"`
	ParentID  *int64 `gorm:"index" json:"parent_id"`
	SortOrder int    `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
