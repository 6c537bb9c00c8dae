package model

import "time"

// システム設定のkey/value。CONFIG_SETの適用先。
type SystemConfig struct {
	Key         string `gorm:"type:varchar(191);primaryKey" json:"key"`
	Value       string `gorm:"type:text;not null" json:"value"`
	Description string `gorm:"type:text" json:"description"`
	UpdatedBy   string `gorm:"type:varchar(191)" json:"updated_by"`
	UpdatedAt   time.Time
}
