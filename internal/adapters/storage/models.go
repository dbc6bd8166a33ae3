package storage

import "time"

// IconModel is the GORM model for one cached icon rendition. A file
// path can hold several renditions, one per pixel size.
type IconModel struct {
	Path      string    `gorm:"primaryKey;column:path"`
	Size      int       `gorm:"primaryKey;column:size"`
	DataURL   string    `gorm:"column:data_url;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the GORM table name
func (IconModel) TableName() string {
	return "icons"
}
