package dbschema

import "time"

// BaseModel carries the surrogate key and timestamps. Timestamps are owned by the
// domain layer, so gorm's automatic tracking is switched off.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}
