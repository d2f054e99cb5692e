package models

import (
	"time"

	"github.com/google/uuid"
)

// Region scopes prices geographically and may override the currency's
// tax-inclusive default.
type Region struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	CurrencyCode string    `gorm:"column:currency_code;not null"`
	IncludesTax  bool      `gorm:"column:includes_tax;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
