package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents the canonical catalog listing. The pricing engine only
// reads products; ownership stays with the upstream catalog service.
type Product struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string           `gorm:"column:title;not null"`
	Handle    *string          `gorm:"column:handle"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
