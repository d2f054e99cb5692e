package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PricingGroupIDPrefix namespaces group IDs the way the admin API exposes them.
const PricingGroupIDPrefix = "pg"

// PricingGroup is a named set of products whose requested quantities are
// summed when selecting volume price tiers.
type PricingGroup struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Products  []Product `gorm:"many2many:pricing_group_products;joinForeignKey:PricingGroupID;joinReferences:ProductID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns a prefixed identifier when none was supplied.
func (g *PricingGroup) BeforeCreate(_ *gorm.DB) error {
	if strings.TrimSpace(g.ID) == "" {
		g.ID = PricingGroupIDPrefix + "_" + uuid.NewString()
	}
	return nil
}
