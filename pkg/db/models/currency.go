package models

// Currency carries the default tax-inclusive flag for prices denominated in it.
type Currency struct {
	Code        string `gorm:"column:code;primaryKey"`
	Name        string `gorm:"column:name;not null"`
	IncludesTax bool   `gorm:"column:includes_tax;not null;default:false"`
}
