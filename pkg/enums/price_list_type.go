package enums

import "fmt"

// PriceListType distinguishes how a price list overrides the default price.
type PriceListType string

const (
	PriceListTypeDefault  PriceListType = "default"
	PriceListTypeSale     PriceListType = "sale"
	PriceListTypeOverride PriceListType = "override"
)

var validPriceListTypes = []PriceListType{
	PriceListTypeDefault,
	PriceListTypeSale,
	PriceListTypeOverride,
}

// String implements fmt.Stringer.
func (p PriceListType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceListType.
func (p PriceListType) IsValid() bool {
	for _, candidate := range validPriceListTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceListType converts raw input into a PriceListType.
func ParsePriceListType(value string) (PriceListType, error) {
	for _, candidate := range validPriceListTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price list type %q", value)
}
