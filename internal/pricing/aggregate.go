package pricing

import "github.com/google/uuid"

// GroupQuantities sums the requested quantity per group over every item whose
// variant belongs to that group. A variant in multiple groups contributes its
// full quantity to each of them.
func GroupQuantities(items []RequestItem, variantGroups map[uuid.UUID][]string) map[string]int {
	out := make(map[string]int)
	for _, item := range items {
		for _, groupID := range variantGroups[item.VariantID] {
			out[groupID] += item.Quantity
		}
	}
	return out
}

// EffectiveQuantity returns the quantity a variant's tier is selected for:
// the maximum of its own quantity and the largest aggregate among its groups.
// The own quantity is never lowered by group membership.
func EffectiveQuantity(variantID uuid.UUID, own int, variantGroups map[uuid.UUID][]string, groupQuantities map[string]int) int {
	effective := own
	for _, groupID := range variantGroups[variantID] {
		if qty := groupQuantities[groupID]; qty > effective {
			effective = qty
		}
	}
	return effective
}
