package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal
// whitespace runs. It is used for trip/destination name normalization.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseCategory maps free-text or external-provider category values onto the
// fixed enumeration. Unrecognized values map to CategoryAttraction, matching
// the gateway's server-side constraint.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryCity:
		return CategoryCity
	case CategoryAttraction:
		return CategoryAttraction
	case CategoryRestaurant:
		return CategoryRestaurant
	case CategoryHotel:
		return CategoryHotel
	case CategoryActivity:
		return CategoryActivity
	case CategoryOther:
		return CategoryOther
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "food", "cafe", "bar":
		return CategoryRestaurant
	case "lodging", "accommodation", "guesthouse", "hostel":
		return CategoryHotel
	case "town", "village", "locality":
		return CategoryCity
	case "museum", "monument", "landmark", "viewpoint", "park":
		return CategoryAttraction
	case "hike", "tour", "sport":
		return CategoryActivity
	}
	return CategoryAttraction
}
