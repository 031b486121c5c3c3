package cart

import "strconv"

const badgeCap = 99

// BadgeLabel formats the header cart badge: empty for an empty cart and
// "99+" past the cap.
func BadgeLabel(totalItems int) string {
	switch {
	case totalItems <= 0:
		return ""
	case totalItems > badgeCap:
		return strconv.Itoa(badgeCap) + "+"
	default:
		return strconv.Itoa(totalItems)
	}
}
