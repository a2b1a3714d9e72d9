package pricing

import "strings"

// ResolveDeliveryFee computes the delivery fee for an order given the
// active shipping rules, the destination postal code, and the
// pre-discount subtotal. Precedence: a satisfied FREE_OVER_AMOUNT rule
// waives the fee entirely; otherwise the most specific matching
// ZIP_PREFIX_FEE rule applies; otherwise the DEFAULT_FEE rule; with no
// match at all the fee is zero.
func ResolveDeliveryFee(rules []ShippingRule, zipCode string, subtotal Money) Money {
	zip := strings.TrimSpace(zipCode)

	var (
		zipMatch     *ShippingRule
		defaultMatch *ShippingRule
	)
	for i := range rules {
		r := &rules[i]
		switch r.Type {
		case ShipFreeOverAmount:
			if subtotal >= r.FreeOverAmount {
				return 0
			}
		case ShipZipPrefixFee:
			if r.ZipPrefix == "" || zip == "" || !strings.HasPrefix(zip, r.ZipPrefix) {
				continue
			}
			if zipMatch == nil || morePrecise(r, zipMatch) {
				zipMatch = r
			}
		case ShipDefaultFee:
			if defaultMatch == nil || r.ID < defaultMatch.ID {
				defaultMatch = r
			}
		}
	}
	if zipMatch != nil {
		return clampNonNegative(zipMatch.Fee)
	}
	if defaultMatch != nil {
		return clampNonNegative(defaultMatch.Fee)
	}
	return 0
}

// morePrecise reports whether candidate should replace current as the
// winning zip rule: longest matching prefix wins, then lowest rule id.
func morePrecise(candidate, current *ShippingRule) bool {
	if len(candidate.ZipPrefix) != len(current.ZipPrefix) {
		return len(candidate.ZipPrefix) > len(current.ZipPrefix)
	}
	return candidate.ID < current.ID
}
