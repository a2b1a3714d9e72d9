package pricing

// DiscountLine is one applied discount on a line item.
type DiscountLine struct {
	Label  string `json:"label"`
	Amount Money  `json:"amount"`
}

// resolveLineDiscounts computes the discount lines for a single item.
// At most one bank-transfer discount and one quantity discount apply;
// the two slots stack but rules within a slot never sum.
func resolveLineDiscounts(item DraftItem, rules []DiscountRule, payment PaymentMethod, fulfillment Fulfillment) []DiscountLine {
	lineTotal := item.UnitPrice * Money(item.Quantity)
	if lineTotal <= 0 {
		return nil
	}

	var out []DiscountLine
	for _, trigger := range []DiscountTrigger{TriggerBankTransfer, TriggerQuantity} {
		rule, ok := resolveSlot(rules, trigger, item, lineTotal, payment, fulfillment)
		if !ok {
			continue
		}
		amount := rule.Benefit.Apply(lineTotal)
		if amount <= 0 {
			continue
		}
		out = append(out, DiscountLine{Label: rule.Label, Amount: amount})
	}
	return out
}

// resolveSlot picks the single applicable rule for one trigger family.
// A PICKUP-scoped rule wins on pickup orders, with an ALL-scoped rule of
// the same trigger as fallback; non-pickup orders only ever see
// ALL-scoped rules. Ties within a scope break on the lowest rule id.
func resolveSlot(rules []DiscountRule, trigger DiscountTrigger, item DraftItem, lineTotal Money, payment PaymentMethod, fulfillment Fulfillment) (DiscountRule, bool) {
	if trigger == TriggerBankTransfer && payment != PaymentBankTransfer {
		return DiscountRule{}, false
	}

	var pickupMatch, allMatch *DiscountRule
	for i := range rules {
		r := &rules[i]
		if r.Trigger != trigger || r.TargetProductID != item.ProductID {
			continue
		}
		if trigger == TriggerQuantity && item.Quantity < r.MinQty {
			continue
		}
		if r.MinAmount > 0 && lineTotal < r.MinAmount {
			continue
		}
		switch r.Scope {
		case ScopePickup:
			if fulfillment != FulfillmentPickup {
				continue
			}
			if pickupMatch == nil || r.ID < pickupMatch.ID {
				pickupMatch = r
			}
		default:
			if allMatch == nil || r.ID < allMatch.ID {
				allMatch = r
			}
		}
	}
	if fulfillment == FulfillmentPickup && pickupMatch != nil {
		return *pickupMatch, true
	}
	if allMatch != nil {
		return *allMatch, true
	}
	return DiscountRule{}, false
}
