package pricing

import (
	"fmt"
	"time"
)

// PaymentMethod identifies how the buyer intends to pay.
type PaymentMethod string

// Supported payment methods.
const (
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCard         PaymentMethod = "CARD"
)

// Fulfillment identifies whether an order is delivered or collected in person.
type Fulfillment string

// Supported fulfillment types.
const (
	FulfillmentDelivery Fulfillment = "DELIVERY"
	FulfillmentPickup   Fulfillment = "PICKUP"
)

// ApplyScope restricts a discount rule to pickup orders or applies it broadly.
type ApplyScope string

// Supported apply scopes.
const (
	ScopeAll    ApplyScope = "ALL"
	ScopePickup ApplyScope = "PICKUP"
)

// ShippingRuleType enumerates the shipping fee rule variants.
type ShippingRuleType string

// Supported shipping rule types.
const (
	ShipZipPrefixFee   ShippingRuleType = "ZIP_PREFIX_FEE"
	ShipFreeOverAmount ShippingRuleType = "FREE_OVER_AMOUNT"
	ShipDefaultFee     ShippingRuleType = "DEFAULT_FEE"
)

// ShippingRule is one active shipping fee rule at evaluation time.
type ShippingRule struct {
	ID             int64
	Type           ShippingRuleType
	Label          string
	ZipPrefix      string
	Fee            Money
	FreeOverAmount Money
}

// DiscountTrigger is the condition family that activates a discount rule.
type DiscountTrigger string

// Supported discount triggers.
const (
	TriggerBankTransfer DiscountTrigger = "BANK_TRANSFER"
	TriggerQuantity     DiscountTrigger = "QTY"
)

// BenefitKind tags the benefit variant of a discount rule.
type BenefitKind string

// Supported benefit kinds.
const (
	BenefitRate  BenefitKind = "RATE"
	BenefitFixed BenefitKind = "FIXED"
)

// Benefit is the tagged reduction a discount rule grants: either a
// percentage of the extended line amount or a flat amount per line.
type Benefit struct {
	Kind    BenefitKind
	Percent int64
	Amount  Money
}

// RateBenefit builds a percentage benefit. Percent is a 0-100 integer.
func RateBenefit(percent int64) Benefit {
	return Benefit{Kind: BenefitRate, Percent: percent}
}

// FixedBenefit builds a flat-amount benefit in minor units.
func FixedBenefit(amount Money) Benefit {
	return Benefit{Kind: BenefitFixed, Amount: amount}
}

// Apply computes the reduction for a pre-discount line total. Percentage
// math floors; the answer is never negative and never exceeds the line.
func (b Benefit) Apply(lineTotal Money) Money {
	if lineTotal <= 0 {
		return 0
	}
	var discount Money
	switch b.Kind {
	case BenefitRate:
		if b.Percent <= 0 {
			return 0
		}
		discount = lineTotal * b.Percent / 100
	case BenefitFixed:
		discount = b.Amount
	default:
		return 0
	}
	if discount > lineTotal {
		discount = lineTotal
	}
	return clampNonNegative(discount)
}

// DiscountRule is one active discount rule at evaluation time. Rules
// target a single product; trigger and benefit are independent axes.
type DiscountRule struct {
	ID              int64
	Trigger         DiscountTrigger
	Benefit         Benefit
	TargetProductID int64
	Label           string
	Scope           ApplyScope
	MinAmount       Money
	MinQty          int
}

// TypeName renders the rule's wire-level type identifier, e.g.
// BANK_TRANSFER_FIXED or QTY_RATE.
func (r DiscountRule) TypeName() string {
	return string(r.Trigger) + "_" + string(r.Benefit.Kind)
}

// ParseDiscountType splits a wire-level discount type identifier into
// its trigger and benefit kind.
func ParseDiscountType(name string) (DiscountTrigger, BenefitKind, error) {
	switch name {
	case "BANK_TRANSFER_FIXED":
		return TriggerBankTransfer, BenefitFixed, nil
	case "BANK_TRANSFER_RATE":
		return TriggerBankTransfer, BenefitRate, nil
	case "QTY_FIXED":
		return TriggerQuantity, BenefitFixed, nil
	case "QTY_RATE":
		return TriggerQuantity, BenefitRate, nil
	}
	return "", "", fmt.Errorf("unknown discount rule type %q", name)
}

// Window is the activity window of a policy combined with its enabled flag.
type Window struct {
	StartAt time.Time
	EndAt   time.Time
	Active  bool
}

// Contains reports whether the policy is eligible to contribute rules at
// the given instant. Both bounds are inclusive.
func (w Window) Contains(at time.Time) bool {
	if !w.Active {
		return false
	}
	if at.Before(w.StartAt) {
		return false
	}
	return !at.After(w.EndAt)
}

// RuleSet is the immutable snapshot of active rules an evaluation reads.
type RuleSet struct {
	Shipping []ShippingRule
	Discount []DiscountRule
}
