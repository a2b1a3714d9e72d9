package policy

import (
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-chaldduck/internal/common"
	"github.com/noah-isme/backend-chaldduck/internal/pricing"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ShippingRuleInput carries the payload for creating a shipping rule.
type ShippingRuleInput struct {
	Type           string `json:"type" validate:"required,oneof=ZIP_PREFIX_FEE FREE_OVER_AMOUNT DEFAULT_FEE"`
	Label          string `json:"label" validate:"required"`
	ZipPrefix      string `json:"zipPrefix"`
	Fee            int64  `json:"fee" validate:"gte=0"`
	FreeOverAmount int64  `json:"freeOverAmount" validate:"gte=0"`
	Active         *bool  `json:"active"`
}

// DiscountRuleInput carries the payload for creating a discount rule.
type DiscountRuleInput struct {
	Type            string `json:"type" validate:"required,oneof=BANK_TRANSFER_FIXED BANK_TRANSFER_RATE QTY_FIXED QTY_RATE"`
	TargetProductID int64  `json:"targetProductId" validate:"required,gt=0"`
	Label           string `json:"label" validate:"required"`
	ApplyScope      string `json:"applyScope" validate:"omitempty,oneof=ALL PICKUP"`
	DiscountRate    int64  `json:"discountRate" validate:"gte=0,lte=100"`
	AmountOff       int64  `json:"amountOff" validate:"gte=0"`
	MinAmount       int64  `json:"minAmount" validate:"gte=0"`
	MinQty          int    `json:"minQty" validate:"gte=0"`
	Active          *bool  `json:"active"`
}

func validatePolicy(in PolicyInput) error {
	if err := validate.Struct(in); err != nil {
		return firstFieldError(err)
	}
	if in.EndAt.Before(in.StartAt) {
		return common.NewValidationError("endAt", "must not precede startAt")
	}
	return nil
}

// validateShippingRule enforces the type-required fields on top of the
// struct tags: each variant names the field it cannot work without.
func validateShippingRule(in ShippingRuleInput) error {
	if err := validate.Struct(in); err != nil {
		return firstFieldError(err)
	}
	switch pricing.ShippingRuleType(in.Type) {
	case pricing.ShipZipPrefixFee:
		if in.ZipPrefix == "" {
			return common.NewValidationError("zipPrefix", "required for ZIP_PREFIX_FEE rules")
		}
		if in.Fee <= 0 {
			return common.NewValidationError("fee", "required for ZIP_PREFIX_FEE rules")
		}
	case pricing.ShipFreeOverAmount:
		if in.FreeOverAmount <= 0 {
			return common.NewValidationError("freeOverAmount", "required for FREE_OVER_AMOUNT rules")
		}
	case pricing.ShipDefaultFee:
		if in.Fee <= 0 {
			return common.NewValidationError("fee", "required for DEFAULT_FEE rules")
		}
	}
	return nil
}

// validateDiscountRule enforces the rate/amount mutual exclusivity: the
// field the type does not use must stay zero.
func validateDiscountRule(in DiscountRuleInput) error {
	if err := validate.Struct(in); err != nil {
		return firstFieldError(err)
	}
	_, kind, err := pricing.ParseDiscountType(in.Type)
	if err != nil {
		return common.NewValidationError("type", err.Error())
	}
	switch kind {
	case pricing.BenefitRate:
		if in.DiscountRate <= 0 {
			return common.NewValidationError("discountRate", "required for rate rules")
		}
		if in.AmountOff != 0 {
			return common.NewValidationError("amountOff", "must be zero for rate rules")
		}
	case pricing.BenefitFixed:
		if in.AmountOff <= 0 {
			return common.NewValidationError("amountOff", "required for fixed rules")
		}
		if in.DiscountRate != 0 {
			return common.NewValidationError("discountRate", "must be zero for fixed rules")
		}
	}
	return nil
}

func firstFieldError(err error) error {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return common.NewValidationError(fe.Field(), "failed "+fe.Tag()+" validation")
	}
	return common.NewValidationError("payload", err.Error())
}

// Engine converts a persisted shipping rule into its evaluation form.
func (r ShippingRule) Engine() pricing.ShippingRule {
	return pricing.ShippingRule{
		ID:             r.ID,
		Type:           pricing.ShippingRuleType(r.Type),
		Label:          r.Label,
		ZipPrefix:      r.ZipPrefix,
		Fee:            r.Fee,
		FreeOverAmount: r.FreeOverAmount,
	}
}

// Engine converts a persisted discount rule into the tagged evaluation
// form, resolving the zeroed-field encoding into a Benefit variant.
func (r DiscountRule) Engine() (pricing.DiscountRule, error) {
	trigger, kind, err := pricing.ParseDiscountType(r.Type)
	if err != nil {
		return pricing.DiscountRule{}, err
	}
	var benefit pricing.Benefit
	switch kind {
	case pricing.BenefitRate:
		benefit = pricing.RateBenefit(r.DiscountRate)
	case pricing.BenefitFixed:
		benefit = pricing.FixedBenefit(r.AmountOff)
	}
	return pricing.DiscountRule{
		ID:              r.ID,
		Trigger:         trigger,
		Benefit:         benefit,
		TargetProductID: r.TargetProductID,
		Label:           r.Label,
		Scope:           pricing.ApplyScope(r.ApplyScope),
		MinAmount:       r.MinAmount,
		MinQty:          r.MinQty,
	}, nil
}
