// Package pricing evaluates time-boxed shipping and discount rules
// against an order draft to produce a final chargeable amount. The
// engine is a pure function of (draft, active rule set): it performs no
// I/O, never mutates its inputs, and always returns a result. Missing
// rules degrade to zero discount and the default-or-zero delivery fee.
package pricing

// DraftItem is one line of an order draft supplied by the caller.
type DraftItem struct {
	ProductID   int64
	ProductName string
	UnitPrice   Money
	Quantity    int
}

// Draft is the ephemeral order input the engine prices. It is
// constructed by the caller and never persisted here.
type Draft struct {
	PaymentMethod PaymentMethod
	Fulfillment   Fulfillment
	ZipCode       string
	Items         []DraftItem
}

// Availability is inventory state for a product, sourced from the
// catalog collaborator and passed through quote results unchanged.
type Availability struct {
	StockQty    int    `json:"stockQty"`
	SafetyStock int    `json:"safetyStock"`
	SoldOut     bool   `json:"soldOutStatus"`
	Orderable   bool   `json:"orderable"`
	BlockReason string `json:"blockReason,omitempty"`
}

// ItemResult is the priced form of one draft line.
type ItemResult struct {
	ProductID         int64          `json:"productId"`
	ProductName       string         `json:"productName"`
	UnitPrice         Money          `json:"unitPrice"`
	Quantity          int            `json:"quantity"`
	ItemSubtotal      Money          `json:"itemSubtotal"`
	Discounts         []DiscountLine `json:"discounts"`
	ItemDiscountTotal Money          `json:"itemDiscountTotal"`
	ItemFinal         Money          `json:"itemFinal"`
	Availability      Availability   `json:"availability"`
}

// Result is the full pricing breakdown for an order draft.
type Result struct {
	Items          []ItemResult `json:"items"`
	SubtotalAmount Money        `json:"subtotalAmount"`
	DiscountAmount Money        `json:"discountAmount"`
	DeliveryFee    Money        `json:"deliveryFee"`
	FinalAmount    Money        `json:"finalAmount"`
}

// Quote prices an order draft against an active rule snapshot. The
// availability map keys on product id; products absent from it are
// reported with a zero-valued availability block. The free shipping
// threshold compares against the pre-discount subtotal.
func Quote(draft Draft, rules RuleSet, availability map[int64]Availability) Result {
	fulfillment := draft.Fulfillment
	if fulfillment == "" {
		fulfillment = FulfillmentDelivery
	}

	items := make([]ItemResult, 0, len(draft.Items))
	var subtotal, discountTotal Money
	for _, it := range draft.Items {
		lineSubtotal := Money(0)
		if it.Quantity > 0 {
			lineSubtotal = clampNonNegative(it.UnitPrice * Money(it.Quantity))
		}

		discounts := resolveLineDiscounts(it, rules.Discount, draft.PaymentMethod, fulfillment)
		var lineDiscount Money
		for _, d := range discounts {
			lineDiscount += d.Amount
		}
		if lineDiscount > lineSubtotal {
			lineDiscount = lineSubtotal
		}

		items = append(items, ItemResult{
			ProductID:         it.ProductID,
			ProductName:       it.ProductName,
			UnitPrice:         it.UnitPrice,
			Quantity:          it.Quantity,
			ItemSubtotal:      lineSubtotal,
			Discounts:         discounts,
			ItemDiscountTotal: lineDiscount,
			ItemFinal:         lineSubtotal - lineDiscount,
			Availability:      availability[it.ProductID],
		})
		subtotal += lineSubtotal
		discountTotal += lineDiscount
	}

	var fee Money
	if fulfillment != FulfillmentPickup {
		fee = ResolveDeliveryFee(rules.Shipping, draft.ZipCode, subtotal)
	}

	return Result{
		Items:          items,
		SubtotalAmount: subtotal,
		DiscountAmount: discountTotal,
		DeliveryFee:    fee,
		FinalAmount:    clampNonNegative(subtotal - discountTotal + fee),
	}
}
