package pricing

import (
	"reflect"
	"testing"
	"time"
)

func sampleRuleSet() RuleSet {
	return RuleSet{
		Shipping: []ShippingRule{
			{ID: 1, Type: ShipFreeOverAmount, FreeOverAmount: 50_000},
			{ID: 2, Type: ShipZipPrefixFee, ZipPrefix: "060", Fee: 2000},
			{ID: 3, Type: ShipDefaultFee, Fee: 3000},
		},
		Discount: []DiscountRule{
			{ID: 1, Trigger: TriggerBankTransfer, Benefit: FixedBenefit(1000), TargetProductID: 1, Label: "계좌이체 할인", Scope: ScopeAll},
			{ID: 2, Trigger: TriggerQuantity, Benefit: RateBenefit(10), TargetProductID: 1, Label: "수량 할인", Scope: ScopeAll, MinQty: 2},
		},
	}
}

func TestQuoteBreakdown(t *testing.T) {
	draft := Draft{
		PaymentMethod: PaymentBankTransfer,
		Fulfillment:   FulfillmentDelivery,
		ZipCode:       "07001",
		Items: []DraftItem{
			{ProductID: 1, ProductName: "찰떡 세트", UnitPrice: 10_000, Quantity: 3},
			{ProductID: 2, ProductName: "약과", UnitPrice: 5000, Quantity: 1},
		},
	}

	res := Quote(draft, sampleRuleSet(), nil)

	if res.SubtotalAmount != 35_000 {
		t.Fatalf("expected subtotal 35000, got %d", res.SubtotalAmount)
	}
	// Item 1: 1000 fixed transfer discount + floor(30000*10/100)=3000 quantity discount.
	if res.Items[0].ItemDiscountTotal != 4000 {
		t.Fatalf("expected item discount 4000, got %d", res.Items[0].ItemDiscountTotal)
	}
	if res.Items[0].ItemFinal != 26_000 {
		t.Fatalf("expected item final 26000, got %d", res.Items[0].ItemFinal)
	}
	if res.DiscountAmount != 4000 {
		t.Fatalf("expected discount total 4000, got %d", res.DiscountAmount)
	}
	if res.DeliveryFee != 3000 {
		t.Fatalf("expected default delivery fee 3000, got %d", res.DeliveryFee)
	}
	if res.FinalAmount != 34_000 {
		t.Fatalf("expected final 34000, got %d", res.FinalAmount)
	}
}

func TestQuoteIdempotent(t *testing.T) {
	draft := Draft{
		PaymentMethod: PaymentBankTransfer,
		ZipCode:       "06035",
		Items:         []DraftItem{{ProductID: 1, UnitPrice: 10_000, Quantity: 3}},
	}
	rules := sampleRuleSet()
	first := Quote(draft, rules, nil)
	second := Quote(draft, rules, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v vs %+v", first, second)
	}
}

func TestQuoteNeverNegative(t *testing.T) {
	rules := RuleSet{
		Discount: []DiscountRule{
			{ID: 1, Trigger: TriggerBankTransfer, Benefit: FixedBenefit(999_999), TargetProductID: 1, Scope: ScopeAll},
		},
	}
	draft := Draft{
		PaymentMethod: PaymentBankTransfer,
		Items:         []DraftItem{{ProductID: 1, UnitPrice: 100, Quantity: 1}},
	}
	res := Quote(draft, rules, nil)
	if res.Items[0].ItemFinal < 0 {
		t.Fatalf("item final went negative: %d", res.Items[0].ItemFinal)
	}
	if res.FinalAmount < 0 {
		t.Fatalf("final amount went negative: %d", res.FinalAmount)
	}
}

func TestQuoteDiscountMonotonicity(t *testing.T) {
	rules := sampleRuleSet()
	prevPerUnit := int64(-1)
	for qty := 1; qty <= 10; qty++ {
		draft := Draft{
			PaymentMethod: PaymentCard,
			Items:         []DraftItem{{ProductID: 1, UnitPrice: 10_000, Quantity: qty}},
		}
		res := Quote(draft, rules, nil)
		perUnit := res.Items[0].ItemFinal / int64(qty)
		if perUnit > 10_000 {
			t.Fatalf("qty %d: per-unit price %d exceeds undiscounted unit price", qty, perUnit)
		}
		if prevPerUnit >= 0 && qty > 2 && perUnit > prevPerUnit {
			t.Fatalf("qty %d: per-unit price rose from %d to %d", qty, prevPerUnit, perUnit)
		}
		prevPerUnit = perUnit
	}
}

func TestQuoteUnmatchedProduct(t *testing.T) {
	draft := Draft{
		PaymentMethod: PaymentCard,
		ZipCode:       "06035",
		Items:         []DraftItem{{ProductID: 42, ProductName: "인절미", UnitPrice: 8000, Quantity: 2}},
	}
	res := Quote(draft, sampleRuleSet(), nil)
	item := res.Items[0]
	if len(item.Discounts) != 0 || item.ItemDiscountTotal != 0 {
		t.Fatalf("expected no discounts for unmatched product, got %+v", item)
	}
	if item.ItemFinal != item.ItemSubtotal {
		t.Fatalf("expected final == subtotal, got %d vs %d", item.ItemFinal, item.ItemSubtotal)
	}
}

func TestQuotePickupSkipsDeliveryFee(t *testing.T) {
	draft := Draft{
		PaymentMethod: PaymentCard,
		Fulfillment:   FulfillmentPickup,
		ZipCode:       "06035",
		Items:         []DraftItem{{ProductID: 2, UnitPrice: 5000, Quantity: 1}},
	}
	res := Quote(draft, sampleRuleSet(), nil)
	if res.DeliveryFee != 0 {
		t.Fatalf("expected no delivery fee on pickup, got %d", res.DeliveryFee)
	}
}

func TestQuoteFreeShippingUsesPreDiscountSubtotal(t *testing.T) {
	rules := RuleSet{
		Shipping: []ShippingRule{
			{ID: 1, Type: ShipFreeOverAmount, FreeOverAmount: 50_000},
			{ID: 2, Type: ShipDefaultFee, Fee: 3000},
		},
		Discount: []DiscountRule{
			{ID: 1, Trigger: TriggerBankTransfer, Benefit: FixedBenefit(10_000), TargetProductID: 1, Scope: ScopeAll},
		},
	}
	draft := Draft{
		PaymentMethod: PaymentBankTransfer,
		ZipCode:       "06035",
		Items:         []DraftItem{{ProductID: 1, UnitPrice: 50_000, Quantity: 1}},
	}
	res := Quote(draft, rules, nil)
	// Post-discount total is 40000, but the threshold reads the 50000 subtotal.
	if res.DeliveryFee != 0 {
		t.Fatalf("expected free shipping from pre-discount subtotal, got fee %d", res.DeliveryFee)
	}
}

func TestQuoteAvailabilityPassthrough(t *testing.T) {
	avail := map[int64]Availability{
		1: {StockQty: 4, SafetyStock: 2, Orderable: true},
	}
	draft := Draft{
		PaymentMethod: PaymentCard,
		Items: []DraftItem{
			{ProductID: 1, UnitPrice: 1000, Quantity: 1},
			{ProductID: 2, UnitPrice: 1000, Quantity: 1},
		},
	}
	res := Quote(draft, sampleRuleSet(), avail)
	if !reflect.DeepEqual(res.Items[0].Availability, avail[1]) {
		t.Fatalf("availability not passed through: %+v", res.Items[0].Availability)
	}
	if res.Items[1].Availability != (Availability{}) {
		t.Fatalf("expected zero availability for unknown product, got %+v", res.Items[1].Availability)
	}
}

func TestWindowContains(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	w := Window{StartAt: start, EndAt: end, Active: true}

	if !w.Contains(start) || !w.Contains(end) {
		t.Fatal("window bounds should be inclusive")
	}
	if w.Contains(end.Add(time.Second)) {
		t.Fatal("expired window should not contain")
	}
	w.Active = false
	if w.Contains(start.Add(time.Hour)) {
		t.Fatal("inactive policy should never contain")
	}
}
