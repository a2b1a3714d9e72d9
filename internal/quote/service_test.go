package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-chaldduck/internal/common"
	"github.com/noah-isme/backend-chaldduck/internal/policy"
	"github.com/noah-isme/backend-chaldduck/internal/pricing"
)

type fakeSnapshots struct {
	snap policy.Snapshot
	err  error
}

func (f *fakeSnapshots) Load(context.Context, time.Time) (policy.Snapshot, error) {
	return f.snap, f.err
}

type fakeCatalog struct {
	availability map[int64]pricing.Availability
	err          error
	gotIDs       []int64
}

func (f *fakeCatalog) AvailabilityFor(_ context.Context, ids []int64) (map[int64]pricing.Availability, error) {
	f.gotIDs = ids
	return f.availability, f.err
}

func newService(snaps SnapshotSource, cat AvailabilitySource) *Service {
	return &Service{
		Snapshots: snaps,
		Catalog:   cat,
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestPriceAppliesActiveRules(t *testing.T) {
	snaps := &fakeSnapshots{snap: policy.Snapshot{
		Shipping: []policy.ShippingRule{
			{ID: 1, Type: "DEFAULT_FEE", Fee: 3000, Active: true},
		},
		Discount: []policy.DiscountRule{
			{ID: 1, Type: "BANK_TRANSFER_RATE", TargetProductID: 7, ApplyScope: "ALL", DiscountRate: 10, Active: true},
		},
	}}
	cat := &fakeCatalog{availability: map[int64]pricing.Availability{
		7: {StockQty: 5, Orderable: true},
	}}
	svc := newService(snaps, cat)

	res, err := svc.Price(context.Background(), Request{
		PaymentMethod: "BANK_TRANSFER",
		ZipCode:       "06035",
		Items: []RequestItem{
			{ProductID: 7, ProductName: "찰떡 세트", UnitPrice: 10000, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(20000), res.SubtotalAmount)
	require.Equal(t, int64(2000), res.DiscountAmount)
	require.Equal(t, int64(3000), res.DeliveryFee)
	require.Equal(t, int64(21000), res.FinalAmount)
	require.Equal(t, []int64{7}, cat.gotIDs)
	require.True(t, res.Items[0].Availability.Orderable)
}

func TestPriceDegradesWhenSnapshotUnavailable(t *testing.T) {
	snaps := &fakeSnapshots{err: errors.New("redis down")}
	cat := &fakeCatalog{err: errors.New("db down")}
	svc := newService(snaps, cat)

	res, err := svc.Price(context.Background(), Request{
		PaymentMethod: "CARD",
		Items:         []RequestItem{{ProductID: 1, UnitPrice: 5000, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(5000), res.SubtotalAmount)
	require.Zero(t, res.DiscountAmount)
	require.Zero(t, res.DeliveryFee)
	require.Equal(t, int64(5000), res.FinalAmount)
}

func TestPriceDefaultsFulfillmentToDelivery(t *testing.T) {
	snaps := &fakeSnapshots{snap: policy.Snapshot{
		Shipping: []policy.ShippingRule{{ID: 1, Type: "DEFAULT_FEE", Fee: 2500, Active: true}},
	}}
	svc := newService(snaps, &fakeCatalog{})

	res, err := svc.Price(context.Background(), Request{
		PaymentMethod: "CARD",
		Items:         []RequestItem{{ProductID: 1, UnitPrice: 1000, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2500), res.DeliveryFee)
}

func TestPricePickupSkipsDeliveryFee(t *testing.T) {
	snaps := &fakeSnapshots{snap: policy.Snapshot{
		Shipping: []policy.ShippingRule{{ID: 1, Type: "DEFAULT_FEE", Fee: 2500, Active: true}},
	}}
	svc := newService(snaps, &fakeCatalog{})

	res, err := svc.Price(context.Background(), Request{
		PaymentMethod:   "CARD",
		FulfillmentType: "PICKUP",
		Items:           []RequestItem{{ProductID: 1, UnitPrice: 1000, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Zero(t, res.DeliveryFee)
}

func TestPriceRejectsMalformedDrafts(t *testing.T) {
	svc := newService(&fakeSnapshots{}, &fakeCatalog{})

	cases := []struct {
		name string
		req  Request
	}{
		{"unknown payment method", Request{PaymentMethod: "CASH", Items: []RequestItem{{ProductID: 1, UnitPrice: 100, Quantity: 1}}}},
		{"unknown fulfillment", Request{PaymentMethod: "CARD", FulfillmentType: "DRONE", Items: []RequestItem{{ProductID: 1, UnitPrice: 100, Quantity: 1}}}},
		{"no items", Request{PaymentMethod: "CARD"}},
		{"zero quantity", Request{PaymentMethod: "CARD", Items: []RequestItem{{ProductID: 1, UnitPrice: 100}}}},
		{"negative unit price", Request{PaymentMethod: "CARD", Items: []RequestItem{{ProductID: 1, UnitPrice: -1, Quantity: 1}}}},
		{"missing product id", Request{PaymentMethod: "CARD", Items: []RequestItem{{UnitPrice: 100, Quantity: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Price(context.Background(), tc.req)
			require.Error(t, err)
			appErr, ok := common.AsAppError(err)
			require.True(t, ok)
			require.Equal(t, "BAD_REQUEST", appErr.Code)
		})
	}
}
