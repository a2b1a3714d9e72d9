// Package quote turns an order draft into a full pricing breakdown by
// combining the active policy snapshot, catalog availability, and the
// pricing engine.
package quote

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-chaldduck/internal/common"
	"github.com/noah-isme/backend-chaldduck/internal/policy"
	"github.com/noah-isme/backend-chaldduck/internal/pricing"
)

// RequestItem is one order line as submitted by the caller.
type RequestItem struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
}

// Request is the order draft submitted for pricing.
type Request struct {
	PaymentMethod   string        `json:"paymentMethod"`
	FulfillmentType string        `json:"fulfillmentType"`
	ZipCode         string        `json:"zipCode"`
	Items           []RequestItem `json:"items"`
}

// SnapshotSource provides the active rule snapshot; satisfied by
// *policy.SnapshotLoader.
type SnapshotSource interface {
	Load(ctx context.Context, at time.Time) (policy.Snapshot, error)
}

// AvailabilitySource resolves inventory state; satisfied by *catalog.Service.
type AvailabilitySource interface {
	AvailabilityFor(ctx context.Context, ids []int64) (map[int64]pricing.Availability, error)
}

// Service prices order drafts against the active rule snapshot.
type Service struct {
	Snapshots SnapshotSource
	Catalog   AvailabilitySource
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Price validates the draft and evaluates it. Rule or availability
// lookup failures degrade to an empty rule set and empty availability
// rather than failing the quote; only a malformed draft is an error.
func (s *Service) Price(ctx context.Context, req Request) (pricing.Result, error) {
	draft, err := toDraft(req)
	if err != nil {
		return pricing.Result{}, err
	}

	var rules pricing.RuleSet
	if snap, err := s.Snapshots.Load(ctx, s.now()); err != nil {
		s.Logger.Warn().Err(err).Msg("load policy snapshot, pricing without rules")
	} else {
		rules = snap.RuleSet(&s.Logger)
	}

	ids := make([]int64, 0, len(draft.Items))
	for _, it := range draft.Items {
		ids = append(ids, it.ProductID)
	}
	availability, err := s.Catalog.AvailabilityFor(ctx, ids)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("availability lookup failed, quoting without inventory state")
		availability = nil
	}

	return pricing.Quote(draft, rules, availability), nil
}

func toDraft(req Request) (pricing.Draft, error) {
	payment := pricing.PaymentMethod(strings.TrimSpace(req.PaymentMethod))
	switch payment {
	case pricing.PaymentBankTransfer, pricing.PaymentCard:
	default:
		return pricing.Draft{}, badRequest("paymentMethod must be BANK_TRANSFER or CARD")
	}

	fulfillment := pricing.Fulfillment(strings.TrimSpace(req.FulfillmentType))
	switch fulfillment {
	case "":
		fulfillment = pricing.FulfillmentDelivery
	case pricing.FulfillmentDelivery, pricing.FulfillmentPickup:
	default:
		return pricing.Draft{}, badRequest("fulfillmentType must be DELIVERY or PICKUP")
	}

	if len(req.Items) == 0 {
		return pricing.Draft{}, badRequest("items are required")
	}
	items := make([]pricing.DraftItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID <= 0 {
			return pricing.Draft{}, badRequest("items[].productId must be positive")
		}
		if it.Quantity <= 0 {
			return pricing.Draft{}, badRequest("items[].quantity must be positive")
		}
		if it.UnitPrice < 0 {
			return pricing.Draft{}, badRequest("items[].unitPrice must not be negative")
		}
		items = append(items, pricing.DraftItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
		})
	}

	return pricing.Draft{
		PaymentMethod: payment,
		Fulfillment:   fulfillment,
		ZipCode:       strings.TrimSpace(req.ZipCode),
		Items:         items,
	}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func badRequest(msg string) error {
	return common.NewAppError("BAD_REQUEST", msg, http.StatusBadRequest, nil)
}
