package quote

import (
	"encoding/json"
	"net/http"

	"github.com/noah-isme/backend-chaldduck/internal/common"
	"github.com/noah-isme/backend-chaldduck/internal/obs"
	"github.com/noah-isme/backend-chaldduck/internal/pricing"
)

// Handler serves the public quote endpoint.
type Handler struct {
	Svc *Service
}

// Create prices an order draft and returns the full breakdown.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	res, err := h.Svc.Price(r.Context(), req)
	if err != nil {
		recordQuote(req, pricing.Result{}, "rejected")
		common.JSONAppError(w, err)
		return
	}

	recordQuote(req, res, "ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

func recordQuote(req Request, res pricing.Result, outcome string) {
	if obs.QuotesTotal == nil {
		return
	}
	fulfillment := req.FulfillmentType
	if fulfillment == "" {
		fulfillment = string(pricing.FulfillmentDelivery)
	}
	obs.QuotesTotal.WithLabelValues(req.PaymentMethod, fulfillment, outcome).Inc()
	if outcome != "ok" {
		return
	}
	obs.QuoteDiscountAmount.Observe(float64(res.DiscountAmount))
	feeOutcome := "charged"
	if res.DeliveryFee == 0 {
		feeOutcome = "waived"
	}
	obs.QuoteDeliveryFeeTotal.WithLabelValues(feeOutcome).Inc()
}
