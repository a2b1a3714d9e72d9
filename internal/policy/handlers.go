package policy

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-chaldduck/internal/common"
)

// Handler exposes administrative policy and rule management endpoints.
type Handler struct {
	Store     *Store
	Snapshots *SnapshotLoader
}

// Mount registers the admin routes for both policy families.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/shipping-policies", func(sp chi.Router) {
		sp.Get("/", h.listPolicies(KindShipping))
		sp.Post("/", h.createPolicy(KindShipping))
		sp.Route("/{policyID}", func(p chi.Router) {
			p.Delete("/", h.deletePolicy(KindShipping))
			p.Patch("/active", h.togglePolicy(KindShipping))
			p.Get("/rules", h.ListShippingRules)
			p.Post("/rules", h.CreateShippingRule)
		})
	})
	r.Delete("/shipping-rules/{ruleID}", h.DeleteShippingRule)

	r.Route("/discount-policies", func(dp chi.Router) {
		dp.Get("/", h.listPolicies(KindDiscount))
		dp.Post("/", h.createPolicy(KindDiscount))
		dp.Route("/{policyID}", func(p chi.Router) {
			p.Delete("/", h.deletePolicy(KindDiscount))
			p.Patch("/active", h.togglePolicy(KindDiscount))
			p.Get("/rules", h.ListDiscountRules)
			p.Post("/rules", h.CreateDiscountRule)
		})
	})
	r.Delete("/discount-rules/{ruleID}", h.DeleteDiscountRule)
}

func (h *Handler) createPolicy(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in PolicyInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
			return
		}
		created, err := h.Store.CreatePolicy(r.Context(), kind, in)
		if err != nil {
			common.JSONAppError(w, err)
			return
		}
		h.Snapshots.Invalidate(r.Context())
		common.JSON(w, http.StatusCreated, map[string]any{"data": created})
	}
}

func (h *Handler) listPolicies(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		policies, err := h.Store.ListPolicies(r.Context(), kind)
		if err != nil {
			common.JSONAppError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": policies})
	}
}

func (h *Handler) deletePolicy(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "policyID")
		if !ok {
			return
		}
		if err := h.Store.DeletePolicy(r.Context(), kind, id); err != nil {
			common.JSONAppError(w, err)
			return
		}
		h.Snapshots.Invalidate(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

type toggleInput struct {
	Active *bool `json:"active"`
}

func (h *Handler) togglePolicy(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "policyID")
		if !ok {
			return
		}
		var in toggleInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Active == nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "active flag is required", nil)
			return
		}
		updated, err := h.Store.SetPolicyActive(r.Context(), kind, id, *in.Active)
		if err != nil {
			common.JSONAppError(w, err)
			return
		}
		h.Snapshots.Invalidate(r.Context())
		common.JSON(w, http.StatusOK, map[string]any{"data": updated})
	}
}

// CreateShippingRule attaches a new rule to a shipping policy.
func (h *Handler) CreateShippingRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "policyID")
	if !ok {
		return
	}
	var in ShippingRuleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	rule, err := h.Store.CreateShippingRule(r.Context(), id, in)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	h.Snapshots.Invalidate(r.Context())
	common.JSON(w, http.StatusCreated, map[string]any{"data": rule})
}

// ListShippingRules lists the rules of one shipping policy.
func (h *Handler) ListShippingRules(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "policyID")
	if !ok {
		return
	}
	rules, err := h.Store.ListShippingRules(r.Context(), id)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rules})
}

// DeleteShippingRule removes one shipping rule by id.
func (h *Handler) DeleteShippingRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "ruleID")
	if !ok {
		return
	}
	if err := h.Store.DeleteShippingRule(r.Context(), id); err != nil {
		common.JSONAppError(w, err)
		return
	}
	h.Snapshots.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// CreateDiscountRule attaches a new rule to a discount policy.
func (h *Handler) CreateDiscountRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "policyID")
	if !ok {
		return
	}
	var in DiscountRuleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	rule, err := h.Store.CreateDiscountRule(r.Context(), id, in)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	h.Snapshots.Invalidate(r.Context())
	common.JSON(w, http.StatusCreated, map[string]any{"data": rule})
}

// ListDiscountRules lists the rules of one discount policy.
func (h *Handler) ListDiscountRules(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "policyID")
	if !ok {
		return
	}
	rules, err := h.Store.ListDiscountRules(r.Context(), id)
	if err != nil {
		common.JSONAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rules})
}

// DeleteDiscountRule removes one discount rule by id.
func (h *Handler) DeleteDiscountRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "ruleID")
	if !ok {
		return
	}
	if err := h.Store.DeleteDiscountRule(r.Context(), id); err != nil {
		common.JSONAppError(w, err)
		return
	}
	h.Snapshots.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", name+" must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
