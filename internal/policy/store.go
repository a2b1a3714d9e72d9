// Package policy is the rule store: it persists time-boxed shipping and
// discount policies with their rules and answers "which rules are active
// at time T" queries for the pricing engine.
package policy

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-chaldduck/internal/common"
	"github.com/noah-isme/backend-chaldduck/internal/pricing"
)

// Kind selects one of the two policy families.
type Kind string

// Policy families.
const (
	KindShipping Kind = "shipping"
	KindDiscount Kind = "discount"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Policy is a time-boxed container owning zero or more rules.
type Policy struct {
	ID      int64     `json:"id"`
	Kind    Kind      `json:"-"`
	Name    string    `json:"name"`
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
	Active  bool      `json:"active"`
}

// Window returns the policy's activity window in the engine's form.
func (p Policy) Window() pricing.Window {
	return pricing.Window{StartAt: p.StartAt, EndAt: p.EndAt, Active: p.Active}
}

// MarshalJSON adds the computed inWindow flag so the admin UI can show
// whether a policy is currently contributing rules.
func (p Policy) MarshalJSON() ([]byte, error) {
	type alias Policy
	return json.Marshal(struct {
		alias
		InWindow bool `json:"inWindow"`
	}{alias(p), p.Window().Contains(time.Now())})
}

// ShippingRule is the persisted form of a shipping fee rule.
type ShippingRule struct {
	ID             int64  `json:"id"`
	PolicyID       int64  `json:"policyId"`
	Type           string `json:"type"`
	Label          string `json:"label"`
	ZipPrefix      string `json:"zipPrefix,omitempty"`
	Fee            int64  `json:"fee"`
	FreeOverAmount int64  `json:"freeOverAmount"`
	Active         bool   `json:"active"`
}

// DiscountRule is the persisted form of a discount rule. The unused one
// of discountRate/amountOff is stored as zero, never null; the tagged
// form lives in the pricing package.
type DiscountRule struct {
	ID              int64  `json:"id"`
	PolicyID        int64  `json:"policyId"`
	Type            string `json:"type"`
	TargetProductID int64  `json:"targetProductId"`
	Label           string `json:"label"`
	ApplyScope      string `json:"applyScope"`
	DiscountRate    int64  `json:"discountRate"`
	AmountOff       int64  `json:"amountOff"`
	MinAmount       int64  `json:"minAmount"`
	MinQty          int    `json:"minQty"`
	Active          bool   `json:"active"`
}

// Store persists policies and rules in Postgres.
type Store struct {
	DB DB
}

// PolicyInput carries the payload for creating a policy.
type PolicyInput struct {
	Name    string    `json:"name" validate:"required"`
	StartAt time.Time `json:"startAt" validate:"required"`
	EndAt   time.Time `json:"endAt" validate:"required"`
	Active  *bool     `json:"active"`
}

// CreatePolicy inserts a new policy for the given family.
func (s *Store) CreatePolicy(ctx context.Context, kind Kind, in PolicyInput) (Policy, error) {
	if err := validatePolicy(in); err != nil {
		return Policy{}, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	p := Policy{Kind: kind, Name: in.Name, StartAt: in.StartAt, EndAt: in.EndAt, Active: active}
	err := s.DB.QueryRow(ctx,
		`INSERT INTO policies (kind, name, start_at, end_at, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		string(kind), p.Name, p.StartAt, p.EndAt, p.Active,
	).Scan(&p.ID)
	if err != nil {
		return Policy{}, err
	}
	return p, nil
}

// ListPolicies returns every policy of the family, newest first.
func (s *Store) ListPolicies(ctx context.Context, kind Kind) ([]Policy, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT id, name, start_at, end_at, active
		 FROM policies WHERE kind = $1 ORDER BY id DESC`,
		string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Policy, 0)
	for rows.Next() {
		p := Policy{Kind: kind}
		if err := rows.Scan(&p.ID, &p.Name, &p.StartAt, &p.EndAt, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPolicy fetches one policy of the family by id.
func (s *Store) GetPolicy(ctx context.Context, kind Kind, id int64) (Policy, error) {
	p := Policy{Kind: kind}
	err := s.DB.QueryRow(ctx,
		`SELECT id, name, start_at, end_at, active
		 FROM policies WHERE kind = $1 AND id = $2`,
		string(kind), id,
	).Scan(&p.ID, &p.Name, &p.StartAt, &p.EndAt, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Policy{}, common.NewNotFoundError(string(kind)+" policy", id)
	}
	if err != nil {
		return Policy{}, err
	}
	return p, nil
}

// SetPolicyActive toggles a policy's enabled flag in place.
func (s *Store) SetPolicyActive(ctx context.Context, kind Kind, id int64, active bool) (Policy, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE policies SET active = $1 WHERE kind = $2 AND id = $3`,
		active, string(kind), id)
	if err != nil {
		return Policy{}, err
	}
	if tag.RowsAffected() == 0 {
		return Policy{}, common.NewNotFoundError(string(kind)+" policy", id)
	}
	return s.GetPolicy(ctx, kind, id)
}

// DeletePolicy removes a policy; its rules cascade in the database.
func (s *Store) DeletePolicy(ctx context.Context, kind Kind, id int64) error {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM policies WHERE kind = $1 AND id = $2`,
		string(kind), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError(string(kind)+" policy", id)
	}
	return nil
}

// CreateShippingRule attaches a validated shipping rule to a policy.
func (s *Store) CreateShippingRule(ctx context.Context, policyID int64, in ShippingRuleInput) (ShippingRule, error) {
	if err := validateShippingRule(in); err != nil {
		return ShippingRule{}, err
	}
	if _, err := s.GetPolicy(ctx, KindShipping, policyID); err != nil {
		return ShippingRule{}, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	r := ShippingRule{
		PolicyID:       policyID,
		Type:           in.Type,
		Label:          in.Label,
		ZipPrefix:      in.ZipPrefix,
		Fee:            in.Fee,
		FreeOverAmount: in.FreeOverAmount,
		Active:         active,
	}
	err := s.DB.QueryRow(ctx,
		`INSERT INTO shipping_rules (policy_id, type, label, zip_prefix, fee, free_over_amount, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		r.PolicyID, r.Type, r.Label, r.ZipPrefix, r.Fee, r.FreeOverAmount, r.Active,
	).Scan(&r.ID)
	if err != nil {
		return ShippingRule{}, err
	}
	return r, nil
}

// CreateDiscountRule attaches a validated discount rule to a policy.
func (s *Store) CreateDiscountRule(ctx context.Context, policyID int64, in DiscountRuleInput) (DiscountRule, error) {
	if err := validateDiscountRule(in); err != nil {
		return DiscountRule{}, err
	}
	if _, err := s.GetPolicy(ctx, KindDiscount, policyID); err != nil {
		return DiscountRule{}, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	scope := in.ApplyScope
	if scope == "" {
		scope = "ALL"
	}
	r := DiscountRule{
		PolicyID:        policyID,
		Type:            in.Type,
		TargetProductID: in.TargetProductID,
		Label:           in.Label,
		ApplyScope:      scope,
		DiscountRate:    in.DiscountRate,
		AmountOff:       in.AmountOff,
		MinAmount:       in.MinAmount,
		MinQty:          in.MinQty,
		Active:          active,
	}
	err := s.DB.QueryRow(ctx,
		`INSERT INTO discount_rules (policy_id, type, target_product_id, label, apply_scope, discount_rate, amount_off, min_amount, min_qty, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		r.PolicyID, r.Type, r.TargetProductID, r.Label, r.ApplyScope,
		r.DiscountRate, r.AmountOff, r.MinAmount, r.MinQty, r.Active,
	).Scan(&r.ID)
	if err != nil {
		return DiscountRule{}, err
	}
	return r, nil
}

// ListShippingRules returns a policy's shipping rules ordered by id.
func (s *Store) ListShippingRules(ctx context.Context, policyID int64) ([]ShippingRule, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT id, policy_id, type, label, zip_prefix, fee, free_over_amount, active
		 FROM shipping_rules WHERE policy_id = $1 ORDER BY id`,
		policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShippingRules(rows)
}

// ListDiscountRules returns a policy's discount rules ordered by id.
func (s *Store) ListDiscountRules(ctx context.Context, policyID int64) ([]DiscountRule, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT id, policy_id, type, target_product_id, label, apply_scope, discount_rate, amount_off, min_amount, min_qty, active
		 FROM discount_rules WHERE policy_id = $1 ORDER BY id`,
		policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDiscountRules(rows)
}

// DeleteShippingRule removes a single shipping rule.
func (s *Store) DeleteShippingRule(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM shipping_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("shipping rule", id)
	}
	return nil
}

// DeleteDiscountRule removes a single discount rule.
func (s *Store) DeleteDiscountRule(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM discount_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("discount rule", id)
	}
	return nil
}

// ListActiveShippingRules returns shipping rules whose policy window
// contains the instant and whose own active flag is set.
func (s *Store) ListActiveShippingRules(ctx context.Context, at time.Time) ([]ShippingRule, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT r.id, r.policy_id, r.type, r.label, r.zip_prefix, r.fee, r.free_over_amount, r.active
		 FROM shipping_rules r
		 JOIN policies p ON p.id = r.policy_id
		 WHERE p.kind = 'shipping' AND p.active AND r.active
		   AND p.start_at <= $1 AND p.end_at >= $1
		 ORDER BY r.id`,
		at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShippingRules(rows)
}

// ListActiveDiscountRules returns discount rules whose policy window
// contains the instant and whose own active flag is set.
func (s *Store) ListActiveDiscountRules(ctx context.Context, at time.Time) ([]DiscountRule, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT r.id, r.policy_id, r.type, r.target_product_id, r.label, r.apply_scope, r.discount_rate, r.amount_off, r.min_amount, r.min_qty, r.active
		 FROM discount_rules r
		 JOIN policies p ON p.id = r.policy_id
		 WHERE p.kind = 'discount' AND p.active AND r.active
		   AND p.start_at <= $1 AND p.end_at >= $1
		 ORDER BY r.id`,
		at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDiscountRules(rows)
}

// DeactivateExpiredPolicies clears the active flag on policies whose
// window has fully passed. Used by the background sweep.
func (s *Store) DeactivateExpiredPolicies(ctx context.Context, at time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE policies SET active = FALSE WHERE active AND end_at < $1`, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanShippingRules(rows pgx.Rows) ([]ShippingRule, error) {
	out := make([]ShippingRule, 0)
	for rows.Next() {
		var r ShippingRule
		if err := rows.Scan(&r.ID, &r.PolicyID, &r.Type, &r.Label, &r.ZipPrefix, &r.Fee, &r.FreeOverAmount, &r.Active); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanDiscountRules(rows pgx.Rows) ([]DiscountRule, error) {
	out := make([]DiscountRule, 0)
	for rows.Next() {
		var r DiscountRule
		if err := rows.Scan(&r.ID, &r.PolicyID, &r.Type, &r.TargetProductID, &r.Label, &r.ApplyScope, &r.DiscountRate, &r.AmountOff, &r.MinAmount, &r.MinQty, &r.Active); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
