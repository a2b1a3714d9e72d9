// Package catalog provides the read-only product availability lookup
// the quote endpoint attaches to pricing results. Inventory state is
// owned by the external product service; this package only reads it.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-chaldduck/internal/pricing"
)

// DB is the subset of pgxpool.Pool the service needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Product is the inventory view of one catalog entry.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unitPrice"`
	StockQty    int    `json:"stockQty"`
	SafetyStock int    `json:"safetyStock"`
	SoldOut     bool   `json:"soldOut"`
}

// Service looks up product availability with a short-lived Redis cache.
type Service struct {
	DB    DB
	Cache *Cache
}

// Availability derives the orderability block for one product.
func (p Product) Availability() pricing.Availability {
	a := pricing.Availability{
		StockQty:    p.StockQty,
		SafetyStock: p.SafetyStock,
		SoldOut:     p.SoldOut,
	}
	switch {
	case p.SoldOut:
		a.BlockReason = "sold out"
	case p.StockQty <= p.SafetyStock:
		a.BlockReason = "below safety stock"
	default:
		a.Orderable = true
	}
	return a
}

// AvailabilityFor resolves availability for the requested product ids.
// Unknown products are reported unorderable with a reason instead of
// failing the lookup.
func (s *Service) AvailabilityFor(ctx context.Context, ids []int64) (map[int64]pricing.Availability, error) {
	out := make(map[int64]pricing.Availability, len(ids))
	missing := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, seen := out[id]; seen {
			continue
		}
		var cached Product
		if hit, err := s.Cache.GetJSON(ctx, productCacheKey(id), &cached); err == nil && hit {
			out[id] = cached.Availability()
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	rows, err := s.DB.Query(ctx,
		`SELECT id, name, unit_price, stock_qty, safety_stock, sold_out
		 FROM products WHERE id = ANY($1)`,
		missing)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[int64]bool, len(missing))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.UnitPrice, &p.StockQty, &p.SafetyStock, &p.SoldOut); err != nil {
			return nil, err
		}
		found[p.ID] = true
		out[p.ID] = p.Availability()
		_ = s.Cache.SetJSON(ctx, productCacheKey(p.ID), p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range missing {
		if !found[id] {
			out[id] = pricing.Availability{BlockReason: "unknown product"}
		}
	}
	return out, nil
}

func productCacheKey(id int64) string {
	return fmt.Sprintf("catalog:product:%d", id)
}
