package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestProductAvailability(t *testing.T) {
	t.Parallel()

	orderable := Product{ID: 1, StockQty: 10, SafetyStock: 2}
	a := orderable.Availability()
	require.True(t, a.Orderable)
	require.Empty(t, a.BlockReason)

	soldOut := Product{ID: 2, StockQty: 10, SafetyStock: 2, SoldOut: true}
	a = soldOut.Availability()
	require.False(t, a.Orderable)
	require.Equal(t, "sold out", a.BlockReason)
	require.True(t, a.SoldOut)

	lowStock := Product{ID: 3, StockQty: 2, SafetyStock: 2}
	a = lowStock.Availability()
	require.False(t, a.Orderable)
	require.Equal(t, "below safety stock", a.BlockReason)
}

func TestAvailabilityForServesFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewCache(client, time.Minute)
	ctx := context.Background()
	cached := Product{ID: 7, Name: "꿀찰떡 10입", UnitPrice: 12000, StockQty: 50, SafetyStock: 5}
	require.NoError(t, cache.SetJSON(ctx, productCacheKey(7), cached))

	// nil DB: the lookup must not reach Postgres when every id is cached.
	svc := &Service{DB: nil, Cache: cache}
	out, err := svc.AvailabilityFor(ctx, []int64{7})
	require.NoError(t, err)
	require.True(t, out[7].Orderable)
	require.Equal(t, 50, out[7].StockQty)
}
