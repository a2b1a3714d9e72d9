package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts pricing evaluations by payment method, fulfillment, and outcome.
	QuotesTotal *prometheus.CounterVec
	// QuoteDiscountAmount records the total discount granted per quote in minor units.
	QuoteDiscountAmount prometheus.Histogram
	// QuoteDeliveryFeeTotal counts quote delivery fee resolutions by outcome.
	QuoteDeliveryFeeTotal *prometheus.CounterVec
	// SnapshotRefreshTotal counts active-rule snapshot reloads by trigger.
	SnapshotRefreshTotal *prometheus.CounterVec
	// PolicySweepDeactivated counts policies deactivated by the expiry sweep.
	PolicySweepDeactivated prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of pricing evaluations by payment method, fulfillment, and outcome.",
		}, []string{"payment_method", "fulfillment", "result"})
		QuoteDiscountAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_discount_amount",
			Help:      "Total discount granted per quote in minor currency units.",
			Buckets:   []float64{0, 500, 1000, 2500, 5000, 10000, 25000, 50000},
		})
		QuoteDeliveryFeeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_delivery_fee_total",
			Help:      "Count of delivery fee resolutions by outcome.",
		}, []string{"outcome"})
		SnapshotRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_snapshot_refresh_total",
			Help:      "Count of active-rule snapshot reloads by trigger.",
		}, []string{"trigger"})
		PolicySweepDeactivated = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_sweep_deactivated_total",
			Help:      "Number of expired policies deactivated by the background sweep.",
		})

		mustRegisterCollector(reg, QuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotesTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteDiscountAmount, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				QuoteDiscountAmount = v
			}
		})
		mustRegisterCollector(reg, QuoteDeliveryFeeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteDeliveryFeeTotal = v
			}
		})
		mustRegisterCollector(reg, SnapshotRefreshTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SnapshotRefreshTotal = v
			}
		})
		mustRegisterCollector(reg, PolicySweepDeactivated, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PolicySweepDeactivated = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
