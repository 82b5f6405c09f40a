// Package metrics exposes recap figures as Prometheus gauges, written to a
// node-exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"wrapped/internal/services"
)

const labelRecap = "recap"

type Registry struct {
	reg          *prometheus.Registry
	Spent        *prometheus.GaugeVec
	Orders       *prometheus.GaugeVec
	Items        *prometheus.GaugeVec
	Streak       *prometheus.GaugeVec
	DeliveryMins *prometheus.GaugeVec
	LastRun      prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	vec := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{labelRecap})
	}
	spent := vec("wrapped_total_spent", "Total amount spent in the recap period.")
	orders := vec("wrapped_orders", "Orders placed in the recap period.")
	items := vec("wrapped_items", "Line items ordered in the recap period.")
	streak := vec("wrapped_longest_streak_days", "Longest run of consecutive ordering days.")
	delivery := vec("wrapped_avg_delivery_minutes", "Average delivery time in minutes.")
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wrapped_last_run_timestamp_seconds",
		Help: "Unix time the recaps were last computed.",
	})

	r.MustRegister(spent, orders, items, streak, delivery, lastRun)
	return &Registry{
		reg:          r,
		Spent:        spent,
		Orders:       orders,
		Items:        items,
		Streak:       streak,
		DeliveryMins: delivery,
		LastRun:      lastRun,
	}
}

// Observe records one gauge sample per recap, labelled with the recap label.
// Empty recaps are skipped.
func (r *Registry) Observe(recaps ...*services.Recap) {
	for _, rc := range recaps {
		if rc.Empty() {
			continue
		}
		s := rc.Summary
		spent, _ := s.TotalSpent.Float64()
		r.Spent.WithLabelValues(rc.Label).Set(spent)
		r.Orders.WithLabelValues(rc.Label).Set(float64(s.TotalOrders))
		r.Items.WithLabelValues(rc.Label).Set(float64(s.TotalItems))
		r.Streak.WithLabelValues(rc.Label).Set(float64(s.LongestStreak))
		r.DeliveryMins.WithLabelValues(rc.Label).Set(float64(s.AvgDeliveryTime))
	}
	r.LastRun.SetToCurrentTime()
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// WriteTextfile atomically writes the registry in the text exposition format.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
