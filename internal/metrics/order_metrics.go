package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	// Счётчики операций
	ordersCreated     prometheus.Counter
	ordersCancelled   prometheus.Counter
	createFailed      *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec

	// Гистограммы времени выполнения
	createDuration        prometheus.Histogram
	catalogLookupDuration prometheus.Histogram
}

// NewOrderMetrics создаёт метрики заказов на default registerer.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		createFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_create_failed_total",
			Help: "Total number of failed order creations",
		}, []string{"reason"}),
		statusTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_status_transitions_total",
			Help: "Total number of order status transitions",
		}, []string{"to"}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orders_create_duration_seconds",
			Help:    "Duration of order creation including catalog lookups",
			Buckets: prometheus.DefBuckets,
		}),
		catalogLookupDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orders_catalog_lookup_duration_seconds",
			Help:    "Duration of a single product catalog lookup",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// RecordOrderCancelled увеличивает счётчик отменённых заказов.
func (m *OrderMetrics) RecordOrderCancelled() {
	if m == nil {
		return
	}
	m.ordersCancelled.Inc()
}

// RecordCreateFailed увеличивает счётчик неудачных созданий по причине.
func (m *OrderMetrics) RecordCreateFailed(reason string) {
	if m == nil {
		return
	}
	m.createFailed.WithLabelValues(reason).Inc()
}

// RecordStatusTransition увеличивает счётчик переходов в целевой статус.
func (m *OrderMetrics) RecordStatusTransition(to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(to).Inc()
}

// RecordCreateDuration записывает длительность создания заказа.
func (m *OrderMetrics) RecordCreateDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.createDuration.Observe(duration.Seconds())
}

// RecordCatalogLookupDuration записывает длительность похода в каталог.
func (m *OrderMetrics) RecordCatalogLookupDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.catalogLookupDuration.Observe(duration.Seconds())
}
