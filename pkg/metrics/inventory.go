package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stockroom"

// InventoryMetrics counts domain events: stock movements, license activations,
// order completions and outbox deliveries.
type InventoryMetrics struct {
	movements   *prometheus.CounterVec
	moved       *prometheus.CounterVec
	activations *prometheus.CounterVec
	completions *prometheus.CounterVec
	outbox      *prometheus.CounterVec
}

// NewInventoryMetrics registers the domain counters. A nil registerer yields a no-op collector.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	m := &InventoryMetrics{
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "movements_total",
			Help:      "Inventory transactions recorded, by type.",
		}, []string{"type"}),
		moved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "movement_quantity_total",
			Help:      "Absolute quantity moved by inventory transactions, by type.",
		}, []string{"type"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "license",
			Name:      "activations_total",
			Help:      "License activation attempts, by result.",
		}, []string{"result"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "order",
			Name:      "completions_total",
			Help:      "Orders completed, by order type.",
		}, []string{"order_type"}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "publish_total",
			Help:      "Outbox publish attempts, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.movements, m.moved, m.activations, m.completions, m.outbox)
	return m
}

// ObserveTransaction records one ledger movement of the given type and size.
func (m *InventoryMetrics) ObserveTransaction(txType string, quantity float64) {
	if m == nil || m.movements == nil {
		return
	}
	label := normalizeLabel(txType)
	m.movements.WithLabelValues(label).Inc()
	if quantity < 0 {
		quantity = -quantity
	}
	m.moved.WithLabelValues(label).Add(quantity)
}

func (m *InventoryMetrics) IncActivation(result string) {
	if m == nil || m.activations == nil {
		return
	}
	m.activations.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *InventoryMetrics) IncOrderCompleted(orderType string) {
	if m == nil || m.completions == nil {
		return
	}
	m.completions.WithLabelValues(normalizeLabel(orderType)).Inc()
}

func (m *InventoryMetrics) IncOutboxPublish(result string) {
	if m == nil || m.outbox == nil {
		return
	}
	m.outbox.WithLabelValues(normalizeLabel(result)).Inc()
}
