package cart

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Mutations     *prometheus.CounterVec
	StorageWrites *prometheus.CounterVec
	Sessions      prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_mutations_total",
				Help: "Cart mutations by operation and result",
			},
			[]string{"op", "result"},
		),
		StorageWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_storage_writes_total",
				Help: "Cart persistence writes by result",
			},
			[]string{"result"},
		),
		Sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cart_sessions_loaded",
				Help: "Carts currently held in memory",
			},
		),
	}

	reg.MustRegister(m.Mutations, m.StorageWrites, m.Sessions)
	return m
}

func (m *Metrics) mutation(op Op, result string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(string(op), result).Inc()
}

func (m *Metrics) storageWrite(result string) {
	if m == nil {
		return
	}
	m.StorageWrites.WithLabelValues(result).Inc()
}

func (m *Metrics) sessions(n int) {
	if m == nil {
		return
	}
	m.Sessions.Set(float64(n))
}
