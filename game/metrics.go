package game

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports session activity. A nil *Metrics records nothing.
type Metrics struct {
	submitted *prometheus.CounterVec
	settled   *prometheus.CounterVec
	events    *prometheus.CounterVec
	rebinds   prometheus.Counter
	bossHP    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when it
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "transactions_submitted_total",
			Help:      "Write calls sent to the game contract.",
		}, []string{"method"}),
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "transactions_settled_total",
			Help:      "Confirmation outcomes of submitted transactions.",
		}, []string{"method", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "events_applied_total",
			Help:      "Contract events applied to local state.",
		}, []string{"kind", "origin"}),
		rebinds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "handle_binds_total",
			Help:      "Contract handles created.",
		}),
		bossHP: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arena",
			Name:      "boss_hp",
			Help:      "Last known boss hp.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.submitted, m.settled, m.events, m.rebinds, m.bossHP)
	}
	return m
}

func (m *Metrics) txSubmitted(method string) {
	if m != nil {
		m.submitted.WithLabelValues(method).Inc()
	}
}

func (m *Metrics) txSettled(method string, err error) {
	if m == nil {
		return
	}
	outcome := "confirmed"
	if err != nil {
		outcome = "failed"
	}
	m.settled.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) eventApplied(kind string, local bool) {
	if m == nil {
		return
	}
	origin := "remote"
	if local {
		origin = "local"
	}
	m.events.WithLabelValues(kind, origin).Inc()
}

func (m *Metrics) bound() {
	if m != nil {
		m.rebinds.Inc()
	}
}

func (m *Metrics) boss(hp int64) {
	if m != nil {
		m.bossHP.Set(float64(hp))
	}
}
