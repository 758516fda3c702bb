package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ReportsAccepted prometheus.Counter
	ReportsRejected *prometheus.CounterVec
	PoolPrice       *prometheus.GaugeVec
}

func New() *Metrics {
	return &Metrics{
		ReportsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stakeport_oracle_reports_accepted_total",
			Help: "Total number of accepted oracle price reports",
		}),
		ReportsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stakeport_oracle_reports_rejected_total",
			Help: "Total number of rejected oracle price reports by reason",
		}, []string{"reason"}),
		PoolPrice: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stakeport_oracle_pool_price",
			Help: "Latest accepted price per pool",
		}, []string{"pool"}),
	}
}

func (m *Metrics) RecordAccepted(pool string, price float64) {
	m.ReportsAccepted.Inc()
	m.PoolPrice.WithLabelValues(pool).Set(price)
}

func (m *Metrics) RecordRejected(reason string) {
	m.ReportsRejected.WithLabelValues(reason).Inc()
}
