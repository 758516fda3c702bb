package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ProposalsCreated  prometheus.Counter
	ProposalsApproved prometheus.Counter
	ProposalsExpired  prometheus.Counter
	SenateElections   prometheus.Counter
	SenateExpiryUnix  prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		ProposalsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stakeport_governance_proposals_created_total",
			Help: "Total number of governance proposals created",
		}),
		ProposalsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stakeport_governance_proposals_approved_total",
			Help: "Total number of governance proposals approved",
		}),
		ProposalsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stakeport_governance_proposals_expired_total",
			Help: "Total number of governance proposals expired before approval",
		}),
		SenateElections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stakeport_governance_senate_elections_total",
			Help: "Total number of successful senate elections",
		}),
		SenateExpiryUnix: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stakeport_governance_senate_expiry_timestamp_seconds",
			Help: "Unix timestamp at which the current senate term lapses",
		}),
	}
}

func (m *Metrics) IncrementProposalsCreated() {
	m.ProposalsCreated.Inc()
}

func (m *Metrics) IncrementProposalsApproved() {
	m.ProposalsApproved.Inc()
}

func (m *Metrics) IncrementProposalsExpired() {
	m.ProposalsExpired.Inc()
}

func (m *Metrics) RecordSenateElection(expiryUnix int64) {
	m.SenateElections.Inc()
	m.SenateExpiryUnix.Set(float64(expiryUnix))
}
