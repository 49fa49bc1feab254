package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codesync",
		Name:      "rooms_active",
		Help:      "Number of rooms with at least one participant.",
	})
	metricParticipants = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codesync",
		Name:      "participants_active",
		Help:      "Number of connected room participants.",
	})
	metricProposals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codesync",
		Name:      "changes_proposed_total",
		Help:      "Editor change proposals registered.",
	})
	metricResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codesync",
		Name:      "changes_resolved_total",
		Help:      "Owner verdicts on proposed changes.",
	}, []string{"verdict"})
	metricSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codesync",
		Name:      "signals_relayed_total",
		Help:      "WebRTC signaling messages relayed between peers.",
	}, []string{"kind"})
	metricRejectedOps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codesync",
		Name:      "rejected_ops_total",
		Help:      "Operations dropped by server-side role checks.",
	})
)
