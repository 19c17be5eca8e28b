package session

import "github.com/prometheus/client_golang/prometheus"

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "predictd",
			Subsystem: "session",
			Name:      "predictions_total",
			Help:      "Total number of predictions against a live engine by outcome",
		},
		[]string{"outcome"},
	)

	loadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "predictd",
			Subsystem: "session",
			Name:      "loads_total",
			Help:      "Total number of engine constructions",
		},
	)

	stateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "predictd",
			Subsystem: "session",
			Name:      "state",
			Help:      "1 for the current lifecycle state of the session",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(predictionsTotal, loadsTotal, stateGauge)
}

func setStateGauge(from, to State) {
	if from != "" {
		stateGauge.WithLabelValues(string(from)).Set(0)
	}
	stateGauge.WithLabelValues(string(to)).Set(1)
}
