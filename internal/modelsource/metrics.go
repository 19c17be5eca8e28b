package modelsource

import "github.com/prometheus/client_golang/prometheus"

var downloadsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "predictd",
		Subsystem: "modelsource",
		Name:      "downloads_total",
		Help:      "Remote model fetches by result.",
	},
	[]string{"result"},
)

var downloadBytes = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "predictd",
		Subsystem: "modelsource",
		Name:      "download_bytes_total",
		Help:      "Bytes written to the model cache.",
	},
)

func init() {
	prometheus.MustRegister(downloadsTotal, downloadBytes)
}
