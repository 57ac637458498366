package services

import "github.com/prometheus/client_golang/prometheus"

var pollFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lotto_console_poll_failures_total",
		Help: "Failed status and log polls, by poll.",
	},
	[]string{"poll"},
)

func init() {
	prometheus.MustRegister(pollFailures)
}
