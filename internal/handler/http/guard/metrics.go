package guard

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// denialsTotal counts requests refused before reaching their
	// handler, labeled by stage and status code.
	denialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_denials_total",
			Help: "Total number of requests denied by the guard, by stage and status code",
		},
		[]string{"stage", "status"},
	)
)

// recordDenial increments the denial counter for a stage.
func recordDenial(stage string, status int) {
	denialsTotal.WithLabelValues(stage, strconv.Itoa(status)).Inc()
}
