package interaction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK      = "ok"
	outcomeFailed  = "failed"
	outcomeBusy    = "busy"
	outcomeSkipped = "skipped"
)

var mutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "interaction_mutations_total",
	Help: "Interaction attempts by action and outcome.",
}, []string{"action", "outcome"})
