package observability

import (
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger_api"

var (
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Approve/reject attempts by action, transaction type and outcome",
		},
		[]string{"action", "type", "outcome"},
	)

	IntakeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_total",
			Help:      "Transaction requests by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Ledger events handed to the publisher by type and result",
		},
		[]string{"type", "result"},
	)
)

// Outcome collapses an error into a low-cardinality metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case pkg.HasCode(err, pkg.ErrInvalidInputCode):
		return "invalid"
	case pkg.HasCode(err, pkg.ErrAlreadyProcessedCode):
		return "already_processed"
	case pkg.HasCode(err, pkg.ErrInsufficientFundsCode):
		return "insufficient_funds"
	case pkg.HasCode(err, pkg.ErrRecordNotFoundCode):
		return "not_found"
	case pkg.HasCode(err, pkg.ErrForbiddenCode):
		return "forbidden"
	default:
		return "error"
	}
}
