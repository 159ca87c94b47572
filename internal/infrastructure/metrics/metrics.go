package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoanTransitions counts committed loan state changes.
	LoanTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_state_transitions_total",
			Help: "Committed loan state transitions",
		},
		[]string{"from", "to"},
	)

	// ApprovalDecisions counts stage decisions by workflow kind and resulting request status.
	ApprovalDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_decisions_total",
			Help: "Approval stage decisions",
		},
		[]string{"kind", "decision", "status"},
	)

	// Repayments counts ledger writes; result is recorded, duplicate or rejected.
	Repayments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_repayments_total",
			Help: "Repayment ledger operations",
		},
		[]string{"kind", "result"},
	)

	// LockTimeouts counts retryable concurrency failures per scope.
	LockTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lock_timeouts_total",
			Help: "Row lock waits or optimistic checks that gave up",
		},
		[]string{"scope"},
	)

	RiskReportCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_report_cache_total",
			Help: "Risk report cache lookups",
		},
		[]string{"result"},
	)

	// IdempotentRequests counts how the replay guard handled a mutating request.
	IdempotentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idempotent_requests_total",
			Help: "Ax-Request-Id outcomes: stored, replayed, dropped, conflict, in_progress, store_error",
		},
		[]string{"outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
