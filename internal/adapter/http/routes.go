package http

import (
	"time"

	"loan-workflow-engine/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles everything Register mounts.
type Handlers struct {
	Health     *Handler
	Loans      *LoanHandler
	Repayments *RepaymentHandler
	Approvals  *ApprovalHandler
	Reports    *ReportHandler
}

type RouteOptions struct {
	JWTSecret      []byte
	Replays        middleware.ReplayStore
	IdempotencyTTL time.Duration
}

// Register mounts /health and /metrics publicly and everything else behind
// JWTAuth. Writes with side effects also go through the idempotency
// middleware, which keys on the actor and so runs after JWTAuth.
func Register(e *echo.Echo, h Handlers, o RouteOptions) {
	e.GET("/health", h.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("", middleware.JWTAuth(o.JWTSecret))
	idem := middleware.IdempotencyMiddleware(o.Replays, o.IdempotencyTTL)

	api.POST("/loans/preview", h.Loans.Preview)
	api.POST("/loans", h.Loans.SubmitLoan, idem)
	api.GET("/loans/:loan_id", h.Loans.GetLoan)
	api.GET("/loans/:loan_id/schedule", h.Loans.GetSchedule)
	api.POST("/loans/:loan_id/disburse", h.Loans.Disburse, idem)
	api.POST("/loans/:loan_id/default", h.Loans.MarkDefaulted, idem)
	api.POST("/loans/:loan_id/write-off", h.Loans.WriteOff, idem)

	api.POST("/loans/:loan_id/repayments", h.Repayments.RecordRepayment, idem)
	api.GET("/loans/:loan_id/repayments", h.Repayments.ListRepayments)
	api.GET("/loans/:loan_id/balance", h.Repayments.GetBalance)
	api.POST("/loans/:loan_id/repayments/:repayment_id/reverse", h.Repayments.ReverseRepayment, idem)

	api.POST("/approvals", h.Approvals.SubmitRequest, idem)
	api.GET("/approvals/pending", h.Approvals.Pending)
	api.GET("/approvals/:request_id", h.Approvals.GetRequest)
	api.POST("/approvals/:request_id/decisions", h.Approvals.Decide, idem)

	api.GET("/reports/risk", h.Reports.RiskReport)
}
