package http

import (
	"errors"
	"net/http"

	"loan-workflow-engine/internal/adapter/middleware"
	"loan-workflow-engine/internal/domain/actor"
	"loan-workflow-engine/internal/domain/amortization"
	"loan-workflow-engine/internal/domain/approval"
	"loan-workflow-engine/internal/domain/loan"
	"loan-workflow-engine/internal/domain/member"
	"loan-workflow-engine/internal/domain/repayment"
	"loan-workflow-engine/internal/domain/risk"
	"loan-workflow-engine/internal/domain/uow"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// statusOf is the single place domain errors become HTTP codes.
var statusOf = []struct {
	err  error
	code int
}{
	{loan.ErrNotFound, http.StatusNotFound},
	{repayment.ErrNotFound, http.StatusNotFound},
	{approval.ErrNotFound, http.StatusNotFound},
	{member.ErrNotFound, http.StatusNotFound},

	{approval.ErrNotAuthorized, http.StatusForbidden},

	{loan.ErrIllegalTransition, http.StatusConflict},
	{loan.ErrInvalidState, http.StatusConflict},
	{loan.ErrPendingExists, http.StatusConflict},
	{approval.ErrAlreadyTerminal, http.StatusConflict},
	{repayment.ErrAlreadyReversed, http.StatusConflict},
	{repayment.ErrNotReversible, http.StatusConflict},

	{repayment.ErrOverpayment, http.StatusUnprocessableEntity},
	{repayment.ErrInvalidAmount, http.StatusUnprocessableEntity},
	{repayment.ErrReasonRequired, http.StatusUnprocessableEntity},
	{loan.ErrMissingFields, http.StatusUnprocessableEntity},
	{loan.ErrInsufficientGuarantee, http.StatusUnprocessableEntity},
	{member.ErrIneligible, http.StatusUnprocessableEntity},
	{member.ErrSelfGuarantee, http.StatusUnprocessableEntity},
	{amortization.ErrInvalidPrincipal, http.StatusUnprocessableEntity},
	{amortization.ErrInvalidTerm, http.StatusUnprocessableEntity},
	{amortization.ErrInvalidRate, http.StatusUnprocessableEntity},
	{approval.ErrCommentsRequired, http.StatusUnprocessableEntity},
	{approval.ErrReservedKind, http.StatusUnprocessableEntity},
	{approval.ErrMissingReference, http.StatusUnprocessableEntity},

	{approval.ErrInvalidDecision, http.StatusBadRequest},
	{approval.ErrInvalidPriority, http.StatusBadRequest},
	{approval.ErrUnknownKind, http.StatusBadRequest},
	{actor.ErrUnknownRole, http.StatusBadRequest},
	{risk.ErrInvalidPeriod, http.StatusBadRequest},
}

func writeError(c echo.Context, err error) error {
	if uow.IsRetryable(err) {
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}
	for _, m := range statusOf {
		if errors.Is(err, m.err) {
			return c.JSON(m.code, ErrorResponse{Error: err.Error()})
		}
	}
	log.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}

func invalid(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}

// bindValid binds and validates req; on failure the response is already written.
func bindValid(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badBody(c)
	}
	if err := c.Validate(req); err != nil {
		return false, invalid(c, err)
	}
	return true, nil
}

// actorOf returns the authenticated actor; ok is false after a 401 was written.
func actorOf(c echo.Context) (a actor.Actor, ok bool, err error) {
	a, ok = middleware.ActorFrom(c)
	if !ok {
		err = c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	return a, ok, err
}
