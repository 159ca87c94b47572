package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	domain "loan-workflow-engine/internal/domain/repayment"
	"loan-workflow-engine/internal/usecase/repayment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type RepaymentHandler struct{ uc *repayment.Usecase }

func NewRepaymentHandler(uc *repayment.Usecase) *RepaymentHandler {
	return &RepaymentHandler{uc: uc}
}

type recordRepaymentReq struct {
	Amount         decimal.Decimal `json:"amount"          validate:"dpos,dec2"`
	PaymentDate    string          `json:"payment_date"    validate:"omitempty,datetime=2006-01-02"`
	Method         string          `json:"method"          validate:"omitempty,oneof=cash bank_transfer payroll_deduction mobile_money"`
	IdempotencyKey string          `json:"idempotency_key" validate:"max=64"`
	ReceiptRef     string          `json:"receipt_ref"     validate:"max=64"`
	Notes          string          `json:"notes"`
}

type reverseReq struct {
	Reason string `json:"reason" validate:"required"`
}

// RecordRepayment keys the ledger entry on the body's idempotency_key,
// falling back to the Ax-Request-Id header.
func (h *RepaymentHandler) RecordRepayment(c echo.Context) error {
	a, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req recordRepaymentReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = strings.TrimSpace(c.Request().Header.Get("Ax-Request-Id"))
	}
	if key == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "idempotency_key or Ax-Request-Id is required"})
	}
	in := repayment.RecordInput{
		LoanID:         c.Param("loan_id"),
		Amount:         req.Amount,
		Method:         domain.Method(req.Method),
		IdempotencyKey: key,
		ReceiptRef:     req.ReceiptRef,
		Notes:          req.Notes,
	}
	if req.PaymentDate != "" {
		in.PaymentDate, _ = time.Parse("2006-01-02", req.PaymentDate)
	}

	res, err := h.uc.RecordPayment(c.Request().Context(), a, in)
	if errors.Is(err, domain.ErrDuplicatePayment) && res != nil {
		return c.JSON(http.StatusOK, res)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *RepaymentHandler) ListRepayments(c echo.Context) error {
	records, err := h.uc.List(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": c.Param("loan_id"), "repayments": records})
}

func (h *RepaymentHandler) GetBalance(c echo.Context) error {
	dto, err := h.uc.OutstandingBalance(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RepaymentHandler) ReverseRepayment(c echo.Context) error {
	a, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req reverseReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.ReversePayment(c.Request().Context(), a, c.Param("loan_id"), c.Param("repayment_id"), req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}
