package http

import (
	"context"
	"net/http"
	"time"

	"loan-workflow-engine/internal/domain/actor"
	"loan-workflow-engine/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type previewReq struct {
	Principal  decimal.Decimal `json:"principal"   validate:"dpos,dec2"`
	AnnualRate decimal.Decimal `json:"annual_rate" validate:"dnonneg,dec4,dlte=999.9999"`
	TermMonths int             `json:"term_months" validate:"required,gte=1,lte=600"`
	StartDate  string          `json:"start_date"  validate:"omitempty,datetime=2006-01-02"`
}

type guarantorReq struct {
	MemberID            string          `json:"member_id"            validate:"required,max=32"`
	GuaranteeAmount     decimal.Decimal `json:"guarantee_amount"     validate:"dnonneg,dec2"`
	GuaranteePercentage decimal.Decimal `json:"guarantee_percentage" validate:"pct"`
}

type collateralReq struct {
	Type           string          `json:"type"            validate:"required,max=32"`
	Description    string          `json:"description"`
	EstimatedValue decimal.Decimal `json:"estimated_value" validate:"dnonneg,dec2"`
}

type submitLoanReq struct {
	MemberID   string          `json:"member_id"   validate:"required,max=32"`
	Principal  decimal.Decimal `json:"principal"   validate:"dpos,dec2"`
	AnnualRate decimal.Decimal `json:"annual_rate" validate:"dnonneg,dec4,dlte=999.9999"`
	TermMonths int             `json:"term_months" validate:"required,gte=1,lte=600"`
	Purpose    string          `json:"purpose"     validate:"required"`
	LoanType   string          `json:"loan_type"   validate:"max=32"`
	Priority   string          `json:"priority"    validate:"omitempty,oneof=low normal high urgent"`
	Notes      string          `json:"notes"`
	Guarantors []guarantorReq  `json:"guarantors"  validate:"dive"`
	Collateral []collateralReq `json:"collateral"  validate:"dive"`
}

func (h *LoanHandler) Preview(c echo.Context) error {
	var req previewReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	in := loan.PreviewInput{Principal: req.Principal, AnnualRate: req.AnnualRate, TermMonths: req.TermMonths}
	if req.StartDate != "" {
		in.StartDate, _ = time.Parse("2006-01-02", req.StartDate)
	}
	res, err := h.uc.Preview(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *LoanHandler) SubmitLoan(c echo.Context) error {
	a, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req submitLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	in := loan.SubmitInput{
		MemberID:   req.MemberID,
		Principal:  req.Principal,
		AnnualRate: req.AnnualRate,
		TermMonths: req.TermMonths,
		Purpose:    req.Purpose,
		LoanType:   req.LoanType,
		Priority:   req.Priority,
		Notes:      req.Notes,
	}
	for _, g := range req.Guarantors {
		in.Guarantors = append(in.Guarantors, loan.GuarantorInput(g))
	}
	for _, cl := range req.Collateral {
		in.Collateral = append(in.Collateral, loan.CollateralInput(cl))
	}
	res, err := h.uc.Submit(c.Request().Context(), a, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetSchedule(c echo.Context) error {
	dto, err := h.uc.GetSchedule(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Disburse(c echo.Context) error {
	return h.transition(c, h.uc.Disburse)
}

func (h *LoanHandler) MarkDefaulted(c echo.Context) error {
	return h.transition(c, h.uc.MarkDefaulted)
}

func (h *LoanHandler) WriteOff(c echo.Context) error {
	return h.transition(c, h.uc.WriteOff)
}

type loanOp func(ctx context.Context, a actor.Actor, loanID string) (*loan.LoanDTO, error)

func (h *LoanHandler) transition(c echo.Context, op loanOp) error {
	a, ok, err := actorOf(c)
	if !ok {
		return err
	}
	dto, err := op(c.Request().Context(), a, c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
