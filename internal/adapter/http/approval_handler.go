package http

import (
	"net/http"

	"loan-workflow-engine/internal/domain/actor"
	domain "loan-workflow-engine/internal/domain/approval"
	"loan-workflow-engine/internal/usecase/approval"

	"github.com/labstack/echo/v4"
)

type ApprovalHandler struct{ uc *approval.Usecase }

func NewApprovalHandler(uc *approval.Usecase) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

type submitApprovalReq struct {
	Kind        string `json:"kind"         validate:"required,oneof=disbursement withdrawal penalty_waiver dividend_declaration loan_application"`
	ReferenceID string `json:"reference_id" validate:"required,max=32"`
	Priority    string `json:"priority"     validate:"omitempty,oneof=low normal high urgent"`
	Notes       string `json:"notes"`
}

type decisionReq struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Comments string `json:"comments"`
}

func (h *ApprovalHandler) SubmitRequest(c echo.Context) error {
	a, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req submitApprovalReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	out, err := h.uc.SubmitRequest(c.Request().Context(), a, approval.SubmitInput{
		Kind:        domain.Kind(req.Kind),
		ReferenceID: req.ReferenceID,
		Priority:    req.Priority,
		Notes:       req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// Pending lists the queue for ?role=, defaulting to the caller's own role.
func (h *ApprovalHandler) Pending(c echo.Context) error {
	a, ok, err := actorOf(c)
	if !ok {
		return err
	}
	role := a.Role
	if q := c.QueryParam("role"); q != "" {
		if role, err = actor.ParseRole(q); err != nil {
			return writeError(c, err)
		}
	}
	reqs, err := h.uc.PendingForRole(c.Request().Context(), role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"role": role, "requests": reqs})
}

func (h *ApprovalHandler) GetRequest(c echo.Context) error {
	req, err := h.uc.GetRequest(c.Request().Context(), c.Param("request_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *ApprovalHandler) Decide(c echo.Context) error {
	a, ok, err := actorOf(c)
	if !ok {
		return err
	}
	var req decisionReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.ProcessDecision(c.Request().Context(), a, approval.DecisionInput{
		RequestID: c.Param("request_id"),
		Decision:  domain.Decision(req.Decision),
		Comments:  req.Comments,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
