package http

import (
	"net/http"
	"time"

	domain "loan-workflow-engine/internal/domain/risk"
	"loan-workflow-engine/internal/usecase/risk"

	"github.com/labstack/echo/v4"
)

type ReportHandler struct{ uc *risk.Usecase }

func NewReportHandler(uc *risk.Usecase) *ReportHandler { return &ReportHandler{uc: uc} }

type riskReportQuery struct {
	Period string `query:"period" validate:"omitempty,period"`
	Top    int    `query:"top"    validate:"gte=0,lte=1000"`
}

// RiskReport defaults to the current month and to the full ranking.
func (h *ReportHandler) RiskReport(c echo.Context) error {
	var q riskReportQuery
	if ok, err := bindValid(c, &q); !ok {
		return err
	}
	period := domain.CurrentMonth(time.Now())
	if q.Period != "" {
		p, err := domain.MonthPeriod(q.Period)
		if err != nil {
			return writeError(c, err)
		}
		period = p
	}
	rep, err := h.uc.Report(c.Request().Context(), period, q.Top)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}
