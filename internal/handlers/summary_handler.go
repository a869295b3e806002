package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/services"
)

// SummaryHandler serves the read-only budget and dashboard views.
type SummaryHandler struct {
	summaryService services.SummaryServicer
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryService services.SummaryServicer) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// BudgetSummary returns planned against actual per group and category.
// @Summary     Budget summary
// @Tags        summary
// @Produce     json
// @Param       month query string true "Month (YYYY-MM)"
// @Success     200 {object} services.BudgetSummary
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /summary/budget [get]
func (h *SummaryHandler) BudgetSummary(c *gin.Context) {
	month, ok := requireMonth(c)
	if !ok {
		return
	}

	summary, err := h.summaryService.BudgetSummary(month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// DashboardSummary returns the budget totals with balances and recent activity.
// @Summary     Dashboard summary
// @Tags        summary
// @Produce     json
// @Param       month query string true "Month (YYYY-MM)"
// @Success     200 {object} services.DashboardSummary
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /summary/dashboard [get]
func (h *SummaryHandler) DashboardSummary(c *gin.Context) {
	month, ok := requireMonth(c)
	if !ok {
		return
	}

	summary, err := h.summaryService.DashboardSummary(month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func requireMonth(c *gin.Context) (string, bool) {
	month := c.Query("month")
	if month == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidMonth, "month query parameter is required"))
		return "", false
	}
	return month, true
}
