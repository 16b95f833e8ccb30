package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sellsight/analytics/internal/domain"
	"github.com/sellsight/analytics/internal/service"
)

type PricingHandler struct {
	service *service.PricingService
}

func NewPricingHandler(svc *service.PricingService) *PricingHandler {
	return &PricingHandler{service: svc}
}

// Recommend prices a product off its latest forecast. Cost and margin come
// in as strings to keep decimal precision intact.
func (h *PricingHandler) Recommend(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		respondError(c, domain.NewValidationError("product_id is required"))
		return
	}

	cost, err := decimal.NewFromString(c.Query("cost"))
	if err != nil {
		respondError(c, domain.NewValidationError("invalid cost %q", c.Query("cost")))
		return
	}

	marginPct, err := decimal.NewFromString(c.DefaultQuery("margin_pct", "20"))
	if err != nil {
		respondError(c, domain.NewValidationError("invalid margin_pct %q", c.Query("margin_pct")))
		return
	}

	rec, err := h.service.Recommend(c.Request.Context(), identity(c), parseScope(c), productID, cost, marginPct)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}
