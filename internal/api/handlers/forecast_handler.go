package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sellsight/analytics/internal/domain"
	"github.com/sellsight/analytics/internal/service"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(svc *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: svc}
}

type forecastRequest struct {
	Scope     string `json:"scope"`
	ProductID string `json:"product_id"`
	Period    string `json:"period"`
	ModelType string `json:"model_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	SeasonalityOverride   string `json:"seasonality_override"`
	EconomicTrendOverride string `json:"economic_trend_override"`
}

func (r forecastRequest) toService() (service.ForecastRequest, error) {
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return service.ForecastRequest{}, domain.NewValidationError("invalid start_date %q, expected YYYY-MM-DD", r.StartDate)
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return service.ForecastRequest{}, domain.NewValidationError("invalid end_date %q, expected YYYY-MM-DD", r.EndDate)
	}

	scope := domain.ScopeUser
	if r.Scope == string(domain.ScopeGlobal) {
		scope = domain.ScopeGlobal
	}

	return service.ForecastRequest{
		Scope:     scope,
		ProductID: r.ProductID,
		Period:    domain.Period(r.Period),
		Model:     domain.ModelType(r.ModelType),
		StartDate: start,
		EndDate:   end,
		Features: domain.FeatureConfig{
			SeasonalityOverride:   r.SeasonalityOverride,
			EconomicTrendOverride: r.EconomicTrendOverride,
		},
	}, nil
}

// Generate runs the forecast pipeline for one product.
func (h *ForecastHandler) Generate(c *gin.Context) {
	var body forecastRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	req, err := body.toService()
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.Generate(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Latest returns the newest stored forecast for a product.
func (h *ForecastHandler) Latest(c *gin.Context) {
	productID := c.Param("product_id")
	result, err := h.service.Latest(c.Request.Context(), identity(c), parseScope(c), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// List returns stored forecasts, newest first.
func (h *ForecastHandler) List(c *gin.Context) {
	limit := 50
	if parsed, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && parsed > 0 {
		limit = parsed
	}

	results, err := h.service.List(c.Request.Context(), identity(c), parseScope(c), c.Query("product_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecasts": results, "count": len(results)})
}

type batchRequest struct {
	forecastRequest
	Category string `json:"category"`
}

// Batch forecasts every visible product; failures are reported per product.
func (h *ForecastHandler) Batch(c *gin.Context) {
	var body batchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	req, err := body.toService()
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.service.BatchGenerate(c.Request.Context(), identity(c), req, body.Category)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

type featureLabelsRequest struct {
	Scope         string `json:"scope"`
	Seasonality   string `json:"seasonality"`
	EconomicTrend string `json:"economic_trend"`
}

// UpdateFeatureLabels uniformly edits the stored feature labels of a scope.
func (h *ForecastHandler) UpdateFeatureLabels(c *gin.Context) {
	var body featureLabelsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	scope := domain.ScopeUser
	if body.Scope == string(domain.ScopeGlobal) {
		scope = domain.ScopeGlobal
	}

	updated, err := h.service.UpdateFeatureLabels(c.Request.Context(), identity(c), scope, body.Seasonality, body.EconomicTrend)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
