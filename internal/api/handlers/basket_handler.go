package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sellsight/analytics/internal/domain"
	"github.com/sellsight/analytics/internal/service"
)

type BasketHandler struct {
	service *service.BasketService
}

func NewBasketHandler(svc *service.BasketService) *BasketHandler {
	return &BasketHandler{service: svc}
}

type basketRequest struct {
	Scope         string  `json:"scope"`
	RangeStart    string  `json:"range_start"`
	RangeEnd      string  `json:"range_end"`
	MinSupport    float64 `json:"min_support"`
	MinConfidence float64 `json:"min_confidence"`
}

// Analyze mines frequent itemsets and rules over the requested window.
func (h *BasketHandler) Analyze(c *gin.Context) {
	var body basketRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, domain.NewValidationError("invalid request body: %v", err))
		return
	}

	start, err := time.Parse("2006-01-02", body.RangeStart)
	if err != nil {
		respondError(c, domain.NewValidationError("invalid range_start %q, expected YYYY-MM-DD", body.RangeStart))
		return
	}
	end, err := time.Parse("2006-01-02", body.RangeEnd)
	if err != nil {
		respondError(c, domain.NewValidationError("invalid range_end %q, expected YYYY-MM-DD", body.RangeEnd))
		return
	}

	scope := domain.ScopeUser
	if body.Scope == string(domain.ScopeGlobal) {
		scope = domain.ScopeGlobal
	}

	result, err := h.service.Analyze(c.Request.Context(), identity(c), service.BasketRequest{
		Scope:         scope,
		RangeStart:    start,
		RangeEnd:      end,
		MinSupport:    body.MinSupport,
		MinConfidence: body.MinConfidence,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// List returns past analyses, newest first.
func (h *BasketHandler) List(c *gin.Context) {
	limit := 20
	if parsed, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && parsed > 0 {
		limit = parsed
	}

	results, err := h.service.List(c.Request.Context(), identity(c), parseScope(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": results, "count": len(results)})
}
