package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sellsight/analytics/internal/domain"
	"github.com/sellsight/analytics/internal/service"
)

// identity reads the caller from trusted gateway headers. Authentication
// happens upstream; this service only consumes the asserted identity.
func identity(c *gin.Context) service.Identity {
	role := strings.ToLower(strings.TrimSpace(c.GetHeader("X-User-Role")))
	return service.Identity{
		UserID:   strings.TrimSpace(c.GetHeader("X-User-ID")),
		Elevated: role == "admin",
	}
}

func parseScope(c *gin.Context) domain.Scope {
	if strings.EqualFold(c.DefaultQuery("scope", "user"), string(domain.ScopeGlobal)) {
		return domain.ScopeGlobal
	}
	return domain.ScopeUser
}

// respondError maps the error taxonomy onto HTTP statuses. Unclassified
// errors stay opaque to the client.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindInsufficientData:
		status = http.StatusUnprocessableEntity
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindPermission:
		status = http.StatusForbidden
	case domain.KindModelFitting:
		status = http.StatusInternalServerError
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
		message = "internal server error"
	}

	c.JSON(status, gin.H{
		"error": message,
		"kind":  string(domain.KindOf(err)),
	})
}
