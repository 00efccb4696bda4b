package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/performance-report-api/internal/middleware"
	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/internal/service"
	appErrors "github.com/noah-isme/performance-report-api/pkg/errors"
)

// ViewHeader names the dashboard view a request belongs to. Requests sharing a view
// supersede each other.
const ViewHeader = "X-Dashboard-View"

func sessionFromContext(c *gin.Context) (models.Session, error) {
	session, ok := middleware.SessionFrom(c)
	if !ok || !session.Valid() {
		return models.Session{}, appErrors.ErrUnauthorized
	}
	return session, nil
}

func loadOptions(c *gin.Context, refresh bool) service.LoadOptions {
	return service.LoadOptions{
		ViewID:  strings.TrimSpace(c.GetHeader(ViewHeader)),
		Refresh: refresh,
	}
}
