package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/performance-report-api/internal/models"
	appErrors "github.com/noah-isme/performance-report-api/pkg/errors"
	"github.com/noah-isme/performance-report-api/pkg/logger"
	"github.com/noah-isme/performance-report-api/pkg/response"
)

const (
	// ContextSessionKey is the gin context key storing the caller's models.Session.
	ContextSessionKey = "session"
	// InstitutionHeader supplies the institution when the token does not carry one.
	InstitutionHeader = "X-Institution-ID"
)

// Session authenticates the bearer token issued by the institution platform and
// stores a models.Session for handlers. The raw token is kept so upstream calls can
// forward it.
func Session(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}
		raw := strings.TrimSpace(parts[1])

		claims := &models.SessionClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token"))
			return
		}

		switch claims.Role {
		case models.RoleFaculty, models.RoleInstitutionAdmin:
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role not permitted"))
			return
		}

		institutionID := strings.TrimSpace(claims.InstitutionID)
		if institutionID == "" {
			institutionID = strings.TrimSpace(c.GetHeader(InstitutionHeader))
		}
		if institutionID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "institution not specified"))
			return
		}

		session := models.Session{
			Token:         raw,
			InstitutionID: institutionID,
			UserID:        claims.UserID,
			Role:          claims.Role,
		}
		c.Set(ContextSessionKey, session)
		c.Set(logger.UserIDKey, session.UserID)
		c.Set(logger.InstitutionIDKey, session.InstitutionID)
		c.Next()
	}
}

// SessionFrom returns the session stored by Session.
func SessionFrom(c *gin.Context) (models.Session, bool) {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return models.Session{}, false
	}
	session, ok := value.(models.Session)
	return session, ok
}
