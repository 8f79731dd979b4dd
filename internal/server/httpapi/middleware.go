package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/temten/aexpo/internal/common"
	"github.com/temten/aexpo/internal/server/models"
)

const principalKey = "principal"

// authRequired validates the bearer token and stores the resulting principal
// in the request context. Session-epoch checking happens inside
// ValidateSession, so a token issued before the last password change is
// rejected here like any other bad token.
func (a *API) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != common.BearerPrefix {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be 'Bearer {token}'"})
			return
		}

		principal, err := a.accounts.ValidateSession(c.Request.Context(), parts[1])
		if err != nil {
			// a store failure is not the caller's fault; only genuine
			// token problems answer 401
			if errors.Is(err, common.ErrorUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			} else {
				a.respondError(c, err)
				c.Abort()
			}
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// currentPrincipal returns the principal stored by authRequired.
func currentPrincipal(c *gin.Context) *models.Principal {
	return c.MustGet(principalKey).(*models.Principal)
}
