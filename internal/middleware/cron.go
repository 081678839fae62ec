package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
	"github.com/sigmadocs/ged-api/pkg/response"
)

// CronSecretHeader carries the shared secret from scheduled automation.
const CronSecretHeader = "X-Cron-Secret"

// CronOrSession lets a request through when it carries either a valid cron
// secret or a valid session. Cron callers get a synthetic admin-acting
// principal with no user identity.
func CronOrSession(authService sessionResolver, cookieName, cronSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret := c.GetHeader(CronSecretHeader); secret != "" {
			if cronSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(cronSecret)) != 1 {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid cron secret"))
				c.Abort()
				return
			}
			c.Set(ContextUserKey, &models.Principal{Cron: true})
			c.Next()
			return
		}

		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing session"))
			c.Abort()
			return
		}

		principal, err := authService.ResolveSession(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, principal)
		c.Next()
	}
}
