package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
	"github.com/sigmadocs/ged-api/pkg/response"
)

// APIKeyHeader carries the programmatic credential.
const APIKeyHeader = "X-API-Key"

type apiKeyValidator interface {
	Validate(ctx context.Context, rawKey, callerIP string) (*models.Principal, *models.APIKey, error)
	LogRequest(ctx context.Context, keyID, endpoint, method string, status int, latency time.Duration)
}

// APIKey authenticates requests carrying an API key and appends a request log
// row once the handler finished. Validation failures never reach the handler.
func APIKey(apiKeyService apiKeyValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(APIKeyHeader)
		if raw == "" {
			raw = c.GetHeader("Authorization")
		}
		if raw == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing api key"))
			c.Abort()
			return
		}

		principal, key, err := apiKeyService.Validate(c.Request.Context(), raw, c.ClientIP())
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, principal)

		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		apiKeyService.LogRequest(c.Request.Context(), key.ID, endpoint, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
