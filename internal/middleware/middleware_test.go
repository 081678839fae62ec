package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
)

type mockSessionResolver struct {
	principal *models.Principal
	err       error
	token     string
}

func (m *mockSessionResolver) ResolveSession(ctx context.Context, token string) (*models.Principal, error) {
	m.token = token
	if m.err != nil {
		return nil, m.err
	}
	return m.principal, nil
}

type mockKeyValidator struct {
	principal *models.Principal
	key       *models.APIKey
	err       error
	logged    bool
	status    int
}

func (m *mockKeyValidator) Validate(ctx context.Context, rawKey, callerIP string) (*models.Principal, *models.APIKey, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.principal, m.key, nil
}

func (m *mockKeyValidator) LogRequest(ctx context.Context, keyID, endpoint, method string, status int, latency time.Duration) {
	m.logged = true
	m.status = status
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func sessionCookie(value string) *http.Cookie {
	return &http.Cookie{Name: "session_token", Value: value}
}

func TestSessionMiddlewareSetsPrincipal(t *testing.T) {
	resolver := &mockSessionResolver{principal: &models.Principal{UserID: "u1", Role: models.RoleUser}}

	router := newRouter()
	router.Use(Session(resolver, "session_token"))
	router.GET("/", func(c *gin.Context) {
		principal := CurrentPrincipal(c)
		require.NotNil(t, principal)
		c.String(http.StatusOK, principal.UserID)
	})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie("tok-1"))
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "u1", recorder.Body.String())
	assert.Equal(t, "tok-1", resolver.token)
}

func TestSessionMiddlewareMissingCookie(t *testing.T) {
	router := newRouter()
	router.Use(Session(&mockSessionResolver{}, "session_token"))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestSessionMiddlewareInvalidSession(t *testing.T) {
	router := newRouter()
	router.Use(Session(&mockSessionResolver{err: appErrors.Clone(appErrors.ErrUnauthorized, "session expired")}, "session_token"))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie("stale"))
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRequireRoles(t *testing.T) {
	cases := []struct {
		name      string
		principal *models.Principal
		want      int
	}{
		{"admin allowed", &models.Principal{Role: models.RoleAdmin}, http.StatusOK},
		{"user forbidden", &models.Principal{Role: models.RoleUser}, http.StatusForbidden},
		{"cron bypasses", &models.Principal{Cron: true}, http.StatusOK},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newRouter()
			if tc.principal != nil {
				router.Use(func(c *gin.Context) { c.Set(ContextUserKey, tc.principal) })
			}
			router.Use(RequireAdmin())
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.want, recorder.Code)
		})
	}
}

func TestCronOrSessionAcceptsSecret(t *testing.T) {
	router := newRouter()
	router.Use(CronOrSession(&mockSessionResolver{}, "session_token", "s3cret"))
	router.POST("/", func(c *gin.Context) {
		principal := CurrentPrincipal(c)
		require.NotNil(t, principal)
		assert.True(t, principal.Cron)
		c.Status(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(CronSecretHeader, "s3cret")
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestCronOrSessionRejectsBadSecret(t *testing.T) {
	router := newRouter()
	router.Use(CronOrSession(&mockSessionResolver{}, "session_token", "s3cret"))
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(CronSecretHeader, "wrong")
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestCronOrSessionRejectsSecretWhenUnconfigured(t *testing.T) {
	router := newRouter()
	router.Use(CronOrSession(&mockSessionResolver{}, "session_token", ""))
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(CronSecretHeader, "anything")
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestCronOrSessionFallsBackToSession(t *testing.T) {
	resolver := &mockSessionResolver{principal: &models.Principal{UserID: "u1", Role: models.RoleAdmin}}
	router := newRouter()
	router.Use(CronOrSession(resolver, "session_token", "s3cret"))
	router.POST("/", func(c *gin.Context) {
		principal := CurrentPrincipal(c)
		require.NotNil(t, principal)
		assert.False(t, principal.Cron)
		c.Status(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(sessionCookie("tok-1"))
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestAPIKeyMiddlewareLogsRequest(t *testing.T) {
	validator := &mockKeyValidator{
		principal: &models.Principal{UserID: "u1", APIKeyID: "k1"},
		key:       &models.APIKey{ID: "k1"},
	}

	router := newRouter()
	router.Use(APIKey(validator))
	router.GET("/v1/documents", func(c *gin.Context) { c.Status(http.StatusOK) })

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/documents", nil)
	req.Header.Set(APIKeyHeader, "sk_live")
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, validator.logged)
	assert.Equal(t, http.StatusOK, validator.status)
}

func TestAPIKeyMiddlewareAcceptsAuthorizationHeader(t *testing.T) {
	validator := &mockKeyValidator{
		principal: &models.Principal{UserID: "u1", APIKeyID: "k1"},
		key:       &models.APIKey{ID: "k1"},
	}

	router := newRouter()
	router.Use(APIKey(validator))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sk_live")
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, validator.logged)
}

func TestAPIKeyMiddlewareMissingHeader(t *testing.T) {
	validator := &mockKeyValidator{}
	router := newRouter()
	router.Use(APIKey(validator))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, validator.logged)
}

func TestAPIKeyMiddlewareRateLimited(t *testing.T) {
	validator := &mockKeyValidator{err: appErrors.ErrRateLimited}
	router := newRouter()
	router.Use(APIKey(validator))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(APIKeyHeader, "sk_live")
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.False(t, validator.logged)
}

func TestThrottleEnforcesBurst(t *testing.T) {
	router := newRouter()
	router.Use(Throttle(1, 2))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.1.1:4000"
		router.ServeHTTP(recorder, req)
		codes = append(codes, recorder.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
