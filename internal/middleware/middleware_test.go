package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jongrhanrhao/reservation-backend/internal/config"
	"github.com/jongrhanrhao/reservation-backend/internal/session"
	"github.com/jongrhanrhao/reservation-backend/internal/utils"
)

const secret = "test-secret"

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user_id": UserID(c), "role": Role(c), "session_id": SessionID(c)})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthWithSessionCookie(t *testing.T) {
	rdb, _ := newRedis(t)
	sessions, err := session.NewManager(rdb, time.Hour)
	require.NoError(t, err)
	s, err := sessions.Create(t.Context(), "user-1", "owner", "local")
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", whoami, Auth(AuthConfig{JWTSecret: secret, CookieName: "jrr_session", Sessions: sessions}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "jrr_session", Value: s.ID})
	rec := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"user-1"`)
	assert.Contains(t, rec.Body.String(), s.ID)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "jrr_session", Value: "expired"})
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
}

func TestAuthWithBearer(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, Auth(AuthConfig{JWTSecret: secret, CookieName: "jrr_session"}))

	tok, err := utils.NewAccessToken(secret, "user-2", "customer", 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	rec := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"customer"`)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(e, httptest.NewRequest(http.MethodGet, "/me", nil)).Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	setRole := func(role string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set(ContextRole, role)
				return next(c)
			}
		}
	}
	e.GET("/owner", whoami, setRole("owner"), RequireRole("owner", "admin"))
	e.GET("/customer", whoami, setRole("customer"), RequireRole("owner", "admin"))

	assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/owner", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, httptest.NewRequest(http.MethodGet, "/customer", nil)).Code)
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Request().Header.Get(echo.HeaderXRequestID))
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, id, 36)
	assert.Equal(t, id, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "given")
	assert.Equal(t, "given", serve(e, req).Header().Get(echo.HeaderXRequestID))
}

func TestTokenBucket(t *testing.T) {
	rdb, _ := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	e := echo.New()
	e.GET("/", whoami, NewTokenBucket(cfg, rdb))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestTokenBucketDisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	e.GET("/", whoami, NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestAuthRateLimit(t *testing.T) {
	e := echo.New()
	e.POST("/login", whoami, AuthRateLimit(config.AuthRateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2, IdleTTL: time.Minute}))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodPost, "/login", nil)).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(e, httptest.NewRequest(http.MethodPost, "/login", nil)).Code)

	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.RemoteAddr = "10.0.0.9:1234"
	assert.Equal(t, http.StatusOK, serve(e, other).Code)
}

func TestIPLimiterSweepsIdleVisitors(t *testing.T) {
	now := time.Unix(0, 0)
	l := newIPLimiter(config.AuthRateLimitConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	now = now.Add(2 * time.Minute)
	assert.True(t, l.allow("b"))
	assert.Len(t, l.visitors, 1)
}

func TestRedisCache(t *testing.T) {
	rdb, _ := newRedis(t)
	calls := 0
	e := echo.New()
	e.GET("/stores/:id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	}, NewRedisCache(config.CacheConfig{Enabled: true, Methods: []string{"GET"}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1024}, rdb))

	first := serve(e, httptest.NewRequest(http.MethodGet, "/stores/a", nil))
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve(e, httptest.NewRequest(http.MethodGet, "/stores/a", nil))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	other := serve(e, httptest.NewRequest(http.MethodGet, "/stores/b", nil))
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Contains(t, other.Body.String(), `"id":"b"`)
	assert.Equal(t, 2, calls)
}

func TestCacheInvalidator(t *testing.T) {
	rdb, mr := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: []string{"GET"}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1024}
	e := echo.New()
	e.GET("/stores/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	}, NewRedisCache(cfg, rdb))
	e.PUT("/stores/:id", func(c echo.Context) error {
		if c.Param("id") == "missing" {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "store not found"})
		}
		return c.NoContent(http.StatusNoContent)
	}, NewCacheInvalidator(cfg, rdb))
	require.NoError(t, mr.Set("rl:other", "1"))

	serve(e, httptest.NewRequest(http.MethodGet, "/stores/a", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/stores/b", nil))
	require.Len(t, mr.Keys(), 3)

	serve(e, httptest.NewRequest(http.MethodPut, "/stores/missing", nil))
	assert.Len(t, mr.Keys(), 3)

	serve(e, httptest.NewRequest(http.MethodPut, "/stores/a", nil))
	assert.Equal(t, []string{"rl:other"}, mr.Keys())
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/stores/b", nil))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}
