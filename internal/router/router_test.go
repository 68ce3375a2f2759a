package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jongrhanrhao/reservation-backend/internal/config"
	"github.com/jongrhanrhao/reservation-backend/internal/database/dbtest"
	"github.com/jongrhanrhao/reservation-backend/internal/handler"
	"github.com/jongrhanrhao/reservation-backend/internal/metrics"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/oauth"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
	"github.com/jongrhanrhao/reservation-backend/internal/service"
	"github.com/jongrhanrhao/reservation-backend/internal/session"
)

type app struct {
	e      *echo.Echo
	users  *repository.UserRepo
	stores *repository.StoreRepo
}

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{Env: config.AppEnvDev, ServiceName: "test", ClientURL: "http://localhost:5173"},
		Auth: config.AuthConfig{
			JWTSecret:      "router-secret",
			AccessTTLMin:   15,
			RefreshTTLDays: 7,
			BcryptCost:     bcrypt.MinCost,
			SessionTTL:     time.Hour,
			SessionCookie:  "jrr_session",
		},
		RateLimit: config.RateLimitConfig{
			Enabled: true, Capacity: 100, RefillTokens: 1, RefillInterval: time.Second,
			TTL: time.Minute, KeyStrategy: "ip", Prefix: "rl",
		},
		Cache: config.CacheConfig{Enabled: true, Methods: []string{"GET"}, TTL: time.Minute, KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1 << 20},
	}
}

func newApp(t *testing.T, cfg config.Config) *app {
	t.Helper()
	db := dbtest.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions, err := session.NewManager(rdb, cfg.Auth.SessionTTL)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	users := repository.NewUserRepo(db)
	stores := repository.NewStoreRepo(db)
	tables := repository.NewTableRepo(db)
	avail := repository.NewAvailabilityRepo(db)
	staff := repository.NewStaffRepo(db)
	reservations := repository.NewReservationRepo(db)
	reviews := repository.NewReviewRepo(db)

	booking := service.NewBookingService(service.BookingDeps{
		DB: db, Stores: stores, Users: users, Tables: tables, Availability: avail,
		Reservations: reservations, Metrics: metrics.NewBookingMetrics(reg),
	})
	auth := handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db), sessions)

	e := New(Deps{
		Cfg:          cfg,
		Redis:        rdb,
		Sessions:     sessions,
		Metrics:      metrics.NewHTTPMetrics(cfg.App.ServiceName, reg),
		Gatherer:     reg,
		Auth:         auth,
		OAuth:        handler.NewOAuthHandler(auth, map[string]*oauth.Provider{}),
		Users:        handler.NewUserHandler(users, cfg.Auth.BcryptCost),
		Stores:       handler.NewStoreHandler(stores, repository.NewImageRepo(db), staff, service.NewExporter(stores, reservations), nil),
		Availability: handler.NewAvailabilityHandler(stores, staff, service.NewAvailabilityService(stores, avail)),
		Tables:       handler.NewTableHandler(stores, tables),
		Reservations: handler.NewReservationHandler(stores, staff, reservations, booking),
		Favorites:    handler.NewFavoriteHandler(repository.NewFavoriteRepo(db)),
		Reviews:      handler.NewReviewHandler(users, stores, reviews, service.NewReviewService(stores, reviews)),
	})
	return &app{e: e, users: users, stores: stores}
}

func (a *app) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *app) register(t *testing.T, email, role string) *http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/users/auth/register", echo.Map{
		"name": email, "email": email, "password": "secret123", "role": role,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "jrr_session" {
			return ck
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestPublicRoutes(t *testing.T) {
	a := newApp(t, testConfig())

	rec := a.do(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "JongRhanRhao backend is up and running!")

	rec = a.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = a.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	rec = a.do(t, http.MethodGet, "/stores/api/stores", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
}

func TestProtectedRoutesNeedAuth(t *testing.T) {
	a := newApp(t, testConfig())

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/users/auth/me"},
		{http.MethodPost, "/stores/api/stores"},
		{http.MethodPost, "/stores/api/reservations"},
		{http.MethodGet, "/stores/api/reservations/JRR0001"},
		{http.MethodGet, "/stores/api/favorites/customer/x"},
		{http.MethodGet, "/users/api/users"},
	} {
		rec := a.do(t, r.method, r.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.method+" "+r.path)
	}
}

func TestRoleGuards(t *testing.T) {
	a := newApp(t, testConfig())
	customer := a.register(t, "c@example.com", model.RoleCustomer)

	rec := a.do(t, http.MethodPost, "/stores/api/stores", echo.Map{"name": "X", "address": "Y"}, customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodGet, "/users/api/users", nil, customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodGet, "/stores/api/reservations", nil, customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBookingFlowOverHTTP(t *testing.T) {
	a := newApp(t, testConfig())
	owner := a.register(t, "owner@example.com", model.RoleOwner)
	customer := a.register(t, "diner@example.com", model.RoleCustomer)

	rec := a.do(t, http.MethodPost, "/stores/api/stores", echo.Map{
		"name": "Baan Suan", "address": "1 Sukhumvit", "default_seats": 50,
	}, owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var store model.Store
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &store))

	book := func(seats int) *httptest.ResponseRecorder {
		return a.do(t, http.MethodPost, "/stores/api/reservations", echo.Map{
			"store_id": store.ID, "date": "2024-08-09", "time": "19:00",
			"party_size": seats, "customer_name": "Somchai",
		}, customer)
	}
	rec = book(10)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "JRR0001", res.ID)

	rec = book(45)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodGet, "/stores/api/stores/"+store.ID+"/availability?startDate=2024-08-09", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available_seats":40`)

	// the store listing for the date goes through the two-segment route
	rec = a.do(t, http.MethodGet, "/stores/api/reservations/"+store.ID+"/2024-08-09", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "JRR0001")

	rec = a.do(t, http.MethodPut, "/stores/api/reservations/status/JRR0001", echo.Map{"status": "confirmed"}, owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/stores/api/reservations/customer/"+res.CustomerID, nil, customer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)
}

func TestStoreWritesFlushCachedReads(t *testing.T) {
	a := newApp(t, testConfig())
	owner := a.register(t, "owner@example.com", model.RoleOwner)

	rec := a.do(t, http.MethodGet, "/stores/api/stores", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	rec = a.do(t, http.MethodGet, "/stores/api/stores", nil, nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = a.do(t, http.MethodPost, "/stores/api/stores", echo.Map{"name": "Late", "address": "Z", "default_seats": 20}, owner)
	require.Equal(t, http.StatusCreated, rec.Code)
	var store model.Store
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &store))

	rec = a.do(t, http.MethodGet, "/stores/api/stores", nil, nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), `"Late"`)

	path := "/stores/api/stores/" + store.ID
	rec = a.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = a.do(t, http.MethodPut, path, echo.Map{"name": "Late", "address": "Z", "default_seats": 35}, owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), `"default_seats":35`)

	// a rejected write leaves the cache alone
	rec = a.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	rec = a.do(t, http.MethodDelete, "/stores/api/stores/missing", nil, owner)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = a.do(t, http.MethodDelete, path, nil, owner)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorksWithoutRedis(t *testing.T) {
	cfg := testConfig()
	db := dbtest.New(t)
	users := repository.NewUserRepo(db)
	auth := handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db), nil)
	e := New(Deps{
		Cfg:   cfg,
		Auth:  auth,
		OAuth: handler.NewOAuthHandler(auth, nil),
		Users: handler.NewUserHandler(users, cfg.Auth.BcryptCost),
		// the remaining handlers are not reached by this test
		Stores:       &handler.StoreHandler{},
		Availability: &handler.AvailabilityHandler{},
		Tables:       &handler.TableHandler{},
		Reservations: &handler.ReservationHandler{},
		Favorites:    &handler.FavoriteHandler{},
		Reviews:      &handler.ReviewHandler{},
	})

	req := httptest.NewRequest(http.MethodPost, "/users/auth/register",
		strings.NewReader(`{"name":"N","email":"n@example.com","password":"secret123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())

	var resp struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	req = httptest.NewRequest(http.MethodGet, "/users/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+resp.Access.Token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
