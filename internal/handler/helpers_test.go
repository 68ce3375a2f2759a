package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jongrhanrhao/reservation-backend/internal/config"
	"github.com/jongrhanrhao/reservation-backend/internal/database/dbtest"
	"github.com/jongrhanrhao/reservation-backend/internal/middleware"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
	"github.com/jongrhanrhao/reservation-backend/internal/service"
	"github.com/jongrhanrhao/reservation-backend/internal/session"
)

const testSecret = "test-secret"

// testEnv holds every handler over one migrated in-memory database, with
// an owner, a customer, an admin and a 50-seat store.
type testEnv struct {
	db  *sql.DB
	e   *echo.Echo
	cfg config.Config
	mr  *miniredis.Miniredis

	users    *repository.UserRepo
	stores   *repository.StoreRepo
	tables   *repository.TableRepo
	avail    *repository.AvailabilityRepo
	sessions *session.Manager

	auth         *AuthHandler
	userH        *UserHandler
	storeH       *StoreHandler
	availH       *AvailabilityHandler
	tableH       *TableHandler
	reservationH *ReservationHandler
	favoriteH    *FavoriteHandler
	reviewH      *ReviewHandler

	owner    *model.User
	customer *model.User
	admin    *model.User
	store    *model.Store
}

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{Env: config.AppEnvDev, ClientURL: "http://localhost:5173"},
		Auth: config.AuthConfig{
			JWTSecret:      testSecret,
			AccessTTLMin:   15,
			RefreshTTLDays: 7,
			BcryptCost:     bcrypt.MinCost,
			SessionTTL:     24 * time.Hour,
			SessionCookie:  "jrr_session",
		},
		OAuth: config.OAuthConfig{SuccessRedirect: "http://localhost:5173/welcome"},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	db := dbtest.New(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions, err := session.NewManager(rdb, 24*time.Hour)
	require.NoError(t, err)

	e := echo.New()
	e.Validator = NewValidator()

	env := &testEnv{
		db:       db,
		e:        e,
		cfg:      testConfig(),
		mr:       mr,
		users:    repository.NewUserRepo(db),
		stores:   repository.NewStoreRepo(db),
		tables:   repository.NewTableRepo(db),
		avail:    repository.NewAvailabilityRepo(db),
		sessions: sessions,
	}
	staff := repository.NewStaffRepo(db)
	reservations := repository.NewReservationRepo(db)
	reviews := repository.NewReviewRepo(db)
	availSvc := service.NewAvailabilityService(env.stores, env.avail)
	booking := service.NewBookingService(service.BookingDeps{
		DB:           db,
		Stores:       env.stores,
		Users:        env.users,
		Tables:       env.tables,
		Availability: env.avail,
		Reservations: reservations,
	})

	env.auth = NewAuthHandler(env.cfg, env.users, repository.NewTokenRepo(db), sessions)
	env.userH = NewUserHandler(env.users, bcrypt.MinCost)
	env.storeH = NewStoreHandler(env.stores, repository.NewImageRepo(db), staff,
		service.NewExporter(env.stores, reservations), nil)
	env.availH = NewAvailabilityHandler(env.stores, staff, availSvc)
	env.tableH = NewTableHandler(env.stores, env.tables)
	env.reservationH = NewReservationHandler(env.stores, staff, reservations, booking)
	env.favoriteH = NewFavoriteHandler(repository.NewFavoriteRepo(db))
	env.reviewH = NewReviewHandler(env.users, env.stores, reviews, service.NewReviewService(env.stores, reviews))

	env.owner = env.newUser(t, "owner@example.com", model.RoleOwner)
	env.customer = env.newUser(t, "customer@example.com", model.RoleCustomer)
	env.admin = env.newUser(t, "admin@example.com", model.RoleAdmin)
	env.store = &model.Store{OwnerID: env.owner.ID, Name: "Baan Suan", Address: "1 Sukhumvit", DefaultSeats: 50}
	require.NoError(t, env.stores.Create(ctx, env.store))
	return env
}

func (env *testEnv) newUser(t *testing.T, email, role string) *model.User {
	t.Helper()
	u := &model.User{Name: email, Email: email, Role: role}
	require.NoError(t, env.users.Create(context.Background(), u, "secret123", bcrypt.MinCost))
	return u
}

// call runs h on a request built from method, target and body, as the
// given user, with path params given as name/value pairs.
func (env *testEnv) call(t *testing.T, h echo.HandlerFunc, method, target string, body any, as *model.User, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	names := []string{}
	values := []string{}
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if as != nil {
		c.Set(middleware.ContextUserID, as.ID)
		c.Set(middleware.ContextRole, as.Role)
	}
	require.NoError(t, h(c))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["error"].(string)
}

func sessionCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
