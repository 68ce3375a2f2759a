package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jongrhanrhao/reservation-backend/internal/database/dbtest"
	"github.com/jongrhanrhao/reservation-backend/internal/metrics"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/queue"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
)

type recordingPublisher struct {
	mu           sync.Mutex
	reservations []queue.ReservationEvent
	stores       []queue.StoreEvent
}

func (p *recordingPublisher) PublishReservation(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reservations = append(p.reservations, ev)
	return nil
}

func (p *recordingPublisher) PublishStore(_ context.Context, ev queue.StoreEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stores = append(p.stores, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.reservations))
	for _, ev := range p.reservations {
		out = append(out, ev.Action)
	}
	return out
}

type env struct {
	db        *sql.DB
	stores    *repository.StoreRepo
	users     *repository.UserRepo
	tables    *repository.TableRepo
	avail     *repository.AvailabilityRepo
	res       *repository.ReservationRepo
	resolver  *AvailabilityService
	booking   *BookingService
	publisher *recordingPublisher
	store     *model.Store
	customer  *model.User
}

func newEnv(t *testing.T, defaultSeats int) *env {
	t.Helper()
	ctx := context.Background()
	db := dbtest.New(t)
	e := &env{
		db:        db,
		stores:    repository.NewStoreRepo(db),
		users:     repository.NewUserRepo(db),
		tables:    repository.NewTableRepo(db),
		avail:     repository.NewAvailabilityRepo(db),
		res:       repository.NewReservationRepo(db),
		publisher: &recordingPublisher{},
	}
	e.resolver = NewAvailabilityService(e.stores, e.avail)
	e.booking = NewBookingService(BookingDeps{
		DB:           db,
		Stores:       e.stores,
		Users:        e.users,
		Tables:       e.tables,
		Availability: e.avail,
		Reservations: e.res,
		Publisher:    e.publisher,
		Metrics:      metrics.NewBookingMetrics(prometheus.NewRegistry()),
	})

	owner := &model.User{Name: "Owner", Email: "owner@example.com", Role: model.RoleOwner}
	require.NoError(t, e.users.Create(ctx, owner, "secret1", bcrypt.MinCost))
	e.customer = &model.User{Name: "Customer", Email: "customer@example.com"}
	require.NoError(t, e.users.Create(ctx, e.customer, "secret1", bcrypt.MinCost))
	e.store = &model.Store{OwnerID: owner.ID, Name: "Baan Suan", DefaultSeats: defaultSeats}
	require.NoError(t, e.stores.Create(ctx, e.store))
	return e
}

func (e *env) book(seats int, date string) (*model.Reservation, error) {
	return e.booking.Book(context.Background(), BookingRequest{
		StoreID:    e.store.ID,
		CustomerID: e.customer.ID,
		Date:       date,
		Time:       "18:30",
		Seats:      seats,
	})
}

func (e *env) seats(t *testing.T, date string) int {
	t.Helper()
	day, err := e.resolver.Resolve(context.Background(), e.store.ID, date)
	require.NoError(t, err)
	return day.AvailableSeats
}
