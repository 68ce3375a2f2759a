package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jongrhanrhao/reservation-backend/internal/logger"
	"github.com/jongrhanrhao/reservation-backend/internal/metrics"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/queue"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
)

// BookingRequest is the input of Book.
type BookingRequest struct {
	StoreID       string
	CustomerID    string
	TableID       *string
	Date          string
	Time          string
	Seats         int
	CustomerName  string
	CustomerPhone string
	Note          *string
}

// ReservationUpdate is a full edit of a reservation.  Status is changed
// through UpdateStatus only.
type ReservationUpdate struct {
	TableID       *string
	Date          string
	Time          string
	Seats         int
	CustomerName  string
	CustomerPhone string
	Note          *string
}

// BookingService writes reservations and keeps the per-date seat count in
// step with them.  Every write runs in one transaction and takes seats
// with a conditional UPDATE, so concurrent bookings cannot oversubscribe
// a date.
type BookingService struct {
	db           *sql.DB
	stores       *repository.StoreRepo
	users        *repository.UserRepo
	tables       *repository.TableRepo
	avail        *repository.AvailabilityRepo
	reservations *repository.ReservationRepo
	publisher    EventPublisher
	metrics      *metrics.BookingMetrics
	now          func() time.Time
}

// BookingDeps groups the collaborators of BookingService.
type BookingDeps struct {
	DB           *sql.DB
	Stores       *repository.StoreRepo
	Users        *repository.UserRepo
	Tables       *repository.TableRepo
	Availability *repository.AvailabilityRepo
	Reservations *repository.ReservationRepo
	Publisher    EventPublisher
	Metrics      *metrics.BookingMetrics
}

func NewBookingService(d BookingDeps) *BookingService {
	pub := d.Publisher
	if pub == nil {
		pub = NopPublisher{}
	}
	return &BookingService{
		db:           d.DB,
		stores:       d.Stores,
		users:        d.Users,
		tables:       d.Tables,
		avail:        d.Availability,
		reservations: d.Reservations,
		publisher:    pub,
		metrics:      d.Metrics,
		now:          time.Now,
	}
}

// Book creates a reservation and takes its seats from the date's
// availability.  When the date has no override yet, one is created from
// the store default minus the booked seats.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*model.Reservation, error) {
	if req.Seats <= 0 {
		return nil, ErrInvalidSeats
	}
	if _, err := ParseDate(req.Date); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	store, err := s.stores.GetByIDTx(ctx, tx, req.StoreID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByIDTx(ctx, tx, req.CustomerID); err != nil {
		return nil, err
	}
	if err := s.checkTable(ctx, tx, store.ID, req.TableID); err != nil {
		return nil, err
	}
	if err := s.takeSeats(ctx, tx, store, req.Date, req.Seats); err != nil {
		return nil, err
	}

	res := &model.Reservation{
		CustomerID:    req.CustomerID,
		StoreID:       store.ID,
		TableID:       optionalID(req.TableID),
		Date:          req.Date,
		Time:          strings.TrimSpace(req.Time),
		Status:        model.ReservationPending,
		PartySize:     req.Seats,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Note:          req.Note,
	}
	seq, err := s.reservations.InsertTx(ctx, tx, res)
	if err != nil {
		return nil, err
	}
	if err := s.reservations.SetIDTx(ctx, tx, seq, FormatReservationID(seq)); err != nil {
		return nil, err
	}
	created, err := s.reservations.GetByIDTx(ctx, tx, FormatReservationID(seq))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.metrics.Booked(created.PartySize)
	s.publish(ctx, queue.ActionCreated, created)
	return created, nil
}

// Update applies a full edit.  A change of date or party size on a
// reservation that holds seats gives the old seats back and takes the new
// ones in the same transaction, with the same checks as Book.
func (s *BookingService) Update(ctx context.Context, id string, upd ReservationUpdate) (*model.Reservation, error) {
	if upd.Seats <= 0 {
		return nil, ErrInvalidSeats
	}
	if _, err := ParseDate(upd.Date); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	prev, err := s.reservations.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.GetByIDTx(ctx, tx, prev.StoreID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTable(ctx, tx, store.ID, upd.TableID); err != nil {
		return nil, err
	}

	next := *prev
	next.TableID = optionalID(upd.TableID)
	next.Date = upd.Date
	next.Time = strings.TrimSpace(upd.Time)
	next.PartySize = upd.Seats
	next.CustomerName = upd.CustomerName
	next.CustomerPhone = upd.CustomerPhone
	next.Note = upd.Note

	moved := next.Date != prev.Date || next.PartySize != prev.PartySize
	if moved && prev.HoldsSeats() {
		if err := s.releaseSeats(ctx, tx, store.ID, prev.Date, prev.PartySize); err != nil {
			return nil, err
		}
		if err := s.takeSeats(ctx, tx, store, next.Date, next.PartySize); err != nil {
			return nil, err
		}
	}
	if err := s.reservations.UpdateTx(ctx, tx, prev, &next); err != nil {
		return nil, err
	}
	updated, err := s.reservations.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if moved && prev.HoldsSeats() {
		s.metrics.Released(prev.PartySize)
		s.metrics.Booked(updated.PartySize)
	}
	s.publish(ctx, queue.ActionUpdated, updated)
	return updated, nil
}

// UpdateStatus moves a reservation to status.  Cancelling gives the seats
// back; reviving a cancelled reservation takes them again.  Setting the
// current status is a no-op.
func (s *BookingService) UpdateStatus(ctx context.Context, id, status string) (*model.Reservation, error) {
	if !model.ValidReservationStatus(status) {
		return nil, ErrInvalidStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	prev, err := s.reservations.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if prev.Status == status {
		return prev, nil
	}

	next := *prev
	next.Status = status
	switch {
	case prev.HoldsSeats() && !next.HoldsSeats():
		if err := s.releaseSeats(ctx, tx, prev.StoreID, prev.Date, prev.PartySize); err != nil {
			return nil, err
		}
	case !prev.HoldsSeats() && next.HoldsSeats():
		store, err := s.stores.GetByIDTx(ctx, tx, prev.StoreID)
		if err != nil {
			return nil, err
		}
		if err := s.takeSeats(ctx, tx, store, prev.Date, prev.PartySize); err != nil {
			return nil, err
		}
	}

	ok, err := s.reservations.UpdateStatusTx(ctx, tx, id, prev.Status, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrConflict
	}
	updated, err := s.reservations.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	switch {
	case prev.HoldsSeats() && !updated.HoldsSeats():
		s.metrics.Released(prev.PartySize)
	case !prev.HoldsSeats() && updated.HoldsSeats():
		s.metrics.Booked(updated.PartySize)
	}
	s.publish(ctx, queue.ActionStatus, updated)
	return updated, nil
}

// Delete removes a reservation, giving its seats back when it still held
// them.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	prev, err := s.reservations.GetByIDTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if prev.HoldsSeats() {
		if err := s.releaseSeats(ctx, tx, prev.StoreID, prev.Date, prev.PartySize); err != nil {
			return err
		}
	}
	if err := s.reservations.DeleteTx(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if prev.HoldsSeats() {
		s.metrics.Released(prev.PartySize)
	}
	s.publish(ctx, queue.ActionDeleted, prev)
	return nil
}

// takeSeats checks availability for (store, date) and removes seats from
// it.  The override is decremented with a conditional UPDATE so a
// concurrent booking that got there first turns into
// ErrInsufficientAvailability instead of a negative count.
func (s *BookingService) takeSeats(ctx context.Context, tx *sql.Tx, store *model.Store, date string, seats int) error {
	day, override, err := resolveTx(ctx, tx, s.avail, store, date)
	if err != nil {
		return err
	}
	if !day.IsReservable {
		s.metrics.Rejected("not_reservable")
		return ErrNotReservable
	}
	if seats > day.AvailableSeats {
		s.metrics.Rejected("insufficient")
		return ErrInsufficientAvailability
	}

	if override == nil {
		err := s.avail.InsertTx(ctx, tx, store.ID, date, store.DefaultSeats-seats, true)
		if !errors.Is(err, repository.ErrAvailabilityExists) {
			return err
		}
		// created concurrently; fall through to the decrement
	}
	ok, err := s.avail.DecrementTx(ctx, tx, store.ID, date, seats)
	if err != nil {
		return err
	}
	if !ok {
		s.metrics.Rejected("insufficient")
		return ErrInsufficientAvailability
	}
	return nil
}

// releaseSeats gives seats back to the date's override.  Without an
// override the store default applies and there is nothing to restore.
func (s *BookingService) releaseSeats(ctx context.Context, tx *sql.Tx, storeID, date string, seats int) error {
	_, err := s.avail.IncrementTx(ctx, tx, storeID, date, seats)
	return err
}

func (s *BookingService) checkTable(ctx context.Context, tx *sql.Tx, storeID string, tableID *string) error {
	if optionalID(tableID) == nil {
		return nil
	}
	t, err := s.tables.GetByIDTx(ctx, tx, *tableID)
	if err != nil {
		return err
	}
	if t.StoreID != storeID {
		return repository.ErrTableNotFound
	}
	return nil
}

func optionalID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	return id
}

func (s *BookingService) publish(ctx context.Context, action string, r *model.Reservation) {
	ev := queue.ReservationEvent{
		Type:          queue.TypeReservationUpdate,
		Action:        action,
		ReservationID: r.ID,
		StoreID:       r.StoreID,
		CustomerID:    r.CustomerID,
		Date:          r.Date,
		Seats:         r.PartySize,
		Status:        r.Status,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.publisher.PublishReservation(ctx, ev); err != nil {
		logger.FromContext(ctx).Warn("publish reservation event failed",
			zap.String("reservation_id", r.ID), zap.String("action", action), zap.Error(err))
	}
}
