package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
)

// MaxRangeDays bounds the number of days a range query returns, both
// ends included.
const MaxRangeDays = 90

// AvailabilityService resolves the seats a store offers on a date: the
// per-date override when one exists, otherwise the store default.
type AvailabilityService struct {
	stores *repository.StoreRepo
	avail  *repository.AvailabilityRepo
	now    func() time.Time
}

func NewAvailabilityService(stores *repository.StoreRepo, avail *repository.AvailabilityRepo) *AvailabilityService {
	return &AvailabilityService{stores: stores, avail: avail, now: time.Now}
}

// ParseDate validates a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// ParseRange applies the range defaults and limits.  A missing start
// means today; a missing end means start.
func (s *AvailabilityService) ParseRange(start, end string) (string, string, error) {
	if start == "" {
		start = s.now().UTC().Format(model.DateLayout)
	}
	if end == "" {
		end = start
	}
	from, err := ParseDate(start)
	if err != nil {
		return "", "", err
	}
	to, err := ParseDate(end)
	if err != nil {
		return "", "", err
	}
	if to.Before(from) || to.Sub(from) >= MaxRangeDays*24*time.Hour {
		return "", "", ErrInvalidRange
	}
	return start, end, nil
}

// Resolve returns the availability of one store on one date.
func (s *AvailabilityService) Resolve(ctx context.Context, storeID, date string) (*model.DayAvailability, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	a, err := s.avail.GetByDate(ctx, storeID, date)
	return resolveDay(store, date, a, err)
}

// ResolveRange returns one entry per calendar day in [start, end].
func (s *AvailabilityService) ResolveRange(ctx context.Context, storeID, start, end string) ([]*model.DayAvailability, error) {
	from, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	rows, err := s.avail.ListRange(ctx, storeID, start, end)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]*model.StoreAvailability, len(rows))
	for _, a := range rows {
		byDate[a.Date] = a
	}

	out := []*model.DayAvailability{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(model.DateLayout)
		if a, ok := byDate[key]; ok {
			out = append(out, fromOverride(a))
		} else {
			out = append(out, fromDefault(store, key))
		}
	}
	return out, nil
}

// SetOverride replaces the override for (a.StoreID, a.Date).
func (s *AvailabilityService) SetOverride(ctx context.Context, a *model.StoreAvailability) error {
	if _, err := ParseDate(a.Date); err != nil {
		return err
	}
	if a.AvailableSeats < 0 {
		return ErrInvalidSeats
	}
	return s.avail.Replace(ctx, a)
}

// DeleteOverride drops the override so the store default applies again.
func (s *AvailabilityService) DeleteOverride(ctx context.Context, storeID, date string) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	return s.avail.Delete(ctx, storeID, date)
}

// resolveTx is Resolve on an open transaction.  The override row, when
// present, is returned as well.
func resolveTx(ctx context.Context, tx *sql.Tx, avail *repository.AvailabilityRepo, store *model.Store, date string) (*model.DayAvailability, *model.StoreAvailability, error) {
	a, err := avail.GetByDateTx(ctx, tx, store.ID, date)
	day, err := resolveDay(store, date, a, err)
	if err != nil {
		return nil, nil, err
	}
	return day, a, nil
}

func resolveDay(store *model.Store, date string, a *model.StoreAvailability, err error) (*model.DayAvailability, error) {
	switch {
	case err == nil:
		return fromOverride(a), nil
	case errors.Is(err, repository.ErrAvailabilityNotFound):
		return fromDefault(store, date), nil
	}
	return nil, err
}

func fromOverride(a *model.StoreAvailability) *model.DayAvailability {
	return &model.DayAvailability{
		Date:           a.Date,
		AvailableSeats: a.AvailableSeats,
		IsReservable:   a.IsReservable,
		Source:         model.SourceOverride,
	}
}

func fromDefault(store *model.Store, date string) *model.DayAvailability {
	return &model.DayAvailability{
		Date:           date,
		AvailableSeats: store.DefaultSeats,
		IsReservable:   true,
		Source:         model.SourceDefault,
	}
}
