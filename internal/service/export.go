package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jongrhanrhao/reservation-backend/internal/model"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
)

const exportSheet = "Reservations"

var exportHeader = []any{"Reservation ID", "Date", "Time", "Status", "Party Size", "Customer Name", "Customer Phone", "Table", "Note", "Created At"}

// Exporter renders a store's reservations as an XLSX workbook.
type Exporter struct {
	stores       *repository.StoreRepo
	reservations *repository.ReservationRepo
}

func NewExporter(stores *repository.StoreRepo, reservations *repository.ReservationRepo) *Exporter {
	return &Exporter{stores: stores, reservations: reservations}
}

// ExportStoreReservations writes one row per reservation of storeID,
// ordered by date and time, under a header row.
func (e *Exporter) ExportStoreReservations(ctx context.Context, storeID string) (*model.Store, *bytes.Buffer, error) {
	store, err := e.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, nil, err
	}
	list, err := e.reservations.ListByStore(ctx, storeID)
	if err != nil {
		return nil, nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, nil, err
	}
	for i, r := range list {
		row := []any{r.ID, r.Date, r.Time, r.Status, r.PartySize, r.CustomerName, r.CustomerPhone,
			deref(r.TableID), deref(r.Note), r.CreatedAt.UTC().Format("2006-01-02 15:04:05")}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, nil, err
	}
	return store, buf, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
