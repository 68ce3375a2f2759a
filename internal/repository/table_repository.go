package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jongrhanrhao/reservation-backend/internal/database"
	"github.com/jongrhanrhao/reservation-backend/internal/model"
)

const tableColumns = "id, store_id, table_number, capacity, status, created_at, updated_at"

// TableRepo persists store tables.
type TableRepo struct {
	db *sql.DB
}

func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

func scanTable(row rowScanner) (*model.Table, error) {
	var t model.Table
	if err := row.Scan(&t.ID, &t.StoreID, &t.TableNumber, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts t and fills its id and timestamps.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	t.ID = uuid.NewString()
	if t.Status == "" {
		t.Status = model.TableAvailable
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO store_tables (id, store_id, table_number, capacity, status) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.StoreID, t.TableNumber, t.Capacity, t.Status)
	if err != nil {
		switch {
		case database.IsDuplicateKey(err):
			return ErrDuplicateTable
		case database.IsForeignKeyViolation(err):
			return ErrStoreNotFound
		}
		return err
	}
	created, err := r.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *created
	return nil
}

// GetByID fetches a table or returns ErrTableNotFound.
func (r *TableRepo) GetByID(ctx context.Context, id string) (*model.Table, error) {
	return getTable(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *TableRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Table, error) {
	return getTable(ctx, tx, id)
}

func getTable(ctx context.Context, q querier, id string) (*model.Table, error) {
	t, err := scanTable(q.QueryRowContext(ctx, "SELECT "+tableColumns+" FROM store_tables WHERE id = ?", id))
	return t, notFound(err, ErrTableNotFound)
}

// List returns every table, grouped by store.
func (r *TableRepo) List(ctx context.Context) ([]*model.Table, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+tableColumns+" FROM store_tables ORDER BY store_id, table_number")
	if err != nil {
		return nil, err
	}
	return collectTables(rows)
}

// ListByStore returns a store's tables ordered by number.
func (r *TableRepo) ListByStore(ctx context.Context, storeID string) ([]*model.Table, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+tableColumns+" FROM store_tables WHERE store_id = ? ORDER BY table_number", storeID)
	if err != nil {
		return nil, err
	}
	return collectTables(rows)
}

func collectTables(rows *sql.Rows) ([]*model.Table, error) {
	defer rows.Close()

	out := []*model.Table{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update writes number, capacity and status of t.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE store_tables SET table_number = ?, capacity = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		t.TableNumber, t.Capacity, t.Status, t.ID)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return ErrDuplicateTable
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, t.ID); err != nil {
			return err
		}
	}
	updated, err := r.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *updated
	return nil
}

// Delete removes a table.  Reservations pointing at it keep their row with
// the table cleared.
func (r *TableRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM store_tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}
