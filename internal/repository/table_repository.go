package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// TableRepo manages restaurant_tables.  Status writes come in two flavours:
// SetStatus for manual overrides and CompareAndSetStatus for the order
// lifecycle, which only moves a table when it is in the expected state.
type TableRepo struct {
	db DBTX
}

// NewTableRepo binds a TableRepo to a DB handle or transaction.
func NewTableRepo(db DBTX) *TableRepo { return &TableRepo{db: db} }

const tableColumns = `id, table_number, capacity, status, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }) (*model.Table, error) {
	var t model.Table
	if err := row.Scan(&t.ID, &t.TableNumber, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID fetches a table by id.  It returns ErrNotFound when absent.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM restaurant_tables WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// List returns tables ordered by table number.  A non-empty status filters.
func (r *TableRepo) List(ctx context.Context, status model.TableStatus) ([]model.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM restaurant_tables`
	var args []any
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY table_number`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}

// Create inserts a table and populates its ID and timestamps.  A repeated
// table number yields ErrDuplicate.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	if t.Status == "" {
		t.Status = model.TableAvailable
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO restaurant_tables (table_number, capacity, status) VALUES (?, ?, ?)`,
		t.TableNumber, t.Capacity, t.Status)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*t = *created
	return nil
}

// SetStatus overwrites the status unconditionally.  Reserved for manual
// table management; the order lifecycle uses CompareAndSetStatus.
func (r *TableRepo) SetStatus(ctx context.Context, id uint64, status model.TableStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE restaurant_tables SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	return r.affectedOrMissing(ctx, res, id)
}

// CompareAndSetStatus moves a table from one status to another in a single
// statement.  It returns ErrNotFound when the table does not exist and
// ErrConflict when it exists but is not in the from status.
func (r *TableRepo) CompareAndSetStatus(ctx context.Context, id uint64, from, to model.TableStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE restaurant_tables SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

// affectedOrMissing turns a zero-row update into ErrNotFound unless the row
// exists and simply already held the value (MySQL reports 0 affected rows
// for no-op updates).
func (r *TableRepo) affectedOrMissing(ctx context.Context, res sql.Result, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = r.GetByID(ctx, id)
	return err
}
