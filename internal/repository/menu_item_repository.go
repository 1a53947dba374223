package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// MenuItemRepo gives read access to the catalog plus simple admin inserts.
type MenuItemRepo struct {
	db DBTX
}

func NewMenuItemRepo(db DBTX) *MenuItemRepo { return &MenuItemRepo{db: db} }

const menuColumns = `id, category_id, name, price, is_available, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...any) error }) (model.MenuItem, error) {
	var (
		m   model.MenuItem
		cat sql.NullInt64
	)
	if err := row.Scan(&m.ID, &cat, &m.Name, &m.Price, &m.IsAvailable, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return m, err
	}
	m.CategoryID = nullUint64(cat)
	return m, nil
}

// GetByID returns a single menu item or ErrNotFound.
func (r *MenuItemRepo) GetByID(ctx context.Context, id uint64) (model.MenuItem, error) {
	m, err := scanMenuItem(r.db.QueryRowContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = ?`, id))
	return m, notFound(err)
}

// GetByIDs loads the given items keyed by id.  Missing ids are simply absent
// from the map; the caller decides whether that is an error.
func (r *MenuItemRepo) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]model.MenuItem, error) {
	out := make(map[uint64]model.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id IN (`+placeholders(len(ids))+`)`,
		uint64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, rows.Err()
}

// List returns menu items ordered by name.  When availableOnly is set,
// items flagged unavailable are skipped.
func (r *MenuItemRepo) List(ctx context.Context, availableOnly bool) ([]model.MenuItem, error) {
	q := `SELECT ` + menuColumns + ` FROM menu_items`
	if availableOnly {
		q += ` WHERE is_available = 1`
	}
	q += ` ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.MenuItem, 0)
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// Create inserts a menu item and fills in its ID.
func (r *MenuItemRepo) Create(ctx context.Context, m *model.MenuItem) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO menu_items (category_id, name, price, is_available) VALUES (?, ?, ?, ?)`,
		m.CategoryID, m.Name, m.Price, m.IsAvailable)
	if err != nil {
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
	*m = created
	return nil
}

// Update rewrites the editable columns of m and reloads it.  Existing order
// lines keep the unit price they were created with.
func (r *MenuItemRepo) Update(ctx context.Context, m *model.MenuItem) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE menu_items SET category_id = ?, name = ?, price = ?, is_available = ? WHERE id = ?`,
		m.CategoryID, m.Name, m.Price, m.IsAvailable, m.ID); err != nil {
		return err
	}
	updated, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = updated
	return nil
}

// SetAvailability flips is_available and returns the reloaded item.
func (r *MenuItemRepo) SetAvailability(ctx context.Context, id uint64, available bool) (model.MenuItem, error) {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE menu_items SET is_available = ? WHERE id = ?`, available, id); err != nil {
		return model.MenuItem{}, err
	}
	return r.GetByID(ctx, id)
}
