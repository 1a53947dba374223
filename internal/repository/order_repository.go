package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// OrderRepo persists orders and their line items.  Reads join the table
// number and the creator's name for display.  Writes never touch
// restaurant_tables; table occupancy is handled by TableRepo inside the same
// transaction.
type OrderRepo struct {
	db DBTX
}

// NewOrderRepo returns an OrderRepo bound to the given handle.
func NewOrderRepo(db DBTX) *OrderRepo { return &OrderRepo{db: db} }

const orderSelect = `SELECT o.id, o.order_number, o.order_type, o.table_id, o.status,
       o.subtotal, o.tax_amount, o.service_charge, o.discount_amount, o.total_amount,
       o.notes, o.created_by, o.created_at, o.updated_at,
       t.table_number, COALESCE(u.name, '')
  FROM orders o
  LEFT JOIN restaurant_tables t ON t.id = o.table_id
  LEFT JOIN users u ON u.id = o.created_by`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	var (
		o           model.Order
		tableID     sql.NullInt64
		notes       sql.NullString
		tableNumber sql.NullString
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.Type, &tableID, &o.Status,
		&o.Subtotal, &o.TaxAmount, &o.ServiceCharge, &o.DiscountAmount, &o.TotalAmount,
		&notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
		&tableNumber, &o.CreatedByName)
	if err != nil {
		return nil, err
	}
	o.TableID = nullUint64(tableID)
	o.Notes = nullString(notes)
	o.TableNumber = nullString(tableNumber)
	return &o, nil
}

// Create inserts the order row and its lines.  A collision on order_number
// is reported as ErrDuplicate so the caller can retry with a fresh number.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (order_number, order_type, table_id, status,
		        subtotal, tax_amount, service_charge, discount_amount, total_amount, notes, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderNumber, o.Type, o.TableID, o.Status,
		o.Subtotal, o.TaxAmount, o.ServiceCharge, o.DiscountAmount, o.TotalAmount, o.Notes, o.CreatedBy)
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
	o.ID = uint64(id)
	return r.insertLines(ctx, o.ID, o.Lines)
}

// ReplaceLines swaps the full line set of an order.
func (r *OrderRepo) ReplaceLines(ctx context.Context, orderID uint64, lines []model.OrderLine) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return err
	}
	return r.insertLines(ctx, orderID, lines)
}

// insertLines writes all lines in one statement, keeping their order in
// the position column.
func (r *OrderRepo) insertLines(ctx context.Context, orderID uint64, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	var (
		sb   strings.Builder
		args = make([]any, 0, len(lines)*6)
	)
	sb.WriteString(`INSERT INTO order_items (order_id, position, menu_item_id, quantity, unit_price, notes) VALUES `)
	for i, l := range lines {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, orderID, i, l.MenuItemID, l.Quantity, l.UnitPrice, l.Notes)
	}
	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// Save writes the mutable fields of an order: status, pricing and notes.
func (r *OrderRepo) Save(ctx context.Context, o *model.Order) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, subtotal = ?, tax_amount = ?, service_charge = ?,
		        discount_amount = ?, total_amount = ?, notes = ?
		  WHERE id = ?`,
		o.Status, o.Subtotal, o.TaxAmount, o.ServiceCharge, o.DiscountAmount, o.TotalAmount, o.Notes, o.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Unchanged rows report zero; confirm the order exists.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, o.ID).Scan(&one); err != nil {
			return notFound(err)
		}
	}
	return nil
}

// GetByID returns an order with its lines, or ErrNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate is GetByID with a row lock on the order, for use inside a
// transaction that is about to modify it.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id uint64) (*model.Order, error) {
	return r.get(ctx, id, true)
}

func (r *OrderRepo) get(ctx context.Context, id uint64, lock bool) (*model.Order, error) {
	q := orderSelect + ` WHERE o.id = ?`
	if lock {
		q += ` FOR UPDATE OF o`
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	orders := []*model.Order{o}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns orders matching f, newest first, with lines attached.
func (r *OrderRepo) List(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		where = append(where, "o.order_type = ?")
		args = append(args, f.Type)
	}
	if f.TableID != 0 {
		where = append(where, "o.table_id = ?")
		args = append(args, f.TableID)
	}
	if f.From != nil {
		where = append(where, "o.created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "o.created_at < ?")
		args = append(args, f.To.UTC())
	}
	return r.list(ctx, where, args)
}

// ListByStatuses returns every order whose status is one of statuses.
func (r *OrderRepo) ListByStatuses(ctx context.Context, statuses []model.OrderStatus) ([]model.Order, error) {
	if len(statuses) == 0 {
		return []model.Order{}, nil
	}
	args := make([]any, 0, len(statuses))
	for _, s := range statuses {
		args = append(args, s)
	}
	return r.list(ctx, []string{"o.status IN (" + placeholders(len(statuses)) + ")"}, args)
}

func (r *OrderRepo) list(ctx context.Context, where []string, args []any) ([]model.Order, error) {
	q := orderSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY o.created_at DESC, o.id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ptrs []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, ptrs); err != nil {
		return nil, err
	}
	out := make([]model.Order, 0, len(ptrs))
	for _, o := range ptrs {
		out = append(out, *o)
	}
	return out, nil
}

// attachLines loads lines for all given orders in a single query.
func (r *OrderRepo) attachLines(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uint64]*model.Order, len(orders))
	ids := make([]uint64, 0, len(orders))
	for _, o := range orders {
		o.Lines = []model.OrderLine{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT oi.order_id, oi.menu_item_id, oi.quantity, oi.unit_price, oi.notes, COALESCE(m.name, '')
		   FROM order_items oi
		   LEFT JOIN menu_items m ON m.id = oi.menu_item_id
		  WHERE oi.order_id IN (`+placeholders(len(ids))+`)
		  ORDER BY oi.order_id, oi.position`,
		uint64Args(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID uint64
			l       model.OrderLine
			notes   sql.NullString
		)
		if err := rows.Scan(&orderID, &l.MenuItemID, &l.Quantity, &l.UnitPrice, &notes, &l.MenuItemName); err != nil {
			return err
		}
		l.Notes = nullString(notes)
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	return rows.Err()
}

// ActiveDineInTableIDs returns the distinct tables claimed by dine-in orders
// that are still in a non-terminal status.
func (r *OrderRepo) ActiveDineInTableIDs(ctx context.Context) ([]uint64, error) {
	active := model.ActiveStatuses
	args := make([]any, 0, len(active)+1)
	args = append(args, model.OrderTypeDineIn)
	for _, s := range active {
		args = append(args, s)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT table_id FROM orders
		  WHERE order_type = ? AND table_id IS NOT NULL AND status IN (`+placeholders(len(active))+`)
		  ORDER BY table_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
