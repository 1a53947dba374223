package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// PaymentRepo persists payments.  The unique key on order_id is the final
// guard against paying an order twice; Create maps it to ErrDuplicate.
type PaymentRepo struct {
	db DBTX
}

func NewPaymentRepo(db DBTX) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentSelect = `SELECT p.id, p.order_id, p.amount, p.method, p.status, p.transaction_id, p.notes,
       p.created_by, p.created_at, p.updated_at, COALESCE(o.order_number, '')
  FROM payments p
  LEFT JOIN orders o ON o.id = p.order_id`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	var (
		p         model.Payment
		txID, nts sql.NullString
	)
	if err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &txID, &nts,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.OrderNumber); err != nil {
		return nil, err
	}
	p.TransactionID = nullString(txID)
	p.Notes = nullString(nts)
	return &p, nil
}

// Create inserts a payment and reloads it so timestamps are populated.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (order_id, amount, method, status, transaction_id, notes, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.OrderID, p.Amount, p.Method, p.Status, p.TransactionID, p.Notes, p.CreatedBy)
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
	*p = *created
	return nil
}

// GetByID returns a payment or ErrNotFound.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, paymentSelect+` WHERE p.id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// GetByOrder returns the payment for an order or ErrNotFound.
func (r *PaymentRepo) GetByOrder(ctx context.Context, orderID uint64) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, paymentSelect+` WHERE p.order_id = ?`, orderID))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Update writes the mutable fields of a payment: status, transaction id and notes.
func (r *PaymentRepo) Update(ctx context.Context, p *model.Payment) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, transaction_id = ?, notes = ? WHERE id = ?`,
		p.Status, p.TransactionID, p.Notes, p.ID); err != nil {
		return err
	}
	updated, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *updated
	return nil
}

// List returns payments created in [from, to), newest first.  Nil bounds are open.
func (r *PaymentRepo) List(ctx context.Context, from, to *time.Time) ([]model.Payment, error) {
	where, args := timeRange("p.created_at", from, to)
	q := paymentSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY p.created_at DESC, p.id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SummaryByMethod totals completed payments in [from, to) per method.
func (r *PaymentRepo) SummaryByMethod(ctx context.Context, from, to *time.Time) ([]model.MethodSummary, error) {
	where, args := timeRange("created_at", from, to)
	where = append([]string{"status = ?"}, where...)
	args = append([]any{model.PaymentCompleted}, args...)
	rows, err := r.db.QueryContext(ctx,
		`SELECT method, COALESCE(SUM(amount), 0), COUNT(*) FROM payments WHERE `+
			strings.Join(where, " AND ")+` GROUP BY method ORDER BY method`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.MethodSummary, 0)
	for rows.Next() {
		var (
			s     model.MethodSummary
			total decimal.Decimal
		)
		if err := rows.Scan(&s.Method, &total, &s.Count); err != nil {
			return nil, err
		}
		s.Total = total
		out = append(out, s)
	}
	return out, rows.Err()
}

func timeRange(col string, from, to *time.Time) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if from != nil {
		where = append(where, col+" >= ?")
		args = append(args, from.UTC())
	}
	if to != nil {
		where = append(where, col+" < ?")
		args = append(args, to.UTC())
	}
	return where, args
}
