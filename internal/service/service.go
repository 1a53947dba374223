// Package service holds the order and billing engine.  Every operation that
// touches more than one row runs inside a UnitOfWork so an order and the
// table it claims, or an order and its payment, commit or fail together.
// Events go out only after a successful commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// OrderStore is the order persistence the engine needs.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	ReplaceLines(ctx context.Context, orderID uint64, lines []model.OrderLine) error
	Save(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id uint64) (*model.Order, error)
	GetForUpdate(ctx context.Context, id uint64) (*model.Order, error)
	List(ctx context.Context, f model.OrderFilter) ([]model.Order, error)
	ListByStatuses(ctx context.Context, statuses []model.OrderStatus) ([]model.Order, error)
	ActiveDineInTableIDs(ctx context.Context) ([]uint64, error)
}

// TableStore is the table persistence the occupancy tracker needs.
type TableStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
	List(ctx context.Context, status model.TableStatus) ([]model.Table, error)
	Create(ctx context.Context, t *model.Table) error
	SetStatus(ctx context.Context, id uint64, status model.TableStatus) error
	CompareAndSetStatus(ctx context.Context, id uint64, from, to model.TableStatus) error
}

// MenuStore resolves menu item ids to current catalog rows.
type MenuStore interface {
	GetByIDs(ctx context.Context, ids []uint64) (map[uint64]model.MenuItem, error)
}

// PaymentStore is the payment persistence.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, id uint64) (*model.Payment, error)
	GetByOrder(ctx context.Context, orderID uint64) (*model.Payment, error)
	Update(ctx context.Context, p *model.Payment) error
	List(ctx context.Context, from, to *time.Time) ([]model.Payment, error)
	SummaryByMethod(ctx context.Context, from, to *time.Time) ([]model.MethodSummary, error)
}

// Stores bundles the stores bound to one handle, either the pool or a
// transaction.
type Stores struct {
	Orders   OrderStore
	Tables   TableStore
	Menu     MenuStore
	Payments PaymentStore
}

// UnitOfWork runs fn against transaction-bound stores.  If fn returns an
// error nothing it wrote is kept.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
	// Stores returns stores for plain reads outside any transaction.
	Stores() Stores
}

// SettingsProvider supplies the settings snapshot used for pricing.
type SettingsProvider interface {
	Get(ctx context.Context) (model.Settings, error)
}

// EventPublisher receives lifecycle events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.OrderEvent) error
}

// storeErr translates repository sentinels into the engine's taxonomy.
// Errors that are already classified, or that the engine has no name for,
// pass through unchanged.
func storeErr(err error, what string, id uint64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("%s %d not found", what, id).Wrap(err)
	case errors.Is(err, repository.ErrConflict):
		return apperr.Conflict("%s %d changed concurrently", what, id).Wrap(err)
	}
	return err
}

// publish hands ev to the publisher and logs failures.  It never fails the
// request: the database is the source of truth.
func publish(ctx context.Context, p EventPublisher, log *slog.Logger, ev queue.OrderEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn("publish event failed", slog.String("event", ev.Type), slog.Uint64("order_id", ev.OrderID), slog.Any("error", err))
	}
}

// dayRange returns [start of t's UTC day, start of the next day).
func dayRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
