package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/pricing"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// LineInput is one requested cart line.
type LineInput struct {
	MenuItemID uint64
	Quantity   int
	Notes      *string
}

// CreateOrderInput is a new cart.  Discount is clamped, never rejected.
type CreateOrderInput struct {
	Type     model.OrderType
	TableID  *uint64
	Lines    []LineInput
	Discount decimal.Decimal
	Notes    *string
	ActorID  uint64
}

// UpdateOrderInput is a partial edit.  Nil fields are left unchanged; a
// non-nil Lines replaces every line of the order.
type UpdateOrderInput struct {
	Lines    []LineInput
	Discount *decimal.Decimal
	Notes    *string
	Status   *model.OrderStatus
	ActorID  uint64
}

// OrderService is the order lifecycle engine.
type OrderService struct {
	uow       UnitOfWork
	settings  SettingsProvider
	events    EventPublisher
	log       *slog.Logger
	now       func() time.Time
	newNumber func(time.Time) (string, error)
}

func NewOrderService(uow UnitOfWork, settings SettingsProvider, events EventPublisher, log *slog.Logger) *OrderService {
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{
		uow:       uow,
		settings:  settings,
		events:    events,
		log:       log,
		now:       time.Now,
		newNumber: NewOrderNumber,
	}
}

// Create prices a cart, persists it as pending and, for dine-in, claims the
// table.  Both writes share one transaction.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if !in.Type.Valid() {
		return nil, apperr.Validation("orderType must be dine_in or takeaway")
	}
	hasTable := in.TableID != nil && *in.TableID != 0
	if in.Type == model.OrderTypeDineIn && !hasTable {
		return nil, apperr.Validation("tableId is required for dine-in orders")
	}
	if in.Type == model.OrderTypeTakeaway && hasTable {
		return nil, apperr.Validation("tableId is only allowed for dine-in orders")
	}
	if len(in.Lines) == 0 {
		return nil, apperr.Validation("an order needs at least one item")
	}
	for i, l := range in.Lines {
		if l.Quantity < 1 {
			return nil, apperr.Validation("item %d: quantity must be at least 1", i+1)
		}
	}
	rates, err := s.rates(ctx)
	if err != nil {
		return nil, err
	}

	var created *model.Order
	err = s.uow.Within(ctx, func(ctx context.Context, st Stores) error {
		lines, err := resolveLines(ctx, st.Menu, in.Lines)
		if err != nil {
			return err
		}
		b, err := priceLines(lines, in.Discount, rates)
		if err != nil {
			return err
		}
		o := &model.Order{
			Type:      in.Type,
			Status:    model.StatusPending,
			Notes:     in.Notes,
			CreatedBy: in.ActorID,
			Lines:     lines,
		}
		applyBreakdown(o, b)
		if hasTable {
			o.TableID = in.TableID
			if err := occupy(ctx, st.Tables, *in.TableID); err != nil {
				return err
			}
		}
		if err := s.insertWithNumber(ctx, st.Orders, o); err != nil {
			return err
		}
		created, err = st.Orders.GetByID(ctx, o.ID)
		return storeErr(err, "order", o.ID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order created",
		slog.Uint64("order_id", created.ID),
		slog.String("order_number", created.OrderNumber),
		slog.String("total", created.TotalAmount.StringFixed(2)))
	s.emit(ctx, queue.EventOrderCreated, created, "", in.ActorID)
	return created, nil
}

// insertWithNumber retries the insert with a fresh order number when the
// generated one collides with an existing order.
func (s *OrderService) insertWithNumber(ctx context.Context, orders OrderStore, o *model.Order) error {
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number, err := s.newNumber(s.now())
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		o.OrderNumber = number
		err = orders.Create(ctx, o)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		s.log.Warn("order number collision", slog.String("order_number", number), slog.Int("attempt", attempt))
	}
	return apperr.Conflict("could not allocate a unique order number")
}

// Update edits lines, discount, notes and status of an order.  Replacing
// lines re-reads catalog prices; changing only the discount re-prices from
// the stored subtotal.  Cancelled orders cannot be edited.
func (s *OrderService) Update(ctx context.Context, id uint64, in UpdateOrderInput) (*model.Order, error) {
	var rates pricing.Rates
	if in.Lines != nil || in.Discount != nil {
		r, err := s.rates(ctx)
		if err != nil {
			return nil, err
		}
		rates = r
	}
	var lines []LineInput
	if in.Lines != nil {
		lines = make([]LineInput, 0, len(in.Lines))
		for i, l := range in.Lines {
			if l.Quantity < 0 {
				return nil, apperr.Validation("item %d: quantity must not be negative", i+1)
			}
			if l.Quantity > 0 {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			return nil, apperr.Validation("an order needs at least one item")
		}
	}

	var (
		updated *model.Order
		from    model.OrderStatus
		changed bool
	)
	err := s.uow.Within(ctx, func(ctx context.Context, st Stores) error {
		o, err := st.Orders.GetForUpdate(ctx, id)
		if err != nil {
			return storeErr(err, "order", id)
		}
		if o.Status == model.StatusCancelled {
			return apperr.InvalidState("order %s is cancelled and cannot be edited", o.OrderNumber)
		}
		from = o.Status

		switch {
		case lines != nil:
			resolved, err := resolveLines(ctx, st.Menu, lines)
			if err != nil {
				return err
			}
			discount := o.DiscountAmount
			if in.Discount != nil {
				discount = *in.Discount
			}
			b, err := priceLines(resolved, discount, rates)
			if err != nil {
				return err
			}
			applyBreakdown(o, b)
			if err := st.Orders.ReplaceLines(ctx, o.ID, resolved); err != nil {
				return err
			}
		case in.Discount != nil:
			b, err := pricing.Reprice(o.Subtotal, *in.Discount, rates)
			if err != nil {
				return apperr.Validation("%v", err).Wrap(err)
			}
			applyBreakdown(o, b)
		}
		if in.Notes != nil {
			o.Notes = in.Notes
		}
		if in.Status != nil {
			if changed, err = applyStatus(ctx, st.Tables, o, *in.Status); err != nil {
				return err
			}
		}
		if err := st.Orders.Save(ctx, o); err != nil {
			return storeErr(err, "order", id)
		}
		updated, err = st.Orders.GetByID(ctx, id)
		return storeErr(err, "order", id)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order updated", slog.Uint64("order_id", id), slog.String("status", string(updated.Status)))
	s.emit(ctx, queue.EventOrderUpdated, updated, "", in.ActorID)
	if changed {
		s.emit(ctx, statusEvent(updated.Status), updated, from, in.ActorID)
	}
	return updated, nil
}

// UpdateStatus moves an order through the state machine.  Entering a
// terminal status releases the order's table.  Re-applying the current
// status is a no-op.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint64, to model.OrderStatus, actorID uint64) (*model.Order, error) {
	var (
		out     *model.Order
		from    model.OrderStatus
		changed bool
	)
	err := s.uow.Within(ctx, func(ctx context.Context, st Stores) error {
		o, err := st.Orders.GetForUpdate(ctx, id)
		if err != nil {
			return storeErr(err, "order", id)
		}
		from = o.Status
		if changed, err = applyStatus(ctx, st.Tables, o, to); err != nil {
			return err
		}
		if changed {
			if err := st.Orders.Save(ctx, o); err != nil {
				return storeErr(err, "order", id)
			}
		}
		out, err = st.Orders.GetByID(ctx, id)
		return storeErr(err, "order", id)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.Info("order status changed", slog.Uint64("order_id", id),
			slog.String("from", string(from)), slog.String("to", string(to)))
		s.emit(ctx, statusEvent(to), out, from, actorID)
	}
	return out, nil
}

// Cancel forces an order to cancelled from any status and releases its
// table.  A completed order already gave its table back, so only the status
// changes.  Cancelling a cancelled order is a no-op.
func (s *OrderService) Cancel(ctx context.Context, id uint64, actorID uint64) (*model.Order, error) {
	var (
		out  *model.Order
		from model.OrderStatus
	)
	err := s.uow.Within(ctx, func(ctx context.Context, st Stores) error {
		o, err := st.Orders.GetForUpdate(ctx, id)
		if err != nil {
			return storeErr(err, "order", id)
		}
		from = o.Status
		if o.Status != model.StatusCancelled {
			if o.Status != model.StatusCompleted && o.HasTable() {
				if err := release(ctx, st.Tables, *o.TableID); err != nil {
					return err
				}
			}
			o.Status = model.StatusCancelled
			if err := st.Orders.Save(ctx, o); err != nil {
				return storeErr(err, "order", id)
			}
		}
		out, err = st.Orders.GetByID(ctx, id)
		return storeErr(err, "order", id)
	})
	if err != nil {
		return nil, err
	}
	if from != model.StatusCancelled {
		s.log.Info("order cancelled", slog.Uint64("order_id", id), slog.String("from", string(from)))
		s.emit(ctx, queue.EventOrderCancelled, out, from, actorID)
	}
	return out, nil
}

// Get returns one order with its lines.
func (s *OrderService) Get(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := s.uow.Stores().Orders.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order", id)
	}
	return o, nil
}

// List returns orders matching f.
func (s *OrderService) List(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown order status %q", f.Status)
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.Validation("unknown order type %q", f.Type)
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return nil, apperr.Validation("startDate must be before endDate")
	}
	return s.uow.Stores().Orders.List(ctx, f)
}

// GetActive returns every order that has not reached a terminal status.
func (s *OrderService) GetActive(ctx context.Context) ([]model.Order, error) {
	return s.uow.Stores().Orders.ListByStatuses(ctx, model.ActiveStatuses)
}

// GetToday returns orders created during the current UTC day.
func (s *OrderService) GetToday(ctx context.Context) ([]model.Order, error) {
	from, to := dayRange(s.now())
	return s.uow.Stores().Orders.List(ctx, model.OrderFilter{From: &from, To: &to})
}

func (s *OrderService) rates(ctx context.Context) (pricing.Rates, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return pricing.Rates{}, fmt.Errorf("load settings: %w", err)
	}
	return pricing.RatesFrom(settings), nil
}

func (s *OrderService) emit(ctx context.Context, typ string, o *model.Order, from model.OrderStatus, actorID uint64) {
	publish(ctx, s.events, s.log, queue.OrderEvent{
		ID:             uuid.NewString(),
		Type:           typ,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		OrderType:      string(o.Type),
		TableID:        o.TableID,
		Status:         string(o.Status),
		PreviousStatus: string(from),
		TotalAmount:    o.TotalAmount.StringFixed(2),
		ActorID:        actorID,
		OccurredAt:     s.now().UTC().Format(time.RFC3339),
	})
}

// applyStatus validates and applies a status change on o and releases the
// table when o enters a terminal status.  It reports whether o changed.
func applyStatus(ctx context.Context, tables TableStore, o *model.Order, to model.OrderStatus) (bool, error) {
	if !to.Valid() {
		return false, apperr.Validation("unknown order status %q", to)
	}
	if o.Status == to {
		return false, nil
	}
	if !model.CanTransition(o.Status, to) {
		return false, apperr.InvalidState("order %s cannot move from %s to %s", o.OrderNumber, o.Status, to)
	}
	if to.Terminal() && o.HasTable() {
		if err := release(ctx, tables, *o.TableID); err != nil {
			return false, err
		}
	}
	o.Status = to
	return true, nil
}

func statusEvent(to model.OrderStatus) string {
	if to == model.StatusCancelled {
		return queue.EventOrderCancelled
	}
	return queue.EventOrderStatusChanged
}

// resolveLines snapshots current catalog prices into order lines.  Every id
// must resolve to an available item or the whole cart is rejected.
func resolveLines(ctx context.Context, menu MenuStore, in []LineInput) ([]model.OrderLine, error) {
	ids := make([]uint64, 0, len(in))
	seen := make(map[uint64]bool, len(in))
	for _, l := range in {
		if !seen[l.MenuItemID] {
			seen[l.MenuItemID] = true
			ids = append(ids, l.MenuItemID)
		}
	}
	items, err := menu.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lines := make([]model.OrderLine, 0, len(in))
	for _, l := range in {
		item, ok := items[l.MenuItemID]
		if !ok {
			return nil, apperr.Validation("menu item %d not found", l.MenuItemID)
		}
		if !item.IsAvailable {
			return nil, apperr.Validation("menu item %q is not available", item.Name)
		}
		lines = append(lines, model.OrderLine{
			MenuItemID:   item.ID,
			Quantity:     l.Quantity,
			UnitPrice:    item.Price,
			Notes:        l.Notes,
			MenuItemName: item.Name,
		})
	}
	return lines, nil
}

func priceLines(lines []model.OrderLine, discount decimal.Decimal, rates pricing.Rates) (pricing.Breakdown, error) {
	in := pricing.Input{Discount: discount, Rates: rates, Lines: make([]pricing.Line, 0, len(lines))}
	for _, l := range lines {
		in.Lines = append(in.Lines, pricing.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	b, err := pricing.Calculate(in)
	if err != nil {
		return pricing.Breakdown{}, apperr.Validation("%v", err).Wrap(err)
	}
	return b, nil
}

// moneyScale is the scale of the DECIMAL(14,4) money columns.
const moneyScale = 4

// applyBreakdown stores b on o at the column scale.
func applyBreakdown(o *model.Order, b pricing.Breakdown) {
	b = b.Round(moneyScale)
	o.Subtotal = b.Subtotal
	o.DiscountAmount = b.Discount
	o.TaxAmount = b.TaxAmount
	o.ServiceCharge = b.ServiceCharge
	o.TotalAmount = b.TotalAmount
}
