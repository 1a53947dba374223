package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// CreatePaymentInput records the settlement of one order.
type CreatePaymentInput struct {
	OrderID       uint64
	Amount        decimal.Decimal
	Method        model.PaymentMethod
	TransactionID *string
	Notes         *string
	ActorID       uint64
}

// UpdatePaymentInput edits the mutable payment fields.  Nil means unchanged.
type UpdatePaymentInput struct {
	Status        *model.PaymentStatus
	TransactionID *string
	Notes         *string
}

// PaymentService records payments against orders.  Recording a payment
// settles it; completing the order is a separate UpdateStatus call.
type PaymentService struct {
	uow    UnitOfWork
	events EventPublisher
	log    *slog.Logger
	now    func() time.Time
}

func NewPaymentService(uow UnitOfWork, events EventPublisher, log *slog.Logger) *PaymentService {
	if log == nil {
		log = slog.Default()
	}
	return &PaymentService{uow: uow, events: events, log: log, now: time.Now}
}

// Create records a completed payment.  An order takes at most one payment
// and a cancelled order takes none.
func (s *PaymentService) Create(ctx context.Context, in CreatePaymentInput) (*model.Payment, error) {
	if in.OrderID == 0 {
		return nil, apperr.Validation("orderId is required")
	}
	if in.Amount.IsNegative() {
		return nil, apperr.Validation("amount must not be negative")
	}
	if !in.Method.Valid() {
		return nil, apperr.Validation("method must be cash, card or upi")
	}

	var (
		p     *model.Payment
		order *model.Order
	)
	err := s.uow.Within(ctx, func(ctx context.Context, st Stores) error {
		o, err := st.Orders.GetForUpdate(ctx, in.OrderID)
		if err != nil {
			return storeErr(err, "order", in.OrderID)
		}
		if o.Status == model.StatusCancelled {
			return apperr.InvalidState("order %s is cancelled and cannot be paid", o.OrderNumber)
		}
		existing, err := st.Payments.GetByOrder(ctx, o.ID)
		switch {
		case err == nil:
			return apperr.Conflict("order %s already has payment %d", o.OrderNumber, existing.ID)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		p = &model.Payment{
			OrderID:       o.ID,
			Amount:        in.Amount,
			Method:        in.Method,
			Status:        model.PaymentCompleted,
			TransactionID: in.TransactionID,
			Notes:         in.Notes,
			CreatedBy:     in.ActorID,
		}
		if err := st.Payments.Create(ctx, p); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.Conflict("order %s already has a payment", o.OrderNumber).Wrap(err)
			}
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("payment recorded",
		slog.Uint64("payment_id", p.ID),
		slog.Uint64("order_id", p.OrderID),
		slog.String("method", string(p.Method)),
		slog.String("amount", p.Amount.StringFixed(2)))
	publish(ctx, s.events, s.log, queue.OrderEvent{
		ID:            uuid.NewString(),
		Type:          queue.EventPaymentCompleted,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		OrderType:     string(order.Type),
		TableID:       order.TableID,
		Status:        string(order.Status),
		TotalAmount:   order.TotalAmount.StringFixed(2),
		PaymentID:     p.ID,
		PaymentMethod: string(p.Method),
		PaymentAmount: p.Amount.StringFixed(2),
		ActorID:       in.ActorID,
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	})
	return p, nil
}

// GetByOrder returns the order's payment, or nil when it has not been paid.
func (s *PaymentService) GetByOrder(ctx context.Context, orderID uint64) (*model.Payment, error) {
	p, err := s.uow.Stores().Payments.GetByOrder(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a payment by id.
func (s *PaymentService) Get(ctx context.Context, id uint64) (*model.Payment, error) {
	p, err := s.uow.Stores().Payments.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "payment", id)
	}
	return p, nil
}

// Update changes status, transaction id or notes, e.g. to mark a refund.
func (s *PaymentService) Update(ctx context.Context, id uint64, in UpdatePaymentInput) (*model.Payment, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.Validation("unknown payment status %q", *in.Status)
	}
	var out *model.Payment
	err := s.uow.Within(ctx, func(ctx context.Context, st Stores) error {
		p, err := st.Payments.GetByID(ctx, id)
		if err != nil {
			return storeErr(err, "payment", id)
		}
		if in.Status != nil {
			p.Status = *in.Status
		}
		if in.TransactionID != nil {
			p.TransactionID = in.TransactionID
		}
		if in.Notes != nil {
			p.Notes = in.Notes
		}
		if err := st.Payments.Update(ctx, p); err != nil {
			return storeErr(err, "payment", id)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("payment updated", slog.Uint64("payment_id", id), slog.String("status", string(out.Status)))
	return out, nil
}

// List returns payments in [from, to).
func (s *PaymentService) List(ctx context.Context, from, to *time.Time) ([]model.Payment, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.uow.Stores().Payments.List(ctx, from, to)
}

// Today returns payments taken during the current UTC day.
func (s *PaymentService) Today(ctx context.Context) ([]model.Payment, error) {
	from, to := dayRange(s.now())
	return s.uow.Stores().Payments.List(ctx, &from, &to)
}

// SummaryByMethod totals completed payments per method in [from, to).
func (s *PaymentService) SummaryByMethod(ctx context.Context, from, to *time.Time) ([]model.MethodSummary, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.uow.Stores().Payments.SummaryByMethod(ctx, from, to)
}

func checkRange(from, to *time.Time) error {
	if from != nil && to != nil && !from.Before(*to) {
		return apperr.Validation("startDate must be before endDate")
	}
	return nil
}
