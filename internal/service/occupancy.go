package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// occupy claims a table for a dine-in order.  Only an available table can
// be claimed; occupied and reserved tables are a Conflict.
func occupy(ctx context.Context, tables TableStore, tableID uint64) error {
	err := tables.CompareAndSetStatus(ctx, tableID, model.TableAvailable, model.TableOccupied)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("table %d not found", tableID).Wrap(err)
	case errors.Is(err, repository.ErrConflict):
		t, gerr := tables.GetByID(ctx, tableID)
		if gerr != nil {
			return apperr.Conflict("table %d is not available", tableID).Wrap(err)
		}
		return apperr.Conflict("table %s is %s", t.TableNumber, t.Status).Wrap(err)
	}
	return err
}

// release frees a table held by an order.  A table that is no longer
// occupied (an admin reserved or freed it by hand) is left alone.
func release(ctx context.Context, tables TableStore, tableID uint64) error {
	err := tables.CompareAndSetStatus(ctx, tableID, model.TableOccupied, model.TableAvailable)
	switch {
	case err == nil, errors.Is(err, repository.ErrConflict):
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("table %d not found", tableID).Wrap(err)
	}
	return err
}

// ReconcileReport lists the tables a reconciliation pass corrected.
type ReconcileReport struct {
	Occupied []uint64 // were available but claimed by an active dine-in order
	Released []uint64 // were occupied with no active dine-in order
}

// TableService is the table occupancy tracker plus the manual table
// management around it.
type TableService struct {
	uow UnitOfWork
	log *slog.Logger
}

func NewTableService(uow UnitOfWork, log *slog.Logger) *TableService {
	if log == nil {
		log = slog.Default()
	}
	return &TableService{uow: uow, log: log}
}

// Occupy claims a table outside of order creation.
func (s *TableService) Occupy(ctx context.Context, tableID uint64) error {
	return s.uow.Within(ctx, func(ctx context.Context, st Stores) error {
		return occupy(ctx, st.Tables, tableID)
	})
}

// Release frees a table outside of an order transition.
func (s *TableService) Release(ctx context.Context, tableID uint64) error {
	return s.uow.Within(ctx, func(ctx context.Context, st Stores) error {
		return release(ctx, st.Tables, tableID)
	})
}

// IsAvailable reports whether a dine-in order could claim the table now.
func (s *TableService) IsAvailable(ctx context.Context, tableID uint64) (bool, error) {
	t, err := s.uow.Stores().Tables.GetByID(ctx, tableID)
	if err != nil {
		return false, storeErr(err, "table", tableID)
	}
	return t.Status == model.TableAvailable, nil
}

// Get returns one table.
func (s *TableService) Get(ctx context.Context, tableID uint64) (*model.Table, error) {
	t, err := s.uow.Stores().Tables.GetByID(ctx, tableID)
	if err != nil {
		return nil, storeErr(err, "table", tableID)
	}
	return t, nil
}

// List returns all tables, optionally filtered by status.
func (s *TableService) List(ctx context.Context, status model.TableStatus) ([]model.Table, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("unknown table status %q", status)
	}
	return s.uow.Stores().Tables.List(ctx, status)
}

// Available lists tables a new dine-in order could claim.
func (s *TableService) Available(ctx context.Context) ([]model.Table, error) {
	return s.List(ctx, model.TableAvailable)
}

// Create provisions a table.  New tables always start available.
func (s *TableService) Create(ctx context.Context, number string, capacity uint32) (*model.Table, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, apperr.Validation("table number is required")
	}
	if capacity == 0 {
		return nil, apperr.Validation("capacity must be at least 1")
	}
	t := &model.Table{TableNumber: number, Capacity: capacity, Status: model.TableAvailable}
	if err := s.uow.Stores().Tables.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("table %s already exists", number).Wrap(err)
		}
		return nil, err
	}
	return t, nil
}

// SetStatus is the manual override used by table management.  It bypasses
// the order lifecycle, so Reconcile may later undo it if it contradicts the
// active orders.
func (s *TableService) SetStatus(ctx context.Context, tableID uint64, status model.TableStatus) (*model.Table, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown table status %q", status)
	}
	var out *model.Table
	err := s.uow.Within(ctx, func(ctx context.Context, st Stores) error {
		if err := st.Tables.SetStatus(ctx, tableID, status); err != nil {
			return storeErr(err, "table", tableID)
		}
		t, err := st.Tables.GetByID(ctx, tableID)
		if err != nil {
			return storeErr(err, "table", tableID)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("table status overridden", slog.Uint64("table_id", tableID), slog.String("status", string(status)))
	return out, nil
}

// Reconcile re-derives occupancy from active dine-in orders.  Available
// tables claimed by an active order become occupied; occupied tables with
// no active order become available.  Reserved tables are never touched.
// Running it twice in a row changes nothing the second time.
func (s *TableService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	report := ReconcileReport{Occupied: []uint64{}, Released: []uint64{}}
	err := s.uow.Within(ctx, func(ctx context.Context, st Stores) error {
		ids, err := st.Orders.ActiveDineInTableIDs(ctx)
		if err != nil {
			return err
		}
		claimed := make(map[uint64]bool, len(ids))
		for _, id := range ids {
			claimed[id] = true
		}
		tables, err := st.Tables.List(ctx, "")
		if err != nil {
			return err
		}
		for _, t := range tables {
			switch {
			case claimed[t.ID] && t.Status == model.TableAvailable:
				if err := st.Tables.CompareAndSetStatus(ctx, t.ID, model.TableAvailable, model.TableOccupied); err != nil {
					return storeErr(err, "table", t.ID)
				}
				report.Occupied = append(report.Occupied, t.ID)
			case !claimed[t.ID] && t.Status == model.TableOccupied:
				if err := st.Tables.CompareAndSetStatus(ctx, t.ID, model.TableOccupied, model.TableAvailable); err != nil {
					return storeErr(err, "table", t.ID)
				}
				report.Released = append(report.Released, t.ID)
			}
		}
		return nil
	})
	if err != nil {
		return ReconcileReport{}, err
	}
	if len(report.Occupied)+len(report.Released) > 0 {
		s.log.Warn("table occupancy drift corrected",
			slog.Any("occupied", report.Occupied), slog.Any("released", report.Released))
	}
	return report, nil
}
