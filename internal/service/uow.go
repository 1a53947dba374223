package service

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// SQLUnitOfWork implements UnitOfWork on a MySQL pool.
type SQLUnitOfWork struct {
	db *sql.DB
}

func NewSQLUnitOfWork(db *sql.DB) *SQLUnitOfWork { return &SQLUnitOfWork{db: db} }

func storesFor(q repository.DBTX) Stores {
	return Stores{
		Orders:   repository.NewOrderRepo(q),
		Tables:   repository.NewTableRepo(q),
		Menu:     repository.NewMenuItemRepo(q),
		Payments: repository.NewPaymentRepo(q),
	}
}

// Stores returns pool-bound stores.
func (u *SQLUnitOfWork) Stores() Stores { return storesFor(u.db) }

// Within begins a transaction, runs fn and commits.  The transaction is
// rolled back on error or panic.
func (u *SQLUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, storesFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
