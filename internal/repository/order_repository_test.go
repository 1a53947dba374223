package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

func TestOrderRepo_CreateDuplicateNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	o := &model.Order{
		OrderNumber: "ORD-20240501-ABCDEF",
		Type:        model.OrderTypeTakeaway,
		Status:      model.StatusPending,
		CreatedBy:   1,
	}
	if err := NewOrderRepo(db).Create(context.Background(), o); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestOrderRepo_CreateWritesLinesInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items (order_id, position, menu_item_id, quantity, unit_price, notes) VALUES (?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?)`)).
		WithArgs(42, 0, 5, 2, "10", nil, 42, 1, 9, 1, "3.5", nil).
		WillReturnResult(sqlmock.NewResult(0, 2))

	o := &model.Order{
		OrderNumber: "ORD-20240501-000001",
		Type:        model.OrderTypeTakeaway,
		Status:      model.StatusPending,
		CreatedBy:   1,
		Lines: []model.OrderLine{
			{MenuItemID: 5, Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
			{MenuItemID: 9, Quantity: 1, UnitPrice: decimal.RequireFromString("3.5")},
		},
	}
	if err := NewOrderRepo(db).Create(context.Background(), o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.ID != 42 {
		t.Fatalf("ID = %d, want 42", o.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOrderRepo_ActiveDineInTableIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT table_id FROM orders`)).
		WithArgs("dine_in", "pending", "preparing", "ready", "served").
		WillReturnRows(sqlmock.NewRows([]string{"table_id"}).AddRow(2).AddRow(5))

	ids, err := NewOrderRepo(db).ActiveDineInTableIDs(context.Background())
	if err != nil {
		t.Fatalf("ActiveDineInTableIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 5 {
		t.Fatalf("ids = %v", ids)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "?, ?, ?" {
		t.Fatalf("placeholders(3) = %q", got)
	}
	if got := placeholders(0); got != "" {
		t.Fatalf("placeholders(0) = %q", got)
	}
}
