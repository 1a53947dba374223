package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
	"github.com/iliyamo/restaurant-pos/internal/service"
)

type memCatalog struct {
	items         []model.MenuItem
	availableOnly bool
}

func (m *memCatalog) List(_ context.Context, availableOnly bool) ([]model.MenuItem, error) {
	m.availableOnly = availableOnly
	return m.items, nil
}

func (m *memCatalog) GetByID(_ context.Context, id uint64) (model.MenuItem, error) {
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return model.MenuItem{}, repository.ErrNotFound
}

func (m *memCatalog) Create(_ context.Context, it *model.MenuItem) error {
	it.ID = uint64(len(m.items) + 1)
	m.items = append(m.items, *it)
	return nil
}

func (m *memCatalog) Update(_ context.Context, it *model.MenuItem) error {
	for i := range m.items {
		if m.items[i].ID == it.ID {
			m.items[i] = *it
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memCatalog) SetAvailability(_ context.Context, id uint64, available bool) (model.MenuItem, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].IsAvailable = available
			return m.items[i], nil
		}
	}
	return model.MenuItem{}, repository.ErrNotFound
}

// GetByIDs lets the catalog back a real order engine.
func (m *memCatalog) GetByIDs(_ context.Context, ids []uint64) (map[uint64]model.MenuItem, error) {
	out := map[uint64]model.MenuItem{}
	for _, id := range ids {
		for _, it := range m.items {
			if it.ID == id {
				out[id] = it
			}
		}
	}
	return out, nil
}

// memOrderStore keeps just enough of the order store for takeaway orders.
type memOrderStore struct {
	service.OrderStore
	orders map[uint64]*model.Order
}

func (s *memOrderStore) Create(_ context.Context, o *model.Order) error {
	o.ID = uint64(len(s.orders) + 1)
	c := *o
	c.Lines = append([]model.OrderLine(nil), o.Lines...)
	s.orders[o.ID] = &c
	return nil
}

func (s *memOrderStore) GetByID(_ context.Context, id uint64) (*model.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *o
	c.Lines = append([]model.OrderLine(nil), o.Lines...)
	return &c, nil
}

type memUnitOfWork struct{ stores service.Stores }

func (u memUnitOfWork) Stores() service.Stores { return u.stores }

func (u memUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, s service.Stores) error) error {
	return fn(ctx, u.stores)
}

type noTax struct{}

func (noTax) Get(context.Context) (model.Settings, error) {
	return model.Settings{Name: "Test", TaxPercentage: decimal.Zero, ServiceChargePercentage: decimal.Zero, Currency: "USD"}, nil
}

func TestMenuEdits_DoNotRepriceExistingOrders(t *testing.T) {
	cat := &memCatalog{items: []model.MenuItem{{ID: 1, Name: "Burger", Price: decimal.RequireFromString("10"), IsAvailable: true}}}
	uow := memUnitOfWork{stores: service.Stores{
		Orders: &memOrderStore{orders: map[uint64]*model.Order{}},
		Menu:   cat,
	}}
	menu := NewMenuHandler(cat)
	orders := NewOrderHandler(service.NewOrderService(uow, noTax{}, nil, nil))

	e := newEcho()
	admin := asUser(1, model.RoleAdmin)
	e.PUT("/menu-items/:id", menu.Update, admin)
	e.PATCH("/menu-items/:id/availability", menu.SetAvailability, admin)
	e.POST("/orders", orders.Create, admin)
	e.GET("/orders/:id", orders.Get, admin)

	order := `{"orderType":"takeaway","items":[{"menuItemId":1,"quantity":2}]}`
	if rec, _ := do(e, http.MethodPost, "/orders", order); rec.Code != http.StatusCreated {
		t.Fatalf("create order status = %d %s", rec.Code, rec.Body)
	}

	rec, env := do(e, http.MethodPut, "/menu-items/1", `{"price":"12.5"}`)
	if rec.Code != http.StatusOK || env.Data.(map[string]any)["price"] != "12.50" {
		t.Fatalf("price update = %d %+v", rec.Code, env)
	}

	_, env = do(e, http.MethodGet, "/orders/1", "")
	data := env.Data.(map[string]any)
	line := data["items"].([]any)[0].(map[string]any)
	if line["unitPrice"] != "10.00" || data["subtotal"] != "20.00" {
		t.Fatalf("existing order repriced: %v", data)
	}

	rec, env = do(e, http.MethodPost, "/orders", order)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second order status = %d %s", rec.Code, rec.Body)
	}
	if got := env.Data.(map[string]any)["items"].([]any)[0].(map[string]any)["unitPrice"]; got != "12.50" {
		t.Fatalf("new order unitPrice = %v, want 12.50", got)
	}

	if rec, _ := do(e, http.MethodPatch, "/menu-items/1/availability", `{"isAvailable":false}`); rec.Code != http.StatusOK {
		t.Fatalf("availability status = %d %s", rec.Code, rec.Body)
	}
	rec, env = do(e, http.MethodPost, "/orders", order)
	if rec.Code != http.StatusBadRequest || env.Message != `menu item "Burger" is not available` {
		t.Fatalf("unavailable item: %d %+v", rec.Code, env)
	}
}

func TestMenuHandler_UpdateRejections(t *testing.T) {
	cat := &memCatalog{items: []model.MenuItem{{ID: 1, Name: "Soup", Price: decimal.RequireFromString("4.5"), IsAvailable: true}}}
	h := NewMenuHandler(cat)
	e := newEcho()
	e.PUT("/menu-items/:id", h.Update)
	e.PATCH("/menu-items/:id/availability", h.SetAvailability)

	tests := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodPut, "/menu-items/1", `{"price":"-0.01"}`, http.StatusBadRequest},
		{http.MethodPut, "/menu-items/1", `{"name":"   "}`, http.StatusBadRequest},
		{http.MethodPut, "/menu-items/9", `{"price":"1"}`, http.StatusNotFound},
		{http.MethodPatch, "/menu-items/1/availability", `{}`, http.StatusBadRequest},
		{http.MethodPatch, "/menu-items/9/availability", `{"isAvailable":true}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.body, func(t *testing.T) {
			if rec, _ := do(e, tt.method, tt.path, tt.body); rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body)
			}
		})
	}
	if cat.items[0].Name != "Soup" || !cat.items[0].Price.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("rejected edits leaked into catalog: %+v", cat.items[0])
	}
}

func TestMenuHandler(t *testing.T) {
	cat := &memCatalog{items: []model.MenuItem{{ID: 1, Name: "Soup", Price: decimal.RequireFromString("4.5"), IsAvailable: true}}}
	h := NewMenuHandler(cat)
	e := newEcho()
	e.GET("/menu-items", h.List)
	e.GET("/menu-items/:id", h.Get)
	e.POST("/menu-items", h.Create)

	_, env := do(e, http.MethodGet, "/menu-items?available=true", "")
	if !cat.availableOnly || env.Data.([]any)[0].(map[string]any)["price"] != "4.50" {
		t.Fatalf("list = %+v (availableOnly=%v)", env, cat.availableOnly)
	}
	if rec, env := do(e, http.MethodGet, "/menu-items/9", ""); rec.Code != http.StatusNotFound || env.Message != "menu item 9 not found" {
		t.Fatalf("missing item: %d %+v", rec.Code, env)
	}
	if rec, _ := do(e, http.MethodPost, "/menu-items", `{"name":"Tea","price":"-1"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative price status = %d", rec.Code)
	}
	rec, env := do(e, http.MethodPost, "/menu-items", `{"name":" Tea ","price":"2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d %s", rec.Code, rec.Body)
	}
	data := env.Data.(map[string]any)
	if data["name"] != "Tea" || data["isAvailable"] != true || data["price"] != "2.00" {
		t.Fatalf("created = %v", data)
	}
}
