package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
	"github.com/iliyamo/restaurant-pos/internal/config"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
	"github.com/iliyamo/restaurant-pos/internal/service"
	"github.com/iliyamo/restaurant-pos/internal/utils"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return e
}

// asUser stands in for JWTAuth.
func asUser(id uint64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", id)
			c.Set("role", role)
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, Response) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env Response
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

type fakeOrders struct {
	OrderEngine
	created service.CreateOrderInput
	updated service.UpdateOrderInput
	err     error
}

func (f *fakeOrders) Create(_ context.Context, in service.CreateOrderInput) (*model.Order, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &model.Order{
		ID:          1,
		OrderNumber: "ORD-20260101-ABCDEF",
		Type:        in.Type,
		TableID:     in.TableID,
		Status:      model.StatusPending,
		Subtotal:    decimal.RequireFromString("100"),
		TaxAmount:   decimal.RequireFromString("5.4"),
		TotalAmount: decimal.RequireFromString("105.4"),
		Lines: []model.OrderLine{
			{MenuItemID: 3, Quantity: 2, UnitPrice: decimal.RequireFromString("50"), MenuItemName: "Soup"},
		},
		CreatedBy: in.ActorID,
	}, nil
}

func (f *fakeOrders) Update(_ context.Context, id uint64, in service.UpdateOrderInput) (*model.Order, error) {
	f.updated = in
	if f.err != nil {
		return nil, f.err
	}
	return &model.Order{ID: id, OrderNumber: "ORD-20260101-ABCDEF", Status: model.StatusPending}, nil
}

func (f *fakeOrders) Get(_ context.Context, id uint64) (*model.Order, error) {
	return nil, apperr.NotFound("order %d not found", id)
}

func TestCreateOrder(t *testing.T) {
	orders := &fakeOrders{}
	e := newEcho()
	h := NewOrderHandler(orders)
	e.POST("/v1/orders", h.Create, asUser(5, model.RoleWaiter))

	rec, env := do(e, http.MethodPost, "/v1/orders",
		`{"orderType":"dine_in","tableId":4,"items":[{"menuItemId":3,"quantity":2}],"discountAmount":"10"}`)
	if rec.Code != http.StatusCreated || !env.Success {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if orders.created.ActorID != 5 || *orders.created.TableID != 4 || !orders.created.Discount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("engine input = %+v", orders.created)
	}
	data := env.Data.(map[string]any)
	if data["totalAmount"] != "105.40" || data["taxAmount"] != "5.40" {
		t.Fatalf("money not rendered at two places: %v", data)
	}
	items := data["items"].([]any)
	if items[0].(map[string]any)["lineTotal"] != "100.00" {
		t.Fatalf("line total = %v", items[0])
	}
}

func TestCreateOrder_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, "invalid request body"},
		{"missing items", `{"orderType":"takeaway"}`, nil, http.StatusBadRequest, "items is required"},
		{"bad type", `{"orderType":"delivery","items":[{"menuItemId":1,"quantity":1}]}`, nil, http.StatusBadRequest, "orderType must be one of: dine_in takeaway"},
		{"engine validation", `{"orderType":"dine_in","items":[{"menuItemId":1,"quantity":1}]}`,
			apperr.Validation("tableId is required for dine-in orders"), http.StatusBadRequest, "tableId is required for dine-in orders"},
		{"table taken", `{"orderType":"dine_in","tableId":2,"items":[{"menuItemId":1,"quantity":1}]}`,
			apperr.Conflict("table 2 is not available"), http.StatusConflict, "table 2 is not available"},
		{"store failure", `{"orderType":"takeaway","items":[{"menuItemId":1,"quantity":1}]}`,
			errors.New("dial tcp: refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			e.POST("/v1/orders", NewOrderHandler(&fakeOrders{err: tt.err}).Create, asUser(1, model.RoleAdmin))
			rec, env := do(e, http.MethodPost, "/v1/orders", tt.body)
			if rec.Code != tt.status || env.Success || env.Message != tt.msg {
				t.Fatalf("got %d %+v", rec.Code, env)
			}
		})
	}
}

func TestUpdateOrder_Lines(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLines int // -1 means nil
	}{
		{"absent items keep lines", `{"notes":"window seat"}`, -1},
		{"empty items keep lines", `{"items":[],"discountAmount":"2"}`, -1},
		{"items replace lines", `{"items":[{"menuItemId":3,"quantity":1}]}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{}
			e := newEcho()
			e.PUT("/v1/orders/:id", NewOrderHandler(orders).Update, asUser(2, model.RoleWaiter))
			if rec, _ := do(e, http.MethodPut, "/v1/orders/9", tt.body); rec.Code != http.StatusOK {
				t.Fatalf("status = %d %s", rec.Code, rec.Body)
			}
			got := orders.updated.Lines
			if (tt.wantLines < 0 && got != nil) || (tt.wantLines >= 0 && len(got) != tt.wantLines) {
				t.Fatalf("lines = %#v, want %d", got, tt.wantLines)
			}
		})
	}
}

func TestOrderRoutes_NeedCaller(t *testing.T) {
	e := newEcho()
	e.POST("/v1/orders", NewOrderHandler(&fakeOrders{}).Create)
	rec, _ := do(e, http.MethodPost, "/v1/orders", `{"orderType":"takeaway","items":[{"menuItemId":1,"quantity":1}]}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetOrder_NotFoundAndBadID(t *testing.T) {
	e := newEcho()
	e.GET("/v1/orders/:id", NewOrderHandler(&fakeOrders{}).Get)
	if rec, env := do(e, http.MethodGet, "/v1/orders/77", ""); rec.Code != http.StatusNotFound || env.Message != "order 77 not found" {
		t.Fatalf("got %d %+v", rec.Code, env)
	}
	if rec, _ := do(e, http.MethodGet, "/v1/orders/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

type fakePayments struct {
	PaymentEngine
	byOrder *model.Payment
	from    *time.Time
	to      *time.Time
}

func (f *fakePayments) GetByOrder(context.Context, uint64) (*model.Payment, error) {
	return f.byOrder, nil
}

func (f *fakePayments) SummaryByMethod(_ context.Context, from, to *time.Time) ([]model.MethodSummary, error) {
	f.from, f.to = from, to
	return []model.MethodSummary{{Method: model.MethodCard, Total: decimal.RequireFromString("12.345"), Count: 2}}, nil
}

func TestPaymentByOrder(t *testing.T) {
	pay := &fakePayments{}
	e := newEcho()
	e.GET("/v1/payments/order/:orderId", NewPaymentHandler(pay).ByOrder)

	rec, env := do(e, http.MethodGet, "/v1/payments/order/3", "")
	if rec.Code != http.StatusOK || !env.Success || env.Data != nil {
		t.Fatalf("unpaid order: %d %+v", rec.Code, env)
	}

	pay.byOrder = &model.Payment{ID: 9, OrderID: 3, Amount: decimal.NewFromInt(20), Method: model.MethodCash, Status: model.PaymentCompleted}
	_, env = do(e, http.MethodGet, "/v1/payments/order/3", "")
	data := env.Data.(map[string]any)
	if data["amount"] != "20.00" || data["status"] != "completed" {
		t.Fatalf("payment = %v", data)
	}
}

func TestPaymentSummary_DateRange(t *testing.T) {
	pay := &fakePayments{}
	e := newEcho()
	e.GET("/v1/payments/summary/by-method", NewPaymentHandler(pay).SummaryByMethod)

	rec, env := do(e, http.MethodGet, "/v1/payments/summary/by-method?startDate=2026-03-01&endDate=2026-03-02", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
	if !pay.from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) || !pay.to.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("range = %s..%s", pay.from, pay.to)
	}
	row := env.Data.([]any)[0].(map[string]any)
	if row["total"] != "12.35" || row["count"] != float64(2) {
		t.Fatalf("row = %v", row)
	}

	if rec, _ := do(e, http.MethodGet, "/v1/payments/summary/by-method?startDate=03/01/2026", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperr.Validation("x"), http.StatusBadRequest},
		{apperr.NotFound("x"), http.StatusNotFound},
		{apperr.InvalidState("x"), http.StatusConflict},
		{apperr.Conflict("x"), http.StatusConflict},
		{apperr.Unauthorized("x"), http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("x")), http.StatusNotFound},
		{echo.NewHTTPError(http.StatusForbidden, "forbidden"), http.StatusForbidden},
		{echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := StatusFor(tt.err); got != tt.status {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
	if _, msg := StatusFor(errors.New("secret dsn")); msg != "internal server error" {
		t.Errorf("internal detail leaked: %q", msg)
	}
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	e := newEcho()
	e.GET("/ok", Health(pinger{}))
	e.GET("/down", Health(pinger{err: errors.New("gone")}))
	if rec, _ := do(e, http.MethodGet, "/ok", ""); rec.Code != http.StatusOK {
		t.Fatalf("ok status = %d", rec.Code)
	}
	if rec, env := do(e, http.MethodGet, "/down", ""); rec.Code != http.StatusServiceUnavailable || env.Success {
		t.Fatalf("down = %d %+v", rec.Code, env)
	}
}

type memUsers struct{ byEmail map[string]model.User }

func (m *memUsers) Create(_ context.Context, u *model.User) (uint64, error) {
	if _, ok := m.byEmail[u.Email]; ok {
		return 0, repository.ErrEmailExists
	}
	u.ID = uint64(len(m.byEmail) + 1)
	m.byEmail[u.Email] = *u
	return u.ID, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

type memTokens struct{ live map[string]uint64 }

func (m *memTokens) StoreRefresh(_ context.Context, uid uint64, hash string, _ time.Time) error {
	m.live[hash] = uid
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	uid, ok := m.live[hash]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return uid, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	if _, ok := m.live[hash]; !ok {
		return repository.ErrNotFound
	}
	delete(m.live, hash)
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, uid uint64) error {
	for h, u := range m.live {
		if u == uid {
			delete(m.live, h)
		}
	}
	return nil
}

func TestAuthFlow(t *testing.T) {
	hash, err := utils.HashPassword("correct horse", 4)
	if err != nil {
		t.Fatal(err)
	}
	users := &memUsers{byEmail: map[string]model.User{
		"ana@example.com": {ID: 1, Name: "Ana", Email: "ana@example.com", PasswordHash: hash, Role: model.RoleCashier, IsActive: true},
	}}
	tokens := &memTokens{live: map[string]uint64{}}
	cfg := config.Config{JWTSecret: "k", AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}
	h := NewAuthHandler(cfg, users, tokens)

	e := newEcho()
	e.POST("/login", h.Login)
	e.POST("/refresh", h.Refresh)
	e.POST("/logout", h.Logout)

	if rec, _ := do(e, http.MethodPost, "/login", `{"email":"ana@example.com","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", rec.Code)
	}
	rec, env := do(e, http.MethodPost, "/login", `{"email":"ana@example.com","password":"correct horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d %s", rec.Code, rec.Body)
	}
	refresh := env.Data.(map[string]any)["refresh"].(map[string]any)["token"].(string)

	rec, env = do(e, http.MethodPost, "/refresh", `{"refreshToken":"`+refresh+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d %s", rec.Code, rec.Body)
	}
	rotated := env.Data.(map[string]any)["refresh"].(map[string]any)["token"].(string)

	if rec, _ := do(e, http.MethodPost, "/refresh", `{"refreshToken":"`+refresh+`"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token status = %d", rec.Code)
	}
	if rec, _ := do(e, http.MethodPost, "/logout", `{"refreshToken":"`+rotated+`"}`); rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if len(tokens.live) != 0 {
		t.Fatalf("tokens left after logout: %d", len(tokens.live))
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := &memUsers{byEmail: map[string]model.User{"a@b.co": {ID: 1, Email: "a@b.co"}}}
	h := NewAuthHandler(config.Config{BcryptCost: 4}, users, &memTokens{live: map[string]uint64{}})
	e := newEcho()
	e.POST("/users", h.Register)

	if rec, _ := do(e, http.MethodPost, "/users", `{"name":"B","email":"a@b.co","password":"longenough","role":"waiter"}`); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rec.Code)
	}
	if rec, _ := do(e, http.MethodPost, "/users", `{"name":"C","email":"c@b.co","password":"longenough","role":"chef"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role status = %d", rec.Code)
	}
	if rec, _ := do(e, http.MethodPost, "/users", `{"name":"C","email":"c@b.co","password":"longenough","role":"kitchen"}`); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
}
