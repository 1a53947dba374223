package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// memDB is an in-memory stand-in for MySQL.  Within snapshots the whole
// state and restores it when fn fails, which is enough to observe whether
// multi-row writes are atomic.
type memDB struct {
	orders   map[uint64]*model.Order
	tables   map[uint64]*model.Table
	menu     map[uint64]model.MenuItem
	payments map[uint64]*model.Payment

	nextOrder, nextPayment, nextTable uint64
	now                               time.Time

	dupCreates int   // next N order inserts fail with ErrDuplicate
	createErr  error // next order insert fails with this error
}

func newMemDB() *memDB {
	return &memDB{
		orders:   map[uint64]*model.Order{},
		tables:   map[uint64]*model.Table{},
		menu:     map[uint64]model.MenuItem{},
		payments: map[uint64]*model.Payment{},
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (db *memDB) addTable(number string, status model.TableStatus) uint64 {
	db.nextTable++
	db.tables[db.nextTable] = &model.Table{ID: db.nextTable, TableNumber: number, Capacity: 4, Status: status}
	return db.nextTable
}

func (db *memDB) addMenuItem(id uint64, name, price string, available bool) {
	db.menu[id] = model.MenuItem{ID: id, Name: name, Price: decimal.RequireFromString(price), IsAvailable: available}
}

func (db *memDB) tableStatus(id uint64) model.TableStatus { return db.tables[id].Status }

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Lines = append([]model.OrderLine(nil), o.Lines...)
	return &c
}

func (db *memDB) snapshot() *memDB {
	c := *db
	c.orders = make(map[uint64]*model.Order, len(db.orders))
	for k, v := range db.orders {
		c.orders[k] = cloneOrder(v)
	}
	c.tables = make(map[uint64]*model.Table, len(db.tables))
	for k, v := range db.tables {
		t := *v
		c.tables[k] = &t
	}
	c.payments = make(map[uint64]*model.Payment, len(db.payments))
	for k, v := range db.payments {
		p := *v
		c.payments[k] = &p
	}
	return &c
}

func (db *memDB) Stores() Stores {
	return Stores{Orders: memOrders{db}, Tables: memTables{db}, Menu: memMenu{db}, Payments: memPayments{db}}
}

func (db *memDB) Within(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	saved := db.snapshot()
	if err := fn(ctx, db.Stores()); err != nil {
		db.orders, db.tables, db.payments = saved.orders, saved.tables, saved.payments
		db.nextOrder, db.nextPayment, db.nextTable = saved.nextOrder, saved.nextPayment, saved.nextTable
		return err
	}
	return nil
}

type memOrders struct{ db *memDB }

func (m memOrders) Create(_ context.Context, o *model.Order) error {
	if m.db.createErr != nil {
		err := m.db.createErr
		m.db.createErr = nil
		return err
	}
	if m.db.dupCreates > 0 {
		m.db.dupCreates--
		return repository.ErrDuplicate
	}
	for _, existing := range m.db.orders {
		if existing.OrderNumber == o.OrderNumber {
			return repository.ErrDuplicate
		}
	}
	m.db.nextOrder++
	o.ID = m.db.nextOrder
	o.CreatedAt, o.UpdatedAt = m.db.now, m.db.now
	m.db.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m memOrders) ReplaceLines(_ context.Context, id uint64, lines []model.OrderLine) error {
	o, ok := m.db.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Lines = append([]model.OrderLine(nil), lines...)
	return nil
}

func (m memOrders) Save(_ context.Context, o *model.Order) error {
	stored, ok := m.db.orders[o.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Status = o.Status
	stored.Subtotal, stored.TaxAmount, stored.ServiceCharge = o.Subtotal, o.TaxAmount, o.ServiceCharge
	stored.DiscountAmount, stored.TotalAmount = o.DiscountAmount, o.TotalAmount
	stored.Notes = o.Notes
	stored.UpdatedAt = m.db.now
	return nil
}

func (m memOrders) GetByID(_ context.Context, id uint64) (*model.Order, error) {
	o, ok := m.db.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.decorate(o), nil
}

func (m memOrders) GetForUpdate(ctx context.Context, id uint64) (*model.Order, error) {
	return m.GetByID(ctx, id)
}

func (m memOrders) decorate(o *model.Order) *model.Order {
	c := cloneOrder(o)
	if c.HasTable() {
		if t, ok := m.db.tables[*c.TableID]; ok {
			n := t.TableNumber
			c.TableNumber = &n
		}
	}
	for i := range c.Lines {
		c.Lines[i].MenuItemName = m.db.menu[c.Lines[i].MenuItemID].Name
	}
	return c
}

func (m memOrders) List(_ context.Context, f model.OrderFilter) ([]model.Order, error) {
	return m.filter(func(o *model.Order) bool {
		return (f.Status == "" || o.Status == f.Status) &&
			(f.Type == "" || o.Type == f.Type) &&
			(f.TableID == 0 || (o.HasTable() && *o.TableID == f.TableID)) &&
			(f.From == nil || !o.CreatedAt.Before(*f.From)) &&
			(f.To == nil || o.CreatedAt.Before(*f.To))
	}), nil
}

func (m memOrders) ListByStatuses(_ context.Context, statuses []model.OrderStatus) ([]model.Order, error) {
	return m.filter(func(o *model.Order) bool {
		for _, s := range statuses {
			if o.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (m memOrders) filter(keep func(*model.Order) bool) []model.Order {
	out := make([]model.Order, 0)
	for _, o := range m.db.orders {
		if keep(o) {
			out = append(out, *m.decorate(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m memOrders) ActiveDineInTableIDs(_ context.Context) ([]uint64, error) {
	seen := map[uint64]bool{}
	ids := make([]uint64, 0)
	for _, o := range m.db.orders {
		if o.Type == model.OrderTypeDineIn && o.HasTable() && !o.Status.Terminal() && !seen[*o.TableID] {
			seen[*o.TableID] = true
			ids = append(ids, *o.TableID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type memTables struct{ db *memDB }

func (m memTables) GetByID(_ context.Context, id uint64) (*model.Table, error) {
	t, ok := m.db.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m memTables) List(_ context.Context, status model.TableStatus) ([]model.Table, error) {
	out := make([]model.Table, 0)
	for _, t := range m.db.tables {
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memTables) Create(_ context.Context, t *model.Table) error {
	for _, existing := range m.db.tables {
		if existing.TableNumber == t.TableNumber {
			return repository.ErrDuplicate
		}
	}
	m.db.nextTable++
	t.ID = m.db.nextTable
	c := *t
	m.db.tables[t.ID] = &c
	return nil
}

func (m memTables) SetStatus(_ context.Context, id uint64, status model.TableStatus) error {
	t, ok := m.db.tables[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	return nil
}

func (m memTables) CompareAndSetStatus(_ context.Context, id uint64, from, to model.TableStatus) error {
	t, ok := m.db.tables[id]
	if !ok {
		return repository.ErrNotFound
	}
	if t.Status != from {
		return repository.ErrConflict
	}
	t.Status = to
	return nil
}

type memMenu struct{ db *memDB }

func (m memMenu) GetByIDs(_ context.Context, ids []uint64) (map[uint64]model.MenuItem, error) {
	out := map[uint64]model.MenuItem{}
	for _, id := range ids {
		if it, ok := m.db.menu[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

type memPayments struct{ db *memDB }

func (m memPayments) Create(_ context.Context, p *model.Payment) error {
	for _, existing := range m.db.payments {
		if existing.OrderID == p.OrderID {
			return repository.ErrDuplicate
		}
	}
	m.db.nextPayment++
	p.ID = m.db.nextPayment
	p.CreatedAt, p.UpdatedAt = m.db.now, m.db.now
	if o, ok := m.db.orders[p.OrderID]; ok {
		p.OrderNumber = o.OrderNumber
	}
	c := *p
	m.db.payments[p.ID] = &c
	return nil
}

func (m memPayments) GetByID(_ context.Context, id uint64) (*model.Payment, error) {
	p, ok := m.db.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m memPayments) GetByOrder(_ context.Context, orderID uint64) (*model.Payment, error) {
	for _, p := range m.db.payments {
		if p.OrderID == orderID {
			c := *p
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memPayments) Update(_ context.Context, p *model.Payment) error {
	if _, ok := m.db.payments[p.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *p
	m.db.payments[p.ID] = &c
	return nil
}

func (m memPayments) List(_ context.Context, from, to *time.Time) ([]model.Payment, error) {
	out := make([]model.Payment, 0)
	for _, p := range m.db.payments {
		if (from == nil || !p.CreatedAt.Before(*from)) && (to == nil || p.CreatedAt.Before(*to)) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memPayments) SummaryByMethod(ctx context.Context, from, to *time.Time) ([]model.MethodSummary, error) {
	all, _ := m.List(ctx, from, to)
	byMethod := map[model.PaymentMethod]*model.MethodSummary{}
	for _, p := range all {
		if p.Status != model.PaymentCompleted {
			continue
		}
		s, ok := byMethod[p.Method]
		if !ok {
			s = &model.MethodSummary{Method: p.Method, Total: decimal.Zero}
			byMethod[p.Method] = s
		}
		s.Total = s.Total.Add(p.Amount)
		s.Count++
	}
	out := make([]model.MethodSummary, 0, len(byMethod))
	for _, s := range byMethod {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out, nil
}

type fixedSettings struct{ s model.Settings }

func (f *fixedSettings) Get(context.Context) (model.Settings, error) { return f.s, nil }

type recordedEvents struct{ events []queue.OrderEvent }

func (r *recordedEvents) Publish(_ context.Context, ev queue.OrderEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *recordedEvents) types() []string {
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
