package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-minimart-pos/internal/lock"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/internal/testutil"
)

// recorder is a Notifier that keeps published event types
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(eventType string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func (r *recorder) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	core   *Core
	events *recorder
	actor  Actor
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	events := &recorder{}
	core := NewCore(db, repository.NewRepositories(db), lock.NewLocal(time.Second), events, zap.NewNop(), "VND")
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	core.Clock = func() time.Time { return now }

	user := &model.User{Email: "cashier@example.com", FullName: "Linh Cashier", IsActive: true}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(user).Error)

	return &fixture{
		t:      t,
		ctx:    context.Background(),
		db:     db,
		core:   core,
		events: events,
		actor:  Actor{UserID: user.ID, Name: user.FullName, Email: user.Email},
		now:    now,
	}
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	w := decimal.RequireFromString(want)
	assert.Truef(t, w.Equal(got), "want %s, got %s %v", w.String(), got.String(), msgAndArgs)
}

// product creates a product through the inventory service so opening stock
// lands in the ledger
func (f *fixture) product(sku string, stock int, cost, retail, wholesale int64, units ...UnitRequest) *model.Product {
	f.t.Helper()
	p, err := NewInventoryService(f.core).CreateProduct(f.ctx, &ProductRequest{
		SKU:            sku,
		Name:           "Product " + sku,
		Unit:           "can",
		CostPrice:      dec(cost),
		RetailPrice:    dec(retail),
		WholesalePrice: dec(wholesale),
		InitialStock:   stock,
		Units:          units,
	}, f.actor)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) reload(id interface{}) *model.Product {
	f.t.Helper()
	var p model.Product
	require.NoError(f.t, f.db.First(&p, "id = ?", id).Error)
	return &p
}

func (f *fixture) supplier(name string) *model.Supplier {
	f.t.Helper()
	s, err := NewSupplierService(f.core).Create(f.ctx, &model.Supplier{Name: name}, f.actor)
	require.NoError(f.t, err)
	return s
}

func (f *fixture) customer(name string) *model.Customer {
	f.t.Helper()
	c, err := NewCustomerService(f.core).Create(f.ctx, &model.Customer{Name: name, Phone: "0900000000"}, f.actor)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) funds() []model.FundTransaction {
	f.t.Helper()
	entries, err := f.core.Repos.Funds.FindAll(repository.FundFilter{})
	require.NoError(f.t, err)
	return entries
}

func (f *fixture) count(m interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(m).Count(&n).Error)
	return n
}

func (f *fixture) assertReconciled(id interface{}) {
	f.t.Helper()
	p := f.reload(id)
	r, err := NewInventoryService(f.core).Reconcile(f.ctx, p.ID)
	require.NoError(f.t, err)
	assert.True(f.t, r.Consistent, "stock %d, ledger %d", r.StockQuantity, r.LedgerSum)
}
