package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/ledger"
	"go-minimart-pos/internal/lock"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
)

var decimalOne = decimal.NewFromInt(1)

// Actor is the authenticated user behind a mutating call
type Actor struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

// ID returns a pointer suitable for the nullable user_id columns
func (a Actor) ID() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// By is the value written to created_by/updated_by
func (a Actor) By() string {
	if a.UserID == uuid.Nil {
		return "system"
	}
	return a.UserID.String()
}

func (a Actor) payload() map[string]interface{} {
	return map[string]interface{}{
		"id":    a.UserID,
		"name":  a.Name,
		"email": a.Email,
	}
}

// Notifier pushes live events to connected clients
type Notifier interface {
	Publish(eventType string, payload map[string]interface{})
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, map[string]interface{}) {}

// Core is what every transactional service shares: the pool, the product
// locker, the ledgers and the notifier.
type Core struct {
	DB           *gorm.DB
	Repos        *repository.Repositories
	Locker       lock.Locker
	Notifier     Notifier
	Log          *zap.Logger
	Stock        *ledger.StockLedger
	Funds        *ledger.FundLedger
	BaseCurrency string
	Clock        func() time.Time
}

func NewCore(db *gorm.DB, repos *repository.Repositories, locker lock.Locker, notifier Notifier, log *zap.Logger, baseCurrency string) *Core {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Core{
		DB:           db,
		Repos:        repos,
		Locker:       locker,
		Notifier:     notifier,
		Log:          log,
		Stock:        ledger.NewStockLedger(repos.Products, repos.Movements),
		Funds:        ledger.NewFundLedger(repos.Funds, baseCurrency),
		BaseCurrency: baseCurrency,
		Clock:        func() time.Time { return time.Now().UTC() },
	}
}

func (c *Core) now() time.Time {
	return c.Clock().UTC()
}

func productKey(id uuid.UUID) string {
	return "product:" + id.String()
}

func documentKey(kind string, id uuid.UUID) string {
	return kind + ":" + id.String()
}

// commit takes the locks for keys, then runs fn in one database transaction.
// Nothing fn writes survives an error.
func (c *Core) commit(ctx context.Context, keys []string, fn func(tx *gorm.DB) error) error {
	release, err := c.Locker.Acquire(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()
	return c.DB.WithContext(ctx).Transaction(fn)
}

// lockProducts loads every product in ids FOR UPDATE, in ascending id order
func (c *Core) lockProducts(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	unique := uniqueIDs(ids)
	products, err := c.Repos.Products.WithTx(tx).LockByIDs(unique)
	return checkLocked(unique, products, err)
}

// lockProductsForReversal is lockProducts for returns: a product deleted
// after the original document was committed can still take its goods back
func (c *Core) lockProductsForReversal(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	unique := uniqueIDs(ids)
	products, err := c.Repos.Products.WithTx(tx).LockByIDsWithDeleted(unique)
	return checkLocked(unique, products, err)
}

func checkLocked(unique []uuid.UUID, products map[uuid.UUID]*model.Product, err error) (map[uuid.UUID]*model.Product, error) {
	if err != nil {
		return nil, err
	}
	for _, id := range unique {
		if _, ok := products[id]; !ok {
			return nil, apperr.NotFound("product", id)
		}
	}
	return products, nil
}

// notifyStock publishes stock_update for every touched product and
// low_stock for those left at or under their minimum
func (c *Core) notifyStock(action string, products []*model.Product, actor Actor) {
	for _, p := range products {
		c.Notifier.Publish("stock_update", map[string]interface{}{
			"action": action,
			"product": map[string]interface{}{
				"id":    p.ID,
				"sku":   p.SKU,
				"name":  p.Name,
				"stock": p.StockQuantity,
			},
			"user": actor.payload(),
		})
		if p.IsLowStock() {
			c.Notifier.Publish("low_stock", map[string]interface{}{
				"product_id":    p.ID,
				"sku":           p.SKU,
				"name":          p.Name,
				"stock":         p.StockQuantity,
				"minimum_level": p.MinimumStockLevel,
				"message":       fmt.Sprintf("'%s' is low on stock (%d left)", p.Name, p.StockQuantity),
			})
		}
	}
}

// rate returns the current table rate for currency, 1 for the base currency
func (c *Core) rate(tx *gorm.DB, currency string) (*model.ExchangeRate, error) {
	if currency == c.BaseCurrency {
		return &model.ExchangeRate{Currency: currency, RateToBase: decimalOne}, nil
	}
	r, err := c.Repos.Funds.WithTx(tx).FindRate(currency)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Invalid("no exchange rate set for %s", currency).With("field", "currency")
		}
		return nil, err
	}
	return r, nil
}

func (c *Core) normalizeCurrency(currency string) (string, error) {
	if currency == "" {
		return c.BaseCurrency, nil
	}
	if currency != c.BaseCurrency && !model.IsSupportedCurrency(currency) {
		return "", apperr.Invalid("unsupported currency '%s'", currency).With("field", "currency")
	}
	return currency, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

func productKeys(ids []uuid.UUID) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		keys = append(keys, productKey(id))
	}
	return keys
}

// notFound turns gorm's not-found into the taxonomy error for entity
func notFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return err
}

func sortedProducts(m map[uuid.UUID]*model.Product) []*model.Product {
	out := make([]*model.Product, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
