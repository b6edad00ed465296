package repository

import (
	"time"

	"go-minimart-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementFilter struct {
	ProductID *uuid.UUID
	Type      model.StockMovementType
	From      *time.Time
	To        *time.Time
	Limit     int
}

// StockMovementData is one day of the stock movement chart
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type StockTransactionRepository interface {
	WithTx(tx *gorm.DB) StockTransactionRepository
	Create(entry *model.StockTransaction) error
	FindAll(filter MovementFilter) ([]model.StockTransaction, error)
	FindByID(id uuid.UUID) (*model.StockTransaction, error)
	SumByProduct(productID uuid.UUID) (int64, error)
	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
}

type stockTransactionRepo struct {
	db *gorm.DB
}

func NewStockTransactionRepo(db *gorm.DB) StockTransactionRepository {
	return &stockTransactionRepo{db}
}

func (r *stockTransactionRepo) WithTx(tx *gorm.DB) StockTransactionRepository {
	return &stockTransactionRepo{tx}
}

func (r *stockTransactionRepo) Create(entry *model.StockTransaction) error {
	return r.db.Omit("Product").Create(entry).Error
}

func (r *stockTransactionRepo) FindAll(filter MovementFilter) ([]model.StockTransaction, error) {
	var entries []model.StockTransaction
	q := r.db.Preload("Product")
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		q = q.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("occurred_at <= ?", *filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Order("occurred_at DESC, sequence DESC").Find(&entries).Error
	return entries, err
}

func (r *stockTransactionRepo) FindByID(id uuid.UUID) (*model.StockTransaction, error) {
	var entry model.StockTransaction
	if err := r.db.Preload("Product").First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// SumByProduct returns Σ quantity_change, which must equal stock_quantity
func (r *stockTransactionRepo) SumByProduct(productID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.Model(&model.StockTransaction{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity_change), 0)").
		Scan(&sum).Error
	return sum, err
}

// GetStockMovement aggregates inbound and outbound base quantities per day.
// Grouping happens in Go so the same code runs on Postgres and SQLite.
func (r *stockTransactionRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var rows []model.StockTransaction
	err := r.db.Select("occurred_at", "quantity_change").
		Where("occurred_at BETWEEN ? AND ?", startDate, endDate).
		Order("occurred_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	var results []StockMovementData
	index := map[string]int{}
	for _, row := range rows {
		day := row.OccurredAt.UTC().Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			results = append(results, StockMovementData{Date: day})
			i = len(results) - 1
			index[day] = i
		}
		if row.QuantityChange > 0 {
			results[i].Inbound += row.QuantityChange
		} else {
			results[i].Outbound += -row.QuantityChange
		}
	}
	return results, nil
}
