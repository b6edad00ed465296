package repository

import (
	"time"

	"go-minimart-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PromotionRepository interface {
	WithTx(tx *gorm.DB) PromotionRepository
	Create(p *model.Promotion) error
	Update(p *model.Promotion) error
	Delete(id uuid.UUID, deletedBy string) error
	FindByID(id uuid.UUID) (*model.Promotion, error)
	FindByName(name string) (*model.Promotion, error)
	FindAll() ([]model.Promotion, error)
	FindActiveAt(at time.Time) ([]model.Promotion, error)
}

type promotionRepo struct {
	db *gorm.DB
}

func NewPromotionRepo(db *gorm.DB) PromotionRepository {
	return &promotionRepo{db}
}

func (r *promotionRepo) WithTx(tx *gorm.DB) PromotionRepository {
	return &promotionRepo{tx}
}

func (r *promotionRepo) Create(p *model.Promotion) error {
	return r.db.Create(p).Error
}

func (r *promotionRepo) Update(p *model.Promotion) error {
	return r.db.Model(&model.Promotion{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":          p.Name,
			"type":          p.Type,
			"value":         p.Value,
			"minimum_spend": p.MinimumSpend,
			"start_date":    p.StartDate,
			"end_date":      p.EndDate,
			"is_active":     p.IsActive,
			"updated_by":    p.UpdatedBy,
		}).Error
}

func (r *promotionRepo) Delete(id uuid.UUID, deletedBy string) error {
	if err := r.db.Model(&model.Promotion{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Promotion{}, "id = ?", id).Error
}

func (r *promotionRepo) FindByID(id uuid.UUID) (*model.Promotion, error) {
	var p model.Promotion
	if err := r.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *promotionRepo) FindByName(name string) (*model.Promotion, error) {
	var p model.Promotion
	if err := r.db.First(&p, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *promotionRepo) FindAll() ([]model.Promotion, error) {
	var promotions []model.Promotion
	err := r.db.Order("start_date DESC").Find(&promotions).Error
	return promotions, err
}

func (r *promotionRepo) FindActiveAt(at time.Time) ([]model.Promotion, error) {
	var promotions []model.Promotion
	err := r.db.
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, at, at).
		Order("name ASC").
		Find(&promotions).Error
	return promotions, err
}
