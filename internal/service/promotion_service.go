package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/pricing"
	"go-minimart-pos/pkg/validator"
)

type PromotionService interface {
	Create(ctx context.Context, req *PromotionRequest, actor Actor) (*model.Promotion, error)
	Update(ctx context.Context, id uuid.UUID, req *PromotionRequest, actor Actor) (*model.Promotion, error)
	Delete(ctx context.Context, id uuid.UUID, actor Actor) error
	Get(ctx context.Context, id uuid.UUID) (*model.Promotion, error)
	List(ctx context.Context) ([]model.Promotion, error)
	Applicable(ctx context.Context, subtotal decimal.Decimal) ([]ApplicablePromotion, error)
}

type PromotionRequest struct {
	Name         string              `json:"name" validate:"required"`
	Type         model.PromotionType `json:"type" validate:"required,oneof=PERCENT FIXED_AMOUNT"`
	Value        decimal.Decimal     `json:"value" validate:"gt=0"`
	MinimumSpend decimal.Decimal     `json:"minimum_spend" validate:"gte=0"`
	StartDate    time.Time           `json:"start_date" validate:"required"`
	EndDate      time.Time           `json:"end_date" validate:"required"`
	IsActive     *bool               `json:"is_active"`
}

type ApplicablePromotion struct {
	model.Promotion
	Discount decimal.Decimal `json:"discount"`
}

type promotionService struct {
	core *Core
}

func NewPromotionService(core *Core) PromotionService {
	return &promotionService{core: core}
}

var hundred = decimal.NewFromInt(100)

func (req *PromotionRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Check(req); err != nil {
		return err
	}
	if req.Type == model.PromotionPercent && req.Value.GreaterThan(hundred) {
		return apperr.Invalid("percent promotion value must be at most 100").With("field", "value")
	}
	if req.EndDate.Before(req.StartDate) {
		return apperr.Invalid("end date is before start date").With("field", "end_date")
	}
	return nil
}

func (req *PromotionRequest) apply(p *model.Promotion) {
	p.Name = req.Name
	p.Type = req.Type
	p.Value = req.Value
	p.MinimumSpend = req.MinimumSpend
	p.StartDate = req.StartDate.UTC()
	p.EndDate = req.EndDate.UTC()
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

func (s *promotionService) checkName(db *gorm.DB, name string, self uuid.UUID) error {
	existing, err := s.core.Repos.Promotions.WithTx(db).FindByName(name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return apperr.ErrDuplicate.Msgf("promotion '%s' already exists", name).With("field", "name")
	}
	return nil
}

func (s *promotionService) Create(ctx context.Context, req *PromotionRequest, actor Actor) (*model.Promotion, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	db := s.core.DB.WithContext(ctx)
	if err := s.checkName(db, req.Name, uuid.Nil); err != nil {
		return nil, err
	}

	p := &model.Promotion{IsActive: true}
	req.apply(p)
	p.CreatedBy = actor.By()
	p.UpdatedBy = actor.By()
	if err := s.core.Repos.Promotions.WithTx(db).Create(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *promotionService) Update(ctx context.Context, id uuid.UUID, req *PromotionRequest, actor Actor) (*model.Promotion, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	db := s.core.DB.WithContext(ctx)
	p, err := s.core.Repos.Promotions.WithTx(db).FindByID(id)
	if err != nil {
		return nil, notFound(err, "promotion", id)
	}
	if err := s.checkName(db, req.Name, id); err != nil {
		return nil, err
	}
	req.apply(p)
	p.UpdatedBy = actor.By()
	if err := s.core.Repos.Promotions.WithTx(db).Update(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *promotionService) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	db := s.core.DB.WithContext(ctx)
	if _, err := s.core.Repos.Promotions.WithTx(db).FindByID(id); err != nil {
		return notFound(err, "promotion", id)
	}
	return s.core.Repos.Promotions.WithTx(db).Delete(id, actor.By())
}

func (s *promotionService) Get(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	p, err := s.core.Repos.Promotions.WithTx(s.core.DB.WithContext(ctx)).FindByID(id)
	if err != nil {
		return nil, notFound(err, "promotion", id)
	}
	return p, nil
}

func (s *promotionService) List(ctx context.Context) ([]model.Promotion, error) {
	return s.core.Repos.Promotions.WithTx(s.core.DB.WithContext(ctx)).FindAll()
}

// Applicable lists promotions usable for subtotal right now, largest
// discount first
func (s *promotionService) Applicable(ctx context.Context, subtotal decimal.Decimal) ([]ApplicablePromotion, error) {
	now := s.core.now()
	active, err := s.core.Repos.Promotions.WithTx(s.core.DB.WithContext(ctx)).FindActiveAt(now)
	if err != nil {
		return nil, err
	}
	out := []ApplicablePromotion{}
	for i := range active {
		if !pricing.IsApplicable(&active[i], subtotal, now) {
			continue
		}
		out = append(out, ApplicablePromotion{
			Promotion: active[i],
			Discount:  pricing.Discount(&active[i], subtotal, now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Discount.GreaterThan(out[j].Discount)
	})
	return out, nil
}
