package repository

import (
	"errors"

	"go-minimart-pos/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	WithTx(tx *gorm.DB) RoleRepository
	FindAll() ([]model.Role, error)
	FindByID(id uint) (*model.Role, error)
	FindByCode(code string) (*model.Role, error)
	Create(role *model.Role) error
	SeedDefaults() error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) WithTx(tx *gorm.DB) RoleRepository {
	return &roleRepo{db: tx}
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Preload("Privileges").Order("id ASC").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(id uint) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").First(&role, id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) Create(role *model.Role) error {
	return r.db.Create(role).Error
}

// SeedDefaults creates missing roles and grants their default privileges.
// Privileges must be seeded first. ADMIN always receives every privilege.
func (r *roleRepo) SeedDefaults() error {
	var all []model.Privilege
	if err := r.db.Find(&all).Error; err != nil {
		return err
	}
	byCode := make(map[string]model.Privilege, len(all))
	for _, p := range all {
		byCode[p.Code] = p
	}

	for _, defaultRole := range model.DefaultRoles {
		role := defaultRole
		err := r.db.Where("code = ?", role.Code).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := r.db.Create(&role).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		granted := all
		if role.Code != model.RoleAdmin {
			granted = nil
			for _, code := range model.RolePrivileges[role.Code] {
				if p, ok := byCode[code]; ok {
					granted = append(granted, p)
				}
			}
		}
		if err := r.db.Model(&role).Association("Privileges").Replace(granted); err != nil {
			return err
		}
	}
	return nil
}
