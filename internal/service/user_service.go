package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/pkg/validator"
)

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, actor Actor) (*model.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID, actor Actor) error
	UpdateUserPrivileges(ctx context.Context, userID uuid.UUID, privilegeCodes []string, actor Actor) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	ListPrivileges(ctx context.Context) ([]model.Privilege, error)
}

type CreateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number"`
	BirthDate   *string `json:"birth_date"` // YYYY-MM-DD
	RoleID      uint    `json:"role_id" validate:"required"`
}

type UpdateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6"`
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number"`
	BirthDate   *string `json:"birth_date"` // YYYY-MM-DD
	RoleID      uint    `json:"role_id" validate:"required"`
	IsActive    *bool   `json:"is_active"`
}

type userService struct {
	core *Core
}

func NewUserService(core *Core) UserService {
	return &userService{core: core}
}

func parseBirthDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, apperr.Invalid("invalid birth_date format, use YYYY-MM-DD").With("field", "birth_date")
	}
	return &parsed, nil
}

func (s *userService) role(db *gorm.DB, id uint) (*model.Role, error) {
	role, err := s.core.Repos.Roles.WithTx(db).FindByID(id)
	if err != nil {
		return nil, notFound(err, "role", id)
	}
	return role, nil
}

func (s *userService) checkEmail(db *gorm.DB, email string, self uuid.UUID) error {
	existing, err := s.core.Repos.Users.WithTx(db).FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return apperr.ErrDuplicate.Msgf("email already exists").With("field", "email")
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, actor Actor) (*model.User, error) {
	// 1. Validate request
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.core.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 2. Email must be unique
		if err := s.checkEmail(tx, req.Email, uuid.Nil); err != nil {
			return err
		}

		// 3. Role must exist; its privileges are the starting set
		role, err := s.role(tx, req.RoleID)
		if err != nil {
			return err
		}

		user = &model.User{
			Email:       req.Email,
			FullName:    strings.TrimSpace(req.FullName),
			PhoneNumber: req.PhoneNumber,
			BirthDate:   birthDate,
			RoleID:      &req.RoleID,
			IsActive:    true,
			Privileges:  role.Privileges,
		}
		user.CreatedBy = actor.By()
		user.UpdatedBy = actor.By()
		if err := user.SetPassword(req.Password); err != nil {
			return apperr.ErrInternal.Msgf("failed to hash password").Wrap(err)
		}
		return s.core.Repos.Users.WithTx(tx).Create(user)
	})
	if err != nil {
		return nil, err
	}

	s.core.Log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("by", actor.By()))
	return s.core.Repos.Users.WithTx(s.core.DB.WithContext(ctx)).FindByID(user.ID)
}

func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.User, error) {
	// 1. Validate request
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	err = s.core.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.core.Repos.Users.WithTx(tx)

		// 2. Find existing user
		user, err := users.FindByID(userID)
		if err != nil {
			return notFound(err, "user", userID)
		}

		// 3. Email change must stay unique
		if err := s.checkEmail(tx, req.Email, userID); err != nil {
			return err
		}

		// 4. Role must exist
		role, err := s.role(tx, req.RoleID)
		if err != nil {
			return err
		}

		user.Email = req.Email
		user.FullName = strings.TrimSpace(req.FullName)
		user.PhoneNumber = req.PhoneNumber
		user.BirthDate = birthDate
		user.RoleID = &req.RoleID
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		user.UpdatedBy = actor.By()
		if req.Password != nil && *req.Password != "" {
			if err := user.SetPassword(*req.Password); err != nil {
				return apperr.ErrInternal.Msgf("failed to hash password").Wrap(err)
			}
		}
		if err := users.Update(user); err != nil {
			return err
		}

		// 5. Privileges follow the role
		return users.UpdatePrivileges(userID, role.Privileges)
	})
	if err != nil {
		return nil, err
	}
	return s.core.Repos.Users.WithTx(s.core.DB.WithContext(ctx)).FindByID(userID)
}

func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID, actor Actor) error {
	if userID == actor.UserID {
		return apperr.Invalid("you cannot delete your own account")
	}
	users := s.core.Repos.Users.WithTx(s.core.DB.WithContext(ctx))
	if _, err := users.FindByID(userID); err != nil {
		return notFound(err, "user", userID)
	}
	return users.Delete(userID, actor.By())
}

func (s *userService) UpdateUserPrivileges(ctx context.Context, userID uuid.UUID, privilegeCodes []string, actor Actor) (*model.User, error) {
	err := s.core.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.core.Repos.Users.WithTx(tx)

		// 1. Find user
		user, err := users.FindByID(userID)
		if err != nil {
			return notFound(err, "user", userID)
		}

		// 2. Every code must be known
		privileges, err := s.core.Repos.Privileges.WithTx(tx).FindByCodes(privilegeCodes)
		if err != nil {
			return err
		}
		if len(privileges) != len(uniqueStrings(privilegeCodes)) {
			return apperr.Invalid("unknown privilege code").With("field", "privileges")
		}

		// 3. Replace and stamp
		if err := users.UpdatePrivileges(userID, privileges); err != nil {
			return err
		}
		user.UpdatedBy = actor.By()
		return users.Update(user)
	})
	if err != nil {
		return nil, err
	}
	return s.core.Repos.Users.WithTx(s.core.DB.WithContext(ctx)).FindByID(userID)
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.core.Repos.Users.WithTx(s.core.DB.WithContext(ctx)).FindAll()
	if err != nil {
		return nil, err
	}
	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.core.Repos.Users.WithTx(s.core.DB.WithContext(ctx)).FindByID(id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.core.Repos.Roles.WithTx(s.core.DB.WithContext(ctx)).FindAll()
}

func (s *userService) ListPrivileges(ctx context.Context) ([]model.Privilege, error) {
	return s.core.Repos.Privileges.WithTx(s.core.DB.WithContext(ctx)).FindAll()
}

func uniqueStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
