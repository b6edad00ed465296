package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-minimart-pos/internal/model"
	"go-minimart-pos/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

// SessionIdleTimeout ends a session that has not sent a heartbeat for this long
const SessionIdleTimeout = 5 * time.Minute

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
	Heartbeat(ctx context.Context, userID uuid.UUID) error
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	core *Core
}

func NewAuthService(core *Core) AuthService {
	return &authService{core: core}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	users := s.core.Repos.Users.WithTx(s.core.DB.WithContext(ctx))

	// 1. Find user by email
	user, err := users.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 4. Single session: rotate the token version and mark as seen
	version := uuid.New().String()
	now := s.core.now()
	if err := users.UpdateSession(user.ID, version, now); err != nil {
		s.core.Log.Error("failed to update session", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, errors.New("failed to update session")
	}
	user.TokenVersion = version
	user.LastSeenAt = &now

	// 5. Generate JWT token with TokenVersion
	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), user.GetPrivilegeCodes(), version)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	s.core.Log.Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("role", user.RoleCode()))
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error {
	users := s.core.Repos.Users.WithTx(s.core.DB.WithContext(ctx))

	// 1. Find user by email
	user, err := users.FindByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}

	// 2. Verify old password
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}

	// 3. Hash and store the new password
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := users.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}

	// 4. Invalidate existing sessions
	return users.UpdateSession(user.ID, uuid.New().String(), s.core.now())
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	// 1. Validate JWT token
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	// 2. Find user by ID from token claims
	user, err := s.core.Repos.Users.WithTx(s.core.DB.WithContext(ctx)).FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// 3. Check if user is still active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. Only the latest login is valid
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}

	// 5. Check inactivity
	if user.LastSeenAt == nil || s.core.now().Sub(*user.LastSeenAt) > SessionIdleTimeout {
		return nil, ErrSessionTimeout
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	now := s.core.now()
	if err := s.core.Repos.Users.WithTx(s.core.DB.WithContext(ctx)).UpdateLastSeen(userID, now); err != nil {
		return err
	}

	s.core.Notifier.Publish("user_status_update", map[string]interface{}{
		"user_id":      userID.String(),
		"status":       "online",
		"last_seen_at": now,
	})
	return nil
}
