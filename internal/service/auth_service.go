package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"go-utang-ledger/internal/model"
	"go-utang-ledger/internal/repository"
	"go-utang-ledger/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

type SignUpInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// SessionStore drops cached session state for a user.
type SessionStore interface {
	Forget(ctx context.Context, userID string)
}

type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*AuthResponse, error)
	SignIn(ctx context.Context, in SignInInput) (*AuthResponse, error)
	SignOut(ctx context.Context, userID string) error
	Session(ctx context.Context, userID string) (*model.User, error)
	// ChangePassword replaces the password and returns a fresh session;
	// every other token of the user stops working.
	ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) (*AuthResponse, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type authService struct {
	userRepo repository.UserRepository
	sessions SessionStore
}

// NewAuthService builds the service. sessions may be nil.
func NewAuthService(userRepo repository.UserRepository, sessions SessionStore) AuthService {
	return &authService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

func (s *authService) SignUp(ctx context.Context, in SignUpInput) (*AuthResponse, error) {
	if err := decodeValidated(&in); err != nil {
		return nil, err
	}

	// 1. Hash password and open the first session
	user := &model.User{Name: in.Name, Email: in.Email, TokenVersion: uuid.NewString()}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	// 2. Persist; the unique email index reports duplicates
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) SignIn(ctx context.Context, in SignInInput) (*AuthResponse, error) {
	if err := decodeValidated(&in); err != nil {
		return nil, err
	}

	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !user.CheckPassword(in.Password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Single session: a new version invalidates older tokens
	if err := s.rotate(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) SignOut(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	return s.rotate(ctx, user)
}

func (s *authService) Session(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) (*AuthResponse, error) {
	if err := decodeValidated(&in); err != nil {
		return nil, err
	}
	user, err := s.Session(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 1. Verify old password
	if !user.CheckPassword(in.OldPassword) {
		return nil, ErrWrongPassword
	}

	// 2. Set new password and rotate the session
	if err := user.SetPassword(in.NewPassword); err != nil {
		return nil, errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return nil, err
	}
	if err := s.rotate(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) ResetPassword(ctx context.Context, email, newPassword string) error {
	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	// 2. Set new password
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return err
	}

	// 3. Invalidate existing sessions
	return s.rotate(ctx, user)
}

func (s *authService) rotate(ctx context.Context, user *model.User) error {
	version := uuid.NewString()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, version); err != nil {
		return err
	}
	user.TokenVersion = version
	if s.sessions != nil {
		s.sessions.Forget(ctx, user.ID)
	}
	return nil
}

func (s *authService) issue(user *model.User) (*AuthResponse, error) {
	token, err := jwt.GenerateToken(user.ID, user.Email, user.Name, user.TokenVersion)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}
	return &AuthResponse{Token: token, User: user}, nil
}
