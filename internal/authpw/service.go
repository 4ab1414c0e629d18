// Package authpw provides email/password and social authentication.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"inkwell/api/internal/store"
	"inkwell/api/internal/util"
)

var (
	// ErrInvalidCredentials covers bad email/password pairs without
	// revealing which half was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken reports a sign-up against a registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnknownProvider reports a social sign-in from a provider
	// outside the allow-list.
	ErrUnknownProvider = errors.New("unknown sign-in provider")
)

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) error
	SetVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	MarkEmailVerified(ctx context.Context, token string) (store.User, error)
	SetUserPassword(ctx context.Context, userID, passwordHash string) error
	SavePasswordReset(ctx context.Context, token, userID string, expiresAt time.Time) error
	ConsumePasswordReset(ctx context.Context, token string) (string, error)
	UpsertAccount(ctx context.Context, account store.Account, user store.User) (store.User, error)
}

// Service provides email/password and social authentication
type Service struct {
	store     UserStore
	providers map[string]bool
}

// NewService creates an auth service. providers is the comma-separated
// social provider allow-list.
func NewService(userStore UserStore, providers string) *Service {
	allowed := make(map[string]bool)
	for _, p := range strings.Split(providers, ",") {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			allowed[p] = true
		}
	}
	return &Service{store: userStore, providers: allowed}
}

// SignUpRequest contains sign-up parameters
type SignUpRequest struct {
	Email    string
	Password string
	Name     string
}

// SignUpResponse contains sign-up result
type SignUpResponse struct {
	User              store.User
	VerificationToken string
}

// SignUp creates a new user account with an email verification token.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, errors.New("email, password, and name are required")
	}
	if len(req.Password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	verificationToken, err := util.NewToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}

	expiresAt := time.Now().Add(24 * time.Hour)
	user := store.User{
		ID:                    util.NewID(),
		Name:                  req.Name,
		Email:                 req.Email,
		PasswordHash:          string(hash),
		VerificationToken:     verificationToken,
		VerificationExpiresAt: &expiresAt,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &SignUpResponse{
		User:              user,
		VerificationToken: verificationToken,
	}, nil
}

// SignInRequest contains sign-in parameters
type SignInRequest struct {
	Email    string
	Password string
}

// SignIn authenticates a user by email and password.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (store.User, error) {
	if req.Email == "" || req.Password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		// Social-only accounts have no password to check.
		return store.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// SocialSignInRequest carries provider-asserted identity.
type SocialSignInRequest struct {
	Provider          string
	ProviderAccountID string
	Email             string
	Name              string
	Image             string
}

// SocialSignIn upserts a user from a trusted provider assertion. The
// provider must be on the allow-list; users are matched by email.
func (s *Service) SocialSignIn(ctx context.Context, req SocialSignInRequest) (store.User, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if !s.providers[provider] {
		return store.User{}, ErrUnknownProvider
	}
	if req.Email == "" || req.ProviderAccountID == "" {
		return store.User{}, errors.New("provider account id and email are required")
	}

	account := store.Account{
		ID:                util.NewID(),
		ProviderID:        provider,
		ProviderAccountID: req.ProviderAccountID,
	}
	user := store.User{
		ID:    util.NewID(),
		Name:  req.Name,
		Email: req.Email,
		Image: req.Image,
	}
	linked, err := s.store.UpsertAccount(ctx, account, user)
	if err != nil {
		return store.User{}, fmt.Errorf("link provider account: %w", err)
	}
	return linked, nil
}

// VerifyEmail verifies an email address using a token and returns the
// verified user.
func (s *Service) VerifyEmail(ctx context.Context, token string) (store.User, error) {
	if token == "" {
		return store.User{}, errors.New("verification token required")
	}
	user, err := s.store.MarkEmailVerified(ctx, token)
	if err != nil {
		return store.User{}, errors.New("invalid or expired verification token")
	}
	return user, nil
}

// RequestPasswordReset creates a password reset token. An unknown email
// yields an empty token and no error.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil
	}

	token, err := util.NewToken(32)
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(1 * time.Hour)
	if err := s.store.SavePasswordReset(ctx, token, user.ID, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

// UserByEmail looks up a user by email address.
func (s *Service) UserByEmail(ctx context.Context, email string) (store.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

// ResetPasswordRequest contains password reset parameters
type ResetPasswordRequest struct {
	Token       string
	NewPassword string
}

// ResetPassword resets a user's password using a reset token.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if req.Token == "" || req.NewPassword == "" {
		return errors.New("token and new password are required")
	}
	if len(req.NewPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	userID, err := s.store.ConsumePasswordReset(ctx, req.Token)
	if err != nil {
		return errors.New("invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.SetUserPassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
