package authpw

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"inkwell/api/internal/store"
)

// memUserStore is an in-memory UserStore for tests.
type memUserStore struct {
	users    map[string]store.User // by id
	byEmail  map[string]string
	verify   map[string]string // token -> user id
	resets   map[string]string // token -> user id
	accounts map[string]string // provider/account -> user id
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		users:    make(map[string]store.User),
		byEmail:  make(map[string]string),
		verify:   make(map[string]string),
		resets:   make(map[string]string),
		accounts: make(map[string]string),
	}
}

func (m *memUserStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return m.users[id], nil
}

func (m *memUserStore) GetUserByID(ctx context.Context, id string) (store.User, error) {
	user, ok := m.users[id]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (m *memUserStore) CreateUser(ctx context.Context, user store.User) error {
	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID
	if user.VerificationToken != "" {
		m.verify[user.VerificationToken] = user.ID
	}
	return nil
}

func (m *memUserStore) SetVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	m.verify[token] = userID
	return nil
}

func (m *memUserStore) MarkEmailVerified(ctx context.Context, token string) (store.User, error) {
	id, ok := m.verify[token]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	delete(m.verify, token)
	user := m.users[id]
	user.EmailVerified = true
	m.users[id] = user
	return user, nil
}

func (m *memUserStore) SetUserPassword(ctx context.Context, userID, passwordHash string) error {
	user, ok := m.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	m.users[userID] = user
	return nil
}

func (m *memUserStore) SavePasswordReset(ctx context.Context, token, userID string, expiresAt time.Time) error {
	m.resets[token] = userID
	return nil
}

func (m *memUserStore) ConsumePasswordReset(ctx context.Context, token string) (string, error) {
	id, ok := m.resets[token]
	if !ok {
		return "", sql.ErrNoRows
	}
	delete(m.resets, token)
	return id, nil
}

func (m *memUserStore) UpsertAccount(ctx context.Context, account store.Account, user store.User) (store.User, error) {
	key := account.ProviderID + "/" + account.ProviderAccountID
	if id, ok := m.accounts[key]; ok {
		return m.users[id], nil
	}
	if id, ok := m.byEmail[user.Email]; ok {
		m.accounts[key] = id
		return m.users[id], nil
	}
	user.EmailVerified = true
	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID
	m.accounts[key] = user.ID
	return user, nil
}

func newTestService() (*Service, *memUserStore) {
	us := newMemUserStore()
	return NewService(us, "google,github"), us
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if resp.VerificationToken == "" {
		t.Fatal("expected a verification token")
	}
	if resp.User.EmailVerified {
		t.Fatal("new accounts start unverified")
	}

	user, err := svc.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if user.ID != resp.User.ID {
		t.Fatalf("expected user %s, got %s", resp.User.ID, user.ID)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"}); err != nil {
		t.Fatalf("first sign up: %v", err)
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Name: "Eve", Email: "ada@example.com", Password: "password456"}); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignUpShortPassword(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.SignUp(context.Background(), SignUpRequest{Name: "Ada", Email: "ada@example.com", Password: "short"}); err == nil {
		t.Fatal("expected short password to be rejected")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "ada@example.com", Password: "wrong"}); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "nobody@example.com", Password: "password123"}); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestSignInSocialOnlyAccount(t *testing.T) {
	svc, us := newTestService()
	ctx := context.Background()

	// An account created through a provider has no password hash.
	_ = us.CreateUser(ctx, store.User{ID: "u1", Email: "social@example.com", EmailVerified: true})
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "social@example.com", Password: "anything"}); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSocialSignInProviderAllowList(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.SocialSignIn(ctx, SocialSignInRequest{Provider: "myspace", ProviderAccountID: "1", Email: "a@example.com"}); err != ErrUnknownProvider {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}

	user, err := svc.SocialSignIn(ctx, SocialSignInRequest{Provider: "Google", ProviderAccountID: "1", Email: "a@example.com", Name: "Ada"})
	if err != nil {
		t.Fatalf("social sign in: %v", err)
	}
	if user.Email != "a@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	// The same provider account resolves to the same user.
	again, err := svc.SocialSignIn(ctx, SocialSignInRequest{Provider: "google", ProviderAccountID: "1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("repeat social sign in: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, again.ID)
	}
}

func TestVerifyEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	user, err := svc.VerifyEmail(ctx, resp.VerificationToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !user.EmailVerified {
		t.Fatal("expected verified user")
	}

	// Tokens are single use.
	if _, err := svc.VerifyEmail(ctx, resp.VerificationToken); err == nil {
		t.Fatal("expected second verification to fail")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, us := newTestService()
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	token, err := svc.RequestPasswordReset(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token")
	}

	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "newpassword1"}); err != nil {
		t.Fatalf("reset: %v", err)
	}

	user := us.users[resp.User.ID]
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpassword1")); err != nil {
		t.Fatal("expected password to be replaced")
	}

	// Tokens are single use.
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "anotherpass1"}); err == nil {
		t.Fatal("expected second reset to fail")
	}
}

func TestRequestResetUnknownEmailSilent(t *testing.T) {
	svc, _ := newTestService()
	token, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("expected silence for unknown email, got %v", err)
	}
	if token != "" {
		t.Fatal("expected empty token for unknown email")
	}
}
