package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/repository/ports"
	"github.com/njprem/travelswipe/internal/util"
)

var (
	ErrEmailAlreadyUsed   = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotSignedIn        = errors.New("no active session")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const defaultSessionTTL = 7 * 24 * time.Hour

type SignUpInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	User      domain.SessionUser
	Token     string
	ExpiresAt time.Time
}

// AuthService keeps device-local accounts and the single active session in
// the Local Store, and issues bearer tokens bound to that session.
type AuthService struct {
	store      ports.LocalStore
	jwt        *util.JWTManager
	validate   *validator.Validate
	sessionTTL time.Duration
	now        func() time.Time

	mu sync.Mutex
}

func NewAuthService(store ports.LocalStore, jwtManager *util.JWTManager, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &AuthService{
		store:      store,
		jwt:        jwtManager,
		validate:   validator.New(),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == in.Email {
			return nil, ErrEmailAlreadyUsed
		}
	}

	hash, salt, err := util.DerivePassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.saveUsers(ctx, append(users, user)); err != nil {
		return nil, err
	}
	return s.startSession(ctx, &user)
}

func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email != in.Email {
			continue
		}
		if !util.VerifyPassword(in.Password, users[i].PasswordSalt, users[i].PasswordHash) {
			return nil, ErrInvalidCredentials
		}
		return s.startSession(ctx, &users[i])
	}
	return nil, ErrInvalidCredentials
}

// SignOut drops the session and the cached token.
func (s *AuthService) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{ports.KeySession, ports.KeyUserToken} {
		if err := s.store.Remove(ctx, key); err != nil {
			return asPersistence("sign out", err)
		}
	}
	return nil
}

// CurrentUser returns the signed-in user. An expired session is removed.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.SessionUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	user := session.User
	return &user, nil
}

// Authenticate resolves a bearer token to the signed-in user. The token must
// belong to the current session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.SessionUser, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, ErrNotSignedIn) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.ID != claims.UserID {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	now := s.now()
	session := domain.Session{User: user.SessionUser(), ExpiresAt: now.Add(s.sessionTTL).UTC()}
	blob, err := json.Marshal(session)
	if err != nil {
		return nil, domain.PersistenceError("encode session", err)
	}

	token, _, err := s.jwt.Generate(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, err
	}

	values := []struct{ key, value string }{
		{ports.KeySession, string(blob)},
		{ports.KeyUserToken, token},
		{ports.KeyUserName, user.Name},
		{ports.KeyUserEmail, user.Email},
	}
	for _, v := range values {
		if err := s.store.Set(ctx, v.key, v.value); err != nil {
			return nil, asPersistence("store session", err)
		}
	}

	return &AuthResult{User: session.User, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *AuthService) loadSession(ctx context.Context) (*domain.Session, error) {
	raw, ok, err := s.store.Get(ctx, ports.KeySession)
	if err != nil {
		return nil, asPersistence("read session", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, ErrNotSignedIn
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, domain.PersistenceError("decode session", err)
	}
	if session.Expired(s.now()) {
		if err := s.store.Remove(ctx, ports.KeySession); err != nil {
			return nil, asPersistence("remove expired session", err)
		}
		return nil, ErrNotSignedIn
	}
	return &session, nil
}

func (s *AuthService) loadUsers(ctx context.Context) ([]domain.User, error) {
	raw, ok, err := s.store.Get(ctx, ports.KeyUsers)
	if err != nil {
		return nil, asPersistence("read users", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var users []domain.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, domain.PersistenceError("decode users", err)
	}
	return users, nil
}

func (s *AuthService) saveUsers(ctx context.Context, users []domain.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return domain.PersistenceError("encode users", err)
	}
	if err := s.store.Set(ctx, ports.KeyUsers, string(data)); err != nil {
		return asPersistence("write users", err)
	}
	return nil
}

func (s *AuthService) validateInput(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.ValidationError(err.Error())
	}
	return domain.ValidationError(validationMessage(fieldErrs[0]))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "please fill in all fields"
	case "email":
		return "please enter a valid email address"
	case "min":
		return "password must be at least 6 characters"
	case "eqfield":
		return "passwords do not match"
	default:
		return strings.ToLower(fe.Field()) + " is invalid"
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
