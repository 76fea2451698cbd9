// Package session owns the authenticated-user state. It is the only writer
// of the persisted token and the in-memory user; every other feature reads
// session state through it. The HTTP layer reports 401 responses here via
// the UnauthorizedObserver interface, so callers never handle sign-out
// themselves.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pushp314/crova-storefront/internal/api"
	"github.com/pushp314/crova-storefront/internal/validation"
)

// Status is the session lifecycle state.
type Status int

const (
	// StatusUnknown is the initial state, before the silent restore has
	// settled. UI treats it as "loading".
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

// Role constants define the user roles the API issues.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// UserID tolerates both string and numeric id encodings from the API.
type UserID string

func (id *UserID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id must be a string or number: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// User represents the signed-in user.
type User struct {
	ID    UserID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// TokenStore persists the bearer token across restarts.
type TokenStore interface {
	Token() (string, bool)
	SetToken(token string) error
	ClearToken() error
}

// Store holds the current user and drives all auth transitions.
type Store struct {
	api    *api.Client
	tokens TokenStore
	logger *slog.Logger

	mu         sync.RWMutex
	status     Status
	user       *User
	promptOpen bool
	resetters  []func()
}

// New creates the session store and registers it as the API client's
// unauthorized observer.
func New(apiClient *api.Client, tokens TokenStore, logger *slog.Logger) *Store {
	s := &Store{
		api:    apiClient,
		tokens: tokens,
		logger: logger,
		status: StatusUnknown,
	}
	apiClient.SetUnauthorizedObserver(s)
	return s
}

// OnReset registers a hook invoked whenever the signed-in identity changes
// (login, logout, forced sign-out). Cart and wishlist register their cache
// teardown here so the previous user's server state never leaks into the
// next session.
func (s *Store) OnReset(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetters = append(s.resetters, fn)
}

func (s *Store) fireReset() {
	s.mu.RLock()
	hooks := make([]func(), len(s.resetters))
	copy(hooks, s.resetters)
	s.mu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}

// --- API payloads ---

// authResponse is the shape of login/signup responses. The API is
// inconsistent about the token field name ("accessToken" on newer
// endpoints, "token" on older ones); bearerToken normalizes that at the
// boundary instead of spreading the fallback through the codebase.
type authResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	User        *User  `json:"user"`
	Message     string `json:"message"`
}

// bearerToken returns whichever token field the server populated.
func (r *authResponse) bearerToken() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

// meResponse accepts both a wrapped {"user": {...}} payload and a bare
// user object from /auth/me.
type meResponse struct {
	User
	Wrapped *User `json:"user"`
}

func (m *meResponse) user() *User {
	if m.Wrapped != nil {
		return m.Wrapped
	}
	u := m.User
	return &u
}

// loginRequest is the JSON request body for login.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput holds the parameters for creating an account.
type RegisterInput struct {
	Name            string `json:"name" validate:"required,min=1,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"-" validate:"required,eqfield=Password"`
}

// --- Transitions ---

// Restore attempts the silent session restore at application start. With no
// persisted token it settles to Anonymous without a network call; with one,
// it asks the API who the token belongs to. Any failure degrades to
// Anonymous and clears the stale token; the error is logged, never
// surfaced.
func (s *Store) Restore(ctx context.Context) {
	token, ok := s.tokens.Token()
	if !ok {
		s.setAnonymous()
		return
	}

	if expired, err := tokenExpired(token); err == nil && expired {
		s.logger.InfoContext(ctx, "persisted token already expired, skipping session check")
		s.clearLocal()
		return
	}

	var resp meResponse
	if err := s.api.Get(ctx, "/auth/me", &resp); err != nil {
		s.logger.InfoContext(ctx, "silent session restore failed",
			slog.String("error", err.Error()),
		)
		s.clearLocal()
		return
	}

	user := resp.user()
	s.setAuthenticated(user)
	s.logger.InfoContext(ctx, "session restored",
		slog.String("user_id", string(user.ID)),
	)
}

// Login authenticates with credentials. Credential errors are surfaced to
// the caller so forms can display field-level messages.
func (s *Store) Login(ctx context.Context, email, password string) (*User, error) {
	req := loginRequest{Email: email, Password: password}
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	var resp authResponse
	if err := s.api.Post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	token := resp.bearerToken()
	if token == "" {
		return nil, fmt.Errorf("login: response carried no token")
	}
	if err := s.tokens.SetToken(token); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}

	user := resp.User
	if user == nil {
		// Older login responses omit the user object; resolve it with
		// the freshly persisted token.
		var me meResponse
		if err := s.api.Get(ctx, "/auth/me", &me); err != nil {
			return nil, fmt.Errorf("resolve user after login: %w", err)
		}
		user = me.user()
	}

	s.setAuthenticated(user)
	s.fireReset()
	s.CloseAuthPrompt()

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", string(user.ID)),
		slog.String("role", user.Role),
	)
	return user, nil
}

// Register creates an account. If the response carries a user the session
// becomes Authenticated; some signup flows instead require a separate
// confirmation step and return no user, in which case the session is left
// as-is and the returned user is nil.
func (s *Store) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if err := validation.Validate(input); err != nil {
		return nil, err
	}

	var resp authResponse
	if err := s.api.Post(ctx, "/auth/signup", input, &resp); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if token := resp.bearerToken(); token != "" {
		if err := s.tokens.SetToken(token); err != nil {
			return nil, fmt.Errorf("persist token: %w", err)
		}
	}

	if resp.User == nil {
		s.logger.InfoContext(ctx, "account created, confirmation pending",
			slog.String("email", input.Email),
		)
		return nil, nil
	}

	s.setAuthenticated(resp.User)
	s.fireReset()
	s.CloseAuthPrompt()

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", string(resp.User.ID)),
	)
	return resp.User, nil
}

// Logout signs the user out. The remote call is best-effort: a network
// failure is logged, not surfaced, and never blocks the local sign-out.
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Post(ctx, "/auth/logout", nil, nil); err != nil {
		s.logger.WarnContext(ctx, "logout call failed, clearing session anyway",
			slog.String("error", err.Error()),
		)
	}

	s.clearLocal()
	s.fireReset()
	s.logger.InfoContext(ctx, "user logged out")
}

// Unauthorized implements api.UnauthorizedObserver. The API layer has
// already deleted the persisted token; this tears down the in-memory user.
// Receiving the signal twice leaves state identical to receiving it once.
func (s *Store) Unauthorized() {
	s.mu.Lock()
	wasAuthenticated := s.user != nil
	s.user = nil
	s.status = StatusAnonymous
	s.mu.Unlock()

	// Belt and braces: the token is cleared by the HTTP layer before the
	// signal fires, but the invariant lives here.
	_ = s.tokens.ClearToken()

	if wasAuthenticated {
		s.fireReset()
	}
}

// ForgotPassword requests a password reset email.
func (s *Store) ForgotPassword(ctx context.Context, email string) error {
	req := struct {
		Email string `json:"email" validate:"required,email"`
	}{Email: email}
	if err := validation.Validate(req); err != nil {
		return err
	}
	if err := s.api.Post(ctx, "/auth/forgot-password", req, nil); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ResetPassword completes a password reset using the emailed token.
func (s *Store) ResetPassword(ctx context.Context, token, password, confirm string) error {
	req := struct {
		Password        string `json:"password" validate:"required,min=8"`
		ConfirmPassword string `json:"-" validate:"required,eqfield=Password"`
	}{Password: password, ConfirmPassword: confirm}
	if err := validation.Validate(req); err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("reset password: token is required")
	}
	if err := s.api.Post(ctx, "/auth/reset-password/"+token, req, nil); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// --- State accessors ---

// CurrentUser returns the signed-in user, if any.
func (s *Store) CurrentUser() (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.user != nil
}

// Status returns the session lifecycle state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Loading reports whether the silent restore has not settled yet.
func (s *Store) Loading() bool {
	return s.Status() == StatusUnknown
}

// --- Auth prompt ---

// OpenAuthPrompt raises the global sign-in prompt flag. Any feature may
// call this (cart and wishlist do, when an anonymous user tries to mutate).
func (s *Store) OpenAuthPrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptOpen = true
}

// CloseAuthPrompt lowers the sign-in prompt flag.
func (s *Store) CloseAuthPrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptOpen = false
}

// AuthPromptOpen reports whether the sign-in prompt is raised.
func (s *Store) AuthPromptOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.promptOpen
}

// --- internals ---

func (s *Store) setAuthenticated(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	s.status = StatusAuthenticated
}

func (s *Store) setAnonymous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.status = StatusAnonymous
}

// clearLocal drops the persisted token and in-memory user.
func (s *Store) clearLocal() {
	_ = s.tokens.ClearToken()
	s.setAnonymous()
}

// tokenExpired inspects the token's exp claim without verifying the
// signature (the client has no key; the server remains the authority). A
// token that fails to parse is treated as not-expired so the server gets
// the final word.
func tokenExpired(token string) (bool, error) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return false, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, err
	}
	return exp.Before(time.Now()), nil
}
