package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/habedi/rentdesk/client"
	"github.com/habedi/rentdesk/db"
	"github.com/rs/zerolog/log"
)

// ErrNotLoggedIn is returned when no access token is stored.
var ErrNotLoggedIn = errors.New("not logged in; run 'rentdesk login' first")

// Roles accepted by the registration endpoint.
var Roles = []string{"owner", "admin", "accountant"}

// LoginError carries the message to show the user for a failed login.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// Service holds the session: it logs in, restores, and clears the stored credentials.
type Service struct {
	API   API
	Store SlotStore
}

// NewService is the constructor for the auth service.
func NewService(api API, store SlotStore) *Service {
	return &Service{API: api, Store: store}
}

// NewServiceWithRepo constructs a Service on top of the session slot repository.
func NewServiceWithRepo(api API, repo db.SlotRepository) *Service {
	return NewService(api, repo)
}

// Login exchanges credentials for a token pair, stores it and loads the user.
func (s *Service) Login(ctx context.Context, username, password string) (*client.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, &LoginError{Message: "username and password cannot be empty"}
	}

	var pair client.TokenPair
	body := map[string]string{"username": username, "password": password}
	if err := s.API.PostJSONNoRefresh(ctx, "token/", body, &pair); err != nil {
		return nil, loginError(err)
	}
	if pair.Access == "" {
		return nil, &LoginError{Message: "login failed: no access token in response"}
	}

	if err := s.Store.Set(ctx, db.SlotAccessToken, pair.Access); err != nil {
		return nil, fmt.Errorf("failed to store access token: %w", err)
	}
	if err := s.Store.Set(ctx, db.SlotRefreshToken, pair.Refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	log.Info().Str("username", username).Msg("Logged in, tokens stored")

	return s.FetchMe(ctx)
}

func loginError(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return &LoginError{Message: apiErr.Message("login failed"), Err: err}
	}
	return &LoginError{Message: "login failed: " + err.Error(), Err: err}
}

// FetchMe loads the current user and remembers the username. Any failure
// means the session is unusable, so it is cleared.
func (s *Service) FetchMe(ctx context.Context) (*client.User, error) {
	var me client.User
	if err := s.API.GetJSON(ctx, "users/me/", nil, &me); err != nil {
		log.Warn().Err(err).Msg("Failed to load the current user, clearing the session")
		if clearErr := s.Logout(ctx); clearErr != nil {
			log.Error().Err(clearErr).Msg("Failed to clear the session")
		}
		return nil, fmt.Errorf("not authenticated: %w", err)
	}

	if err := s.Store.Set(ctx, db.SlotUsername, me.Username); err != nil {
		log.Error().Err(err).Msg("Failed to store the username")
	}
	return &me, nil
}

// Restore loads the user of a stored session. Without an access token it
// returns ErrNotLoggedIn and makes no network call.
func (s *Service) Restore(ctx context.Context) (*client.User, error) {
	ok, err := s.HasSession(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return s.FetchMe(ctx)
}

// HasSession reports whether an access token is stored. Its validity is not checked.
func (s *Service) HasSession(ctx context.Context) (bool, error) {
	access, err := s.Store.Get(ctx, db.SlotAccessToken)
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}
	return access != "", nil
}

// Logout clears every session slot. The backend is not contacted.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.Store.Delete(ctx, db.SessionSlots...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// RegisterRequest is a new account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates an account. The stored session is left untouched.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	if req.Role == "" {
		req.Role = "owner"
	}
	if !isRole(req.Role) {
		return fmt.Errorf("invalid role %q: must be one of %s", req.Role, strings.Join(Roles, ", "))
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return fmt.Errorf("username and password cannot be empty")
	}

	if err := s.API.PostJSONNoRefresh(ctx, "users/register/", req, nil); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("registration failed: %s", apiErr.Message(registerFallback))
		}
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

const registerFallback = "the backend rejected the request"

func isRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
