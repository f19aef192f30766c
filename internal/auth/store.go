// Package auth tracks the current session: the authenticated user and the
// bearer token, which are always set and cleared together.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/medchat/medchat/internal/api"
	"github.com/medchat/medchat/internal/models"
)

// ErrNotAuthenticated is returned by operations requiring a session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Backend is the slice of the API client the session store needs.
type Backend interface {
	Register(ctx context.Context, email, password, fullName string) (*api.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	Profile(ctx context.Context) (*models.User, error)
	SetToken(token string)
}

// Store holds the authenticated session.
type Store struct {
	mu sync.RWMutex

	backend Backend
	user    *models.User
	token   string
}

// NewStore creates a session store over the given backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Login authenticates with the server and installs the returned token on
// the backend so subsequent requests carry it.
func (s *Store) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, errors.New("password is empty")
	}

	result, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.mu.Lock()
	user := result.User
	s.user = &user
	s.token = result.Token
	s.mu.Unlock()

	s.backend.SetToken(result.Token)
	return &user, nil
}

// Register creates an account. Accounts are activated manually by an
// operator, so the session stays logged out afterwards.
func (s *Store) Register(ctx context.Context, email, password, fullName string) (*api.RegisterResult, error) {
	email = strings.TrimSpace(email)
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := models.ValidateName(fullName); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, errors.New("password is empty")
	}

	result, err := s.backend.Register(ctx, email, password, fullName)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return result, nil
}

// LoadProfile refreshes the user record from the server. Requires an
// authenticated session.
func (s *Store) LoadProfile(ctx context.Context) (*models.User, error) {
	if !s.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	user, err := s.backend.Profile(ctx)
	if err != nil {
		// A rejected token means the session is gone; drop it.
		if errors.Is(err, api.ErrUnauthorized) {
			s.Logout()
		}
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

// Resume installs a previously saved token and validates it against the
// server, restoring the session on success.
func (s *Store) Resume(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	s.backend.SetToken(token)
	user, err := s.backend.Profile(ctx)
	if err != nil {
		s.backend.SetToken("")
		return nil, fmt.Errorf("resuming session: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()
	return user, nil
}

// Logout clears the session and removes the token from the backend.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	s.backend.SetToken("")
}

// Authenticated reports whether a user is logged in.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// User returns a copy of the current user, or nil when logged out.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// Token returns the session token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
