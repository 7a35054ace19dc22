// Package session holds the client's current-user state: one writer (the
// auth flow), many readers, with change notifications for every auth
// transition including startup.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"recordkeeper/internal/client/repositories/metadata"
	"recordkeeper/internal/server/auth"
	"recordkeeper/internal/server/models"
	"recordkeeper/internal/server/services"
)

// User is the authenticated identity as seen by the client: the token's
// custom claims plus the login email.
type User struct {
	ID        string
	Email     string
	Roles     []string
	IsManager bool
}

// Authenticator is the slice of the auth backend the session drives.
// *services.UserService satisfies it.
type Authenticator interface {
	Register(ctx context.Context, email string, password string) (*models.User, error)
	Login(ctx context.Context, email string, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	VerifyAccessToken(tokenString string) (*auth.Claims, error)
}

// Listener observes auth transitions. A nil user means signed out.
type Listener func(user *User)

var ErrAlreadyStarted = errors.New("session already started")

const (
	keyEmail        = "email"
	keyRefreshToken = "refresh_token"
)

// Service is the process-wide session holder. Construct one per process and
// share it; Start may run only once.
type Service struct {
	auth Authenticator
	meta metadata.Repository

	mu           sync.RWMutex
	started      bool
	current      *User
	refreshToken string
	listeners    []Listener
}

func NewService(auth Authenticator, meta metadata.Repository) *Service {
	return &Service{auth: auth, meta: meta}
}

// Start restores a persisted session if one exists and fires the initial
// notification. Calling it a second time is a programming error and is
// rejected rather than silently re-registering.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	email, err := s.meta.Get(ctx, keyEmail)
	if err != nil {
		return err
	}
	token, err := s.meta.Get(ctx, keyRefreshToken)
	if err != nil {
		return err
	}

	if len(token) == 0 {
		s.setCurrent(nil, "")
		return nil
	}

	// A stored token may be expired or revoked; treat any failure as a
	// signed-out start rather than an error.
	pair, err := s.auth.RefreshToken(ctx, string(token))
	if err != nil {
		_ = s.meta.Clear(ctx)
		s.setCurrent(nil, "")
		return nil
	}

	user, err := s.userFromToken(pair.AccessToken, string(email))
	if err != nil {
		s.setCurrent(nil, "")
		return nil
	}

	if err := s.persist(ctx, string(email), pair.RefreshToken); err != nil {
		return err
	}
	s.setCurrent(user, pair.RefreshToken)
	return nil
}

// Subscribe registers a listener. If the session has already started the
// listener immediately receives the current state.
func (s *Service) Subscribe(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	started := s.started
	current := s.current
	s.mu.Unlock()

	if started {
		fn(current)
	}
}

// Current returns the signed-in user, or nil.
func (s *Service) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Register creates an account. It does not sign the user in.
func (s *Service) Register(ctx context.Context, email string, password string) error {
	_, err := s.auth.Register(ctx, email, password)
	return err
}

// Login authenticates, persists the session locally, and notifies listeners.
func (s *Service) Login(ctx context.Context, email string, password string) error {
	pair, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	user, err := s.userFromToken(pair.AccessToken, email)
	if err != nil {
		return err
	}

	if err := s.persist(ctx, email, pair.RefreshToken); err != nil {
		return err
	}
	s.setCurrent(user, pair.RefreshToken)
	return nil
}

// Refresh rotates the refresh token and picks up any claims change made
// server-side since the last mint.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.RLock()
	token := s.refreshToken
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		return errors.New("not signed in")
	}

	pair, err := s.auth.RefreshToken(ctx, token)
	if err != nil {
		return err
	}

	user, err := s.userFromToken(pair.AccessToken, current.Email)
	if err != nil {
		return err
	}

	if err := s.persist(ctx, current.Email, pair.RefreshToken); err != nil {
		return err
	}
	s.setCurrent(user, pair.RefreshToken)
	return nil
}

// Logout revokes the session's refresh token, wipes local state, and
// notifies listeners.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.RLock()
	token := s.refreshToken
	s.mu.RUnlock()

	if token != "" {
		if err := s.auth.Logout(ctx, token); err != nil {
			return err
		}
	}
	if err := s.meta.Clear(ctx); err != nil {
		return err
	}
	s.setCurrent(nil, "")
	return nil
}

func (s *Service) userFromToken(accessToken string, email string) (*User, error) {
	claims, err := s.auth.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("token verification error: %w", err)
	}
	return &User{
		ID:        claims.UserID,
		Email:     email,
		Roles:     claims.Roles,
		IsManager: claims.IsManager,
	}, nil
}

func (s *Service) persist(ctx context.Context, email string, refreshToken string) error {
	if err := s.meta.Set(ctx, keyEmail, []byte(email)); err != nil {
		return err
	}
	return s.meta.Set(ctx, keyRefreshToken, []byte(refreshToken))
}

func (s *Service) setCurrent(user *User, refreshToken string) {
	s.mu.Lock()
	s.current = user
	s.refreshToken = refreshToken
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}
