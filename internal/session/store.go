package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"autoshop/internal/domain"
	"autoshop/internal/errors"
)

type AuthClient interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthGrant, error)
	Logout(ctx context.Context, token string) error
	GetCurrentUser(ctx context.Context, token string) (*domain.User, error)
}

type TokenStore interface {
	Load(ctx context.Context, clientID string) (domain.SessionTokens, error)
	Save(ctx context.Context, clientID string, tokens domain.SessionTokens) error
	Clear(ctx context.Context, clientID string) error
}

// Snapshot is an immutable view of a store at one instant.
type Snapshot struct {
	Restored bool
	User     *domain.User
}

func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// Store holds the authenticated user and token of one client application.
// Login, Logout and Restore are the only writers.
type Store struct {
	clientID string
	auth     AuthClient
	tokens   TokenStore
	logger   *zap.Logger
	now      func() time.Time

	// writeMu serializes Login, Logout and the restore commit, including
	// their token store writes. mu guards the fields below it.
	writeMu sync.Mutex

	mu          sync.RWMutex
	user        *domain.User
	accessToken string
	epoch       uint64
	restored    bool
	ready       chan struct{}
	readyOnce   sync.Once
}

func NewStore(clientID string, auth AuthClient, tokens TokenStore, logger *zap.Logger) *Store {
	return &Store{
		clientID: clientID,
		auth:     auth,
		tokens:   tokens,
		logger:   logger.With(zap.String("clientId", clientID)),
		now:      time.Now,
		ready:    make(chan struct{}),
	}
}

func (s *Store) ClientID() string {
	return s.clientID
}

func (s *Store) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Store) IsAuthenticated() bool {
	return s.CurrentUser() != nil
}

func (s *Store) HasRole(role domain.Role) bool {
	return s.CurrentUser().HasRole(role)
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Restored: s.restored, User: s.user}
}

// Ready is closed once the initial restore has finished, successfully or not.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) markRestored() {
	s.readyOnce.Do(func() {
		s.mu.Lock()
		s.restored = true
		s.mu.Unlock()
		close(s.ready)
	})
}

// Restore silently re-establishes a session from persisted tokens. Any
// failure destroys the persisted tokens and leaves the store empty. A login
// or logout that happens while restoring wins: the restore then commits
// nothing.
func (s *Store) Restore(ctx context.Context) error {
	defer s.markRestored()

	s.mu.RLock()
	epoch := s.epoch
	authenticated := s.user != nil
	s.mu.RUnlock()
	if authenticated {
		return nil
	}

	tokens, err := s.tokens.Load(ctx, s.clientID)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			s.logger.Debug("no persisted session")
			return nil
		}
		s.logger.Error("loading persisted tokens", zap.Error(err))
		return errors.NewAuthError("session restore failed", err)
	}
	if tokens.Empty() {
		return nil
	}

	if tokenExpired(tokens.AccessToken, s.now()) {
		s.logger.Info("persisted token expired")
		s.destroy(ctx, epoch)
		return errors.NewAuthError("session expired", nil)
	}

	user, err := s.auth.GetCurrentUser(ctx, tokens.AccessToken)
	if err != nil {
		s.logger.Warn("token validation failed", zap.Error(err))
		s.destroy(ctx, epoch)
		return errors.NewAuthError("session restore failed", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Info("restore superseded by login or logout")
		return nil
	}
	s.user = user
	s.accessToken = tokens.AccessToken
	s.mu.Unlock()

	s.logger.Info("session restored", zap.String("userId", user.ID))
	return nil
}

func (s *Store) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))
	if creds.Email == "" || creds.Password == "" {
		return nil, errors.NewAuthError("email and password are required", nil)
	}

	grant, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.logger.Warn("login failed", zap.String("email", creds.Email), zap.Error(err))
		msg := "invalid credentials"
		if apiErr, ok := errors.IsAPIError(err); ok && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return nil, errors.NewAuthError(msg, err)
	}
	if grant == nil || grant.User == nil || grant.AccessToken == "" {
		return nil, errors.NewAuthError("login response missing user or token", nil)
	}

	s.writeMu.Lock()
	tokens := domain.SessionTokens{AccessToken: grant.AccessToken, RefreshToken: grant.RefreshToken}
	if err := s.tokens.Save(ctx, s.clientID, tokens); err != nil {
		s.logger.Error("persisting tokens", zap.Error(err))
	}
	s.mu.Lock()
	s.user = grant.User
	s.accessToken = grant.AccessToken
	s.epoch++
	s.mu.Unlock()
	s.writeMu.Unlock()
	s.markRestored()

	s.logger.Info("login succeeded", zap.String("userId", grant.User.ID))
	return grant.User, nil
}

// Logout clears local state before calling the collaborator, so a failed
// network call never leaves the store authenticated. Calling it on an empty
// store is a no-op.
func (s *Store) Logout(ctx context.Context) {
	s.writeMu.Lock()
	s.mu.Lock()
	token := s.accessToken
	s.user = nil
	s.accessToken = ""
	s.epoch++
	s.mu.Unlock()
	if err := s.tokens.Clear(ctx, s.clientID); err != nil {
		s.logger.Error("clearing persisted tokens", zap.Error(err))
	}
	s.writeMu.Unlock()

	if token == "" {
		return
	}
	if err := s.auth.Logout(ctx, token); err != nil {
		s.logger.Warn("remote logout failed", zap.Error(err))
		return
	}
	s.logger.Info("logged out")
}

// destroy drops the session a restore begun at epoch was working on. A
// login or logout since then owns the store and is left alone.
func (s *Store) destroy(ctx context.Context, epoch uint64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.user = nil
	s.accessToken = ""
	s.mu.Unlock()
	if err := s.tokens.Clear(ctx, s.clientID); err != nil {
		s.logger.Error("clearing persisted tokens", zap.Error(err))
	}
}

// tokenExpired inspects the exp claim of JWT access tokens without verifying
// the signature. Opaque tokens are never considered expired here.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(now.Unix(), false)
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying the client's store.
func NewContext(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, store)
}

func FromContext(ctx context.Context) (*Store, bool) {
	store, ok := ctx.Value(contextKey{}).(*Store)
	return store, ok && store != nil
}
