package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/store"
	"github.com/obotesoftech/prisonreturns/types"
	"github.com/rif/cache2go"
)

const (
	defaultTokenTTL   = 12 * time.Hour
	sessionCacheSize  = 1000
	sessionCacheTTL   = 5 * time.Minute
	minJWTSecretBytes = 16
)

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	Create(ctx context.Context, session types.Session) (types.Session, error)
	Get(ctx context.Context, id string) (types.Session, error)
	Delete(ctx context.Context, id string) error
	SetChatIdentity(ctx context.Context, id string, identity types.ChatIdentity) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token   string        `json:"token"`
	Session types.Session `json:"session"`
	Account types.Account `json:"account"`
}

type sessionClaims struct {
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

// revoked marks a logged-out session id in the cache.
type revoked struct{}

// SessionService issues and resolves login sessions. A session is a row in
// the sessions table; the client holds a JWT whose jti is the session id.
type SessionService struct {
	accounts *AccountService
	repo     SessionRepository
	secret   []byte
	ttl      time.Duration
	log      logging.Logger
	now      func() time.Time

	cache  *cache2go.Cache
	mu     sync.Mutex
	owners map[string]map[string]struct{}
}

func NewSessionService(accounts *AccountService, repo SessionRepository, jwtSecret string, ttl time.Duration, log logging.Logger) (*SessionService, error) {
	jwtSecret = strings.TrimSpace(jwtSecret)
	if len(jwtSecret) < minJWTSecretBytes {
		return nil, errors.New("JWT_SECRET must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	s := &SessionService{
		accounts: accounts,
		repo:     repo,
		secret:   []byte(jwtSecret),
		ttl:      ttl,
		log:      log.With("component", "sessions"),
		now:      time.Now,
		cache:    cache2go.New(sessionCacheSize, sessionCacheTTL),
		owners:   make(map[string]map[string]struct{}),
	}
	accounts.SetSessionInvalidator(s)
	return s, nil
}

// Login verifies the credentials, or provisions the account when that is
// enabled, and opens a new session.
func (s *SessionService) Login(ctx context.Context, identifier, password string, role types.Role) (LoginResult, error) {
	account, err := s.accounts.Verify(ctx, identifier, password, role)
	if err != nil {
		return LoginResult{}, err
	}

	now := s.now()
	session, err := s.repo.Create(ctx, types.Session{
		ID:         uuid.NewString(),
		Identifier: account.Identifier,
		Role:       account.Role,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	})
	if err != nil {
		return LoginResult{}, err
	}

	token, err := s.issueToken(session)
	if err != nil {
		return LoginResult{}, err
	}

	s.remember(session)
	s.log.Info(ctx, "login", "identifier", account.Identifier, "role", account.Role)
	return LoginResult{Token: token, Session: session, Account: account}, nil
}

// Logout ends the session. Logging out twice is not an error.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	s.forget(sessionID)
	s.cache.Set(sessionID, revoked{})
	return nil
}

// Resolve validates a bearer token and returns its live session.
func (s *SessionService) Resolve(ctx context.Context, token string) (types.Session, error) {
	sessionID, err := s.parseToken(token)
	if err != nil {
		return types.Session{}, ErrInvalidToken
	}

	if cached, ok := s.cache.Get(sessionID); ok {
		switch v := cached.(type) {
		case revoked:
			return types.Session{}, ErrInvalidToken
		case types.Session:
			if v.Expired(s.now()) {
				return types.Session{}, ErrInvalidToken
			}
			return v, nil
		}
	}

	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.cache.Set(sessionID, revoked{})
			return types.Session{}, ErrInvalidToken
		}
		return types.Session{}, err
	}
	if session.Expired(s.now()) {
		return types.Session{}, ErrInvalidToken
	}

	s.remember(session)
	return session, nil
}

// SetChatIdentity stores the chat name on the session.
func (s *SessionService) SetChatIdentity(ctx context.Context, sessionID string, identity types.ChatIdentity) error {
	if err := s.repo.SetChatIdentity(ctx, sessionID, identity); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	s.forget(sessionID)
	return nil
}

// Invalidate drops every cached session of identifier so the next request
// reloads it from the database.
func (s *SessionService) Invalidate(identifier string) {
	s.mu.Lock()
	ids := s.owners[identifier]
	delete(s.owners, identifier)
	s.mu.Unlock()

	for id := range ids {
		s.cache.Delete(id)
	}
}

// Sweep removes expired sessions from the database.
func (s *SessionService) Sweep(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func (s *SessionService) remember(session types.Session) {
	s.cache.Set(session.ID, session)

	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.owners[session.Identifier]
	if !ok {
		ids = make(map[string]struct{})
		s.owners[session.Identifier] = ids
	}
	ids[session.ID] = struct{}{}
}

func (s *SessionService) forget(sessionID string) {
	if cached, ok := s.cache.Get(sessionID); ok {
		if session, ok := cached.(types.Session); ok {
			s.mu.Lock()
			delete(s.owners[session.Identifier], sessionID)
			s.mu.Unlock()
		}
	}
	s.cache.Delete(sessionID)
}

func (s *SessionService) issueToken(session types.Session) (string, error) {
	claims := sessionClaims{
		Role: session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   session.Identifier,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *SessionService) parseToken(tokenString string) (string, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.ID) == "" {
		return "", errors.New("missing session id")
	}
	return claims.ID, nil
}
