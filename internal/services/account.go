package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/obotesoftech/prisonreturns/config"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/stations"
	"github.com/obotesoftech/prisonreturns/internal/store"
	"github.com/obotesoftech/prisonreturns/types"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	Get(ctx context.Context, identifier string) (types.Account, error)
	List(ctx context.Context) ([]types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	Update(ctx context.Context, identifier string, change store.AccountChange) (types.Account, error)
	Delete(ctx context.Context, identifier string) error
}

// SessionInvalidator drops cached sessions owned by an identifier.
type SessionInvalidator interface {
	Invalidate(identifier string)
}

// RegisterInput is the administrative account-creation request.
type RegisterInput struct {
	Identifier string     `json:"identifier"`
	Password   string     `json:"password"`
	Role       types.Role `json:"role"`
	Station    string     `json:"station,omitempty"`
}

// UpdateInput is the administrative edit request. Empty fields are kept.
type UpdateInput struct {
	NewIdentifier string `json:"newIdentifier,omitempty"`
	Password      string `json:"password,omitempty"`
}

// AccountService encapsulates account use-cases.
type AccountService struct {
	repo        AccountRepository
	cfg         config.AuthConfig
	log         logging.Logger
	invalidator SessionInvalidator
	cost        int
}

func NewAccountService(repo AccountRepository, cfg config.AuthConfig, log logging.Logger) *AccountService {
	return &AccountService{
		repo: repo,
		cfg:  cfg,
		log:  log.With("component", "accounts"),
		cost: bcrypt.DefaultCost,
	}
}

// SetSessionInvalidator registers the session cache to purge after a rename
// or delete.
func (s *AccountService) SetSessionInvalidator(inv SessionInvalidator) {
	s.invalidator = inv
}

// AutoProvision reports whether unknown identifiers are created at login.
func (s *AccountService) AutoProvision() bool {
	return s.cfg.AutoProvision
}

func (s *AccountService) Get(ctx context.Context, identifier string) (types.Account, error) {
	return s.repo.Get(ctx, identifier)
}

func (s *AccountService) List(ctx context.Context) ([]types.Account, error) {
	return s.repo.List(ctx)
}

// Register creates an account through user management.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (types.Account, error) {
	identifier := strings.TrimSpace(in.Identifier)
	if err := validateIdentifier(identifier); err != nil {
		return types.Account{}, err
	}
	if len(in.Password) < minPasswordLength {
		return types.Account{}, invalid("password", "password must be at least 6 characters long")
	}
	if !in.Role.Valid() {
		return types.Account{}, invalid("role", "unknown role")
	}

	station, err := registeredStation(identifier, in.Role, in.Station)
	if err != nil {
		return types.Account{}, err
	}

	return s.create(ctx, identifier, in.Password, in.Role, station)
}

// Provision creates an account on its first login. Unlike Register it
// accepts any non-empty password.
func (s *AccountService) Provision(ctx context.Context, identifier, password string, role types.Role) (types.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if err := validateIdentifier(identifier); err != nil {
		return types.Account{}, err
	}
	if password == "" {
		return types.Account{}, invalid("password", "password is required")
	}
	if !role.Valid() {
		return types.Account{}, invalid("role", "unknown role")
	}
	return s.create(ctx, identifier, password, role, "")
}

// Verify checks a login attempt. With auto-provisioning enabled an unknown
// identifier is created with the supplied password and role.
func (s *AccountService) Verify(ctx context.Context, identifier, password string, role types.Role) (types.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if err := validateIdentifier(identifier); err != nil {
		return types.Account{}, err
	}
	if password == "" {
		return types.Account{}, invalid("password", "password is required")
	}
	if !role.Valid() {
		return types.Account{}, invalid("role", "unknown role")
	}

	account, err := s.repo.Get(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		if !s.cfg.AutoProvision {
			return types.Account{}, ErrUnknownAccount
		}
		if role.Restricted() && !stations.Restricted(identifier) {
			return types.Account{}, ErrUnauthorizedStation
		}
		account, err = s.Provision(ctx, identifier, password, role)
		if err != nil {
			return types.Account{}, err
		}
		s.log.Info(ctx, "account provisioned at login", "identifier", identifier, "role", role)
		return account, nil
	}
	if err != nil {
		return types.Account{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return types.Account{}, ErrWrongPassword
	}
	if account.Role != role {
		return types.Account{}, ErrRoleMismatch
	}
	if role.Restricted() && AssignedStation(account) == "" {
		return types.Account{}, ErrUnauthorizedStation
	}
	return account, nil
}

// Rename re-keys an account. Returns and sessions follow the new identifier.
func (s *AccountService) Rename(ctx context.Context, oldIdentifier, newIdentifier string) (types.Account, error) {
	return s.Update(ctx, oldIdentifier, UpdateInput{NewIdentifier: newIdentifier})
}

func (s *AccountService) ChangeSecret(ctx context.Context, identifier, password string) (types.Account, error) {
	if password == "" {
		return types.Account{}, invalid("password", "password must be at least 6 characters long")
	}
	return s.Update(ctx, identifier, UpdateInput{Password: password})
}

// Update applies an optional rename and an optional new password. Both
// inputs are validated before anything is written.
func (s *AccountService) Update(ctx context.Context, identifier string, in UpdateInput) (types.Account, error) {
	var change store.AccountChange

	newIdentifier := strings.TrimSpace(in.NewIdentifier)
	if newIdentifier != "" && newIdentifier != identifier {
		if err := validateIdentifier(newIdentifier); err != nil {
			return types.Account{}, err
		}
		change.NewIdentifier = newIdentifier
	}

	if in.Password != "" {
		if len(in.Password) < minPasswordLength {
			return types.Account{}, invalid("password", "password must be at least 6 characters long")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return types.Account{}, err
		}
		change.PasswordHash = string(hash)
	}

	if change == (store.AccountChange{}) {
		return s.repo.Get(ctx, identifier)
	}

	account, err := s.repo.Update(ctx, identifier, change)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Account{}, invalid("identifier", "a user with this email already exists")
		}
		return types.Account{}, err
	}

	if change.NewIdentifier != "" {
		s.invalidate(identifier)
		s.log.Info(ctx, "account renamed", "from", identifier, "to", change.NewIdentifier)
	}
	return account, nil
}

// Delete removes an account. The last admin cannot be deleted.
func (s *AccountService) Delete(ctx context.Context, identifier string) error {
	if err := s.repo.Delete(ctx, identifier); err != nil {
		if errors.Is(err, store.ErrLastAdmin) {
			return ErrLastAdmin
		}
		return err
	}
	s.invalidate(identifier)
	s.log.Info(ctx, "account deleted", "identifier", identifier)
	return nil
}

// EnsureBootstrap creates the configured admin and phq-kla accounts when
// they do not exist yet. An account without a configured password is skipped.
func (s *AccountService) EnsureBootstrap(ctx context.Context) error {
	seeds := []RegisterInput{
		{Identifier: s.cfg.AdminEmail, Password: s.cfg.AdminPassword, Role: types.RoleAdmin},
		{Identifier: s.cfg.PHQKLAEmail, Password: s.cfg.PHQKLAPassword, Role: types.RolePHQKLA},
	}

	for _, seed := range seeds {
		if seed.Identifier == "" {
			continue
		}
		_, err := s.repo.Get(ctx, seed.Identifier)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if seed.Password == "" {
			s.log.Warn(ctx, "bootstrap account skipped: no password configured", "identifier", seed.Identifier, "role", seed.Role)
			continue
		}
		if _, err := s.Register(ctx, seed); err != nil {
			return err
		}
		s.log.Info(ctx, "bootstrap account created", "identifier", seed.Identifier, "role", seed.Role)
	}
	return nil
}

// AssignedStation returns the station a restricted account submits for: the
// directory entry for its identifier, else the station set by user
// management. It returns "" when neither exists.
func AssignedStation(account types.Account) string {
	if station := stations.Lookup(account.Identifier); station != stations.DefaultStation {
		return station
	}
	return account.Station
}

// registeredStation resolves the station stored for a new account. Station
// mailboxes always get their directory station; other restricted accounts
// must name a station from the directory.
func registeredStation(identifier string, role types.Role, requested string) (string, error) {
	if !role.Restricted() {
		return "", nil
	}

	requested = strings.TrimSpace(requested)
	if stations.Restricted(identifier) {
		assigned := stations.Lookup(identifier)
		if requested != "" && requested != assigned {
			return "", invalid("station", fmt.Sprintf("this mailbox is assigned to %s", assigned))
		}
		return assigned, nil
	}

	if requested == "" {
		return "", invalid("station", "please select a station for this role")
	}
	if !slices.Contains(stations.Names(), requested) {
		return "", invalid("station", "unknown station")
	}
	return requested, nil
}

func (s *AccountService) create(ctx context.Context, identifier, password string, role types.Role, station string) (types.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return types.Account{}, err
	}

	account, err := s.repo.Create(ctx, types.Account{
		Identifier:   identifier,
		PasswordHash: string(hash),
		Role:         role,
		Station:      station,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Account{}, invalid("identifier", "a user with this email already exists")
		}
		return types.Account{}, err
	}
	return account, nil
}

func (s *AccountService) invalidate(identifier string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(identifier)
	}
}

func validateIdentifier(identifier string) error {
	if !emailPattern.MatchString(identifier) {
		return invalid("identifier", "please enter a valid email address")
	}
	return nil
}
