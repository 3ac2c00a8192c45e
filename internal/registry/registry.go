// Package registry manages user records, PIN login and the active session.
// It is the only component that touches user-scoped keys directly: every
// other component goes through the session-scoped store it installs.
package registry

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
	"github.com/radheshpai87/aurahealth-core/internal/limiter"
	"github.com/radheshpai87/aurahealth-core/internal/model"
	"github.com/radheshpai87/aurahealth-core/internal/storage"
)

// DefaultSessionTTL is the inactivity window after which a persisted
// session is no longer restorable.
const DefaultSessionTTL = 30 * 24 * time.Hour

const avatarCount = 8

var (
	rePIN    = regexp.MustCompile(`^\d{4}$`)
	validate = validator.New()
)

// Service defines registry and session operations.
type Service interface {
	// ListUsers returns the registry in creation order.
	ListUsers(ctx context.Context) ([]model.User, error)
	// Register creates a user, appends it to the registry and starts a session.
	Register(ctx context.Context, name string, role model.Role, pin string) (model.User, error)
	// LoginWithPin verifies the PIN; a mismatch is a result, not an error.
	LoginWithPin(ctx context.Context, userID, pin string) (LoginResult, error)
	// Logout destroys the persisted session and clears the handle.
	Logout(ctx context.Context) error
	// RestoreSession revives a persisted session within its TTL, or returns nil.
	RestoreSession(ctx context.Context) (*model.User, error)
	// DeleteUser removes the registry entry and sweeps every key of that user.
	DeleteUser(ctx context.Context, userID string) error
	// SaveProfile validates and stores the active user's profile.
	SaveProfile(ctx context.Context, profile model.UserProfile) error
	// Profile returns the active user's profile, or nil when not yet set.
	Profile(ctx context.Context) (*model.UserProfile, error)
}

// LoginResult reports the outcome of a PIN check.
type LoginResult struct {
	Success bool
	User    model.User
}

// Config carries registry settings.
type Config struct {
	SignKey    []byte        // HS256 key for the persisted session token
	SessionTTL time.Duration // defaults to DefaultSessionTTL
}

type ServiceImpl struct {
	secret  storage.Store
	bulk    storage.Store
	session *storage.SessionHandle
	scoped  *storage.Scoped
	signKey []byte
	ttl     time.Duration
	lim     limiter.Limiter
	log     *zap.Logger
}

var _ Service = (*ServiceImpl)(nil)

// NewService constructs the registry over both storage tiers.
func NewService(secret, bulk storage.Store, session *storage.SessionHandle, cfg Config, lim limiter.Limiter, log *zap.Logger) *ServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &ServiceImpl{
		secret:  secret,
		bulk:    bulk,
		session: session,
		scoped:  storage.NewScoped(secret, bulk, session, log),
		signKey: cfg.SignKey,
		ttl:     ttl,
		lim:     lim,
		log:     log,
	}
}

// Scoped exposes the session-scoped store for the data components.
func (s *ServiceImpl) Scoped() *storage.Scoped { return s.scoped }

func (s *ServiceImpl) loadUsers(ctx context.Context) ([]model.User, error) {
	raw, err := s.secret.Get(ctx, storage.KeyUsersRegistry)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load registry: %w: %w", errs.ErrStore, err)
	}
	var users []model.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return users, nil
}

func (s *ServiceImpl) saveUsers(ctx context.Context, users []model.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := s.secret.Set(ctx, storage.KeyUsersRegistry, raw); err != nil {
		return fmt.Errorf("save registry: %w: %w", errs.ErrStore, err)
	}
	return nil
}

// ListUsers returns the registry in creation order.
func (s *ServiceImpl) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.loadUsers(ctx)
}

// Register creates a user, stores the PIN in the secret tier and starts a session.
func (s *ServiceImpl) Register(ctx context.Context, name string, role model.Role, pin string) (model.User, error) {
	if name == "" {
		return model.User{}, fmt.Errorf("%w: empty name", errs.ErrValidation)
	}
	if role != model.RoleSubject && role != model.RoleFieldWorker {
		return model.User{}, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, role)
	}
	if !rePIN.MatchString(pin) {
		return model.User{}, fmt.Errorf("%w: pin must be exactly 4 digits", errs.ErrValidation)
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:          uid.String(),
		Name:        name,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
		AvatarIndex: len(users) % avatarCount,
	}
	if err := s.saveUsers(ctx, append(users, u)); err != nil {
		return model.User{}, err
	}

	pinRaw, err := json.Marshal(pin)
	if err != nil {
		return model.User{}, err
	}
	if err := s.secret.Set(ctx, storage.UserKey(u.ID, storage.KeyPIN), pinRaw); err != nil {
		return model.User{}, fmt.Errorf("store pin: %w: %w", errs.ErrStore, err)
	}

	if err := s.startSession(ctx, u.ID); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// LoginWithPin checks the PIN in constant time under rate limiting.
func (s *ServiceImpl) LoginWithPin(ctx context.Context, userID, pin string) (LoginResult, error) {
	allowed, _, err := s.lim.Allow(ctx, userID)
	if err != nil {
		return LoginResult{}, err
	}
	if !allowed {
		return LoginResult{}, errs.ErrRateLimited
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return LoginResult{}, err
	}
	var user *model.User
	for i := range users {
		if users[i].ID == userID {
			user = &users[i]
			break
		}
	}

	stored, pinErr := s.storedPIN(ctx, userID)
	match := user != nil && pinErr == nil &&
		subtle.ConstantTimeCompare([]byte(stored), []byte(pin)) == 1
	if !match {
		if blocked, _, ferr := s.lim.Failure(ctx, userID); ferr == nil && blocked {
			return LoginResult{}, errs.ErrRateLimited
		}
		// A mismatch (or unknown user) is an unsuccessful result, not an error.
		return LoginResult{Success: false}, nil
	}

	_ = s.lim.Success(ctx, userID)
	if err := s.startSession(ctx, userID); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Success: true, User: *user}, nil
}

func (s *ServiceImpl) storedPIN(ctx context.Context, userID string) (string, error) {
	raw, err := s.secret.Get(ctx, storage.UserKey(userID, storage.KeyPIN))
	if err != nil {
		return "", err
	}
	var pin string
	if err := json.Unmarshal(raw, &pin); err != nil {
		return "", err
	}
	return pin, nil
}

// Logout destroys the persisted session and clears the handle.
func (s *ServiceImpl) Logout(ctx context.Context) error {
	if err := s.secret.Delete(ctx, storage.KeyActiveSession); err != nil && !errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("drop session: %w: %w", errs.ErrStore, err)
	}
	s.session.Clear()
	return nil
}

// RestoreSession revives a persisted session within its TTL. Returns nil when
// no session exists, the token expired, or the user was deleted; the stale
// token is dropped in those cases.
func (s *ServiceImpl) RestoreSession(ctx context.Context) (*model.User, error) {
	raw, err := s.secret.Get(ctx, storage.KeyActiveSession)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w: %w", errs.ErrStore, err)
	}
	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		_ = s.Logout(ctx)
		return nil, nil
	}

	userID, err := s.parseSessionToken(token)
	if err != nil {
		s.log.Info("persisted session not restorable", zap.Error(err))
		_ = s.Logout(ctx)
		return nil, nil
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == userID {
			// Re-issue so the 30-day inactivity window slides forward.
			if err := s.startSession(ctx, userID); err != nil {
				return nil, err
			}
			return &users[i], nil
		}
	}
	_ = s.Logout(ctx)
	return nil, nil
}

// DeleteUser removes the registry entry and sweeps all keys prefixed with the
// user's ID from both tiers. Deleting the active user logs it out first.
func (s *ServiceImpl) DeleteUser(ctx context.Context, userID string) error {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	kept := users[:0]
	found := false
	for _, u := range users {
		if u.ID == userID {
			found = true
			continue
		}
		kept = append(kept, u)
	}
	if !found {
		return fmt.Errorf("user %s: %w", userID, errs.ErrNotFound)
	}
	if active, ok := s.session.UserID(); ok && active == userID {
		if err := s.Logout(ctx); err != nil {
			return err
		}
	}
	if err := s.saveUsers(ctx, kept); err != nil {
		return err
	}
	return storage.SweepUser(ctx, userID, s.secret, s.bulk)
}

// SaveProfile validates ranges, derives BMI and stores the profile.
func (s *ServiceImpl) SaveProfile(ctx context.Context, profile model.UserProfile) error {
	if err := validate.Struct(profile); err != nil {
		return fmt.Errorf("profile: %w: %v", errs.ErrValidation, err)
	}
	if profile.HeightCM != nil && profile.WeightKG != nil {
		m := *profile.HeightCM / 100
		bmi := *profile.WeightKG / (m * m)
		profile.BMI = &bmi
	}
	return s.scoped.PutJSON(ctx, storage.KeyUserProfile, profile)
}

// Profile returns the active user's profile, or nil when not yet set.
func (s *ServiceImpl) Profile(ctx context.Context) (*model.UserProfile, error) {
	var p model.UserProfile
	ok, err := s.scoped.GetJSON(ctx, storage.KeyUserProfile, &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *ServiceImpl) startSession(ctx context.Context, userID string) error {
	token, err := s.issueSessionToken(userID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := s.secret.Set(ctx, storage.KeyActiveSession, raw); err != nil {
		return fmt.Errorf("persist session: %w: %w", errs.ErrStore, err)
	}
	s.session.Install(userID)
	return nil
}
