// Package storage defines the two-tier key-value contract and the
// session-scoped view every other component reads through.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
)

// Store is a minimal string-keyed blob store. Values are JSON; the core
// never passes through binary. Get returns errs.ErrNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// SessionHandle carries the active user's identity. Components receive the
// handle explicitly and never consult ambient state, so two handles over the
// same stores stay independent.
type SessionHandle struct {
	mu     sync.RWMutex
	userID string
}

// NewSessionHandle returns a handle with no active session.
func NewSessionHandle() *SessionHandle {
	return &SessionHandle{}
}

// Install sets the active user. Overwrites any previous session.
func (h *SessionHandle) Install(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.userID = userID
}

// Clear drops the active session.
func (h *SessionHandle) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.userID = ""
}

// UserID returns the active user ID; ok is false when no session is active.
func (h *SessionHandle) UserID() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userID, h.userID != ""
}

// Scoped is the session-scoped view over both tiers. Logical keys resolve to
// "u_<userId>_<logicalKey>" while a session is active; global keys pass
// through unscoped. Accessing a user-scoped key without a session is a
// programmer error and surfaces as errs.ErrSessionRequired.
type Scoped struct {
	secret  Store
	bulk    Store
	session *SessionHandle
	log     *zap.Logger
}

// NewScoped wires the two tiers to a session handle.
func NewScoped(secret, bulk Store, session *SessionHandle, log *zap.Logger) *Scoped {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scoped{secret: secret, bulk: bulk, session: session, log: log}
}

// Session exposes the handle for components that install or clear it.
func (s *Scoped) Session() *SessionHandle { return s.session }

func (s *Scoped) tier(logical string) Store {
	if InSecretTier(logical) {
		return s.secret
	}
	return s.bulk
}

func (s *Scoped) resolve(logical string) (string, error) {
	if IsGlobal(logical) {
		return logical, nil
	}
	userID, ok := s.session.UserID()
	if !ok {
		return "", fmt.Errorf("key %s: %w", logical, errs.ErrSessionRequired)
	}
	return UserKey(userID, logical), nil
}

// Get returns the stored value, or nil when the key is absent. Read failures
// are logged and reported as absence; a missing session propagates.
func (s *Scoped) Get(ctx context.Context, logical string) ([]byte, error) {
	key, err := s.resolve(logical)
	if err != nil {
		return nil, err
	}
	val, err := s.tier(logical).Get(ctx, key)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.log.Warn("store read failed", zap.String("key", logical), zap.Error(err))
		return nil, nil
	}
	return val, nil
}

// Put stores the value. Write failures surface as errs.ErrStore.
func (s *Scoped) Put(ctx context.Context, logical string, value []byte) error {
	key, err := s.resolve(logical)
	if err != nil {
		return err
	}
	if err := s.tier(logical).Set(ctx, key, value); err != nil {
		return fmt.Errorf("put %s: %w: %w", logical, errs.ErrStore, err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (s *Scoped) Delete(ctx context.Context, logical string) error {
	key, err := s.resolve(logical)
	if err != nil {
		return err
	}
	if err := s.tier(logical).Delete(ctx, key); err != nil && !errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("delete %s: %w: %w", logical, errs.ErrStore, err)
	}
	return nil
}

// GetJSON unmarshals the stored value into out. ok is false when the key is
// absent, unreadable, or holds malformed JSON (both logged).
func (s *Scoped) GetJSON(ctx context.Context, logical string, out any) (bool, error) {
	raw, err := s.Get(ctx, logical)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn("store value malformed", zap.String("key", logical), zap.Error(err))
		return false, nil
	}
	return true, nil
}

// PutJSON marshals v and stores it as a single atomic replace.
func (s *Scoped) PutJSON(ctx context.Context, logical string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", logical, err)
	}
	return s.Put(ctx, logical, raw)
}

// SweepUser removes every key scoped to userID from the given stores. Used on
// account deletion; requires no active session.
func SweepUser(ctx context.Context, userID string, stores ...Store) error {
	prefix := UserPrefix(userID)
	for _, st := range stores {
		keys, err := st.Keys(ctx, prefix)
		if err != nil {
			return fmt.Errorf("sweep %s: %w: %w", userID, errs.ErrStore, err)
		}
		for _, k := range keys {
			if err := st.Delete(ctx, k); err != nil && !errors.Is(err, errs.ErrNotFound) {
				return fmt.Errorf("sweep %s key %s: %w: %w", userID, k, errs.ErrStore, err)
			}
		}
	}
	return nil
}
