// Package secretstore implements the encrypted tier: a file-backed key-value
// store whose values are sealed with XChaCha20-Poly1305 under per-key subkeys
// derived from a device secret. It stands in for an OS keychain on platforms
// that lack one.
package secretstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
	"github.com/radheshpai87/aurahealth-core/internal/storage"
)

const (
	keyLen  = 32
	saltLen = 16

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1

	// verifierKey holds a sealed canary so a wrong device secret is caught
	// at open time instead of on first read.
	verifierKey   = "_verifier"
	verifierValue = "aurahealth"
)

// Config configures the store location and the device secret the master key
// is derived from.
type Config struct {
	Path   string // secrets file, created on first open
	Secret []byte // device secret (keychain material)
}

type fileDoc struct {
	Version int               `json:"version"`
	Salt    []byte            `json:"salt"`
	Entries map[string][]byte `json:"entries"`
}

// SecretStore implements storage.Store with values encrypted at rest.
type SecretStore struct {
	mu      sync.Mutex
	path    string
	master  []byte
	salt    []byte
	entries map[string][]byte
	log     *zap.Logger
}

var _ storage.Store = (*SecretStore)(nil)

// GenerateSecret returns fresh device-secret material for first-run setup.
func GenerateSecret() ([]byte, error) {
	b := make([]byte, keyLen)
	_, err := rand.Read(b)
	return b, err
}

// Open loads (or creates) the secrets file and verifies the device secret.
func Open(cfg Config, log *zap.Logger) (*SecretStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("secretstore: empty path")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("secretstore: empty device secret")
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &SecretStore{path: cfg.Path, entries: map[string][]byte{}, log: log}

	raw, err := os.ReadFile(cfg.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.salt = make([]byte, saltLen)
		if _, err := rand.Read(s.salt); err != nil {
			return nil, fmt.Errorf("secretstore: salt: %w", err)
		}
		s.master = deriveMaster(cfg.Secret, s.salt)
		sealed, err := s.seal(verifierKey, []byte(verifierValue))
		if err != nil {
			return nil, err
		}
		s.entries[verifierKey] = sealed
		if err := s.persist(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("secretstore: read %s: %w", cfg.Path, err)
	default:
		var doc fileDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("secretstore: parse %s: %w", cfg.Path, err)
		}
		s.salt = doc.Salt
		s.entries = doc.Entries
		if s.entries == nil {
			s.entries = map[string][]byte{}
		}
		s.master = deriveMaster(cfg.Secret, s.salt)
		canary, ok := s.entries[verifierKey]
		if !ok {
			return nil, errors.New("secretstore: verifier missing")
		}
		if _, err := s.open(verifierKey, canary); err != nil {
			return nil, errors.New("secretstore: device secret mismatch")
		}
	}
	return s, nil
}

func deriveMaster(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, keyLen)
}

// subkey derives a per-key AEAD key via HKDF-SHA256 with the physical key as info.
func (s *SecretStore) subkey(key string) ([]byte, error) {
	r := hkdf.New(sha256.New, s.master, nil, []byte(key))
	out := make([]byte, keyLen)
	if _, err := r.Read(out); err != nil {
		return nil, fmt.Errorf("secretstore: subkey: %w", err)
	}
	return out, nil
}

// seal encrypts plaintext with a random nonce prefix and AAD bound to the key name.
func (s *SecretStore) seal(key string, plaintext []byte) ([]byte, error) {
	sub, err := s.subkey(key)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(sub)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, []byte(key))...)
	return out, nil
}

func (s *SecretStore) open(key string, sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("secretstore: sealed value too short")
	}
	sub, err := s.subkey(key)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(sub)
	if err != nil {
		return nil, err
	}
	nonce := sealed[:chacha20poly1305.NonceSizeX]
	ct := sealed[chacha20poly1305.NonceSizeX:]
	return aead.Open(nil, nonce, ct, []byte(key))
}

func (s *SecretStore) persist() error {
	doc := fileDoc{Version: 1, Salt: s.salt, Entries: s.entries}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("secretstore: marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("secretstore: mkdir: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("secretstore: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("secretstore: rename: %w", err)
	}
	return nil
}

// Get implements storage.Store.
func (s *SecretStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sealed, ok := s.entries[key]
	if !ok {
		return nil, errs.ErrNotFound
	}
	val, err := s.open(key, sealed)
	if err != nil {
		return nil, fmt.Errorf("secretstore: unseal %s: %w", key, err)
	}
	return val, nil
}

// Set implements storage.Store. The whole file is rewritten atomically.
func (s *SecretStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sealed, err := s.seal(key, value)
	if err != nil {
		return err
	}
	s.entries[key] = sealed
	return s.persist()
}

// Delete implements storage.Store.
func (s *SecretStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return errs.ErrNotFound
	}
	delete(s.entries, key)
	return s.persist()
}

// Keys implements storage.Store; the internal verifier entry is never listed.
func (s *SecretStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.entries {
		if k == verifierKey {
			continue
		}
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Close implements storage.Store.
func (s *SecretStore) Close() error { return nil }
