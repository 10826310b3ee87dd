package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Fixed service/key pair under which the token record lives in the
// OS credential store.
const (
	keyringService = "kroger-cart"
	keyringKey     = "oauth-tokens"
)

// ErrKeyringUnavailable indicates that no usable OS credential store
// exists on this host.
var ErrKeyringUnavailable = errors.New("no usable keyring backend on this host")

// KeyringStore persists token records in OS-native secure credential
// storage (macOS Keychain, Windows Credential Manager, Linux Secret Service).
type KeyringStore struct {
	service string
	key     string
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore after probing the host for a
// functioning credential store. The probe is a single read: a "not found"
// result still proves the backend works, while any other failure means
// the keyring is unusable and ErrKeyringUnavailable is returned.
func NewKeyringStore() (*KeyringStore, error) {
	if err := probeKeyring(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}

	return &KeyringStore{
		service: keyringService,
		key:     keyringKey,
	}, nil
}

func probeKeyring() error {
	_, err := keyring.Get(keyringService, keyringKey)
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// Save persists the record to the system keyring, overwriting any
// existing value.
func (k *KeyringStore) Save(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding token record: %w", err)
	}

	return keyring.Set(k.service, k.key, string(data))
}

// Load returns the stored record, or (nil, nil) if the keyring holds no
// entry for the service/key pair.
func (k *KeyringStore) Load(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := keyring.Get(k.service, k.key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decoding token record from keyring: %w", err)
	}
	return &rec, nil
}

// String identifies the backend in logs.
func (k *KeyringStore) String() string {
	return "os keyring"
}
