package tokenstore

import (
	"fmt"
	"log/slog"
)

// Preference names the token storage backend the user asked for.
type Preference string

const (
	PreferenceAuto    Preference = "auto"
	PreferenceFile    Preference = "file"
	PreferenceKeyring Preference = "keyring"
)

// Detect resolves a storage preference to a concrete backend.
//
// Auto mode probes the OS keyring first and falls back to file storage
// when no usable backend exists. An explicit keyring preference that
// fails the probe also falls back to file storage rather than failing,
// with a warning so the weakened storage choice is visible. An explicit
// file preference always succeeds.
func Detect(pref Preference, filePath string) (Store, error) {
	switch pref {
	case PreferenceFile:
		return NewFileStore(filePath)

	case PreferenceKeyring:
		store, err := NewKeyringStore()
		if err != nil {
			slog.Warn("keyring storage requested but unavailable, falling back to file storage",
				"error", err, "file", filePath)
			return NewFileStore(filePath)
		}
		return store, nil

	case PreferenceAuto, "":
		store, err := NewKeyringStore()
		if err != nil {
			slog.Debug("keyring unavailable, using file storage", "error", err, "file", filePath)
			return NewFileStore(filePath)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage preference: %s", pref)
	}
}
