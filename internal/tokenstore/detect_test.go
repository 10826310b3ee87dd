package tokenstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_FilePreferenceAlwaysSucceeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	store, err := Detect(PreferenceFile, path)
	require.NoError(t, err)
	assert.IsType(t, (*FileStore)(nil), store)
}

func TestDetect_KeyringPreferenceFallsBackToFile(t *testing.T) {
	// Regardless of whether this host has a usable keyring, an explicit
	// keyring preference must never fail outright.
	path := filepath.Join(t.TempDir(), "tokens.json")

	store, err := Detect(PreferenceKeyring, path)
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestDetect_AutoNeverFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	store, err := Detect(PreferenceAuto, path)
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestDetect_UnknownPreference(t *testing.T) {
	_, err := Detect(Preference("vault"), "ignored")
	assert.Error(t, err)
}
