package tokenstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, err)
	return store
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := tempStore(t)
	ctx := context.Background()

	expiresAt := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	rec := &Record{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		ExpiresAt:    expiresAt,
		Extra: map[string]json.RawMessage{
			"token_type": json.RawMessage(`"bearer"`),
			"scope":      json.RawMessage(`"product.compact cart.basic:write"`),
		},
	}

	require.NoError(t, store.Save(ctx, rec))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "access-123", loaded.AccessToken)
	assert.Equal(t, "refresh-456", loaded.RefreshToken)
	assert.True(t, expiresAt.Equal(loaded.ExpiresAt), "expires_at must round-trip")
	assert.Equal(t, rec.Extra, loaded.Extra)
}

func TestFileStore_SaveSetsOwnerOnlyPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permission bits only")
	}

	path := filepath.Join(t.TempDir(), "tokens.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), &Record{AccessToken: "x"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_LoadAbsentReturnsNil(t *testing.T) {
	store := tempStore(t)

	rec, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store := tempStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Record{
		AccessToken:  "old",
		RefreshToken: "old-refresh",
		Extra:        map[string]json.RawMessage{"scope": json.RawMessage(`"a"`)},
	}))
	require.NoError(t, store.Save(ctx, &Record{AccessToken: "new"}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", loaded.AccessToken)
	assert.Empty(t, loaded.RefreshToken, "records are replaced, not merged")
	assert.Empty(t, loaded.Extra)
}

func TestNewFileStore_EmptyPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}
