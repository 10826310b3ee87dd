package tokensource

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startListener(t *testing.T) *callbackListener {
	t.Helper()
	listener, err := newCallbackListener("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })
	return listener
}

func TestCallbackListener_Code(t *testing.T) {
	listener := startListener(t)

	resp, err := http.Get("http://" + listener.Addr() + "/?code=abc123&state=xyz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Authentication Successful")

	res, err := listener.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", res.code)
	assert.Equal(t, "xyz", res.state)
}

func TestCallbackListener_ProviderError(t *testing.T) {
	listener := startListener(t)

	resp, err := http.Get("http://" + listener.Addr() + "/?error=access_denied")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "access_denied")

	res, err := listener.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access_denied", res.errCode)
}

func TestCallbackListener_IgnoresUnrelatedRequests(t *testing.T) {
	listener := startListener(t)

	// A favicon probe must not terminate the wait.
	resp, err := http.Get("http://" + listener.Addr() + "/favicon.ico")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	waitCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = listener.Wait(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The real redirect still gets through afterwards.
	resp, err = http.Get("http://" + listener.Addr() + "/?code=late")
	require.NoError(t, err)
	resp.Body.Close()

	res, err := listener.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", res.code)
}
