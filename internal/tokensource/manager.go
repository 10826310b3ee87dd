package tokensource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"krogercart/internal/tokenstore"
)

const (
	// A token expiring within the buffer is treated as already expired,
	// so API calls never start with a token about to lapse mid-flight.
	expiryBuffer = 5 * time.Minute

	// Lifetime assumed when the provider omits expires_in.
	defaultTokenLifetime = 1800 * time.Second

	// DefaultListenAddr is the loopback address the callback listener
	// binds during the browser consent flow. It must agree with the
	// redirect URI registered for the client.
	DefaultListenAddr = "127.0.0.1:3000"
)

// Config holds the static configuration for a Manager.
type Config struct {
	ClientID     string
	ClientSecret string // optional; public clients rely on PKCE alone
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	Scopes       []string
	ListenAddr   string // callback listener address, DefaultListenAddr if empty
}

// AuthorizeFunc obtains an authorization code for the given consent URL.
// The default implementation opens the URL in a browser and waits on the
// callback listener; alternatives prompt the user to paste the code.
type AuthorizeFunc func(ctx context.Context, consentURL string) (string, error)

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the HTTP client used for token endpoint requests.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		m.client = client
	}
}

// WithAuthorize replaces the browser-based authorization step.
func WithAuthorize(fn AuthorizeFunc) Option {
	return func(m *Manager) {
		m.authorize = fn
	}
}

// Manager produces a valid access token on demand, refreshing or
// re-authenticating as needed and persisting every acquired token record.
// It exclusively owns its storage backend; concurrent managers sharing
// one backend are not supported.
type Manager struct {
	cfg       Config
	store     tokenstore.Store
	client    *http.Client
	authorize AuthorizeFunc

	// test seams
	openBrowser func(url string) error
	now         func() time.Time
}

// New creates a Manager over the given storage backend.
func New(cfg Config, store tokenstore.Store, opts ...Option) *Manager {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	m := &Manager{
		cfg:         cfg,
		store:       store,
		client:      &http.Client{Timeout: 30 * time.Second},
		openBrowser: openBrowser,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// AccessToken returns a currently valid access token.
//
// A cached token outside the expiry buffer is returned immediately. An
// expired record with a refresh token is refreshed; refresh failures are
// never fatal and degrade to the full authorization flow. Storage errors
// propagate immediately. The returned error is one of *ConfigError,
// *AuthError or *StorageError (or a context error).
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	rec, err := m.store.Load(ctx)
	if err != nil {
		return "", &StorageError{Op: "load", Err: err}
	}

	if rec != nil && !m.expired(rec) {
		slog.DebugContext(ctx, "using cached access token")
		return rec.AccessToken, nil
	}

	if rec != nil && rec.RefreshToken != "" {
		refreshed, err := m.refresh(ctx, rec.RefreshToken)
		if err == nil {
			return refreshed.AccessToken, nil
		}
		var storageErr *StorageError
		if errors.As(err, &storageErr) {
			return "", err
		}
		slog.WarnContext(ctx, "token refresh failed, starting new authorization flow", "error", err)
	}

	return m.authenticate(ctx)
}

// expired reports whether the record's access token is unusable,
// applying the safety buffer.
func (m *Manager) expired(rec *tokenstore.Record) bool {
	if rec.ExpiresAt.IsZero() {
		return true
	}
	return !m.now().Before(rec.ExpiresAt.Add(-expiryBuffer))
}

// refresh trades a refresh token for a new record and persists it.
func (m *Manager) refresh(ctx context.Context, refreshToken string) (*tokenstore.Record, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	rec, err := m.tokenRequest(ctx, form)
	if err != nil {
		return nil, err
	}
	if err := m.save(ctx, rec); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "access token refreshed")
	return rec, nil
}

// authenticate runs the full authorization-code + PKCE browser flow.
func (m *Manager) authenticate(ctx context.Context) (string, error) {
	if m.cfg.ClientID == "" {
		return "", &ConfigError{Reason: "client ID is not set (set kroger.client_id or KROGER_KROGER__CLIENT_ID)"}
	}

	pkce, err := GeneratePKCE()
	if err != nil {
		return "", err
	}
	state := uuid.NewString()

	oauthCfg := &oauth2.Config{
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		RedirectURL:  m.cfg.RedirectURL,
		Scopes:       m.cfg.Scopes,
		Endpoint:     m.cfg.Endpoint,
	}
	consentURL := oauthCfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pkce.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	var code string
	if m.authorize != nil {
		code, err = m.authorize(ctx, consentURL)
	} else {
		code, err = m.browserAuthorize(ctx, consentURL, state)
	}
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", &AuthError{Reason: "authorization flow failed", Err: err}
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {m.cfg.RedirectURL},
		"code_verifier": {pkce.Verifier},
	}
	rec, err := m.tokenRequest(ctx, form)
	if err != nil {
		return "", &AuthError{Reason: "token exchange failed", Err: err}
	}
	if err := m.save(ctx, rec); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "authentication successful")
	return rec.AccessToken, nil
}

// browserAuthorize binds the callback listener, sends the user to the
// consent page and blocks until the redirect arrives. The wait is
// bounded only by user action or ctx cancellation.
func (m *Manager) browserAuthorize(ctx context.Context, consentURL, state string) (string, error) {
	listener, err := newCallbackListener(m.cfg.ListenAddr)
	if err != nil {
		return "", err
	}
	defer func() { _ = listener.Close() }()

	slog.InfoContext(ctx, "opening browser for authentication",
		"url", consentURL)
	if err := m.openBrowser(consentURL); err != nil {
		slog.WarnContext(ctx, "could not open browser, visit the URL manually",
			"error", err, "url", consentURL)
	}

	slog.InfoContext(ctx, "waiting for authorization callback", "listen", listener.Addr())
	res, err := listener.Wait(ctx)
	if err != nil {
		return "", err
	}
	if res.errCode != "" {
		return "", &AuthError{Reason: "provider returned error: " + res.errCode}
	}
	if res.state != state {
		return "", &AuthError{Reason: "state mismatch in authorization callback"}
	}

	return res.code, nil
}

// tokenRequest POSTs a form-encoded request to the token endpoint and
// builds a record from the response.
func (m *Manager) tokenRequest(ctx context.Context, form url.Values) (*tokenstore.Record, error) {
	form.Set("client_id", m.cfg.ClientID)
	if m.cfg.ClientSecret != "" {
		form.Set("client_secret", m.cfg.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	now := m.now()
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return recordFromResponse(body, now)
}

// recordFromResponse decodes a token response, computing the absolute
// expiry from the provider's relative lifetime. Provider-specific fields
// are carried through verbatim.
func recordFromResponse(body []byte, now time.Time) (*tokenstore.Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	rec := &tokenstore.Record{}
	if v, ok := raw["access_token"]; ok {
		if err := json.Unmarshal(v, &rec.AccessToken); err != nil {
			return nil, fmt.Errorf("invalid access_token in response: %w", err)
		}
	}
	if rec.AccessToken == "" {
		return nil, errors.New("token response missing access_token")
	}
	if v, ok := raw["refresh_token"]; ok {
		if err := json.Unmarshal(v, &rec.RefreshToken); err != nil {
			return nil, fmt.Errorf("invalid refresh_token in response: %w", err)
		}
	}

	lifetime := defaultTokenLifetime
	if v, ok := raw["expires_in"]; ok {
		var seconds int64
		if err := json.Unmarshal(v, &seconds); err == nil && seconds > 0 {
			lifetime = time.Duration(seconds) * time.Second
		}
	}
	rec.ExpiresAt = now.Add(lifetime)

	for k, v := range raw {
		if k == "access_token" || k == "refresh_token" || k == "expires_in" {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]json.RawMessage)
		}
		rec.Extra[k] = v
	}

	return rec, nil
}

func (m *Manager) save(ctx context.Context, rec *tokenstore.Record) error {
	if err := m.store.Save(ctx, rec); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}
