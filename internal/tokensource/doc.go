// Package tokensource implements the OAuth2 authorization-code + PKCE
// token lifecycle for the Kroger API.
//
// The Manager exposes a single operation, AccessToken, which returns a
// currently valid access token: a cached token is reused while it has
// more than five minutes of life left, an expired token is refreshed
// when a refresh token exists, and anything else triggers the full
// browser-based consent flow (PKCE pair, consent URL, one-shot loopback
// callback listener, code exchange).
//
// # Error taxonomy
//
// Three error types cross the package boundary:
//
//   - *ConfigError: required configuration is missing (fatal; retrying
//     cannot help)
//   - *AuthError: the provider rejected the consent or the token exchange
//   - *StorageError: the storage backend failed
//
// Refresh failures never surface; they always degrade to a fresh
// authorization flow.
package tokensource
