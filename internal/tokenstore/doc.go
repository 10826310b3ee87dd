// Package tokenstore provides persistent storage abstractions for OAuth token records.
//
// Supports two storage backends with different security tradeoffs:
//   - File: Local JSON file with atomic writes and owner-only permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//
// Detect selects a backend from a user preference, probing the host keyring
// for availability and falling back to file storage when no usable keyring
// backend exists.
package tokenstore
