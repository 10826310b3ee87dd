package tokensource

// ConfigError indicates missing required configuration. It cannot be
// resolved by retrying; the user must fix the configuration first.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// AuthError indicates that the authorization flow failed: the provider
// reported an error during the consent redirect, or the token exchange
// was rejected.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	msg := "authentication failed: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// StorageError indicates a token storage failure. There is no local
// recovery; it propagates to the caller immediately.
type StorageError struct {
	Op  string // "load" or "save"
	Err error
}

func (e *StorageError) Error() string {
	return "token storage " + e.Op + " failed: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
