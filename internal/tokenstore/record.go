package tokenstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is a stored OAuth token set. ExpiresAt is always an absolute
// timestamp computed by the token manager; the provider's relative
// expires_in value is never stored directly. Extra carries any
// provider-specific response fields verbatim so they survive a
// save/load round trip.
type Record struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Extra        map[string]json.RawMessage
}

// Reserved field names handled by Record itself; everything else in a
// token response lands in Extra.
var recordFields = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"expires_at":    true,
}

// MarshalJSON emits the known fields alongside the provider extras.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Extra)+3)
	for k, v := range r.Extra {
		if recordFields[k] {
			continue
		}
		out[k] = v
	}

	accessToken, err := json.Marshal(r.AccessToken)
	if err != nil {
		return nil, err
	}
	out["access_token"] = accessToken

	if r.RefreshToken != "" {
		refreshToken, err := json.Marshal(r.RefreshToken)
		if err != nil {
			return nil, err
		}
		out["refresh_token"] = refreshToken
	}

	if !r.ExpiresAt.IsZero() {
		expiresAt, err := json.Marshal(r.ExpiresAt.Format(time.RFC3339))
		if err != nil {
			return nil, err
		}
		out["expires_at"] = expiresAt
	}

	return json.Marshal(out)
}

// UnmarshalJSON restores the known fields and captures everything else
// into Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["access_token"]; ok {
		if err := json.Unmarshal(v, &r.AccessToken); err != nil {
			return fmt.Errorf("invalid access_token: %w", err)
		}
	}
	if v, ok := raw["refresh_token"]; ok {
		if err := json.Unmarshal(v, &r.RefreshToken); err != nil {
			return fmt.Errorf("invalid refresh_token: %w", err)
		}
	}
	if v, ok := raw["expires_at"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("invalid expires_at: %w", err)
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid expires_at: %w", err)
		}
		r.ExpiresAt = t
	}

	for k, v := range raw {
		if recordFields[k] {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[k] = v
	}

	return nil
}
