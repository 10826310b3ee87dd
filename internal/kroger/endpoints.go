package kroger

import "golang.org/x/oauth2"

// Environment selects between Kroger's production and certification
// (sandbox) API deployments. The choice affects both the REST base URL
// and the OAuth endpoints.
type Environment string

const (
	EnvironmentProd Environment = "PROD"
	EnvironmentCert Environment = "CERT"
)

// Scopes required for product search and cart modification.
var Scopes = []string{"product.compact", "cart.basic:write", "profile.compact"}

func (e Environment) host() string {
	if e == EnvironmentCert {
		return "api-ce.kroger.com"
	}
	return "api.kroger.com"
}

// BaseURL returns the REST API base for the environment.
func (e Environment) BaseURL() string {
	return "https://" + e.host() + "/v1"
}

// OAuthEndpoint returns the authorization and token endpoints for the
// environment.
func (e Environment) OAuthEndpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  "https://" + e.host() + "/v1/connect/oauth2/authorize",
		TokenURL: "https://" + e.host() + "/v1/connect/oauth2/token",
	}
}
