package github

// Object is a decoded JSON object as returned by the API. Entity records keep
// the raw API payloads so later supplementary fetches can merge into them.
type Object = map[string]any

// User is the authenticated user, as returned by GET /user.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// OAuthConfig holds the OAuth App settings for the device flow.
type OAuthConfig struct {
	ClientID string
	// BaseURL is the web origin hosting the OAuth endpoints.
	// Defaults to https://github.com.
	BaseURL string
}

// OAuthToken is the result of a successful device flow.
type OAuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}
