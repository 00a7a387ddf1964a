package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultClientID is the public OAuth App client ID used by `token login`.
// The device flow needs no client secret.
//
// Set GITHUB_CLIENT_ID to use a different OAuth App.
const DefaultClientID = "Ov23liyPM58WU6hMeP7E"

// oauthScope covers profile reads plus follow and star mutations.
const oauthScope = "read:user user:follow public_repo"

// OAuthClient runs the OAuth device authorization flow.
type OAuthClient struct {
	config     OAuthConfig
	httpClient *http.Client
	// minInterval is the lowest polling interval honored.
	minInterval time.Duration
}

// NewOAuthClient creates a new OAuth client.
func NewOAuthClient(config OAuthConfig) *OAuthClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://github.com"
	}
	if config.ClientID == "" {
		config.ClientID = DefaultClientID
	}
	return &OAuthClient{
		config:      config,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		minInterval: 5 * time.Second,
	}
}

// DeviceCodeResponse contains the response from requesting a device code.
type DeviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// RequestDeviceCode initiates the device authorization flow.
// The user must visit the VerificationURI and enter the UserCode.
func (c *OAuthClient) RequestDeviceCode(ctx context.Context) (*DeviceCodeResponse, error) {
	var result DeviceCodeResponse
	err := c.post(ctx, "/login/device/code", url.Values{
		"client_id": {c.config.ClientID},
		"scope":     {oauthScope},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// PollForToken polls for the access token after user authorization.
// It returns the token once authorized, or an error if the code expired or
// the user denied access.
func (c *OAuthClient) PollForToken(ctx context.Context, deviceCode string, interval int) (*OAuthToken, error) {
	wait := max(time.Duration(interval)*time.Second, c.minInterval)

	ticker := time.NewTicker(wait)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			token, code, err := c.checkDeviceToken(ctx, deviceCode)
			switch code {
			case "":
				if err != nil {
					return nil, err
				}
				return token, nil
			case "authorization_pending":
				continue
			case "slow_down":
				wait += 5 * time.Second
				ticker.Reset(wait)
				continue
			default:
				return nil, err
			}
		}
	}
}

// checkDeviceToken attempts to exchange the device code for a token. The
// returned string is the OAuth error code, if any.
func (c *OAuthClient) checkDeviceToken(ctx context.Context, deviceCode string) (*OAuthToken, string, error) {
	var result struct {
		OAuthToken
		Error     string `json:"error"`
		ErrorDesc string `json:"error_description"`
	}
	err := c.post(ctx, "/login/oauth/access_token", url.Values{
		"client_id":   {c.config.ClientID},
		"device_code": {deviceCode},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
	}, &result)
	if err != nil {
		return nil, "", err
	}
	if result.Error != "" {
		return nil, result.Error, fmt.Errorf("%s: %s", result.Error, result.ErrorDesc)
	}
	tok := result.OAuthToken
	return &tok, "", nil
}

func (c *OAuthClient) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oauth endpoint returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
