package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestOAuthDeviceFlow(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.Form.Get("client_id") != "cid" {
			t.Errorf("client_id = %q", r.Form.Get("client_id"))
		}
		switch r.URL.Path {
		case "/login/device/code":
			w.Write([]byte(`{"device_code":"dc","user_code":"ABCD-1234","verification_uri":"https://example.com/device","expires_in":900,"interval":0}`))
		case "/login/oauth/access_token":
			if polls.Add(1) < 3 {
				w.Write([]byte(`{"error":"authorization_pending"}`))
				return
			}
			w.Write([]byte(`{"access_token":"gho_x","token_type":"bearer","scope":"read:user"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewOAuthClient(OAuthConfig{ClientID: "cid", BaseURL: server.URL})
	c.minInterval = time.Millisecond

	ctx := context.Background()
	code, err := c.RequestDeviceCode(ctx)
	if err != nil {
		t.Fatalf("RequestDeviceCode() error: %v", err)
	}
	if code.UserCode != "ABCD-1234" {
		t.Errorf("UserCode = %q", code.UserCode)
	}

	tok, err := c.PollForToken(ctx, code.DeviceCode, code.Interval)
	if err != nil {
		t.Fatalf("PollForToken() error: %v", err)
	}
	if tok.AccessToken != "gho_x" {
		t.Errorf("AccessToken = %q", tok.AccessToken)
	}
	if polls.Load() != 3 {
		t.Errorf("polls = %d, want 3", polls.Load())
	}
}

func TestOAuthDeviceFlowDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"access_denied","error_description":"The user denied the request"}`))
	}))
	defer server.Close()

	c := NewOAuthClient(OAuthConfig{ClientID: "cid", BaseURL: server.URL})
	c.minInterval = time.Millisecond

	if _, err := c.PollForToken(context.Background(), "dc", 0); err == nil {
		t.Fatal("expected error for denied authorization")
	}
}

func TestOAuthDefaults(t *testing.T) {
	c := NewOAuthClient(OAuthConfig{})
	if c.config.ClientID != DefaultClientID {
		t.Errorf("ClientID = %q", c.config.ClientID)
	}
	if c.config.BaseURL != "https://github.com" {
		t.Errorf("BaseURL = %q", c.config.BaseURL)
	}
}
