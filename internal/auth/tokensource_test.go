package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestPersistingTokenSourceValidToken(t *testing.T) {
	store := &memoryStore{}
	cred := &Credential{
		AccessToken:  "valid",
		RefreshToken: "r",
		TokenURI:     "http://127.0.0.1:1/unused",
		Expiry:       time.Now().Add(time.Hour),
	}

	src := NewPersistingTokenSource(context.Background(), cred, store, discardLogger())
	tok, err := src.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "valid" {
		t.Errorf("AccessToken = %q, want valid", tok.AccessToken)
	}
	if store.saves != 0 {
		t.Errorf("saves = %d, want 0", store.saves)
	}
}

func TestPersistingTokenSourcePersistsRefresh(t *testing.T) {
	server, _ := newTokenServer(t, http.StatusOK,
		`{"access_token":"refreshed","token_type":"Bearer","expires_in":3600}`)

	store := &memoryStore{}
	cred := &Credential{
		AccessToken:  "expired",
		RefreshToken: "keep",
		TokenURI:     server.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Expiry:       time.Now().Add(-time.Hour),
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, server.Client())
	src := NewPersistingTokenSource(ctx, cred, store, discardLogger())

	tok, err := src.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "refreshed" {
		t.Errorf("AccessToken = %q, want refreshed", tok.AccessToken)
	}
	if store.saves != 1 {
		t.Fatalf("saves = %d, want 1", store.saves)
	}
	if store.cred.AccessToken != "refreshed" || store.cred.RefreshToken != "keep" {
		t.Errorf("persisted = %+v", store.cred)
	}
	if src.Credential().AccessToken != "refreshed" {
		t.Errorf("Credential().AccessToken = %q, want refreshed", src.Credential().AccessToken)
	}

	// The cached token is now valid; no second write.
	if _, err := src.Token(); err != nil {
		t.Fatalf("second Token() error = %v", err)
	}
	if store.saves != 1 {
		t.Errorf("saves after second call = %d, want 1", store.saves)
	}
}

func TestPersistingTokenSourceSaveFailure(t *testing.T) {
	server, _ := newTokenServer(t, http.StatusOK,
		`{"access_token":"refreshed","token_type":"Bearer","expires_in":3600}`)

	store := &memoryStore{saveErr: errors.New("read-only")}
	cred := &Credential{
		AccessToken:  "expired",
		RefreshToken: "r",
		TokenURI:     server.URL,
		Expiry:       time.Now().Add(-time.Hour),
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, server.Client())
	tok, err := NewPersistingTokenSource(ctx, cred, store, discardLogger()).Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "refreshed" {
		t.Errorf("AccessToken = %q, want refreshed", tok.AccessToken)
	}
}
