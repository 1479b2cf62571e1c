package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"iark_app/internal/checkout"
	"iark_app/internal/config"
)

func TestTurnstileDisabledAcceptsOnlyBypass(t *testing.T) {
	v := NewTurnstileVerifier(config.TurnstileConfig{})
	if err := v.Verify(context.Background(), checkout.BypassToken, ""); err != nil {
		t.Fatalf("bypass token rejected: %v", err)
	}
	if err := v.Verify(context.Background(), "anything", ""); !errors.Is(err, ErrChallengeFailed) {
		t.Fatalf("expected ErrChallengeFailed, got %v", err)
	}
}

func TestTurnstileVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("secret") != "s3cret" {
			t.Errorf("secret not sent")
		}
		if r.PostForm.Get("response") == "good" {
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["timeout-or-duplicate"]}`))
	}))
	defer srv.Close()

	v := NewTurnstileVerifier(config.TurnstileConfig{SiteKey: "site", SecretKey: "s3cret"})
	v.verifyURL = srv.URL

	tests := []struct {
		token   string
		wantErr bool
	}{
		{token: "good", wantErr: false},
		{token: "reused", wantErr: true},
		{token: "", wantErr: true},
		{token: checkout.BypassToken, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			err := v.Verify(context.Background(), tt.token, "10.0.0.1")
			if tt.wantErr != (err != nil) {
				t.Fatalf("Verify(%q) error = %v", tt.token, err)
			}
			if err != nil && !errors.Is(err, ErrChallengeFailed) {
				t.Fatalf("expected ErrChallengeFailed, got %v", err)
			}
		})
	}
}
