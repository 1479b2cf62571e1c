package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"iark_app/internal/config"
)

func TestNormalizeChatID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "phone number without country code",
			input:    "081246361829",
			expected: "6281246361829@c.us",
		},
		{
			name:     "phone number with country code",
			input:    "6281246361829",
			expected: "6281246361829@c.us",
		},
		{
			name:     "group id",
			input:    "120363407813232111@g.us",
			expected: "120363407813232111@g.us",
		},
		{
			name:     "phone number without country code, with suffix",
			input:    "081246361829@c.us",
			expected: "6281246361829@c.us",
		},
		{
			name:     "formatted international number",
			input:    "+62 812-4636-1829",
			expected: "6281246361829@c.us",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeChatID(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeChatID(%q) = %q; want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestWahaSendMessage(t *testing.T) {
	var paths []string
	var text map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		if r.URL.Path == "/api/sendText" {
			_ = json.NewDecoder(r.Body).Decode(&text)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewWahaService(config.WahaConfig{BaseURL: srv.URL, APIKey: "secret", Session: "iark"})
	s.pause = func(context.Context, time.Duration) error { return nil }

	if err := s.SendMessage(context.Background(), "0812345", "Terima kasih"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	want := []string{"/api/sendSeen", "/api/startTyping", "/api/stopTyping", "/api/sendText"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %v; want %v", paths, want)
	}
	if text["chatId"] != "62812345@c.us" || text["text"] != "Terima kasih" || text["session"] != "iark" {
		t.Fatalf("unexpected sendText payload %v", text)
	}
}

func TestWahaSendMessageStopsOnError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "session not started", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	s := NewWahaService(config.WahaConfig{BaseURL: srv.URL})
	s.pause = func(context.Context, time.Duration) error { return nil }

	if err := s.SendMessage(context.Background(), "0812", "x"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected to stop after first failure, got %d calls", calls)
	}
}
