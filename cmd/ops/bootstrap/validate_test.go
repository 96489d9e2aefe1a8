package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const validOWMKey = "0123456789abcdef0123456789abcdef"

func TestValidateOpenWeatherKey_Format(t *testing.T) {
	v := NewValidatorWithDeps(nil, "")

	tests := []struct {
		name  string
		key   string
		valid bool
	}{
		{"valid hex", validOWMKey, true},
		{"surrounding spaces", "  " + validOWMKey + "  ", true},
		{"empty", "", false},
		{"too short", "abc123", false},
		{"uppercase", strings.ToUpper(validOWMKey), false},
		{"non hex", strings.Repeat("z", 32), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.ValidateOpenWeatherKey(context.Background(), tt.key); got.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (%s)", got.Valid, tt.valid, got.Message)
			}
		})
	}
}

func TestValidateOpenWeatherKey_Probe(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		valid      bool
		msgContain string
	}{
		{"accepted", http.StatusOK, true, "verified"},
		{"unauthorized", http.StatusUnauthorized, false, "401"},
		{"server error", http.StatusInternalServerError, false, "HTTP 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/weather" {
					t.Errorf("path = %q, want /weather", r.URL.Path)
				}
				if r.URL.Query().Get("appid") != validOWMKey {
					t.Errorf("appid not forwarded")
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"cod":1}`))
			}))
			defer server.Close()

			v := NewValidatorWithDeps(server.Client(), server.URL+"/")
			got := v.ValidateOpenWeatherKey(context.Background(), validOWMKey)
			if got.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (%s)", got.Valid, tt.valid, got.Message)
			}
			if !strings.Contains(got.Message, tt.msgContain) {
				t.Errorf("Message = %q, want it to contain %q", got.Message, tt.msgContain)
			}
		})
	}
}

func TestValidateQueueURL(t *testing.T) {
	v := NewValidatorWithDeps(nil, "")

	tests := []struct {
		url   string
		valid bool
	}{
		{"https://sqs.us-east-1.amazonaws.com/123456789012/rain-transitions", true},
		{"https://sqs.eu-central-1.amazonaws.com/123456789012/rain.fifo", true},
		{"", false},
		{"http://sqs.us-east-1.amazonaws.com/123/q", false},
		{"https://example.com/123/q", false},
		{"https://sqs.us-east-1.amazonaws.com/123", false},
		{"https://sqs.us-east-1.amazonaws.com/123/q/extra", false},
	}
	for _, tt := range tests {
		if got := v.ValidateQueueURL(context.Background(), tt.url); got.Valid != tt.valid {
			t.Errorf("ValidateQueueURL(%q).Valid = %v, want %v (%s)", tt.url, got.Valid, tt.valid, got.Message)
		}
	}
}

func TestValidateRegex(t *testing.T) {
	v := NewValidatorWithDeps(nil, "")
	if !v.ValidateRegex(context.Background(), "abc", `^[a-z]+$`, "Field").Valid {
		t.Error("expected match")
	}
	if v.ValidateRegex(context.Background(), "ABC", `^[a-z]+$`, "Field").Valid {
		t.Error("expected mismatch")
	}
	if v.ValidateRegex(context.Background(), "abc", `(`, "Field").Valid {
		t.Error("expected invalid pattern to fail")
	}
}

func TestTruncateBody(t *testing.T) {
	if got := truncateBody([]byte("short"), 10); got != "short" {
		t.Errorf("truncateBody = %q", got)
	}
	if got := truncateBody([]byte("0123456789"), 4); got != "0123..." {
		t.Errorf("truncateBody = %q", got)
	}
}
