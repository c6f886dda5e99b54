package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/communique/acebot/internal/log"
)

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("article body"))
	}))
	defer srv.Close()

	f := New(5*time.Second, log.NewNop())
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "article body" {
		t.Errorf("body = %q, want %q", body, "article body")
	}
}

func TestFetchSetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	f := New(5*time.Second, log.NewNop())
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotUA != userAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, userAgent)
	}
}

func TestFetchHTTPStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
	}{
		{"not found", http.StatusNotFound, false},
		{"forbidden", http.StatusForbidden, false},
		{"server error", http.StatusInternalServerError, true},
		{"bad gateway", http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			f := New(5*time.Second, log.NewNop())
			_, err := f.Fetch(context.Background(), srv.URL)
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsStatus(err, tt.status) {
				t.Errorf("IsStatus(err, %d) = false; err = %v", tt.status, err)
			}
			var fe *Error
			if !errors.As(err, &fe) {
				t.Fatalf("error is not *Error: %v", err)
			}
			if fe.Retryable() != tt.wantRetryable {
				t.Errorf("Retryable() = %v, want %v", fe.Retryable(), tt.wantRetryable)
			}
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	f := New(50*time.Millisecond, log.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("IsTimeout = false; err = %v", err)
	}
	var fe *Error
	if errors.As(err, &fe) && !fe.Retryable() {
		t.Error("timeout should be retryable")
	}
}

func TestFetchNetworkError(t *testing.T) {
	f := New(time.Second, log.NewNop())
	// Reserved TEST-NET-1 address: connection must fail.
	_, err := f.Fetch(context.Background(), "http://192.0.2.1:9/")
	if err == nil {
		t.Fatal("expected network error")
	}
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error is not *Error: %v", err)
	}
	if fe.Kind != KindNetwork && fe.Kind != KindTimeout {
		t.Errorf("Kind = %v, want network or timeout", fe.Kind)
	}
	if !fe.Retryable() {
		t.Error("network error should be retryable")
	}
}
