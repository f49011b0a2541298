package codexapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/codex-meter/codex-meter/internal/credentials"
)

func oauthCreds(accountID string) credentials.Credentials {
	return credentials.Credentials{
		AccessToken: "token-1",
		AccountID:   accountID,
		OAuth:       true,
	}
}

func TestFetchUsageParsesWindows(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wham/usage" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("unexpected authorization %q", got)
		}
		if got := r.Header.Get("chatgpt-account-id"); got != "acct-1" {
			t.Errorf("unexpected account header %q", got)
		}
		_, _ = w.Write([]byte(`{
			"plan_type": "plus",
			"rate_limit": {
				"primary_window": {"used_percent": 42.5, "reset_after_seconds": 1800},
				"secondary_window": {"used_percent": 91.0, "reset_after_seconds": 86400},
				"limit_reached": false
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	snapshot, err := client.FetchUsage(context.Background(), oauthCreds("acct-1"))
	if err != nil {
		t.Fatalf("fetch usage: %v", err)
	}

	if snapshot.Plan != "plus" {
		t.Fatalf("unexpected plan %q", snapshot.Plan)
	}
	if snapshot.Primary == nil || snapshot.Primary.UsedPercent == nil || *snapshot.Primary.UsedPercent != 42.5 {
		t.Fatalf("unexpected primary window %+v", snapshot.Primary)
	}
	if snapshot.Primary.ResetAt == nil {
		t.Fatal("expected primary reset time")
	}
	until := time.Until(*snapshot.Primary.ResetAt)
	if until < 29*time.Minute || until > 31*time.Minute {
		t.Fatalf("unexpected primary reset delta %v", until)
	}
	if snapshot.Secondary == nil || *snapshot.Secondary.UsedPercent != 91.0 {
		t.Fatalf("unexpected secondary window %+v", snapshot.Secondary)
	}
	if snapshot.LimitReached {
		t.Fatal("limit should not be reached")
	}
}

func TestFetchUsageAcceptsEpochResets(t *testing.T) {
	t.Parallel()

	resetAt := time.Now().Add(2 * time.Hour).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"rate_limit": {
				"primary_window": {"used_percent": 10, "reset_at": ` + strconv.FormatInt(resetAt, 10) + `},
				"limit_reached": true
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	snapshot, err := client.FetchUsage(context.Background(), oauthCreds(""))
	if err != nil {
		t.Fatalf("fetch usage: %v", err)
	}

	if snapshot.Primary == nil || snapshot.Primary.ResetAt == nil {
		t.Fatal("expected primary reset time")
	}
	if snapshot.Primary.ResetAt.Unix() != resetAt {
		t.Fatalf("unexpected reset time %v", snapshot.Primary.ResetAt)
	}
	if snapshot.Secondary != nil {
		t.Fatalf("unexpected secondary window %+v", snapshot.Secondary)
	}
	if !snapshot.LimitReached {
		t.Fatal("expected limit reached")
	}
}

func TestFetchUsageRefusesAPIKey(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:0", time.Second)
	_, err := client.FetchUsage(context.Background(), credentials.Credentials{
		AccessToken: "sk-key",
		OAuth:       false,
	})
	if !errors.Is(err, ErrAPIKeyOnly) {
		t.Fatalf("expected ErrAPIKeyOnly, got %v", err)
	}
}

func TestFetchUsageMapsUnauthorized(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.FetchUsage(context.Background(), oauthCreds(""))
	if err == nil || !strings.Contains(err.Error(), "codex login") {
		t.Fatalf("expected login hint, got %v", err)
	}
}

func TestFetchUsageMaps5xx(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.FetchUsage(context.Background(), oauthCreds(""))
	if err == nil || !strings.Contains(err.Error(), "temporarily unavailable") {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
