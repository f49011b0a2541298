// Package codexapi fetches usage limits from the Codex backend.
package codexapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codex-meter/codex-meter/internal/credentials"
	"github.com/codex-meter/codex-meter/internal/domain"
	"github.com/codex-meter/codex-meter/internal/httpx"
)

const (
	DefaultBaseURL = "https://chatgpt.com/backend-api"
	usagePath      = "/wham/usage"
	userAgent      = "codex-meter/1.0"
)

// ErrAPIKeyOnly is returned before any network call when the resolved
// credential is a bare API key. The usage endpoint only answers to OAuth
// session tokens.
var ErrAPIKeyOnly = errors.New("usage limits require an OAuth session token; an API key is not enough. Log in with `codex login`")

type Client struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return Client{BaseURL: strings.TrimRight(baseURL, "/"), Timeout: timeout}
}

// Wire types. All fields are optional; the schema has shifted before and the
// client parses leniently.
type usageResponse struct {
	PlanType  string         `json:"plan_type"`
	RateLimit *rateLimitBody `json:"rate_limit"`
}

type rateLimitBody struct {
	PrimaryWindow   *windowBody `json:"primary_window"`
	SecondaryWindow *windowBody `json:"secondary_window"`
	LimitReached    *bool       `json:"limit_reached"`
}

type windowBody struct {
	UsedPercent       *float64 `json:"used_percent"`
	ResetAfterSeconds *int64   `json:"reset_after_seconds"`
	ResetAt           *int64   `json:"reset_at"`
}

// FetchUsage issues the single authenticated GET and normalizes the payload.
func (c Client) FetchUsage(ctx context.Context, creds credentials.Credentials) (domain.Snapshot, error) {
	if !creds.OAuth {
		return domain.Snapshot{}, ErrAPIKeyOnly
	}

	headers := map[string]string{
		"Authorization": "Bearer " + strings.TrimSpace(creds.AccessToken),
		"Accept":        "application/json",
		"Content-Type":  "application/json",
		"User-Agent":    userAgent,
	}
	if accountID := strings.TrimSpace(creds.AccountID); accountID != "" {
		headers["chatgpt-account-id"] = accountID
	}

	usage, err := httpx.GetJSON[usageResponse](ctx, c.BaseURL+usagePath, headers, c.Timeout)
	if err != nil {
		if httpx.IsStatus(err, 401) || httpx.IsStatus(err, 403) {
			return domain.Snapshot{}, fmt.Errorf("token expired or unauthorised (%w); try `codex logout && codex login`", err)
		}
		if httpx.Is5xx(err) {
			return domain.Snapshot{}, fmt.Errorf("usage api temporarily unavailable: %w", err)
		}
		return domain.Snapshot{}, err
	}

	return toSnapshot(usage, time.Now().UTC()), nil
}

func toSnapshot(usage usageResponse, now time.Time) domain.Snapshot {
	snapshot := domain.Snapshot{Plan: strings.TrimSpace(usage.PlanType)}
	if usage.RateLimit == nil {
		return snapshot
	}

	snapshot.Primary = toWindow(usage.RateLimit.PrimaryWindow, now)
	snapshot.Secondary = toWindow(usage.RateLimit.SecondaryWindow, now)
	if usage.RateLimit.LimitReached != nil {
		snapshot.LimitReached = *usage.RateLimit.LimitReached
	}
	return snapshot
}

func toWindow(body *windowBody, now time.Time) *domain.Window {
	if body == nil {
		return nil
	}
	window := &domain.Window{
		ResetAt: domain.ResetTime(now, body.ResetAfterSeconds, body.ResetAt),
	}
	if body.UsedPercent != nil {
		window.UsedPercent = domain.Float64Ptr(*body.UsedPercent)
	}
	return window
}
