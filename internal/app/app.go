// Package app wires credential resolution, the usage fetch, the snapshot
// cache, and rendering into the one-shot command flow.
package app

import (
	"context"
	"io"
	"time"

	"github.com/codex-meter/codex-meter/internal/codexapi"
	"github.com/codex-meter/codex-meter/internal/config"
	"github.com/codex-meter/codex-meter/internal/credentials"
	"github.com/codex-meter/codex-meter/internal/domain"
	"github.com/codex-meter/codex-meter/internal/render"
	"github.com/codex-meter/codex-meter/internal/state"
)

type Mode int

const (
	ModeFancy Mode = iota
	ModePlain
	ModeJSON
)

type Options struct {
	Mode    Mode
	Refresh bool
	NoColor bool
}

func Run(ctx context.Context, cfg config.Runtime, opts Options, stdout io.Writer) error {
	store := state.NewStore(cfg.StateDir)
	now := time.Now()

	cached, _ := store.Load()
	if cached != nil && !opts.Refresh && cfg.CacheTTL > 0 && now.Sub(cached.FetchedAt) < cfg.CacheTTL {
		return emit(stdout, cfg, opts, cached.Snapshot, now, cached.FetchedAt, "")
	}

	snapshot, fetchErr := fetch(ctx, cfg)
	// Re-anchor after the network round trip so countdowns computed against
	// the response clock never land in the future of the render clock.
	now = time.Now()
	if fetchErr == nil {
		_ = store.Save(snapshot, now) // Best-effort cache persistence.
		return emit(stdout, cfg, opts, snapshot, now, now, "")
	}

	// JSON consumers get the error rather than silently stale data.
	if cached != nil && opts.Mode != ModeJSON {
		return emit(stdout, cfg, opts, cached.Snapshot, now, cached.FetchedAt, fetchErr.Error())
	}
	return fetchErr
}

func fetch(ctx context.Context, cfg config.Runtime) (domain.Snapshot, error) {
	creds, err := credentials.NewResolver(credentials.Options{
		CodexHome:   cfg.CodexHome,
		AuthFile:    cfg.AuthFile,
		AccessToken: cfg.AccessToken,
		AccountID:   cfg.AccountID,
		APIKey:      cfg.APIKey,
	}).Resolve()
	if err != nil {
		return domain.Snapshot{}, err
	}
	client := codexapi.NewClient(cfg.BaseURL, cfg.Timeout)
	return client.FetchUsage(ctx, creds)
}

func emit(stdout io.Writer, cfg config.Runtime, opts Options, snapshot domain.Snapshot, now, fetchedAt time.Time, staleNote string) error {
	switch opts.Mode {
	case ModeJSON:
		return render.JSON(stdout, snapshot)
	case ModePlain:
		render.Plain(stdout, snapshot, now, fetchedAt, staleNote)
		return nil
	default:
		styles := render.DefaultStyles()
		if opts.NoColor {
			styles = render.PlainStyles()
		}
		render.New(styles, cfg.BarWidth).Fancy(stdout, snapshot, now, fetchedAt, staleNote)
		return nil
	}
}
