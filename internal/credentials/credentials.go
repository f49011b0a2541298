// Package credentials locates an existing Codex login without ever writing
// one back. Sources are tried in a fixed priority order: env var overrides,
// the auth.json locations the Codex CLI uses, then the platform secret store.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("no codex credentials found")

// Credentials is a resolved token plus enough context to use it. OAuth
// distinguishes a session token (required by the usage endpoint) from a bare
// API key, which identifies the caller but cannot read usage limits.
type Credentials struct {
	AccessToken string
	AccountID   string
	OAuth       bool
	Source      string
}

// Options carries configured overrides into the resolver. The zero value
// yields the default file locations and keyring.
type Options struct {
	CodexHome   string
	AuthFile    string
	AccessToken string
	AccountID   string
	APIKey      string
}

// Resolver walks the candidate sources. The zero value is not useful; build
// one with NewResolver so the default file locations and keyring are wired.
type Resolver struct {
	AuthFiles   []string
	Keyring     SecretReader
	AccessToken string
	AccountID   string
	APIKey      string
}

func NewResolver(opts Options) Resolver {
	resolver := Resolver{
		Keyring:     systemKeyring{},
		AccessToken: strings.TrimSpace(opts.AccessToken),
		AccountID:   strings.TrimSpace(opts.AccountID),
		APIKey:      strings.TrimSpace(opts.APIKey),
	}

	if authFile := strings.TrimSpace(opts.AuthFile); authFile != "" {
		resolver.AuthFiles = []string{authFile}
		return resolver
	}

	// When the home dir cannot be resolved, only explicitly configured
	// locations are probed; never fall back to relative paths.
	home, homeErr := os.UserHomeDir()

	codexHome := strings.TrimSpace(opts.CodexHome)
	if codexHome == "" && homeErr == nil {
		codexHome = filepath.Join(home, ".codex")
	}
	if codexHome != "" {
		resolver.AuthFiles = append(resolver.AuthFiles, filepath.Join(codexHome, "auth.json"))
	}

	xdgConfig := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if xdgConfig == "" && homeErr == nil {
		xdgConfig = filepath.Join(home, ".config")
	}
	if xdgConfig != "" {
		resolver.AuthFiles = append(resolver.AuthFiles, filepath.Join(xdgConfig, "codex", "auth.json"))
	}

	return resolver
}

// Resolve returns the first usable credential in strict priority order:
// configured token, CODEX_ACCESS_TOKEN, configured API key, OPENAI_API_KEY,
// the auth.json candidates, then the system keyring. A higher-priority API
// key wins even when a later source holds an OAuth token; only within a
// single auth.json does the OAuth block outrank a stored key.
func (r Resolver) Resolve() (Credentials, error) {
	token, source := r.AccessToken, "config access_token"
	if token == "" {
		token, source = strings.TrimSpace(os.Getenv("CODEX_ACCESS_TOKEN")), "CODEX_ACCESS_TOKEN"
	}
	if token != "" {
		accountID := r.AccountID
		if accountID == "" {
			accountID = strings.TrimSpace(os.Getenv("CODEX_ACCOUNT_ID"))
		}
		return Credentials{AccessToken: token, AccountID: accountID, OAuth: true, Source: source}, nil
	}

	key, source := r.APIKey, "config api_key"
	if key == "" {
		key, source = strings.TrimSpace(os.Getenv("OPENAI_API_KEY")), "OPENAI_API_KEY"
	}
	if key != "" {
		return Credentials{AccessToken: key, Source: source}, nil
	}

	for _, path := range r.AuthFiles {
		if creds, err := readAuthFile(path); err == nil {
			return creds, nil
		}
	}

	if r.Keyring != nil {
		if creds, err := readKeyring(r.Keyring); err == nil {
			return creds, nil
		}
	}

	tried := "CODEX_ACCESS_TOKEN and OPENAI_API_KEY env vars"
	if len(r.AuthFiles) > 0 {
		tried += ", " + strings.Join(r.AuthFiles, ", ")
	}
	return Credentials{}, fmt.Errorf("%w; tried %s, and the system keyring. Log in with `codex login` or set OPENAI_API_KEY",
		ErrNotFound, tried)
}

// authFile mirrors the auth.json schema written by the Codex CLI.
type authFile struct {
	Tokens *struct {
		AccessToken string `json:"access_token"`
		AccountID   string `json:"account_id"`
	} `json:"tokens"`
	OpenAIAPIKey string `json:"OPENAI_API_KEY"`
}

func readAuthFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read %s: %w", path, err)
	}
	creds, err := parseAuthJSON(data)
	if err != nil {
		return Credentials{}, fmt.Errorf("parse %s: %w", path, err)
	}
	creds.Source = path
	return creds, nil
}

// parseAuthJSON extracts a credential from an auth.json blob, preferring the
// OAuth token block over a stored API key.
func parseAuthJSON(data []byte) (Credentials, error) {
	var auth authFile
	if err := json.Unmarshal(data, &auth); err != nil {
		return Credentials{}, err
	}

	if auth.Tokens != nil {
		if token := strings.TrimSpace(auth.Tokens.AccessToken); token != "" {
			return Credentials{
				AccessToken: token,
				AccountID:   strings.TrimSpace(auth.Tokens.AccountID),
				OAuth:       true,
			}, nil
		}
	}
	if key := strings.TrimSpace(auth.OpenAIAPIKey); key != "" {
		return Credentials{AccessToken: key}, nil
	}
	return Credentials{}, errors.New("no usable token in auth.json")
}
