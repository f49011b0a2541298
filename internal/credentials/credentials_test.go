package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CODEX_ACCESS_TOKEN", "")
	t.Setenv("CODEX_ACCOUNT_ID", "")
	t.Setenv("OPENAI_API_KEY", "")
}

type fakeKeyring map[string]string

func (f fakeKeyring) Get(service, _ string) (string, error) {
	secret, ok := f[service]
	if !ok {
		return "", errors.New("not found")
	}
	return secret, nil
}

func writeAuthFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write auth file: %v", err)
	}
	return path
}

func TestResolveEnvTokenWinsOverEverything(t *testing.T) {
	clearEnv(t)
	t.Setenv("CODEX_ACCESS_TOKEN", "  env-token  ")
	t.Setenv("CODEX_ACCOUNT_ID", "acct-1")
	t.Setenv("OPENAI_API_KEY", "sk-ignored")

	resolver := Resolver{
		AuthFiles: []string{writeAuthFile(t, `{"tokens":{"access_token":"file-token"}}`)},
	}

	creds, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if creds.AccessToken != "env-token" || creds.AccountID != "acct-1" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if !creds.OAuth {
		t.Fatal("env token should be treated as OAuth")
	}
	if creds.Source != "CODEX_ACCESS_TOKEN" {
		t.Fatalf("unexpected source %q", creds.Source)
	}
}

func TestResolveAPIKeyEnvBeatsAuthFileOAuth(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")

	path := writeAuthFile(t, `{"tokens":{"access_token":"file-token","account_id":"acct-2"}}`)
	resolver := Resolver{AuthFiles: []string{path}}

	creds, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if creds.AccessToken != "sk-env" || creds.OAuth {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if creds.Source != "OPENAI_API_KEY" {
		t.Fatalf("unexpected source %q", creds.Source)
	}
}

func TestResolveAuthFileOAuth(t *testing.T) {
	clearEnv(t)

	path := writeAuthFile(t, `{"tokens":{"access_token":"file-token","account_id":"acct-2"}}`)
	resolver := Resolver{AuthFiles: []string{path}}

	creds, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if creds.AccessToken != "file-token" || creds.AccountID != "acct-2" || !creds.OAuth {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if creds.Source != path {
		t.Fatalf("unexpected source %q", creds.Source)
	}
}

func TestResolveAPIKeyEnvIsLimitIncapable(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-only")

	resolver := Resolver{AuthFiles: []string{filepath.Join(t.TempDir(), "missing.json")}}

	creds, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if creds.AccessToken != "sk-only" || creds.OAuth {
		t.Fatalf("unexpected credentials %+v", creds)
	}
}

func TestResolveConfiguredTokenBeatsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CODEX_ACCESS_TOKEN", "env-token")

	resolver := Resolver{AccessToken: "cfg-token", AccountID: "acct-cfg"}

	creds, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if creds.AccessToken != "cfg-token" || creds.AccountID != "acct-cfg" || !creds.OAuth {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if creds.Source != "config access_token" {
		t.Fatalf("unexpected source %q", creds.Source)
	}
}

func TestResolveConfiguredAPIKey(t *testing.T) {
	clearEnv(t)

	resolver := Resolver{APIKey: "sk-cfg"}

	creds, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if creds.AccessToken != "sk-cfg" || creds.OAuth || creds.Source != "config api_key" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
}

func TestResolveSecondAuthFileLocation(t *testing.T) {
	clearEnv(t)

	primary := filepath.Join(t.TempDir(), "auth.json")
	secondary := writeAuthFile(t, `{"tokens":{"access_token":"xdg-token"}}`)

	resolver := Resolver{AuthFiles: []string{primary, secondary}}

	creds, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if creds.AccessToken != "xdg-token" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
}

func TestResolveFileAPIKeyBeatsKeyring(t *testing.T) {
	clearEnv(t)

	path := writeAuthFile(t, `{"OPENAI_API_KEY":"sk-file"}`)
	resolver := Resolver{
		AuthFiles: []string{path},
		Keyring:   fakeKeyring{"Codex": `{"tokens":{"access_token":"ring-token"}}`},
	}

	creds, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if creds.AccessToken != "sk-file" || creds.OAuth {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if creds.Source != path {
		t.Fatalf("unexpected source %q", creds.Source)
	}
}

func TestResolveKeyringAfterFiles(t *testing.T) {
	clearEnv(t)

	resolver := Resolver{
		AuthFiles: []string{filepath.Join(t.TempDir(), "missing.json")},
		Keyring:   fakeKeyring{"Codex": `{"tokens":{"access_token":"ring-token"}}`},
	}

	creds, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if creds.AccessToken != "ring-token" || !creds.OAuth {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if creds.Source != "keyring:Codex" {
		t.Fatalf("unexpected source %q", creds.Source)
	}
}

func TestResolveKeyringBareToken(t *testing.T) {
	clearEnv(t)

	resolver := Resolver{
		Keyring: fakeKeyring{"openai-codex": "  bare-token\n"},
	}

	creds, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if creds.AccessToken != "bare-token" || !creds.OAuth {
		t.Fatalf("unexpected credentials %+v", creds)
	}
}

func TestResolveNothingFound(t *testing.T) {
	clearEnv(t)

	resolver := Resolver{
		AuthFiles: []string{filepath.Join(t.TempDir(), "missing.json")},
		Keyring:   fakeKeyring{},
	}

	_, err := resolver.Resolve()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewResolverAuthFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom-auth.json")

	resolver := NewResolver(Options{AuthFile: path, CodexHome: t.TempDir()})
	if len(resolver.AuthFiles) != 1 || resolver.AuthFiles[0] != path {
		t.Fatalf("unexpected auth files %v", resolver.AuthFiles)
	}
}

func TestNewResolverWithoutHomeDir(t *testing.T) {
	t.Setenv("HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")

	resolver := NewResolver(Options{})
	if len(resolver.AuthFiles) != 0 {
		t.Fatalf("expected no file candidates without a home dir, got %v", resolver.AuthFiles)
	}

	dir := t.TempDir()
	resolver = NewResolver(Options{CodexHome: dir})
	if len(resolver.AuthFiles) != 1 || resolver.AuthFiles[0] != filepath.Join(dir, "auth.json") {
		t.Fatalf("unexpected auth files %v", resolver.AuthFiles)
	}
}

func TestParseAuthJSONPrefersOAuthOverAPIKey(t *testing.T) {
	creds, err := parseAuthJSON([]byte(`{"tokens":{"access_token":"tok"},"OPENAI_API_KEY":"sk-x"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if creds.AccessToken != "tok" || !creds.OAuth {
		t.Fatalf("unexpected credentials %+v", creds)
	}
}

func TestParseAuthJSONEmpty(t *testing.T) {
	if _, err := parseAuthJSON([]byte(`{"tokens":{"access_token":""}}`)); err == nil {
		t.Fatal("expected error for empty token")
	}
}
