package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	minBarWidth = 10
	maxBarWidth = 60
)

type Runtime struct {
	Timeout       time.Duration
	BaseURL       string
	CodexHome     string
	AuthFile      string
	AccessToken   string
	AccountID     string
	APIKey        string
	CacheTTL      time.Duration
	StateDir      string
	BarWidth      int
	WatchInterval time.Duration
}

func Load() (Runtime, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Runtime{}, fmt.Errorf("resolve home dir: %w", err)
	}

	xdgConfig := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	xdgState := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if xdgState == "" {
		xdgState = filepath.Join(home, ".local", "state")
	}

	defaultConfig := filepath.Join(xdgConfig, "codex-meter", "config.env")
	configFile := strings.TrimSpace(os.Getenv("CODEX_METER_CONFIG_FILE"))
	if configFile == "" {
		configFile = defaultConfig
	}

	// Load dotenv-style config if present so viper can consume it as
	// env-backed config.
	_ = loadEnvFile(configFile)

	v := viper.New()
	v.SetEnvPrefix("CODEX_METER")
	v.AutomaticEnv()

	_ = v.BindEnv("timeout_seconds", "CODEX_METER_TIMEOUT_SECONDS")
	_ = v.BindEnv("base_url", "CODEX_METER_BASE_URL")
	_ = v.BindEnv("codex_home", "CODEX_METER_CODEX_HOME", "CODEX_HOME")
	_ = v.BindEnv("auth_file", "CODEX_METER_AUTH_FILE")
	_ = v.BindEnv("access_token", "CODEX_METER_ACCESS_TOKEN")
	_ = v.BindEnv("account_id", "CODEX_METER_ACCOUNT_ID")
	_ = v.BindEnv("api_key", "CODEX_METER_API_KEY")
	_ = v.BindEnv("cache_ttl_seconds", "CODEX_METER_CACHE_TTL_SECONDS")
	_ = v.BindEnv("state_dir", "CODEX_METER_STATE_DIR")
	_ = v.BindEnv("bar_width", "CODEX_METER_BAR_WIDTH")
	_ = v.BindEnv("watch_interval_seconds", "CODEX_METER_WATCH_INTERVAL_SECONDS")

	v.SetDefault("timeout_seconds", 10)
	v.SetDefault("base_url", "")
	v.SetDefault("codex_home", filepath.Join(home, ".codex"))
	v.SetDefault("auth_file", "")
	v.SetDefault("access_token", "")
	v.SetDefault("account_id", "")
	v.SetDefault("api_key", "")
	v.SetDefault("cache_ttl_seconds", 60)
	v.SetDefault("state_dir", filepath.Join(xdgState, "codex-meter"))
	v.SetDefault("bar_width", 28)
	v.SetDefault("watch_interval_seconds", 300)

	timeoutSeconds := v.GetInt("timeout_seconds")
	if timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}

	cacheTTLSeconds := v.GetInt("cache_ttl_seconds")
	if cacheTTLSeconds < 0 {
		cacheTTLSeconds = 0
	}

	barWidth := v.GetInt("bar_width")
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	if barWidth > maxBarWidth {
		barWidth = maxBarWidth
	}

	watchSeconds := v.GetInt("watch_interval_seconds")
	if watchSeconds < 30 {
		watchSeconds = 30
	}

	codexHome := strings.TrimSpace(v.GetString("codex_home"))
	if codexHome == "" {
		codexHome = filepath.Join(home, ".codex")
	}

	stateDir := strings.TrimSpace(v.GetString("state_dir"))
	if stateDir == "" {
		stateDir = filepath.Join(xdgState, "codex-meter")
	}

	return Runtime{
		Timeout:       time.Duration(timeoutSeconds) * time.Second,
		BaseURL:       strings.TrimSpace(v.GetString("base_url")),
		CodexHome:     codexHome,
		AuthFile:      strings.TrimSpace(v.GetString("auth_file")),
		AccessToken:   strings.TrimSpace(v.GetString("access_token")),
		AccountID:     strings.TrimSpace(v.GetString("account_id")),
		APIKey:        strings.TrimSpace(v.GetString("api_key")),
		CacheTTL:      time.Duration(cacheTTLSeconds) * time.Second,
		StateDir:      stateDir,
		BarWidth:      barWidth,
		WatchInterval: time.Duration(watchSeconds) * time.Second,
	}, nil
}

func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open env file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		if len(value) >= 2 {
			if (value[0] == '\'' && value[len(value)-1] == '\'') ||
				(value[0] == '"' && value[len(value)-1] == '"') {
				value = value[1 : len(value)-1]
			}
		}

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, value)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan env file %s: %w", path, err)
	}
	return nil
}
