package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mithrel/inkpad/pkg/api"
)

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
// This centralizes default values and descriptions in one place.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < .env < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// Configure Viper search paths. If SetConfigFile was provided upstream,
	// it takes precedence; these paths are harmless fallbacks.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "inkpad"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "inkpad"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// .env never overrides variables already present in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	// Environment variables: INKPAD_* (highest among these sources)
	v.SetEnvPrefix("inkpad")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.GetString("data_dir") == "" {
		v.Set("data_dir", defaultDataDir())
	}
	return nil
}

// defaultDataDir resolves default data dir: $XDG_DATA_HOME/inkpad or ~/.local/share/inkpad
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "inkpad")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "inkpad")
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "inkpad", "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; the default store is data_dir/inkpad.db"},
		{Key: "store_url", Default: "", Comment: "Durable store: empty (sqlite in data_dir), mem://, sqlite://path, redis://host/db, postgres://..."},
		{Key: "http_addr", Default: "127.0.0.1:7466", Comment: "Listen address for inkpad serve"},
		{Key: "auth.token", Default: "", Comment: "Bearer token required on /v1 routes when set"},

		{Key: "theme.default", Default: string(api.ThemeLight), Comment: "Theme used until one is saved: light or dark"},
		{Key: "history.max_entries", Default: 100, Comment: "Undo snapshots kept per active document"},
		{Key: "autosave.quiet_period", Default: 1500 * time.Millisecond, Comment: "Pause after typing before history is recorded and the saved indicator shows"},
		{Key: "autosave.indicator_for", Default: 1200 * time.Millisecond, Comment: "How long the saved indicator stays visible"},
		{Key: "notify.dismiss_after", Default: 2500 * time.Millisecond, Comment: "Auto-dismiss delay for notices"},
		{Key: "share.base_url", Default: "http://127.0.0.1:7466/", Comment: "Base URL for share links"},
		{Key: "share.param", Default: "md", Comment: "Query parameter carrying the shared document"},
		{Key: "render.wrap", Default: 80, Comment: "Terminal preview wrap width"},
		{Key: "export.dir", Default: ".", Comment: "Directory exports are written to"},
		{Key: "log.level", Default: "info", Comment: "debug, info, warn, error or off"},
		{Key: "log.file", Default: "", Comment: "Log file path; empty logs to stderr"},
	}
}

// ResolveStoreURL returns store_url, or the sqlite file in data_dir when unset.
func ResolveStoreURL(v *viper.Viper) string {
	if u := strings.TrimSpace(v.GetString("store_url")); u != "" {
		return u
	}
	return "sqlite://" + ResolveDBPath(v)
}

// ResolveDBPath returns the default sqlite DB file path under data_dir.
func ResolveDBPath(v *viper.Viper) string {
	dir := v.GetString("data_dir")
	if dir == "" {
		dir = defaultDataDir()
	}
	// Expand ~ for convenience
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}
	return filepath.Join(dir, "inkpad.db")
}

// CheckConfigValidity reports every invalid option at once.
func CheckConfigValidity(v *viper.Viper) error {
	var errs []error
	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if s := v.GetString("store_url"); s != "" && strings.Contains(s, "://") {
		if _, err := url.Parse(s); err != nil {
			errs = append(errs, fmt.Errorf("store_url is not a url: %v", err))
		}
	}
	if _, ok := api.ParseTheme(v.GetString("theme.default")); !ok {
		errs = append(errs, fmt.Errorf("theme.default must be light or dark, got %q", v.GetString("theme.default")))
	}
	if v.GetInt("history.max_entries") <= 0 {
		errs = append(errs, errors.New("history.max_entries must be greater than 0"))
	}
	for _, k := range []string{"autosave.quiet_period", "autosave.indicator_for", "notify.dismiss_after"} {
		if v.GetDuration(k) <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration", k))
		}
	}
	if u, err := url.Parse(v.GetString("share.base_url")); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.New("share.base_url must be an absolute url"))
	}
	if strings.TrimSpace(v.GetString("share.param")) == "" {
		errs = append(errs, errors.New("share.param is required"))
	}
	if v.GetInt("render.wrap") < 20 {
		errs = append(errs, errors.New("render.wrap must be at least 20"))
	}
	switch strings.ToLower(v.GetString("log.level")) {
	case "debug", "info", "warn", "error", "off":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error, off", v.GetString("log.level")))
	}
	return errors.Join(errs...)
}
