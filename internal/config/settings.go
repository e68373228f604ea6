package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	General      GeneralSettings      `json:"general" mapstructure:"general"`
	Store        StoreSettings        `json:"store" mapstructure:"store"`
	Transmission TransmissionSettings `json:"transmission" mapstructure:"transmission"`
	Native       NativeSettings       `json:"native" mapstructure:"native"`
	Watch        WatchSettings        `json:"watch" mapstructure:"watch"`
	Server       ServerSettings       `json:"server" mapstructure:"server"`
}

// GeneralSettings contains application behavior settings.
type GeneralSettings struct {
	Downloader        string `json:"downloader" mapstructure:"downloader"`
	Theme             int    `json:"theme" mapstructure:"theme"`
	LogRetentionCount int    `json:"log_retention_count" mapstructure:"log_retention_count"`
}

const (
	ThemeAdaptive = 0
	ThemeLight    = 1
	ThemeDark     = 2
)

// StoreSettings selects where download records are persisted.
type StoreSettings struct {
	Backend string `json:"backend" mapstructure:"backend"`
	Path    string `json:"path" mapstructure:"path"`
}

// TransmissionSettings locates a Transmission RPC endpoint.
type TransmissionSettings struct {
	Host     string        `json:"host" mapstructure:"host"`
	Port     int           `json:"port" mapstructure:"port"`
	Path     string        `json:"path" mapstructure:"path"`
	User     string        `json:"user" mapstructure:"user"`
	Password string        `json:"password" mapstructure:"password"`
	TLS      bool          `json:"tls" mapstructure:"tls"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NativeSettings configures the embedded BitTorrent client.
type NativeSettings struct {
	DataDir    string `json:"data_dir" mapstructure:"data_dir"`
	ListenPort int    `json:"listen_port" mapstructure:"listen_port"`
	Seed       bool   `json:"seed" mapstructure:"seed"`
}

// WatchSettings controls periodic reconciliation.
type WatchSettings struct {
	Interval time.Duration `json:"interval" mapstructure:"interval"`
}

// ServerSettings configures the JSON API.
type ServerSettings struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// SettingMeta provides metadata for a single setting (for UI rendering).
type SettingMeta struct {
	Key         string // dotted key, also the env suffix
	Label       string // Human-readable label
	Description string
	Type        string // "string", "int", "bool", "duration"
}

// GetSettingsMetadata returns metadata for all settings organized by category.
func GetSettingsMetadata() map[string][]SettingMeta {
	return map[string][]SettingMeta{
		"General": {
			{Key: "general.downloader", Label: "Downloader", Description: "Download backend: mock, transmission or native.", Type: "string"},
			{Key: "general.theme", Label: "App Theme", Description: "UI Theme (System, Light, Dark).", Type: "int"},
			{Key: "general.log_retention_count", Label: "Log Retention Count", Description: "Number of recent log files to keep.", Type: "int"},
		},
		"Store": {
			{Key: "store.backend", Label: "Store Backend", Description: "Where download records live: json, sqlite or memory.", Type: "string"},
			{Key: "store.path", Label: "Store Path", Description: "Database file. Empty uses the state directory.", Type: "string"},
		},
		"Transmission": {
			{Key: "transmission.host", Label: "Host", Description: "Transmission daemon host.", Type: "string"},
			{Key: "transmission.port", Label: "Port", Description: "Transmission RPC port.", Type: "int"},
			{Key: "transmission.path", Label: "RPC Path", Description: "RPC endpoint path.", Type: "string"},
			{Key: "transmission.user", Label: "User", Description: "RPC username, if authentication is enabled.", Type: "string"},
			{Key: "transmission.password", Label: "Password", Description: "RPC password.", Type: "string"},
			{Key: "transmission.tls", Label: "TLS", Description: "Use https for RPC calls.", Type: "bool"},
			{Key: "transmission.timeout", Label: "Timeout", Description: "Per-request timeout (e.g., 10s).", Type: "duration"},
		},
		"Native": {
			{Key: "native.data_dir", Label: "Data Dir", Description: "Directory the embedded client downloads into.", Type: "string"},
			{Key: "native.listen_port", Label: "Listen Port", Description: "Inbound TCP port for torrent peers (0 picks one).", Type: "int"},
			{Key: "native.seed", Label: "Seed", Description: "Keep uploading after completion.", Type: "bool"},
		},
		"Watch": {
			{Key: "watch.interval", Label: "Sync Interval", Description: "How often watch and serve reconcile with the backend.", Type: "duration"},
		},
		"Server": {
			{Key: "server.addr", Label: "Listen Address", Description: "Address the JSON API binds to.", Type: "string"},
		},
	}
}

// CategoryOrder returns the order of settings categories.
func CategoryOrder() []string {
	return []string{"General", "Store", "Transmission", "Native", "Watch", "Server"}
}

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()

	dataDir := ""
	if xdgDir := os.Getenv("XDG_DOWNLOAD_DIR"); xdgDir != "" {
		dataDir = filepath.Join(xdgDir, "arroyo")
	} else if homeDir != "" {
		dataDir = filepath.Join(homeDir, "Downloads", "arroyo")
	}

	return &Settings{
		General: GeneralSettings{
			Downloader:        "transmission",
			Theme:             ThemeAdaptive,
			LogRetentionCount: 5,
		},
		Store: StoreSettings{
			Backend: "json",
		},
		Transmission: TransmissionSettings{
			Host:    "localhost",
			Port:    9091,
			Path:    "/transmission/rpc",
			Timeout: 10 * time.Second,
		},
		Native: NativeSettings{
			DataDir:    dataDir,
			ListenPort: 42069,
			Seed:       true,
		},
		Watch: WatchSettings{
			Interval: 30 * time.Second,
		},
		Server: ServerSettings{
			Addr: "127.0.0.1:8585",
		},
	}
}

// Validate checks settings that would otherwise fail late.
func (s *Settings) Validate() error {
	switch s.Store.Backend {
	case "json", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid store.backend %q", s.Store.Backend)
	}
	if s.Transmission.Port < 0 || s.Transmission.Port > 65535 {
		return fmt.Errorf("invalid transmission.port %d", s.Transmission.Port)
	}
	if s.Native.ListenPort < 0 || s.Native.ListenPort > 65535 {
		return fmt.Errorf("invalid native.listen_port %d", s.Native.ListenPort)
	}
	if s.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive, got %s", s.Watch.Interval)
	}
	return nil
}

// DatabasePath returns the configured store path or the default one.
func (s *Settings) DatabasePath() string {
	if s.Store.Path != "" {
		return s.Store.Path
	}
	return GetDatabasePath(s.Store.Backend)
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetArroyoDir(), "settings.json")
}

// LoadSettings loads settings from the default location.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFrom(GetSettingsPath())
}

// LoadSettingsFrom loads settings from path, layered over the defaults and
// under ARROYO_* environment variables (ARROYO_GENERAL_DOWNLOADER=mock). A
// missing file yields the defaults.
func LoadSettingsFrom(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("json")

	v.SetEnvPrefix("ARROYO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultSettings())

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

func setDefaults(v *viper.Viper, d *Settings) {
	v.SetDefault("general.downloader", d.General.Downloader)
	v.SetDefault("general.theme", d.General.Theme)
	v.SetDefault("general.log_retention_count", d.General.LogRetentionCount)

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)

	v.SetDefault("transmission.host", d.Transmission.Host)
	v.SetDefault("transmission.port", d.Transmission.Port)
	v.SetDefault("transmission.path", d.Transmission.Path)
	v.SetDefault("transmission.user", d.Transmission.User)
	v.SetDefault("transmission.password", d.Transmission.Password)
	v.SetDefault("transmission.tls", d.Transmission.TLS)
	v.SetDefault("transmission.timeout", d.Transmission.Timeout)

	v.SetDefault("native.data_dir", d.Native.DataDir)
	v.SetDefault("native.listen_port", d.Native.ListenPort)
	v.SetDefault("native.seed", d.Native.Seed)

	v.SetDefault("watch.interval", d.Watch.Interval)

	v.SetDefault("server.addr", d.Server.Addr)
}

// SaveSettings saves settings to the default location.
func SaveSettings(s *Settings) error {
	return SaveSettingsTo(GetSettingsPath(), s)
}

// SaveSettingsTo saves settings to path atomically.
func SaveSettingsTo(path string, s *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}
