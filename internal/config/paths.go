package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// GetArroyoDir returns the directory holding settings.json.
func GetArroyoDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, "arroyo")
	case "darwin": // MacOS
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "arroyo")
	default: // Linux
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, _ := os.UserHomeDir()
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "arroyo")
	}
}

// GetStateDir returns the directory for the download database. On Linux it
// follows XDG_STATE_HOME; elsewhere it is the same as GetArroyoDir.
func GetStateDir() string {
	if runtime.GOOS != "linux" {
		return GetArroyoDir()
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, _ := os.UserHomeDir()
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "arroyo")
}

// GetRuntimeDir returns the directory for the instance lock file.
func GetRuntimeDir() string {
	if runtime.GOOS == "linux" {
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			return filepath.Join(dir, "arroyo")
		}
	}
	return GetStateDir()
}

// Returns directory for logs
func GetLogsDir() string {
	return filepath.Join(GetStateDir(), "logs")
}

// GetDatabasePath returns the default location of the download database for
// the given storage backend.
func GetDatabasePath(backend string) string {
	if backend == "sqlite" {
		return filepath.Join(GetStateDir(), "arroyo.db")
	}
	return filepath.Join(GetStateDir(), "db.json")
}

// EnsureDirs creates all required directories
func EnsureDirs() error {
	dirs := []string{GetArroyoDir(), GetStateDir(), GetLogsDir(), GetRuntimeDir()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
