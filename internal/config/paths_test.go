package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetArroyoDir(t *testing.T) {
	if runtime.GOOS == "linux" {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	}

	dir := GetArroyoDir()
	assert.NotEmpty(t, dir)
	assert.Contains(t, strings.ToLower(dir), "arroyo")
}

func TestGetStateDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		assert.Equal(t, GetArroyoDir(), GetStateDir())
		return
	}
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)
	assert.Equal(t, filepath.Join(tmpDir, "arroyo"), GetStateDir())
}

func TestGetRuntimeDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG runtime dir is Linux only")
	}
	tmpDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", tmpDir)
	assert.Equal(t, filepath.Join(tmpDir, "arroyo"), GetRuntimeDir())

	// Fallback to the state dir
	t.Setenv("XDG_RUNTIME_DIR", "")
	stateTmp := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateTmp)
	assert.Equal(t, filepath.Join(stateTmp, "arroyo"), GetRuntimeDir())
}

func TestGetLogsDirIsUnderStateDir(t *testing.T) {
	dir := GetLogsDir()
	assert.True(t, strings.HasSuffix(dir, "logs"))
	assert.True(t, strings.HasPrefix(dir, GetStateDir()))
}

func TestGetDatabasePath(t *testing.T) {
	assert.Equal(t, "db.json", filepath.Base(GetDatabasePath("json")))
	assert.Equal(t, "arroyo.db", filepath.Base(GetDatabasePath("sqlite")))
}

func TestEnsureDirs(t *testing.T) {
	if runtime.GOOS == "linux" {
		baseDir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", filepath.Join(baseDir, "config"))
		t.Setenv("XDG_STATE_HOME", filepath.Join(baseDir, "state"))
		t.Setenv("XDG_RUNTIME_DIR", filepath.Join(baseDir, "runtime"))
	}

	require.NoError(t, EnsureDirs())

	for _, dir := range []string{GetArroyoDir(), GetStateDir(), GetLogsDir(), GetRuntimeDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
}
