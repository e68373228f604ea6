package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/arroyo-downloader/arroyo/internal/config"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

// instanceLock guards the database against a second arroyo process.
var instanceLock *flock.Flock

func lockPath() string {
	return filepath.Join(config.GetRuntimeDir(), "arroyo.lock")
}

// AcquireLock tries to become the process that owns the database. It returns
// false, without error, when another process holds the lock.
func AcquireLock() (bool, error) {
	if err := os.MkdirAll(config.GetRuntimeDir(), 0o755); err != nil {
		return false, err
	}

	fl := flock.New(lockPath())
	locked, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return false, nil
	}
	instanceLock = fl
	utils.Debug("acquired instance lock %s", fl.Path())
	return true, nil
}

// ReleaseLock releases the lock taken by AcquireLock.
func ReleaseLock() error {
	if instanceLock == nil {
		return nil
	}
	err := instanceLock.Unlock()
	instanceLock = nil
	return err
}
