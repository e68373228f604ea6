package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arroyo-downloader/arroyo/internal/api"
	"github.com/arroyo-downloader/arroyo/internal/config"
	"github.com/arroyo-downloader/arroyo/internal/core"
	"github.com/arroyo-downloader/arroyo/internal/downloader"
	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/store"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

// newBackend builds the configured download backend. Tests swap it out.
var newBackend = downloader.New

// localApp is everything a process owning the database holds open.
type localApp struct {
	db      *store.Database
	backend downloader.Downloader
	manager *downloads.Manager
	service *core.LocalDownloadService
}

// openLocal opens the store and the backend. The caller holds the instance lock.
func openLocal(settings *config.Settings) (*localApp, error) {
	path := settings.DatabasePath()
	if settings.Store.Backend != store.BackendMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	storage, err := store.OpenStorage(settings.Store.Backend, path)
	if err != nil {
		return nil, err
	}
	db, err := store.Open(storage)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}

	backend, err := newBackend(settings.General.Downloader, settings)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	manager, err := downloads.New(db, backend)
	if err != nil {
		_ = downloader.Close(backend)
		_ = db.Close()
		return nil, err
	}

	utils.Debug("opened %s store at %s with %s backend", settings.Store.Backend, path, settings.General.Downloader)
	return &localApp{
		db:      db,
		backend: backend,
		manager: manager,
		service: core.NewLocalDownloadService(manager),
	}, nil
}

func (a *localApp) Close() error {
	return errors.Join(downloader.Close(a.backend), a.db.Close())
}

// serverInfo is advertised by `arroyo serve` so other invocations can reach it.
type serverInfo struct {
	Addr string `json:"addr"`
	Auth bool   `json:"auth"`
}

func serverInfoPath() string {
	return filepath.Join(config.GetRuntimeDir(), "server.json")
}

func saveServerInfo(info serverInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(serverInfoPath(), data, 0o644)
}

func readServerInfo() (serverInfo, error) {
	var info serverInfo
	data, err := os.ReadFile(serverInfoPath())
	if err != nil {
		return info, err
	}
	err = json.Unmarshal(data, &info)
	return info, err
}

func removeServerInfo() {
	if err := os.Remove(serverInfoPath()); err != nil && !os.IsNotExist(err) {
		utils.Debug("Error removing server info: %v", err)
	}
}

// resolveService returns a local service when this process can own the
// database, or a client for the running server otherwise.
func resolveService(settings *config.Settings) (core.DownloadService, func(), error) {
	locked, err := AcquireLock()
	if err != nil {
		return nil, nil, err
	}

	if locked {
		app, err := openLocal(settings)
		if err != nil {
			_ = ReleaseLock()
			return nil, nil, err
		}
		return app.service, func() {
			if err := app.Close(); err != nil {
				utils.Debug("Error closing: %v", err)
			}
			if err := ReleaseLock(); err != nil {
				utils.Debug("Error releasing lock: %v", err)
			}
		}, nil
	}

	info, err := readServerInfo()
	if err != nil {
		return nil, nil, fmt.Errorf("another arroyo process holds %s and no API server is advertised", lockPath())
	}

	token := ""
	if info.Auth {
		token, err = api.EnsureAuthToken(config.GetArroyoDir())
		if err != nil {
			return nil, nil, err
		}
	}
	utils.Debug("database busy, using server at %s", info.Addr)
	return core.NewRemoteDownloadService("http://"+info.Addr, token), func() {}, nil
}
