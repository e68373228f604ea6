package core

import (
	"context"
	"fmt"

	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/source"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

// DefaultProvider tags sources added without an explicit provider.
const DefaultProvider = "cli"

// LocalDownloadService implements DownloadService over an in-process manager.
type LocalDownloadService struct {
	Manager *downloads.Manager
}

var _ DownloadService = (*LocalDownloadService)(nil)

// NewLocalDownloadService wraps m.
func NewLocalDownloadService(m *downloads.Manager) *LocalDownloadService {
	return &LocalDownloadService{Manager: m}
}

func (s *LocalDownloadService) Add(ctx context.Context, req AddRequest) (AddResult, error) {
	provider := req.Provider
	if provider == "" {
		provider = DefaultProvider
	}
	src, err := source.FromURI(req.URI, req.Name, provider)
	if err != nil {
		return AddResult{}, err
	}
	if req.Entity != nil {
		if err := req.Entity.Validate(); err != nil {
			return AddResult{}, fmt.Errorf("invalid entity: %w", err)
		}
		src.Entity = req.Entity
	}

	if err := s.Manager.Add(ctx, src); err != nil {
		return AddResult{}, err
	}
	state, err := s.Manager.State(ctx, src)
	if err != nil {
		// Added, but gone again by the time we looked.
		utils.Debug("core: state of %s after add: %v", src.ID, err)
	}
	return AddResult{ID: src.ID, Name: src.Name, State: state}, nil
}

func (s *LocalDownloadService) List(ctx context.Context, includeArchived bool) ([]downloads.Download, error) {
	return s.Manager.All(ctx, includeArchived)
}

func (s *LocalDownloadService) Get(ctx context.Context, id string) (downloads.Download, error) {
	src, err := s.Manager.Lookup(id)
	if err != nil {
		return downloads.Download{}, err
	}
	list, err := s.Manager.All(ctx, true)
	if err != nil {
		return downloads.Download{}, err
	}
	for _, d := range list {
		if d.Source.ID == src.ID {
			return d, nil
		}
	}
	return downloads.Download{}, fmt.Errorf("download %s vanished: %w", src.ID, downloads.ErrNotFound)
}

func (s *LocalDownloadService) Cancel(ctx context.Context, id string) (source.Source, error) {
	src, err := s.Manager.Lookup(id)
	if err != nil {
		return source.Source{}, err
	}
	return src, s.Manager.Cancel(ctx, src)
}

func (s *LocalDownloadService) Archive(ctx context.Context, id string) (source.Source, error) {
	src, err := s.Manager.Lookup(id)
	if err != nil {
		return source.Source{}, err
	}
	return src, s.Manager.Archive(ctx, src)
}

func (s *LocalDownloadService) Sync(ctx context.Context) error {
	return s.Manager.Sync(ctx)
}

func (s *LocalDownloadService) History(_ context.Context, id string) ([]downloads.Event, error) {
	src, err := s.Manager.Lookup(id)
	if err != nil {
		return nil, err
	}
	return s.Manager.History(src), nil
}
