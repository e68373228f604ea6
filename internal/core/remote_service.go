package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/source"
)

// ErrUnauthorized is returned when the server rejects the token.
var ErrUnauthorized = errors.New("unauthorized")

// RemoteDownloadService implements DownloadService against a running
// `arroyo serve`.
type RemoteDownloadService struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

var _ DownloadService = (*RemoteDownloadService)(nil)

// NewRemoteDownloadService creates a new remote service instance.
func NewRemoteDownloadService(baseURL string, token string) *RemoteDownloadService {
	return &RemoteDownloadService{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *RemoteDownloadService) doRequest(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return responseError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// responseError maps an API error response back onto the manager's errors.
func responseError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	// Limit error body read to 1KB
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := string(raw)
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, downloads.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", msg, downloads.ErrAmbiguous)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", msg, downloads.ErrDuplicate)
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("API error %d: %s", resp.StatusCode, msg)
	}
}

func downloadPath(id string, suffix string) string {
	return "/api/downloads/" + url.PathEscape(id) + suffix
}

func (s *RemoteDownloadService) Add(ctx context.Context, req AddRequest) (AddResult, error) {
	var res AddResult
	err := s.doRequest(ctx, http.MethodPost, "/api/downloads", req, &res)
	return res, err
}

func (s *RemoteDownloadService) List(ctx context.Context, includeArchived bool) ([]downloads.Download, error) {
	var list []downloads.Download
	path := "/api/downloads?all=" + strconv.FormatBool(includeArchived)
	if err := s.doRequest(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *RemoteDownloadService) Get(ctx context.Context, id string) (downloads.Download, error) {
	var d downloads.Download
	err := s.doRequest(ctx, http.MethodGet, downloadPath(id, ""), nil, &d)
	return d, err
}

type actionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *RemoteDownloadService) Cancel(ctx context.Context, id string) (source.Source, error) {
	var res actionResponse
	if err := s.doRequest(ctx, http.MethodDelete, downloadPath(id, ""), nil, &res); err != nil {
		return source.Source{}, err
	}
	return source.Source{ID: res.ID, Name: res.Name}, nil
}

func (s *RemoteDownloadService) Archive(ctx context.Context, id string) (source.Source, error) {
	var res actionResponse
	if err := s.doRequest(ctx, http.MethodPost, downloadPath(id, "/archive"), nil, &res); err != nil {
		return source.Source{}, err
	}
	return source.Source{ID: res.ID, Name: res.Name}, nil
}

func (s *RemoteDownloadService) Sync(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/api/sync", nil, nil)
}

func (s *RemoteDownloadService) History(ctx context.Context, id string) ([]downloads.Event, error) {
	var events []downloads.Event
	if err := s.doRequest(ctx, http.MethodGet, downloadPath(id, "/history"), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}
