package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arroyo-downloader/arroyo/internal/core"
	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

// apiProvider tags sources submitted over HTTP without a provider.
const apiProvider = "api"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListDownloads(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	list, err := s.service.List(r.Context(), all)
	if err != nil {
		RespondWithErr(w, err)
		return
	}
	if list == nil {
		list = []downloads.Download{}
	}
	RespondWithJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddDownload(w http.ResponseWriter, r *http.Request) {
	var req core.AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if req.URI == "" {
		RespondWithError(w, http.StatusBadRequest, "uri is required")
		return
	}
	if req.Entity != nil {
		if err := req.Entity.Validate(); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Provider == "" {
		req.Provider = apiProvider
	}

	utils.Debug("api: add %s", req.URI)
	res, err := s.service.Add(r.Context(), req)
	if err != nil {
		RespondWithErr(w, err)
		return
	}
	RespondWithJSON(w, http.StatusAccepted, res)
}

func (s *Server) handleGetDownload(w http.ResponseWriter, r *http.Request) {
	d, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondWithErr(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, d)
}

func (s *Server) handleCancelDownload(w http.ResponseWriter, r *http.Request) {
	src, err := s.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondWithErr(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "cancelled", "id": src.ID, "name": src.Name})
}

func (s *Server) handleArchiveDownload(w http.ResponseWriter, r *http.Request) {
	src, err := s.service.Archive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondWithErr(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "archived", "id": src.ID, "name": src.Name})
}

func (s *Server) handleDownloadHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondWithErr(w, err)
		return
	}
	if events == nil {
		events = []downloads.Event{}
	}
	RespondWithJSON(w, http.StatusOK, events)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Sync(r.Context()); err != nil {
		RespondWithErr(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}
