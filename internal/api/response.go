package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arroyo-downloader/arroyo/internal/downloader"
	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/source"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

// RespondWithJSON writes payload as a JSON response with the given status.
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		utils.Debug("api: failed to encode response: %v", err)
	}
}

// RespondWithError writes {"error": message} with the given status.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithErr maps a manager or backend error to its HTTP status.
func RespondWithErr(w http.ResponseWriter, err error) {
	var invalid *source.InvalidURIError
	switch {
	case errors.Is(err, downloads.ErrAmbiguous):
		RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, downloads.ErrDuplicate):
		RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, downloads.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &invalid):
		RespondWithError(w, http.StatusBadRequest, err.Error())
	case downloader.IsBackendError(err):
		RespondWithError(w, http.StatusBadGateway, err.Error())
	default:
		RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
