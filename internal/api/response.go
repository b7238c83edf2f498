package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	helpererrors "github.com/jobmanager/helper/internal/errors"
	"github.com/jobmanager/helper/internal/helper"
	"github.com/jobmanager/helper/internal/logging"
	"github.com/rs/zerolog/log"
)

// APIError is the body of every error response.
type APIError struct {
	ErrorMessage string `json:"error"`
	Code         string `json:"code,omitempty"`
	StatusCode   int    `json:"status_code"`
	Timestamp    int64  `json:"timestamp"`
}

// Envelope wraps successful responses together with the notices the request
// produced.
type Envelope struct {
	Data    any                        `json:"data"`
	Notices map[string][]helper.Notice `json:"notices"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeData(w http.ResponseWriter, status int, data any, n *helper.Notices) {
	writeJSON(w, status, Envelope{Data: data, Notices: n.All()})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIError{
		ErrorMessage: message,
		Code:         code,
		StatusCode:   status,
		Timestamp:    time.Now().Unix(),
	})
}

// writeFailure answers with the status err's type maps to and message as the
// body.
func writeFailure(w http.ResponseWriter, r *http.Request, code, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, helpererrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, helpererrors.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	logger := logging.FromContext(r.Context())
	logger.Debug().Err(err).Int("status", status).Msg("Request refused")
	writeError(w, status, code, message)
}

// noticeStatus is 200 when slug got a success notice and 422 otherwise.
func noticeStatus(n *helper.Notices, slug string) int {
	for _, notice := range n.Messages(slug) {
		if notice.Type == helper.NoticeSuccess {
			return http.StatusOK
		}
	}
	return http.StatusUnprocessableEntity
}
