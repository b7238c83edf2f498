package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	helpererrors "github.com/jobmanager/helper/internal/errors"
	"github.com/jobmanager/helper/internal/helper"
	"github.com/jobmanager/helper/internal/helperapi"
	"github.com/jobmanager/helper/internal/logging"
	"github.com/jobmanager/helper/internal/rest"
)

const maxBodyBytes = 64 << 10

const (
	msgProductNotFound = "No active managed add-on with that product slug"
	msgInvalidBody     = "Request body must be a JSON object"
)

type activateRequest struct {
	LicenceKey string `json:"licence_key"`
	Email      string `json:"email"`
}

type licencesResponse struct {
	HasLicencedProducts bool                   `json:"has_licenced_products"`
	Products            []helper.ProductStatus `json:"products"`
	KeyNotices          []helper.Product       `json:"key_notices"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "version": h.version}
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			logger := logging.FromContext(r.Context())
			logger.Warn().Err(err).Msg("Health check failed")
			status["status"] = "unavailable"
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) listLicences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := licencesResponse{
		HasLicencedProducts: h.helper.HasLicencedProducts(ctx),
		Products:            h.helper.Statuses(ctx),
		KeyNotices:          h.helper.KeyNotices(ctx),
	}
	if resp.KeyNotices == nil {
		resp.KeyNotices = []helper.Product{}
	}
	writeData(w, http.StatusOK, resp, nil)
}

func (h *Handler) activateLicence(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !h.helper.IsProductInstalled(r.Context(), slug) {
		writeFailure(w, r, "product_not_found", msgProductNotFound, helpererrors.NewNotFoundError(helper.ActionActivate, slug))
		return
	}

	var body activateRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeFailure(w, r, "invalid_body", msgInvalidBody, helpererrors.NewValidationError(helper.ActionActivate, slug, err.Error()))
		return
	}

	n := helper.NewNotices()
	h.helper.ManageLicence(r.Context(), n, helper.LicenceRequest{
		Action:      helper.ActionActivate,
		ProductSlug: slug,
		LicenceKey:  body.LicenceKey,
		Email:       body.Email,
	})
	writeData(w, noticeStatus(n, slug), h.status(r, slug), n)
}

func (h *Handler) deactivateLicence(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	n := helper.NewNotices()
	if !h.helper.ManageLicence(r.Context(), n, helper.LicenceRequest{
		Action:      helper.ActionDeactivate,
		ProductSlug: slug,
	}) {
		writeFailure(w, r, "product_not_found", msgProductNotFound, helpererrors.NewNotFoundError(helper.ActionDeactivate, slug))
		return
	}
	writeData(w, noticeStatus(n, slug), h.status(r, slug), n)
}

func (h *Handler) dismissKeyNotice(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !h.helper.DismissKeyNotice(r.Context(), slug) {
		writeFailure(w, r, "product_not_found", msgProductNotFound, helpererrors.NewNotFoundError("dismiss_notice", slug))
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"dismissed": true}, nil)
}

// status returns slug's current licence summary, or nil when it is no longer
// managed.
func (h *Handler) status(r *http.Request, slug string) *helper.ProductStatus {
	for _, s := range h.helper.Statuses(r.Context()) {
		if s.ProductSlug == slug {
			return &s
		}
	}
	return nil
}

func (h *Handler) getUpdates(w http.ResponseWriter, r *http.Request) {
	transient, err := h.transients.Load(r.Context())
	if err != nil {
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Msg("Failed to load update transient")
		writeError(w, http.StatusInternalServerError, "transient_unavailable", "Unable to read the update cache")
		return
	}
	writeData(w, http.StatusOK, transient, nil)
}

func (h *Handler) checkUpdates(w http.ResponseWriter, r *http.Request) {
	n := helper.NewNotices()
	transient, err := h.helper.RefreshUpdates(r.Context(), n, h.transients, h.now())
	if err != nil {
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Msg("Failed to store update transient")
		writeError(w, http.StatusInternalServerError, "transient_unavailable", "Unable to store the update cache")
		return
	}
	writeData(w, http.StatusOK, transient, n)
}

// pluginInformation answers a plugin-details lookup. The action query
// parameter defaults to plugin_information; a POST body is the caller's own
// result, returned when the licensing server has nothing better.
func (h *Handler) pluginInformation(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	action := r.URL.Query().Get("action")
	if action == "" {
		action = helper.ActionPluginInformation
	}

	var fallback helperapi.Response
	if r.Method == http.MethodPost {
		if err := decodeBody(w, r, &fallback); err != nil {
			writeFailure(w, r, "invalid_body", msgInvalidBody, helpererrors.NewValidationError(action, slug, err.Error()))
			return
		}
	}

	n := helper.NewNotices()
	info := h.helper.PluginsAPI(r.Context(), n, action, slug, fallback)
	if len(info) == 0 {
		writeFailure(w, r, "information_unavailable", "No licensed plugin information for that product slug",
			helpererrors.NewNotFoundError(action, slug))
		return
	}
	writeData(w, http.StatusOK, info, n)
}

// decodeBody reads an optional JSON body into dst. An empty body is not an
// error.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handler) jobTypesSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rest.BuildSchema(h.env, "job-types", rest.JobTypesCustomFields{}))
}
