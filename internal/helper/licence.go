package helper

import (
	"context"
	"strings"

	helpererrors "github.com/jobmanager/helper/internal/errors"
	"github.com/jobmanager/helper/internal/helperapi"
	"github.com/jobmanager/helper/internal/logging"
	"github.com/jobmanager/helper/internal/metrics"
	"github.com/jobmanager/helper/internal/options"
)

// User-facing messages.
const (
	MsgMissingCredentials = "Please enter a valid license key and email address in order to activate this plugin's license."
	MsgConnectionFailed   = "Connection failed to the License Key API server - possible server issue."
	MsgActivated          = "Plugin license has been activated."
	MsgUnknownError       = "An unknown error occurred while attempting to activate the license"
	MsgNotActive          = "licence is not active."
	MsgDeactivated        = "Plugin license has been deactivated."
	MsgStorageFailed      = "Unable to save the license settings."
)

// Remote error reasons that revoke a local licence.
const (
	ErrorNoActivation = "no_activation"
	ErrorExpiredKey   = "expired_key"
)

// LicenceError is one durable error recorded against a licence.
type LicenceError struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

// LicenceErrors keeps durable errors in insertion order.
type LicenceErrors []LicenceError

// With returns errs plus message. A typed message replaces an existing entry
// of the same type; an untyped one is appended.
func (errs LicenceErrors) With(errType, message string) LicenceErrors {
	out := append(LicenceErrors(nil), errs...)
	if errType != "" {
		for i := range out {
			if out[i].Type == errType {
				out[i].Message = message
				return out
			}
		}
	}
	return append(out, LicenceError{Type: errType, Message: message})
}

// Messages returns the error messages in order.
func (errs LicenceErrors) Messages() []string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// Licence is the stored licence state of one product.
type Licence struct {
	LicenceKey string        `json:"licence_key"`
	Email      string        `json:"email"`
	Errors     LicenceErrors `json:"errors"`
}

// Active reports whether both the key and the email are set.
func (l Licence) Active() bool {
	return l.LicenceKey != "" && l.Email != ""
}

// Licence reads the stored licence for slug. Missing or unreadable fields are
// returned empty.
func (h *Helper) Licence(ctx context.Context, slug string) Licence {
	var l Licence
	h.read(ctx, slug, options.KeyLicenceKey, &l.LicenceKey)
	h.read(ctx, slug, options.KeyEmail, &l.Email)
	h.read(ctx, slug, options.KeyErrors, &l.Errors)
	return l
}

func (h *Helper) read(ctx context.Context, slug, key string, dst any) {
	if _, err := h.options.Get(ctx, slug, key, dst); err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Str("product", slug).Str("key", key).Msg("Failed to read licence option")
	}
}

// ActivateLicence activates key/email for slug against the licensing server.
func (h *Helper) ActivateLicence(ctx context.Context, n *Notices, slug, licenceKey, email string) {
	logger := logging.FromContext(ctx)

	if strings.TrimSpace(licenceKey) == "" || strings.TrimSpace(email) == "" {
		err := helpererrors.NewValidationError("activate", slug, "licence key and email are required")
		logger.Debug().Err(err).Msg("Licence activation refused")
		n.AddError(slug, MsgMissingCredentials)
		metrics.RecordLicenceOperation("activate", "invalid")
		return
	}

	resp, err := h.api.Activate(ctx, helperapi.Args{
		"api_product_id": slug,
		"licence_key":    licenceKey,
		"email":          email,
	})

	if err != nil {
		logger.Warn().Err(err).Str("product", slug).Msg("Licence activation got no response")
		n.AddError(slug, MsgConnectionFailed)
		metrics.RecordLicenceOperation("activate", "connection_failed")
		return
	}
	if code, message, ok := resp.APIError(); ok {
		logger.Info().Str("product", slug).Str("error_code", code).Msg("Licence activation rejected")
		n.AddError(slug, message)
		metrics.RecordLicenceOperation("activate", "rejected")
		return
	}
	if !resp.Activated() {
		n.AddError(slug, MsgUnknownError)
		metrics.RecordLicenceOperation("activate", "unknown")
		return
	}

	err = firstError(
		h.options.Update(ctx, slug, options.KeyLicenceKey, licenceKey),
		h.options.Update(ctx, slug, options.KeyEmail, email),
		h.options.Delete(ctx, slug, options.KeyErrors),
		h.options.Delete(ctx, slug, options.KeyHideKeyNotice),
	)
	if err != nil {
		logger.Error().Err(err).Str("product", slug).Msg("Failed to store activated licence")
		n.AddError(slug, MsgStorageFailed)
		metrics.RecordLicenceOperation("activate", "storage_failed")
		return
	}

	logger.Info().Str("product", slug).Msg("Licence activated")
	n.AddSuccess(slug, MsgActivated)
	metrics.RecordLicenceOperation("activate", "success")
}

// DeactivateLicence clears slug's stored licence after notifying the licensing
// server. The server's reply does not affect the local outcome.
func (h *Helper) DeactivateLicence(ctx context.Context, n *Notices, slug string) {
	logger := logging.FromContext(ctx)
	licence := h.Licence(ctx, slug)
	if !licence.Active() {
		n.AddError(slug, MsgNotActive)
		metrics.RecordLicenceOperation("deactivate", "not_active")
		return
	}

	if _, err := h.api.Deactivate(ctx, helperapi.Args{
		"api_product_id": slug,
		"licence_key":    licence.LicenceKey,
		"email":          licence.Email,
	}); err != nil {
		event := logger.Debug()
		if helpererrors.IsConnectionError(err) {
			event = logger.Warn()
		}
		event.Err(err).Str("product", slug).Msg("Licence deactivation got no response, clearing locally")
	}

	err := firstError(
		h.options.Delete(ctx, slug, options.KeyLicenceKey),
		h.options.Delete(ctx, slug, options.KeyEmail),
		h.options.Delete(ctx, slug, options.KeyErrors),
		h.options.Delete(ctx, slug, options.KeyHideKeyNotice),
	)
	if err != nil {
		logger.Error().Err(err).Str("product", slug).Msg("Failed to clear licence")
		n.AddError(slug, MsgStorageFailed)
		metrics.RecordLicenceOperation("deactivate", "storage_failed")
		return
	}

	if h.transients != nil {
		if err := h.transients.Invalidate(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to invalidate update transient")
		}
	}

	logger.Info().Str("product", slug).Msg("Licence deactivated")
	n.AddSuccess(slug, MsgDeactivated)
	metrics.RecordLicenceOperation("deactivate", "success")
}

// HandleAPIErrors reacts to domain errors reported by the licensing server.
// A missing activation or an expired key deactivates the licence and records
// the server's message as a durable error.
func (h *Helper) HandleAPIErrors(ctx context.Context, n *Notices, slug string, errs map[string]string) {
	if _, ok := h.products(ctx, true)[slug]; !ok {
		return
	}

	var reason string
	switch {
	case errs[ErrorNoActivation] != "":
		reason = ErrorNoActivation
	case errs[ErrorExpiredKey] != "":
		reason = ErrorExpiredKey
	default:
		return
	}

	logger := logging.FromContext(ctx)
	logger.Warn().
		Str("product", slug).
		Str("reason", reason).
		Strs("reported", helperapi.SortedErrorKeys(errs)).
		Msg("Licensing server revoked licence")

	h.DeactivateLicence(ctx, n, slug)
	h.addLicenceError(ctx, slug, errs[reason], "")
}

func (h *Helper) addLicenceError(ctx context.Context, slug, message, errType string) {
	licence := h.Licence(ctx, slug)
	errs := licence.Errors.With(errType, message)
	if err := h.options.Update(ctx, slug, options.KeyErrors, errs); err != nil {
		logger := logging.FromContext(ctx)
		logger.Error().Err(err).Str("product", slug).Msg("Failed to store licence error")
	}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
