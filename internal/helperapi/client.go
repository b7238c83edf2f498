package helperapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	helpererrors "github.com/jobmanager/helper/internal/errors"
	"github.com/jobmanager/helper/internal/logging"
	"github.com/jobmanager/helper/internal/metrics"
)

const (
	DefaultBaseURL = "https://wpjobmanager.com/"
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 4 << 20
)

// Endpoint (wc-api) and request tags understood by the licensing server.
const (
	UpdateAPI     = "wp_plugin_licencing_update_api"
	ActivationAPI = "wp_plugin_licencing_activation_api"

	RequestUpdateCheck = "pluginupdatecheck"
	RequestInformation = "plugininformation"
	RequestActivate    = "activate"

	// Deactivation is sent with the activation tag; the server distinguishes
	// nothing else and the local state is cleared regardless of its reply.
	RequestDeactivate = RequestActivate
)

// ErrNoResponse is returned when the server could not be reached or did not
// answer with a JSON object.
var ErrNoResponse = errors.New("no usable response from licensing server")

// Args are query arguments for a licensing request.
type Args map[string]string

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Site       SiteIdentity
	HTTPClient *http.Client
}

// Client talks to the remote licensing server.
type Client struct {
	baseURL    *url.URL
	site       SiteIdentity
	httpClient *http.Client
}

// New creates a licensing API client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid licensing API URL %q", base)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    u,
		site:       cfg.Site,
		httpClient: httpClient,
	}, nil
}

// PluginUpdateCheck asks whether a newer version of an add-on is available.
func (c *Client) PluginUpdateCheck(ctx context.Context, args Args) (Response, error) {
	return c.request(ctx, withTags(args, UpdateAPI, RequestUpdateCheck), false)
}

// PluginInformation fetches the plugin details shown in the host's
// "view details" dialog.
func (c *Client) PluginInformation(ctx context.Context, args Args) (Response, error) {
	return c.request(ctx, withTags(args, UpdateAPI, RequestInformation), false)
}

// Activate attempts to activate a licence. Transport and HTTP failures come
// back as a Response carrying error_code and error.
func (c *Client) Activate(ctx context.Context, args Args) (Response, error) {
	return c.request(ctx, withTags(args, ActivationAPI, RequestActivate), true)
}

// Deactivate tells the server a licence is no longer used on this site.
func (c *Client) Deactivate(ctx context.Context, args Args) (Response, error) {
	return c.request(ctx, withTags(args, ActivationAPI, RequestDeactivate), false)
}

func withTags(args Args, api, request string) Args {
	out := make(Args, len(args)+2)
	for k, v := range args {
		out[k] = v
	}
	out["wc-api"] = api
	out["request"] = request
	return out
}

func (c *Client) request(ctx context.Context, args Args, returnError bool) (Response, error) {
	op := args["request"]
	logger := logging.FromContext(ctx)
	start := time.Now()

	endpoint := c.endpoint(ctx, args)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(op, "transport_error", time.Since(start).Seconds())
		herr := helpererrors.NewConnectionError(op, err)
		logger.Warn().Err(err).Str("request", op).Str("product", args["api_product_id"]).Msg("Licensing API request failed")
		if returnError {
			return Response{"error_code": herr.Code(), "error": herr.Message()}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrNoResponse, herr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordAPIRequest(op, "bad_status", time.Since(start).Seconds())
		herr := helpererrors.NewAPIError(op, resp.StatusCode)
		logger.Warn().Int("status", resp.StatusCode).Str("request", op).Str("product", args["api_product_id"]).Msg("Licensing API returned unexpected status")
		if returnError {
			return Response{"error_code": resp.StatusCode, "error": herr.Message()}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrNoResponse, herr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.RecordAPIRequest(op, "transport_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: read %s response: %w", ErrNoResponse, op, err)
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		metrics.RecordAPIRequest(op, "bad_body", time.Since(start).Seconds())
		logger.Debug().Err(err).Str("request", op).Msg("Licensing API response is not JSON")
		return nil, fmt.Errorf("%w: decode %s response: %w", ErrNoResponse, op, err)
	}
	object, ok := decoded.(map[string]any)
	if !ok {
		metrics.RecordAPIRequest(op, "bad_body", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %s response is not a JSON object", ErrNoResponse, op)
	}

	metrics.RecordAPIRequest(op, "ok", time.Since(start).Seconds())
	logger.Debug().Str("request", op).Str("product", args["api_product_id"]).Dur("elapsed", time.Since(start)).Msg("Licensing API request completed")
	return Response(object), nil
}

// endpoint merges args over the default arguments and appends them to the
// base URL's query string.
func (c *Client) endpoint(ctx context.Context, args Args) string {
	query := c.baseURL.Query()
	defaults := map[string]string{
		"instance":       c.site.Instance(ctx),
		"plugin_name":    "",
		"version":        "",
		"api_product_id": "",
		"licence_key":    "",
		"email":          "",
	}
	for k, v := range defaults {
		query.Set(k, v)
	}
	for k, v := range args {
		query.Set(k, v)
	}

	u := *c.baseURL
	u.RawQuery = query.Encode()
	return u.String()
}
