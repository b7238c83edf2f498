package helperapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	query  url.Values
	accept string
	method string
}

type fakeServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func newFakeServer(t *testing.T, status int, body string) *fakeServer {
	t.Helper()
	fs := &fakeServer{status: status, body: body}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.requests = append(fs.requests, recordedRequest{
			query:  r.URL.Query(),
			accept: r.Header.Get("Accept"),
			method: r.Method,
		})
		fs.mu.Unlock()
		w.WriteHeader(fs.status)
		_, _ = w.Write([]byte(fs.body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) last(t *testing.T) recordedRequest {
	t.Helper()
	fs.mu.Lock()
	defer fs.mu.Unlock()
	require.NotEmpty(t, fs.requests, "expected a request to reach the server")
	return fs.requests[len(fs.requests)-1]
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL: baseURL + "/",
		Timeout: 2 * time.Second,
		Site:    SiteIdentity{SiteURL: "https://site.test", NetworkSiteURL: "https://network.test"},
	})
	require.NoError(t, err)
	return client
}

func TestPluginUpdateCheckSendsDefaultsAndTags(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{"new_version":"1.3.0","package":"https://example.com/x.zip"}`)
	client := newTestClient(t, srv.URL)

	resp, err := client.PluginUpdateCheck(context.Background(), Args{
		"api_product_id": "addon-x",
		"version":        "1.2.0",
	})
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", resp.NewVersion())
	assert.Equal(t, "https://example.com/x.zip", resp["package"])

	req := srv.last(t)
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "application/json", req.accept)
	assert.Equal(t, UpdateAPI, req.query.Get("wc-api"))
	assert.Equal(t, RequestUpdateCheck, req.query.Get("request"))
	assert.Equal(t, "https://site.test", req.query.Get("instance"))
	assert.Equal(t, "addon-x", req.query.Get("api_product_id"))
	assert.Equal(t, "1.2.0", req.query.Get("version"))
	for _, key := range []string{"plugin_name", "licence_key", "email"} {
		assert.True(t, req.query.Has(key), "expected default %s to be sent", key)
		assert.Empty(t, req.query.Get(key))
	}
}

func TestPluginInformationTags(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{"name":"Addon X","sections":{"description":"..."}}`)
	client := newTestClient(t, srv.URL)

	resp, err := client.PluginInformation(context.Background(), Args{"api_product_id": "addon-x"})
	require.NoError(t, err)
	assert.Equal(t, "Addon X", resp["name"])

	req := srv.last(t)
	assert.Equal(t, UpdateAPI, req.query.Get("wc-api"))
	assert.Equal(t, RequestInformation, req.query.Get("request"))
}

func TestActivateAndDeactivateShareRequestTag(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{"activated":true}`)
	client := newTestClient(t, srv.URL)

	resp, err := client.Activate(context.Background(), Args{"licence_key": "ABC", "email": "a@b.com"})
	require.NoError(t, err)
	assert.True(t, resp.Activated())
	req := srv.last(t)
	assert.Equal(t, ActivationAPI, req.query.Get("wc-api"))
	assert.Equal(t, "activate", req.query.Get("request"))
	assert.Equal(t, "ABC", req.query.Get("licence_key"))
	assert.Equal(t, "a@b.com", req.query.Get("email"))

	_, err = client.Deactivate(context.Background(), Args{"licence_key": "ABC"})
	require.NoError(t, err)
	req = srv.last(t)
	assert.Equal(t, ActivationAPI, req.query.Get("wc-api"))
	assert.Equal(t, "activate", req.query.Get("request"))
}

func TestCallerCannotOverrideTags(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{}`)
	client := newTestClient(t, srv.URL)

	_, err := client.PluginUpdateCheck(context.Background(), Args{"request": "activate", "wc-api": "other"})
	require.NoError(t, err)
	req := srv.last(t)
	assert.Equal(t, RequestUpdateCheck, req.query.Get("request"))
	assert.Equal(t, UpdateAPI, req.query.Get("wc-api"))
}

func TestNon200ReturnsSentinelUnlessErrorsRequested(t *testing.T) {
	srv := newFakeServer(t, http.StatusServiceUnavailable, `{"new_version":"9.9.9"}`)
	client := newTestClient(t, srv.URL)

	resp, err := client.PluginUpdateCheck(context.Background(), Args{})
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, ErrNoResponse))

	resp, err = client.Deactivate(context.Background(), Args{})
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, ErrNoResponse))

	resp, err = client.Activate(context.Background(), Args{})
	require.NoError(t, err)
	code, msg, ok := resp.APIError()
	require.True(t, ok)
	assert.Equal(t, "503", code)
	assert.Equal(t, "Error code: 503", msg)
	assert.Equal(t, http.StatusServiceUnavailable, resp["error_code"])
}

func TestTransportFailure(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{}`)
	base := srv.URL
	srv.Close()
	client := newTestClient(t, base)

	resp, err := client.PluginInformation(context.Background(), Args{})
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, ErrNoResponse))

	resp, err = client.Activate(context.Background(), Args{})
	require.NoError(t, err)
	code, msg, ok := resp.APIError()
	require.True(t, ok)
	assert.Equal(t, "http_request_failed", code)
	assert.NotEmpty(t, msg)
}

func TestNonObjectBodiesAreRejected(t *testing.T) {
	for _, body := range []string{`not json`, `["a","b"]`, `"text"`, `42`, `null`, ``} {
		srv := newFakeServer(t, http.StatusOK, body)
		client := newTestClient(t, srv.URL)

		resp, err := client.Activate(context.Background(), Args{})
		assert.Nil(t, resp, "body %q", body)
		assert.True(t, errors.Is(err, ErrNoResponse), "body %q", body)
	}
}

func TestInstanceUsesNetworkURL(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, `{}`)

	client := newTestClient(t, srv.URL)
	_, err := client.PluginUpdateCheck(WithNetworkAdmin(context.Background()), Args{})
	require.NoError(t, err)
	assert.Equal(t, "https://network.test", srv.last(t).query.Get("instance"))

	multi, err := New(Config{
		BaseURL: srv.URL,
		Site:    SiteIdentity{SiteURL: "https://site.test", NetworkSiteURL: "https://network.test", Multisite: true},
	})
	require.NoError(t, err)
	_, err = multi.PluginUpdateCheck(context.Background(), Args{})
	require.NoError(t, err)
	assert.Equal(t, "https://network.test", srv.last(t).query.Get("instance"))
}

func TestNewRejectsInvalidURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	assert.Error(t, err)

	client, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.baseURL.String())
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
}
