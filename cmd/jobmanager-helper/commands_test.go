package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jobmanager/helper/internal/helper"
	"github.com/jobmanager/helper/internal/helperapi"
	"github.com/jobmanager/helper/internal/plugins"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	licenceKey, licenceEmail, statusJSON = "", "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := Version, BuildTime, GitCommit
	defer func() {
		Version, BuildTime, GitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	Version = "1.2.3"
	BuildTime = "2026-01-01"
	GitCommit = "abcdef"
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "jobmanager-helper 1.2.3")
	assert.Contains(t, out, "Built: 2026-01-01")
	assert.Contains(t, out, "Commit: abcdef")

	BuildTime = "unknown"
	GitCommit = "unknown"
	out, err = runCommand(t, "version")
	require.NoError(t, err)
	assert.NotContains(t, out, "Built:")
}

func TestSchemaJobTypesCmd(t *testing.T) {
	out, err := runCommand(t, "schema", "job-types")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "employment_type")
}

func TestPluginFilename(t *testing.T) {
	assert.Equal(t, "alerts/plugin.yaml", pluginFilename("alerts"))
	assert.Equal(t, "alerts/plugin.yaml", pluginFilename("alerts/"))
	assert.Equal(t, "alerts/plugin.yaml", pluginFilename("alerts/plugin.yaml"))
}

// setupSite points the configuration at a temporary data dir and a fake
// licensing server, and installs one managed add-on.
func setupSite(t *testing.T) (dataDir string, requests *requestLog) {
	t.Helper()
	seen := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := r.URL.Query().Get("request")
		seen.add(tag)
		switch tag {
		case helperapi.RequestActivate:
			_, _ = w.Write([]byte(`{"activated":true}`))
		case helperapi.RequestUpdateCheck:
			_, _ = w.Write([]byte(`{"new_version":"2.0.0"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	dataDir = t.TempDir()
	t.Setenv("JMH_DATA_DIR", dataDir)
	t.Setenv("JMH_API_URL", srv.URL)
	t.Setenv("JMH_LOG_LEVEL", "error")

	addonDir := filepath.Join(dataDir, "plugins", "alerts")
	require.NoError(t, os.MkdirAll(addonDir, 0o755))
	manifest := "name: Job Alerts\nversion: 1.5.0\nproduct: wp-job-manager-alerts\n"
	require.NoError(t, os.WriteFile(filepath.Join(addonDir, plugins.ManifestFile), []byte(manifest), 0o644))
	return dataDir, seen
}

type requestLog struct {
	mu   sync.Mutex
	tags []string
}

func (l *requestLog) add(tag string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tags = append(l.tags, tag)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.tags...)
}

func TestLicenceLifecycleCommands(t *testing.T) {
	_, requests := setupSite(t)

	_, err := runCommand(t, "licence", "activate", "wp-job-manager-alerts", "--key", "ABC", "--email", "a@b.com")
	require.Error(t, err, "add-on is not enabled yet")

	out, err := runCommand(t, "plugin", "activate", "alerts")
	require.NoError(t, err)
	assert.Contains(t, out, "alerts/plugin.yaml enabled")

	out, err = runCommand(t, "licence", "activate", "wp-job-manager-alerts", "--key", "ABC", "--email", "a@b.com")
	require.NoError(t, err)
	assert.Contains(t, out, helper.MsgActivated)

	out, err = runCommand(t, "licence", "status", "--json")
	require.NoError(t, err)
	var statuses []helper.ProductStatus
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].LicenceActive)
	assert.Equal(t, "a@b.com", statuses[0].Email)
	assert.Equal(t, helper.LabelManageLicence, statuses[0].LicenceLink)

	out, err = runCommand(t, "licence", "status")
	require.NoError(t, err)
	assert.Contains(t, out, helper.LabelManageLicence)

	out, err = runCommand(t, "updates", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "alerts/plugin.yaml: 1.5.0 -> 2.0.0")

	out, err = runCommand(t, "plugin", "deactivate", "alerts")
	require.NoError(t, err)
	assert.Contains(t, out, helper.MsgDeactivated)

	out, err = runCommand(t, "licence", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "none")
	assert.NotContains(t, out, helper.LabelManageLicence)

	assert.Equal(t, []string{
		helperapi.RequestActivate,
		helperapi.RequestUpdateCheck,
		helperapi.RequestDeactivate,
	}, requests.all())
}

func TestLicenceActivateMissingCredentials(t *testing.T) {
	_, requests := setupSite(t)
	_, err := runCommand(t, "plugin", "activate", "alerts")
	require.NoError(t, err)

	out, err := runCommand(t, "licence", "activate", "wp-job-manager-alerts")
	assert.ErrorIs(t, err, errNotices)
	assert.Contains(t, out, helper.MsgMissingCredentials)
	assert.Empty(t, requests.all())
}

func TestPluginListCmd(t *testing.T) {
	setupSite(t)
	out, err := runCommand(t, "plugin", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "alerts/plugin.yaml")
	assert.Contains(t, out, "wp-job-manager-alerts")
	assert.Contains(t, out, "false")
}
