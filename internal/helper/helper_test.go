package helper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jobmanager/helper/internal/helperapi"
	"github.com/jobmanager/helper/internal/options"
	"github.com/jobmanager/helper/internal/plugins"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	op   string
	args helperapi.Args
}

type apiReply struct {
	resp helperapi.Response
	err  error
}

// fakeAPI answers every operation with a canned reply and records the calls.
type fakeAPI struct {
	calls   []apiCall
	replies map[string]apiReply
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{replies: make(map[string]apiReply)}
}

func (f *fakeAPI) reply(op string, resp helperapi.Response, err error) {
	f.replies[op] = apiReply{resp: resp, err: err}
}

func (f *fakeAPI) do(op string, args helperapi.Args) (helperapi.Response, error) {
	f.calls = append(f.calls, apiCall{op: op, args: args})
	r, ok := f.replies[op]
	if !ok {
		return nil, helperapi.ErrNoResponse
	}
	return r.resp, r.err
}

func (f *fakeAPI) callsTo(op string) []apiCall {
	var out []apiCall
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) PluginUpdateCheck(_ context.Context, args helperapi.Args) (helperapi.Response, error) {
	return f.do("update_check", args)
}

func (f *fakeAPI) PluginInformation(_ context.Context, args helperapi.Args) (helperapi.Response, error) {
	return f.do("information", args)
}

func (f *fakeAPI) Activate(_ context.Context, args helperapi.Args) (helperapi.Response, error) {
	return f.do("activate", args)
}

func (f *fakeAPI) Deactivate(_ context.Context, args helperapi.Args) (helperapi.Response, error) {
	return f.do("deactivate", args)
}

type countingInvalidator struct{ count int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.count++
	return nil
}

type fixture struct {
	helper      *Helper
	api         *fakeAPI
	store       *options.Store
	inventory   *plugins.Inventory
	invalidator *countingInvalidator
	root        string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := options.Open(filepath.Join(t.TempDir(), "options.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	root := t.TempDir()
	inventory := plugins.NewInventory(root)
	api := newFakeAPI()
	invalidator := &countingInvalidator{}

	return &fixture{
		helper: New(Deps{
			Options:    store,
			Inventory:  inventory,
			API:        api,
			Transients: invalidator,
		}),
		api:         api,
		store:       store,
		inventory:   inventory,
		invalidator: invalidator,
		root:        root,
	}
}

// install writes an add-on manifest and optionally enables it. It returns the
// add-on filename.
func (f *fixture) install(t *testing.T, dir, name, version, product string, active bool) string {
	t.Helper()
	body := "name: " + name + "\nversion: " + version + "\n"
	if product != "" {
		body += "product: " + product + "\n"
	}
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, dir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.root, dir, plugins.ManifestFile), []byte(body), 0o644))

	filename := dir + "/" + plugins.ManifestFile
	if active {
		_, err := f.inventory.SetActive(filename, true)
		require.NoError(t, err)
	}
	return filename
}

func (f *fixture) storeLicence(t *testing.T, slug, key, email string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Update(ctx, slug, options.KeyLicenceKey, key))
	require.NoError(t, f.store.Update(ctx, slug, options.KeyEmail, email))
}

func (f *fixture) has(t *testing.T, slug, key string) bool {
	t.Helper()
	var raw any
	found, err := f.store.Get(context.Background(), slug, key, &raw)
	require.NoError(t, err)
	return found
}
