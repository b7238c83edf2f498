package updates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TransientName is the key under which the update-check transient is cached.
const TransientName = "update_plugins"

// UpdateDescriptor is the licensing server's update-check response for one
// add-on, kept as returned ({new_version, package, url, ...}).
type UpdateDescriptor map[string]any

// NewVersion returns the advertised version, if any.
func (d UpdateDescriptor) NewVersion() string {
	v, _ := d["new_version"].(string)
	return v
}

// Transient is the structure the host polls to learn about available updates.
// Response is keyed by add-on filename.
type Transient struct {
	LastChecked time.Time                   `json:"last_checked"`
	Checked     map[string]string           `json:"checked,omitempty"`
	Response    map[string]UpdateDescriptor `json:"response"`
}

// NewTransient returns an empty transient ready to be merged into.
func NewTransient() *Transient {
	return &Transient{
		Checked:  make(map[string]string),
		Response: make(map[string]UpdateDescriptor),
	}
}

// SetUpdate records an available update for filename.
func (t *Transient) SetUpdate(filename string, d UpdateDescriptor) {
	if t.Response == nil {
		t.Response = make(map[string]UpdateDescriptor)
	}
	t.Response[filename] = d
}

// Backend stores raw transient values.
type Backend interface {
	LoadTransient(ctx context.Context, name string) ([]byte, bool, error)
	SaveTransient(ctx context.Context, name string, value []byte, ttl time.Duration) error
	DeleteTransient(ctx context.Context, name string) error
}

// Cache persists the update-check transient in a Backend.
type Cache struct {
	backend Backend
	ttl     time.Duration
}

// NewCache wraps backend. A zero ttl keeps the transient until deleted.
func NewCache(backend Backend, ttl time.Duration) *Cache {
	return &Cache{backend: backend, ttl: ttl}
}

// Load returns the cached transient, or a fresh empty one when none is stored.
func (c *Cache) Load(ctx context.Context) (*Transient, error) {
	raw, found, err := c.backend.LoadTransient(ctx, TransientName)
	if err != nil {
		return nil, err
	}
	if !found {
		return NewTransient(), nil
	}
	t := NewTransient()
	if err := json.Unmarshal(raw, t); err != nil {
		return nil, fmt.Errorf("decode %s transient: %w", TransientName, err)
	}
	if t.Response == nil {
		t.Response = make(map[string]UpdateDescriptor)
	}
	return t, nil
}

// Save stores t.
func (c *Cache) Save(ctx context.Context, t *Transient) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode %s transient: %w", TransientName, err)
	}
	return c.backend.SaveTransient(ctx, TransientName, raw, c.ttl)
}

// Invalidate drops the cached transient so the next check starts fresh.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.backend.DeleteTransient(ctx, TransientName)
}
