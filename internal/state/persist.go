package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ngenohkevin/lmsdesk/internal/database"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Names of the persisted preferences.
const (
	PrefCatalogFilters = "catalog-filters"
	PrefThemeMode      = "theme-mode"
)

// Persister stores session preferences across restarts.
type Persister interface {
	// Load decodes the stored value into dst and reports whether one existed.
	Load(ctx context.Context, sessionID, name string, dst any) (bool, error)
	Save(ctx context.Context, sessionID, name string, v any) error
	Delete(ctx context.Context, sessionID string, names ...string) error
}

// RedisPersister keeps preferences in Redis under lmsdesk:<session>:<name>.
type RedisPersister struct {
	client *database.RedisClient
	ttl    time.Duration
}

// NewRedisPersister stores values for ttl; zero keeps them forever.
func NewRedisPersister(client *database.RedisClient, ttl time.Duration) *RedisPersister {
	return &RedisPersister{client: client, ttl: ttl}
}

func (p *RedisPersister) Load(ctx context.Context, sessionID, name string, dst any) (bool, error) {
	data, err := p.client.GetPreference(ctx, sessionID, name)
	if errors.Is(err, database.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return true, nil
}

func (p *RedisPersister) Save(ctx context.Context, sessionID, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := p.client.SetPreference(ctx, sessionID, name, data, p.ttl); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}

func (p *RedisPersister) Delete(ctx context.Context, sessionID string, names ...string) error {
	return p.client.DeletePreferences(ctx, sessionID, names...)
}

// MemoryPersister keeps preferences in process. It is used when Redis is
// disabled.
type MemoryPersister struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{data: make(map[string][]byte)}
}

func (p *MemoryPersister) Load(_ context.Context, sessionID, name string, dst any) (bool, error) {
	p.mu.RLock()
	data, ok := p.data[database.PreferenceKey(sessionID, name)]
	p.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return true, nil
}

func (p *MemoryPersister) Save(_ context.Context, sessionID, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[database.PreferenceKey(sessionID, name)] = data
	return nil
}

func (p *MemoryPersister) Delete(_ context.Context, sessionID string, names ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, name := range names {
		delete(p.data, database.PreferenceKey(sessionID, name))
	}
	return nil
}
