package relay

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrConnectionNotFound is returned for a connection id that is not registered.
var ErrConnectionNotFound = errors.New("connection not found")

// Connection is a registered client connection.
type Connection struct {
	ID        string
	Principal string
}

// Registry tracks the open connections.
type Registry interface {
	Put(ctx context.Context, conn Connection) error
	Get(ctx context.Context, id string) (Connection, error)
	// Delete removes id. Removing an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	Scan(ctx context.Context) ([]Connection, error)
}

// MemoryRegistry is a Registry held in process memory.
type MemoryRegistry struct {
	mu    sync.RWMutex
	conns map[string]Connection
}

// NewMemoryRegistry returns an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{conns: make(map[string]Connection)}
}

func (r *MemoryRegistry) Put(_ context.Context, conn Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
	return nil
}

func (r *MemoryRegistry) Get(_ context.Context, id string) (Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	if !ok {
		return Connection{}, ErrConnectionNotFound
	}
	return conn, nil
}

func (r *MemoryRegistry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	return nil
}

// Scan returns the connections ordered by id.
func (r *MemoryRegistry) Scan(_ context.Context) ([]Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	sortConnections(conns)
	return conns, nil
}

// DefaultRegistryKey is the Redis hash holding connection id to principal.
const DefaultRegistryKey = "relay:connections"

// RedisRegistry is a Registry stored in a single Redis hash, so that every
// server instance sees every connection.
type RedisRegistry struct {
	client redis.Cmdable
	key    string
}

// RedisRegistryOption configures a RedisRegistry.
type RedisRegistryOption func(*RedisRegistry)

// WithRegistryKey sets the hash key.
func WithRegistryKey(key string) RedisRegistryOption {
	return func(r *RedisRegistry) {
		r.key = key
	}
}

// NewRedisRegistry returns a RedisRegistry using client.
func NewRedisRegistry(client redis.Cmdable, opts ...RedisRegistryOption) *RedisRegistry {
	r := &RedisRegistry{client: client, key: DefaultRegistryKey}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRegistry) Put(ctx context.Context, conn Connection) error {
	return r.client.HSet(ctx, r.key, conn.ID, conn.Principal).Err()
}

func (r *RedisRegistry) Get(ctx context.Context, id string) (Connection, error) {
	principal, err := r.client.HGet(ctx, r.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return Connection{}, ErrConnectionNotFound
	}
	if err != nil {
		return Connection{}, err
	}
	return Connection{ID: id, Principal: principal}, nil
}

func (r *RedisRegistry) Delete(ctx context.Context, id string) error {
	return r.client.HDel(ctx, r.key, id).Err()
}

// Scan returns the connections ordered by id.
func (r *RedisRegistry) Scan(ctx context.Context) ([]Connection, error) {
	entries, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}

	conns := make([]Connection, 0, len(entries))
	for id, principal := range entries {
		conns = append(conns, Connection{ID: id, Principal: principal})
	}
	sortConnections(conns)
	return conns, nil
}

func sortConnections(conns []Connection) {
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })
}
