package diffcache

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	valkey "github.com/valkey-io/valkey-go"

	"github.com/jonwraymond/prfetch/observe"
)

// stalePrefix namespaces the long-retention copies that survive TTL eviction.
const stalePrefix = "stale:"

// ValkeyTLSConfig configures TLS for the Valkey connection.
type ValkeyTLSConfig struct {
	Enabled bool
	CAFile  string
}

// ValkeyConfig configures the Valkey/Redis-backed store.
type ValkeyConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      ValkeyTLSConfig

	// StaleRetention is how long the stale fallback copy of each PR's latest
	// diff is kept after its last write. Default: 24 hours.
	StaleRetention time.Duration

	// Logger receives warn-level reports of backend degradation. Optional.
	Logger observe.Logger
}

// ValkeyStore is a Store backed by a Valkey or Redis server.
//
// Fresh entries are written with their TTL and evicted by the server. Because
// eviction deletes the value, Set also writes a second copy under a
// stale-namespaced key with a long retention; GetStale reads that copy, which
// gives the fallback path "whatever we last had" even after expiry.
type ValkeyStore struct {
	client    valkey.Client
	retention time.Duration
	logger    observe.Logger
}

// NewValkeyStore connects to the configured server and verifies it with a ping.
func NewValkeyStore(cfg ValkeyConfig) (*ValkeyStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("diffcache: valkey address required")
	}
	if cfg.StaleRetention <= 0 {
		cfg.StaleRetention = 24 * time.Hour
	}

	option := valkey.ClientOption{
		InitAddress:       []string{cfg.Address},
		Username:          cfg.Username,
		Password:          cfg.Password,
		SelectDB:          cfg.DB,
		AlwaysRESP2:       true,
		ForceSingleClient: true,
		DisableCache:      true,
	}

	if cfg.TLS.Enabled {
		tlsConfig := &tls.Config{}
		if cfg.TLS.CAFile != "" {
			caData, err := os.ReadFile(cfg.TLS.CAFile)
			if err != nil {
				return nil, fmt.Errorf("diffcache: read valkey ca file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caData) {
				return nil, errors.New("diffcache: valkey ca file contains no certificates")
			}
			tlsConfig.RootCAs = pool
		}
		option.TLSConfig = tlsConfig
	}

	client, err := valkey.NewClient(option)
	if err != nil {
		return nil, fmt.Errorf("diffcache: valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("diffcache: valkey ping: %w", err)
	}

	return &ValkeyStore{
		client:    client,
		retention: cfg.StaleRetention,
		logger:    cfg.Logger,
	}, nil
}

// wireEntry is the JSON representation stored in Valkey.
type wireEntry struct {
	Payload    []byte    `json:"payload"`
	CachedAt   time.Time `json:"cached_at"`
	TTLSeconds int64     `json:"ttl_seconds"`
}

func (s *ValkeyStore) readEntry(ctx context.Context, storageKey string) (Entry, bool) {
	resp := s.client.Do(ctx, s.client.B().Get().Key(storageKey).Build())
	if err := resp.Error(); err != nil {
		if errors.Is(err, valkey.Nil) {
			return Entry{}, false
		}
		s.warn(ctx, "cache read degraded to miss",
			observe.Field{Key: "key", Value: storageKey},
			observe.Field{Key: "error", Value: err.Error()})
		return Entry{}, false
	}

	raw, err := resp.AsBytes()
	if err != nil {
		s.warn(ctx, "cache read degraded to miss",
			observe.Field{Key: "key", Value: storageKey},
			observe.Field{Key: "error", Value: err.Error()})
		return Entry{}, false
	}

	var wire wireEntry
	if err := json.Unmarshal(raw, &wire); err != nil {
		s.warn(ctx, "cache entry corrupt, treating as miss",
			observe.Field{Key: "key", Value: storageKey},
			observe.Field{Key: "error", Value: err.Error()})
		return Entry{}, false
	}

	return Entry{
		Payload:  wire.Payload,
		CachedAt: wire.CachedAt,
		TTL:      time.Duration(wire.TTLSeconds) * time.Second,
	}, true
}

// Get returns the fresh entry for key. Backend failures degrade to a miss.
func (s *ValkeyStore) Get(ctx context.Context, key Key) (Entry, bool) {
	return s.readEntry(ctx, key.String())
}

// GetStale returns the long-retention copy for prefix, ignoring freshness.
func (s *ValkeyStore) GetStale(ctx context.Context, prefix string) (Entry, bool) {
	if prefix == "" {
		return Entry{}, false
	}
	return s.readEntry(ctx, stalePrefix+prefix)
}

// Set writes the fresh entry with its TTL and refreshes the stale copy.
func (s *ValkeyStore) Set(ctx context.Context, key Key, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	wire := wireEntry{
		Payload:    payload,
		CachedAt:   time.Now().UTC(),
		TTLSeconds: int64(ttl / time.Second),
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("diffcache: valkey marshal: %w", err)
	}

	cmd := s.client.B().Set().Key(key.String()).Value(string(raw)).Px(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("diffcache: valkey set: %w", err)
	}

	staleCmd := s.client.B().Set().Key(stalePrefix + key.Prefix()).Value(string(raw)).Px(s.retention).Build()
	if err := s.client.Do(ctx, staleCmd).Error(); err != nil {
		return fmt.Errorf("diffcache: valkey set stale copy: %w", err)
	}
	return nil
}

// Invalidate deletes every fresh entry under prefix and the stale copy.
func (s *ValkeyStore) Invalidate(ctx context.Context, prefix string) error {
	if prefix == "" {
		return nil
	}

	var cursor uint64
	for {
		resp := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).Match(prefix+"*").Count(200).Build())
		entry, err := resp.AsScanEntry()
		if err != nil {
			return fmt.Errorf("diffcache: valkey scan: %w", err)
		}
		if len(entry.Elements) > 0 {
			del := s.client.B().Del().Key(entry.Elements...).Build()
			if err := s.client.Do(ctx, del).Error(); err != nil {
				return fmt.Errorf("diffcache: valkey del: %w", err)
			}
		}
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}

	del := s.client.B().Del().Key(stalePrefix + prefix).Build()
	if err := s.client.Do(ctx, del).Error(); err != nil {
		return fmt.Errorf("diffcache: valkey del stale copy: %w", err)
	}
	return nil
}

// Ping verifies the backend is reachable. Health checks use this.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("diffcache: valkey ping: %w", err)
	}
	return nil
}

// Close releases the client connection.
func (s *ValkeyStore) Close() {
	s.client.Close()
}

func (s *ValkeyStore) warn(ctx context.Context, msg string, fields ...observe.Field) {
	if s.logger != nil {
		s.logger.Warn(ctx, msg, fields...)
	}
}

// Ensure ValkeyStore implements Store
var _ Store = (*ValkeyStore)(nil)
