package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Layr-Labs/l1-action-signer/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefixNonce       = "l1signer:nonce:"
	keySchemaVersion     = "l1signer:metadata:schema_version"
	currentSchemaVersion = "v1"
)

// reserveNonceScript stores and returns max(ARGV[1], last+1). Nonces are kept
// as canonical decimal strings, so comparing length then bytes orders them
// numerically without going through Lua doubles.
var reserveNonceScript = redis.NewScript(`
local last = redis.call('GET', KEYS[1])
local candidate = ARGV[1]
if (not last) or (string.len(candidate) > string.len(last)) or
   (string.len(candidate) == string.len(last) and candidate > last) then
  redis.call('SET', KEYS[1], candidate)
  return candidate
end
redis.call('INCR', KEYS[1])
return redis.call('GET', KEYS[1])
`)

// RedisPersistence stores nonces in Redis so several signer processes can
// share one nonce sequence per address.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key, e.g. "myapp:" gives
	// "myapp:l1signer:nonce:0x...".
	KeyPrefix string
}

func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if cfg.KeyPrefix != "" {
		logger.Sugar().Infow("Redis nonce persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)
	} else {
		logger.Sugar().Infow("Redis nonce persistence initialized", "address", cfg.Address, "db", cfg.DB)
	}

	return rp, nil
}

func (r *RedisPersistence) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisPersistence) nonceKey(signer common.Address) string {
	return r.prefixKey(keyPrefixNonce + strings.ToLower(signer.Hex()))
}

func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if errors.Is(err, redis.Nil) {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

func (r *RedisPersistence) ReserveNonce(ctx context.Context, signer common.Address, candidate uint64) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, persistence.ErrClosed
	}

	res, err := reserveNonceScript.Run(ctx, r.client,
		[]string{r.nonceKey(signer)},
		strconv.FormatUint(candidate, 10),
	).Text()
	if err != nil {
		return 0, fmt.Errorf("failed to reserve nonce: %w", err)
	}

	nonce, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stored nonce %q: %w", res, err)
	}
	return nonce, nil
}

func (r *RedisPersistence) GetLastNonce(ctx context.Context, signer common.Address) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, persistence.ErrClosed
	}

	res, err := r.client.Get(ctx, r.nonceKey(signer)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load nonce: %w", err)
	}

	nonce, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stored nonce %q: %w", res, err)
	}
	return nonce, nil
}

// Close is idempotent
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis nonce persistence closed")
	return nil
}

func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	return nil
}
