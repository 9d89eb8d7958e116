package nonceManager

import (
	"fmt"

	"github.com/Layr-Labs/l1-action-signer/pkg/config"
	"github.com/Layr-Labs/l1-action-signer/pkg/persistence"
	"github.com/Layr-Labs/l1-action-signer/pkg/persistence/badger"
	"github.com/Layr-Labs/l1-action-signer/pkg/persistence/memory"
	"github.com/Layr-Labs/l1-action-signer/pkg/persistence/redis"
	"go.uber.org/zap"
)

// NewNonceStore opens the persistence backend named by cfg. A nil cfg gives
// the in-memory store.
func NewNonceStore(cfg *config.NonceStoreConfig, logger *zap.Logger) (persistence.INoncePersistence, error) {
	if cfg == nil {
		return memory.NewMemoryPersistence(logger), nil
	}

	switch cfg.Type {
	case config.NonceStoreType_Memory, "":
		return memory.NewMemoryPersistence(logger), nil
	case config.NonceStoreType_Badger:
		if cfg.BadgerPath == "" {
			return nil, fmt.Errorf("badger path is required")
		}
		return badger.NewBadgerPersistence(cfg.BadgerPath, logger)
	case config.NonceStoreType_Redis:
		return redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported nonce store type: %s", cfg.Type)
	}
}
