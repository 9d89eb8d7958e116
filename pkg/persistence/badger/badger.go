package badger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Layr-Labs/l1-action-signer/pkg/persistence"
	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const (
	keyPrefixNonce       = "nonce:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"

	maxConflictRetries = 10
)

// BadgerPersistence stores nonces on disk using Badger.
type BadgerPersistence struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool

	// badger holds an exclusive directory lock, so serialising writers here
	// covers every reservation for this database
	reserveMu sync.Mutex
}

// NewBadgerPersistence opens (or creates) the database at dataPath with
// SyncWrites enabled and starts a background value-log GC.
func NewBadgerPersistence(dataPath string, logger *zap.Logger) (*BadgerPersistence, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = newNonceStoreLogger(logger)
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bp := &BadgerPersistence{
		db:     db,
		logger: logger,
	}

	if err := bp.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.gcCancel = cancel
	bp.gcWg.Add(1)
	go bp.runGC(ctx)

	logger.Sugar().Infow("Badger nonce persistence initialized", "path", absPath)

	return bp, nil
}

func (b *BadgerPersistence) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}
		return nil
	})
}

func (b *BadgerPersistence) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func nonceKey(signer common.Address) []byte {
	return []byte(keyPrefixNonce + strings.ToLower(signer.Hex()))
}

func readNonce(txn *badgerdb.Txn, key []byte) (uint64, bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	var nonce uint64
	err = item.Value(func(val []byte) error {
		nonce, err = persistence.DecodeNonce(val)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return nonce, true, nil
}

// ReserveNonce runs a read-modify-write transaction, retrying when a
// concurrent reservation for the same signer commits first.
func (b *BadgerPersistence) ReserveNonce(ctx context.Context, signer common.Address, candidate uint64) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, persistence.ErrClosed
	}

	b.reserveMu.Lock()
	defer b.reserveMu.Unlock()

	key := nonceKey(signer)
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var reserved uint64
		err := b.db.Update(func(txn *badgerdb.Txn) error {
			last, hasLast, err := readNonce(txn, key)
			if err != nil {
				return err
			}
			reserved, err = persistence.NextNonce(last, hasLast, candidate)
			if err != nil {
				return err
			}
			return txn.Set(key, persistence.EncodeNonce(reserved))
		})
		if errors.Is(err, badgerdb.ErrConflict) {
			b.logger.Debug("Nonce reservation conflict, retrying",
				zap.String("signer", signer.Hex()),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to reserve nonce: %w", err)
		}
		return reserved, nil
	}
	return 0, fmt.Errorf("failed to reserve nonce for %s after %d attempts: %w", signer.Hex(), maxConflictRetries, badgerdb.ErrConflict)
}

func (b *BadgerPersistence) GetLastNonce(ctx context.Context, signer common.Address) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, persistence.ErrClosed
	}

	var last uint64
	err := b.db.View(func(txn *badgerdb.Txn) error {
		var err error
		last, _, err = readNonce(txn, nonceKey(signer))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load nonce: %w", err)
	}
	return last, nil
}

// Close stops the GC goroutine and closes the database. Idempotent.
func (b *BadgerPersistence) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger nonce persistence closed")
	return nil
}

func (b *BadgerPersistence) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
