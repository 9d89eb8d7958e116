package memory

import (
	"context"
	"sync"

	"github.com/Layr-Labs/l1-action-signer/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// MemoryPersistence is an in-memory implementation of INoncePersistence.
//
// Nonces are lost when the process exits, so after a restart the wall clock
// is the only thing keeping nonces increasing.
type MemoryPersistence struct {
	mu sync.Mutex

	// signer -> last reserved nonce
	nonces map[common.Address]uint64

	closed bool
}

func NewMemoryPersistence(logger *zap.Logger) *MemoryPersistence {
	logger.Warn("Using in-memory nonce persistence - reserved nonces are lost on restart")

	return &MemoryPersistence{
		nonces: make(map[common.Address]uint64),
	}
}

func (m *MemoryPersistence) ReserveNonce(ctx context.Context, signer common.Address, candidate uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, persistence.ErrClosed
	}

	last, hasLast := m.nonces[signer]
	next, err := persistence.NextNonce(last, hasLast, candidate)
	if err != nil {
		return 0, err
	}
	m.nonces[signer] = next
	return next, nil
}

func (m *MemoryPersistence) GetLastNonce(ctx context.Context, signer common.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, persistence.ErrClosed
	}
	return m.nonces[signer], nil
}

// Close is idempotent
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.nonces = nil
	return nil
}

func (m *MemoryPersistence) HealthCheck() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}
	return nil
}
