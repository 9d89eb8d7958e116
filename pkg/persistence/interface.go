package persistence

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var ErrClosed = errors.New("persistence layer is closed")

// INoncePersistence tracks the last nonce handed out per signer address.
// All implementations must be safe for concurrent use. Only nonces are
// stored, never actions or signatures.
type INoncePersistence interface {
	// ReserveNonce atomically records and returns max(candidate, last+1) for
	// signer, so two reservations never return the same nonce.
	ReserveNonce(ctx context.Context, signer common.Address, candidate uint64) (uint64, error)

	// GetLastNonce returns the last reserved nonce for signer, or 0 if none.
	GetLastNonce(ctx context.Context, signer common.Address) (uint64, error)

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations return ErrClosed.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	HealthCheck() error
}
