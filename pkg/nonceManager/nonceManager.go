package nonceManager

import (
	"context"
	"fmt"
	"time"

	"github.com/Layr-Labs/l1-action-signer/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// NonceManager hands out strictly increasing millisecond nonces per signer.
// The wall clock supplies the candidate and the store guarantees that a
// nonce is never issued twice, even when the clock stalls or goes backwards.
type NonceManager struct {
	store  persistence.INoncePersistence
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*NonceManager)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(nm *NonceManager) {
		nm.now = now
	}
}

func NewNonceManager(store persistence.INoncePersistence, logger *zap.Logger, opts ...Option) *NonceManager {
	nm := &NonceManager{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(nm)
	}
	return nm
}

func (nm *NonceManager) Next(ctx context.Context, signer common.Address) (uint64, error) {
	candidate := uint64(nm.now().UnixMilli())

	nonce, err := nm.store.ReserveNonce(ctx, signer, candidate)
	if err != nil {
		return 0, fmt.Errorf("failed to reserve nonce for %s: %w", signer.Hex(), err)
	}

	if nonce != candidate {
		nm.logger.Sugar().Debugw("Nonce bumped past wall clock",
			"signer", signer.Hex(),
			"candidate", candidate,
			"nonce", nonce,
		)
	}
	return nonce, nil
}
