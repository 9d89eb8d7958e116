package nonceManager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Layr-Labs/l1-action-signer/pkg/persistence"
	"github.com/Layr-Labs/l1-action-signer/pkg/persistence/memory"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var signer = common.HexToAddress("0x1111111111111111111111111111111111111111")

type failingStore struct {
	persistence.INoncePersistence
	err error
}

func (f *failingStore) ReserveNonce(context.Context, common.Address, uint64) (uint64, error) {
	return 0, f.err
}

func Test_NonceManager(t *testing.T) {
	l := zaptest.NewLogger(t)
	ctx := context.Background()

	t.Run("Should use the wall clock in milliseconds", func(t *testing.T) {
		now := time.UnixMilli(1700000000000)
		nm := NewNonceManager(memory.NewMemoryPersistence(l), l, WithClock(func() time.Time { return now }))

		n, err := nm.Next(ctx, signer)
		require.NoError(t, err)
		assert.Equal(t, uint64(1700000000000), n)
	})

	t.Run("Should stay strictly increasing when the clock stalls or rewinds", func(t *testing.T) {
		now := time.UnixMilli(1700000000000)
		nm := NewNonceManager(memory.NewMemoryPersistence(l), l, WithClock(func() time.Time { return now }))

		first, err := nm.Next(ctx, signer)
		require.NoError(t, err)
		second, err := nm.Next(ctx, signer)
		require.NoError(t, err)
		assert.Equal(t, first+1, second)

		now = now.Add(-time.Hour)
		third, err := nm.Next(ctx, signer)
		require.NoError(t, err)
		assert.Equal(t, second+1, third)
	})

	t.Run("Should default to time.Now", func(t *testing.T) {
		nm := NewNonceManager(memory.NewMemoryPersistence(l), l)
		before := uint64(time.Now().UnixMilli())

		n, err := nm.Next(ctx, signer)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, before)
	})

	t.Run("Should wrap store failures", func(t *testing.T) {
		storeErr := errors.New("store down")
		nm := NewNonceManager(&failingStore{err: storeErr}, l)

		_, err := nm.Next(ctx, signer)
		assert.ErrorIs(t, err, storeErr)
	})
}
