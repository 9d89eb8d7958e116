package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/Layr-Labs/l1-action-signer/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var _ persistence.INoncePersistence = (*MemoryPersistence)(nil)

var (
	signerA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	signerB = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestMemoryPersistence_ReserveNonce(t *testing.T) {
	ctx := context.Background()
	mp := NewMemoryPersistence(zaptest.NewLogger(t))
	defer func() { _ = mp.Close() }()

	n, err := mp.ReserveNonce(ctx, signerA, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), n)

	n, err = mp.ReserveNonce(ctx, signerA, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(101), n)

	n, err = mp.ReserveNonce(ctx, signerA, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(102), n)

	n, err = mp.ReserveNonce(ctx, signerA, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), n)

	// signers are independent
	n, err = mp.ReserveNonce(ctx, signerB, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)

	last, err := mp.GetLastNonce(ctx, signerA)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), last)
}

func TestMemoryPersistence_GetLastNonce_NotFound(t *testing.T) {
	mp := NewMemoryPersistence(zaptest.NewLogger(t))
	defer func() { _ = mp.Close() }()

	last, err := mp.GetLastNonce(context.Background(), signerA)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), last)
}

func TestMemoryPersistence_ConcurrentReservations(t *testing.T) {
	ctx := context.Background()
	mp := NewMemoryPersistence(zaptest.NewLogger(t))
	defer func() { _ = mp.Close() }()

	const workers = 50
	results := make(chan uint64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := mp.ReserveNonce(ctx, signerA, 1000)
			assert.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint64]bool)
	for n := range results {
		assert.False(t, seen[n], "nonce %d reserved twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
	for i := uint64(1000); i < 1000+workers; i++ {
		assert.True(t, seen[i])
	}
}

func TestMemoryPersistence_Close(t *testing.T) {
	ctx := context.Background()
	mp := NewMemoryPersistence(zaptest.NewLogger(t))
	require.NoError(t, mp.HealthCheck())

	require.NoError(t, mp.Close())
	require.NoError(t, mp.Close())

	_, err := mp.ReserveNonce(ctx, signerA, 1)
	assert.ErrorIs(t, err, persistence.ErrClosed)
	_, err = mp.GetLastNonce(ctx, signerA)
	assert.ErrorIs(t, err, persistence.ErrClosed)
	assert.ErrorIs(t, mp.HealthCheck(), persistence.ErrClosed)
}
