package redis

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/Layr-Labs/l1-action-signer/pkg/logger"
	"github.com/Layr-Labs/l1-action-signer/pkg/persistence"
	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ persistence.INoncePersistence = (*RedisPersistence)(nil)

var (
	signerA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	signerB = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// getTestRedisAddress returns REDIS_TEST_ADDRESS when set, otherwise starts
// an in-process miniredis.
func getTestRedisAddress(t *testing.T) string {
	t.Helper()
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return miniredis.RunT(t).Addr()
}

func newTestPersistence(t *testing.T, addr string, prefix string) *RedisPersistence {
	t.Helper()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	rp, err := NewRedisPersistence(&RedisConfig{
		Address:   addr,
		DB:        15,
		KeyPrefix: prefix,
	}, testLogger)
	require.NoError(t, err)
	return rp
}

// uniquePrefix keeps runs against a shared Redis apart
func uniquePrefix(t *testing.T) string {
	return "test:" + t.Name() + ":"
}

func TestRedisPersistence_ReserveNonce(t *testing.T) {
	ctx := context.Background()
	rp := newTestPersistence(t, getTestRedisAddress(t), uniquePrefix(t))
	defer func() { _ = rp.Close() }()

	n, err := rp.ReserveNonce(ctx, signerA, 1700000000000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000000), n)

	n, err = rp.ReserveNonce(ctx, signerA, 1700000000000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000001), n)

	// shorter decimal, numerically smaller
	n, err = rp.ReserveNonce(ctx, signerA, 99)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000002), n)

	// same length, lexically larger
	n, err = rp.ReserveNonce(ctx, signerA, 1700000000500)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000500), n)

	n, err = rp.ReserveNonce(ctx, signerB, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)

	last, err := rp.GetLastNonce(ctx, signerA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000500), last)
}

func TestRedisPersistence_GetLastNonce_NotFound(t *testing.T) {
	rp := newTestPersistence(t, getTestRedisAddress(t), uniquePrefix(t))
	defer func() { _ = rp.Close() }()

	last, err := rp.GetLastNonce(context.Background(), signerA)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), last)
}

func TestRedisPersistence_SharedAcrossClients(t *testing.T) {
	ctx := context.Background()
	addr := getTestRedisAddress(t)
	prefix := uniquePrefix(t)

	first := newTestPersistence(t, addr, prefix)
	defer func() { _ = first.Close() }()
	second := newTestPersistence(t, addr, prefix)
	defer func() { _ = second.Close() }()

	n, err := first.ReserveNonce(ctx, signerA, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), n)

	n, err = second.ReserveNonce(ctx, signerA, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), n)
}

func TestRedisPersistence_KeyPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	addr := getTestRedisAddress(t)

	a := newTestPersistence(t, addr, uniquePrefix(t)+"a:")
	defer func() { _ = a.Close() }()
	b := newTestPersistence(t, addr, uniquePrefix(t)+"b:")
	defer func() { _ = b.Close() }()

	_, err := a.ReserveNonce(ctx, signerA, 10)
	require.NoError(t, err)

	n, err := b.ReserveNonce(ctx, signerA, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)
}

func TestRedisPersistence_ConcurrentReservations(t *testing.T) {
	ctx := context.Background()
	rp := newTestPersistence(t, getTestRedisAddress(t), uniquePrefix(t))
	defer func() { _ = rp.Close() }()

	const workers = 20
	results := make(chan uint64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := rp.ReserveNonce(ctx, signerA, 100)
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
}

func TestRedisPersistence_NewRedisPersistence_InvalidConfig(t *testing.T) {
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	_, err := NewRedisPersistence(nil, testLogger)
	assert.Error(t, err)

	_, err = NewRedisPersistence(&RedisConfig{}, testLogger)
	assert.Error(t, err)
}

func TestRedisPersistence_Close(t *testing.T) {
	ctx := context.Background()
	rp := newTestPersistence(t, getTestRedisAddress(t), uniquePrefix(t))
	require.NoError(t, rp.HealthCheck())

	require.NoError(t, rp.Close())
	require.NoError(t, rp.Close())

	_, err := rp.ReserveNonce(ctx, signerA, 1)
	assert.ErrorIs(t, err, persistence.ErrClosed)
	_, err = rp.GetLastNonce(ctx, signerA)
	assert.ErrorIs(t, err, persistence.ErrClosed)
	assert.ErrorIs(t, rp.HealthCheck(), persistence.ErrClosed)
}
