package persistence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NonceEncoding(t *testing.T) {
	data := EncodeNonce(1700000000000)
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x8b, 0xcf, 0xe5, 0x68, 0x00}, data)

	n, err := DecodeNonce(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000000), n)

	_, err = DecodeNonce([]byte{1, 2, 3})
	assert.Error(t, err)
}

func Test_NextNonce(t *testing.T) {
	tests := []struct {
		name      string
		last      uint64
		hasLast   bool
		candidate uint64
		want      uint64
	}{
		{"first reservation uses the candidate", 0, false, 5, 5},
		{"first reservation may be zero", 0, false, 0, 0},
		{"newer candidate wins", 10, true, 20, 20},
		{"equal candidate is bumped", 10, true, 10, 11},
		{"older candidate is bumped", 10, true, 3, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextNonce(tt.last, tt.hasLast, tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NextNonce(math.MaxUint64, true, 1)
	assert.Error(t, err)
}
