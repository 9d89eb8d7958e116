package persistence

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeNonce stores nonces as 8 big-endian bytes
func EncodeNonce(nonce uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, nonce)
}

func DecodeNonce(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid nonce encoding: expected 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// NextNonce returns max(candidate, last+1). hasLast is false before the
// first reservation for a signer.
func NextNonce(last uint64, hasLast bool, candidate uint64) (uint64, error) {
	if !hasLast || candidate > last {
		return candidate, nil
	}
	if last == math.MaxUint64 {
		return 0, fmt.Errorf("nonce space exhausted")
	}
	return last + 1, nil
}
