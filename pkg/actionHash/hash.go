package actionHash

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// ConnectionId is the Keccak-256 digest of a frame. It is the bytes32
// connectionId of the Agent message.
type ConnectionId [32]byte

func (c ConnectionId) Bytes() []byte {
	return c[:]
}

func (c ConnectionId) Hex() string {
	return hexutil.Encode(c[:])
}

func (c ConnectionId) String() string {
	return c.Hex()
}

func (c ConnectionId) Hash() common.Hash {
	return common.Hash(c)
}

// Hash is legacy Keccak-256 (Ethereum padding), not NIST SHA3-256
func Hash(frame []byte) ConnectionId {
	var out ConnectionId
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(frame)
	copy(out[:], h.Sum(nil))
	return out
}

func ConnectionIdFromHex(s string) (ConnectionId, error) {
	var out ConnectionId
	b, err := hexutil.Decode(s)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("connection id must be %d bytes, got %d", len(out), len(b))
	}
	copy(out[:], b)
	return out, nil
}
