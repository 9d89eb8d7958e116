package actionHash

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

const (
	nonceLength   = 8
	expiresLength = 8

	vaultAbsent  byte = 0x00
	vaultPresent byte = 0x01

	// expiresMarker precedes expiresAfter. It is always zero and is only
	// written when expiresAfter is set, unlike the vault marker.
	expiresMarker byte = 0x00
)

// SigningContext is the metadata bound to an action by the frame
type SigningContext struct {
	// Nonce is normally a millisecond timestamp and must be unique per signer
	Nonce        uint64
	VaultAddress *common.Address
	ExpiresAfter *uint64
}

// BuildFrame lays out, with no padding or length prefixes:
//
//	actionBytes | nonce (u64 BE) | 0x00  or  0x01 vault(20)  | [0x00 expiresAfter (u64 BE)]
func BuildFrame(actionBytes []byte, nonce uint64, vaultAddress *common.Address, expiresAfter *uint64) []byte {
	size := len(actionBytes) + nonceLength + 1
	if vaultAddress != nil {
		size += common.AddressLength
	}
	if expiresAfter != nil {
		size += 1 + expiresLength
	}

	frame := make([]byte, 0, size)
	frame = append(frame, actionBytes...)
	frame = binary.BigEndian.AppendUint64(frame, nonce)

	if vaultAddress == nil {
		frame = append(frame, vaultAbsent)
	} else {
		frame = append(frame, vaultPresent)
		frame = append(frame, vaultAddress.Bytes()...)
	}

	if expiresAfter != nil {
		frame = append(frame, expiresMarker)
		frame = binary.BigEndian.AppendUint64(frame, *expiresAfter)
	}
	return frame
}

// BuildFrame frames already encoded action bytes with this context
func (sc *SigningContext) BuildFrame(actionBytes []byte) []byte {
	return BuildFrame(actionBytes, sc.Nonce, sc.VaultAddress, sc.ExpiresAfter)
}
