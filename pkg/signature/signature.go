package signature

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureLength is r(32) ‖ s(32) ‖ v(1)
	SignatureLength = 65

	legacyVOffset = 27
)

var ErrMalformedSignature = errors.New("malformed signature")

// Signature is a secp256k1 signature as the exchange expects it. V is kept
// exactly as the signer produced it.
type Signature struct {
	R [32]byte
	S [32]byte
	V byte
}

// Split decodes a 0x-prefixed (or bare) hex signature into r, s and v. Only
// one prefix is stripped.
func Split(sig string) (*Signature, error) {
	raw := sig
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw = raw[2:]
	}
	if len(raw) != SignatureLength*2 {
		return nil, fmt.Errorf("%w: expected %d hex characters, got %d", ErrMalformedSignature, SignatureLength*2, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return FromBytes(b)
}

func FromBytes(b []byte) (*Signature, error) {
	if len(b) != SignatureLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedSignature, SignatureLength, len(b))
	}
	s := &Signature{V: b[64]}
	copy(s.R[:], b[:32])
	copy(s.S[:], b[32:64])
	return s, nil
}

// Join is the inverse of Split: 0x followed by 130 lowercase hex characters.
// Split input that is bare or uppercase comes back normalised, so
// Join(Split(sig)) equals sig only for lowercase 0x-prefixed input.
func Join(s *Signature) string {
	return hexutil.Encode(s.Bytes())
}

func (s *Signature) Bytes() []byte {
	out := make([]byte, 0, SignatureLength)
	out = append(out, s.R[:]...)
	out = append(out, s.S[:]...)
	return append(out, s.V)
}

func (s *Signature) RHex() string { return hexutil.Encode(s.R[:]) }
func (s *Signature) SHex() string { return hexutil.Encode(s.S[:]) }

func (s *Signature) String() string { return Join(s) }

// RecoveryId normalises V to 0 or 1. It is only used to verify signatures
// locally and never alters what is sent.
func (s *Signature) RecoveryId() (byte, error) {
	switch s.V {
	case 0, 1:
		return s.V, nil
	case legacyVOffset, legacyVOffset + 1:
		return s.V - legacyVOffset, nil
	default:
		return 0, fmt.Errorf("%w: unsupported v value %d", ErrMalformedSignature, s.V)
	}
}

// Recover returns the address that produced this signature over digest.
func (s *Signature) Recover(digest common.Hash) (common.Address, error) {
	recId, err := s.RecoveryId()
	if err != nil {
		return common.Address{}, err
	}
	sig := s.Bytes()
	sig[64] = recId

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

type wireSignature struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSignature{
		R: hexutil.Encode(s.R[:]),
		S: hexutil.Encode(s.S[:]),
		V: int(s.V),
	})
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	var w wireSignature
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	r, err := decodeWord(w.R)
	if err != nil {
		return fmt.Errorf("%w: r: %v", ErrMalformedSignature, err)
	}
	sv, err := decodeWord(w.S)
	if err != nil {
		return fmt.Errorf("%w: s: %v", ErrMalformedSignature, err)
	}
	if w.V < 0 || w.V > 0xff {
		return fmt.Errorf("%w: v out of range: %d", ErrMalformedSignature, w.V)
	}
	s.R, s.S, s.V = r, sv, byte(w.V)
	return nil
}

// decodeWord left-pads short values, since some clients strip leading zeros.
func decodeWord(h string) ([32]byte, error) {
	var out [32]byte
	raw := strings.TrimPrefix(h, "0x")
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return out, err
	}
	if len(b) > 32 {
		return out, fmt.Errorf("value longer than 32 bytes")
	}
	copy(out[32-len(b):], b)
	return out, nil
}
