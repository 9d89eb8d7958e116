package inMemoryTypedDataSigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/Layr-Labs/l1-action-signer/pkg/typedData"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"
)

type Option func(*InMemoryTypedDataSigner)

// WithLegacyV emits v as 27/28 instead of the raw 0/1 recovery id
func WithLegacyV() Option {
	return func(s *InMemoryTypedDataSigner) {
		s.legacyV = true
	}
}

type InMemoryTypedDataSigner struct {
	logger     *zap.Logger
	privateKey *ecdsa.PrivateKey
	address    common.Address
	legacyV    bool
}

func NewInMemoryTypedDataSignerFromHex(privateKeyHex string, logger *zap.Logger, opts ...Option) (*InMemoryTypedDataSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}
	return NewInMemoryTypedDataSigner(key, logger, opts...), nil
}

func NewInMemoryTypedDataSigner(key *ecdsa.PrivateKey, logger *zap.Logger, opts ...Option) *InMemoryTypedDataSigner {
	s := &InMemoryTypedDataSigner{
		logger:     logger,
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryTypedDataSigner) GetAddress() common.Address {
	return s.address
}

func (s *InMemoryTypedDataSigner) SignTypedData(ctx context.Context, td apitypes.TypedData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	digest, err := typedData.Digest(td)
	if err != nil {
		return "", fmt.Errorf("failed to compute typed data digest: %w", err)
	}

	sig, err := crypto.Sign(digest.Bytes(), s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign digest: %w", err)
	}
	if s.legacyV {
		sig[64] += 27
	}

	s.logger.Sugar().Debugw("Signed typed data",
		zap.String("primaryType", td.PrimaryType),
		zap.String("digest", digest.Hex()),
		zap.String("address", s.address.Hex()),
	)
	return hexutil.Encode(sig), nil
}
