package web3TypedDataSigner

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/l1-action-signer/pkg/clients/web3signer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"
)

// Web3TypedDataSigner delegates EIP-712 signing to a Web3Signer instance
// holding the key for fromAddress.
type Web3TypedDataSigner struct {
	web3SignerClient web3signer.IWeb3Signer
	fromAddress      common.Address
	logger           *zap.Logger
}

func NewWeb3TypedDataSigner(web3SignerClient web3signer.IWeb3Signer, fromAddress common.Address, logger *zap.Logger) *Web3TypedDataSigner {
	return &Web3TypedDataSigner{
		web3SignerClient: web3SignerClient,
		fromAddress:      fromAddress,
		logger:           logger,
	}
}

func (w3s *Web3TypedDataSigner) GetAddress() common.Address {
	return w3s.fromAddress
}

func (w3s *Web3TypedDataSigner) SignTypedData(ctx context.Context, td apitypes.TypedData) (string, error) {
	w3s.logger.Debug("SignTypedData: requesting Web3Signer signature",
		zap.String("from", w3s.fromAddress.Hex()),
		zap.String("primaryType", td.PrimaryType),
	)

	sig, err := w3s.web3SignerClient.EthSignTypedData(ctx, w3s.fromAddress.Hex(), td)
	if err != nil {
		return "", fmt.Errorf("failed to sign typed data with Web3Signer: %w", err)
	}
	return sig, nil
}
