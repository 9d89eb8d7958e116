package actionSigner

import (
	"context"
	"errors"
	"fmt"

	"github.com/Layr-Labs/l1-action-signer/pkg/actionEncoder"
	"github.com/Layr-Labs/l1-action-signer/pkg/actionHash"
	"github.com/Layr-Labs/l1-action-signer/pkg/config"
	"github.com/Layr-Labs/l1-action-signer/pkg/nonceManager"
	"github.com/Layr-Labs/l1-action-signer/pkg/signature"
	"github.com/Layr-Labs/l1-action-signer/pkg/typedData"
	"github.com/Layr-Labs/l1-action-signer/pkg/typedDataSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"
)

var ErrSignerMismatch = errors.New("signature does not recover to the signer address")

type Config struct {
	Network config.Network

	// NonceManager is only needed by SignL1ActionWithNextNonce
	NonceManager *nonceManager.NonceManager

	// VerifySignatures recovers every signature and compares it with the
	// signer address before returning it
	VerifySignatures bool
}

// L1ActionSigner turns actions into exchange-ready signed payloads. It holds
// no mutable state; concurrent calls are safe as long as each uses its own
// nonce.
type L1ActionSigner struct {
	config *Config
	signer typedDataSigner.ITypedDataSigner
	logger *zap.Logger
}

func NewL1ActionSigner(cfg *Config, signer typedDataSigner.ITypedDataSigner, logger *zap.Logger) (*L1ActionSigner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if _, err := config.ParseNetwork(string(cfg.Network)); err != nil {
		return nil, err
	}
	if signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	return &L1ActionSigner{
		config: cfg,
		signer: signer,
		logger: logger,
	}, nil
}

func (s *L1ActionSigner) GetAddress() common.Address {
	return s.signer.GetAddress()
}

// SignL1Action encodes, frames and hashes action, then has the signer sign
// the resulting connection id inside the Agent envelope.
func (s *L1ActionSigner) SignL1Action(ctx context.Context, action interface{}, sc *actionHash.SigningContext) (*SignedAction, error) {
	if sc == nil {
		return nil, fmt.Errorf("signing context is required")
	}

	canonical, err := canonicalAction(action)
	if err != nil {
		s.logger.Debug("Failed to encode action", zap.Error(err))
		return nil, err
	}

	connectionId, frame, err := actionHash.ComputeConnectionId(canonical, sc)
	if err != nil {
		s.logger.Debug("Failed to compute connection id", zap.Error(err))
		return nil, err
	}

	source := typedData.SourceForNetwork(s.config.Network)
	td := typedData.NewL1AgentTypedData(connectionId, source)

	sig, err := s.sign(ctx, td)
	if err != nil {
		return nil, err
	}

	s.logger.Sugar().Debugw("Signed L1 action",
		zap.Uint64("nonce", sc.Nonce),
		zap.Int("frameLength", len(frame)),
		zap.String("connectionId", connectionId.Hex()),
		zap.String("source", source),
	)

	return &SignedAction{
		Action:       canonical,
		Nonce:        sc.Nonce,
		VaultAddress: sc.VaultAddress,
		ExpiresAfter: sc.ExpiresAfter,
		ConnectionId: connectionId,
		TypedData:    td,
		Signature:    sig,
	}, nil
}

// SignL1ActionWithNextNonce signs action with the next nonce from the
// configured nonce manager.
func (s *L1ActionSigner) SignL1ActionWithNextNonce(ctx context.Context, action interface{}, vaultAddress *common.Address, expiresAfter *uint64) (*SignedAction, error) {
	if s.config.NonceManager == nil {
		return nil, fmt.Errorf("no nonce manager configured")
	}

	nonce, err := s.config.NonceManager.Next(ctx, s.signer.GetAddress())
	if err != nil {
		return nil, err
	}

	return s.SignL1Action(ctx, action, &actionHash.SigningContext{
		Nonce:        nonce,
		VaultAddress: vaultAddress,
		ExpiresAfter: expiresAfter,
	})
}

// SignUserSignedAction signs an action that carries its own EIP-712 fields
// (transfers, withdrawals, agent approvals). hyperliquidChain is always set
// from the network and signatureChainId defaults when missing. The action is
// not modified; the returned SignedAction holds the completed copy.
func (s *L1ActionSigner) SignUserSignedAction(ctx context.Context, action *actionEncoder.Record, fields []apitypes.Type, primaryType string) (*SignedAction, error) {
	if action == nil {
		return nil, fmt.Errorf("action is required")
	}

	completed := action.Clone()
	if v, ok := completed.Get("signatureChainId"); !ok || v.IsAbsent() {
		completed.Set("signatureChainId", actionEncoder.String(typedData.DefaultSignatureChainId))
	}
	completed.Set("hyperliquidChain", actionEncoder.String(s.config.Network.HyperliquidChain()))

	nonce, err := userSignedNonce(completed)
	if err != nil {
		return nil, err
	}

	td, err := typedData.NewUserSignedTypedData(completed, fields, primaryType)
	if err != nil {
		s.logger.Debug("Failed to build user signed typed data", zap.Error(err))
		return nil, err
	}

	sig, err := s.sign(ctx, td)
	if err != nil {
		return nil, err
	}

	canonical, err := actionEncoder.Canonicalize(actionEncoder.RecordValue(completed))
	if err != nil {
		return nil, err
	}

	return &SignedAction{
		Action:    canonical,
		Nonce:     nonce,
		TypedData: td,
		Signature: sig,
	}, nil
}

func (s *L1ActionSigner) sign(ctx context.Context, td apitypes.TypedData) (*signature.Signature, error) {
	sig, err := SignTypedData(ctx, s.signer, td)
	if err != nil {
		s.logger.Debug("Typed data signing failed",
			zap.String("primaryType", td.PrimaryType),
			zap.Error(err),
		)
		return nil, err
	}

	if s.config.VerifySignatures {
		if err := verify(td, sig, s.signer.GetAddress()); err != nil {
			s.logger.Debug("Signature verification failed", zap.Error(err))
			return nil, err
		}
	}
	return sig, nil
}

// SignTypedData asks signer for a signature over td and splits the reply.
// Signer failures come back as typedDataSigner.ErrSigningRejected, replies
// that are not 65 bytes as signature.ErrMalformedSignature. V is returned
// exactly as the signer produced it.
func SignTypedData(ctx context.Context, signer typedDataSigner.ITypedDataSigner, td apitypes.TypedData) (*signature.Signature, error) {
	hexSig, err := signer.SignTypedData(ctx, td)
	if err != nil {
		if errors.Is(err, typedDataSigner.ErrSigningRejected) {
			return nil, err
		}
		return nil, typedDataSigner.NewSigningRejectedError(err)
	}

	sig, err := signature.Split(hexSig)
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// SignAgent signs a connection id in the L1 Agent envelope
func SignAgent(ctx context.Context, signer typedDataSigner.ITypedDataSigner, connectionId actionHash.ConnectionId, source string) (*signature.Signature, error) {
	return SignTypedData(ctx, signer, typedData.NewL1AgentTypedData(connectionId, source))
}

func verify(td apitypes.TypedData, sig *signature.Signature, expected common.Address) error {
	digest, err := typedData.Digest(td)
	if err != nil {
		return err
	}
	recovered, err := sig.Recover(digest)
	if err != nil {
		return err
	}
	if recovered != expected {
		return fmt.Errorf("%w: recovered %s, expected %s", ErrSignerMismatch, recovered.Hex(), expected.Hex())
	}
	return nil
}

func canonicalAction(action interface{}) (actionEncoder.Value, error) {
	v, err := actionEncoder.FromGo(action)
	if err != nil {
		return actionEncoder.Value{}, err
	}
	return actionEncoder.Canonicalize(v)
}

// userSignedNonce reads the action's own nonce field; transfers call it time
func userSignedNonce(action *actionEncoder.Record) (uint64, error) {
	for _, key := range []string{"nonce", "time"} {
		v, ok := action.Get(key)
		if !ok {
			continue
		}
		n, ok := v.AsBigInt()
		if !ok || n.Sign() < 0 || !n.IsUint64() {
			return 0, fmt.Errorf("action %s must be an unsigned 64-bit integer", key)
		}
		return n.Uint64(), nil
	}
	return 0, fmt.Errorf("action has no nonce or time field")
}
