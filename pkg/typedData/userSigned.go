package typedData

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Layr-Labs/l1-action-signer/pkg/actionEncoder"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	UsdSendPrimaryType           = "HyperliquidTransaction:UsdSend"
	SpotSendPrimaryType          = "HyperliquidTransaction:SpotSend"
	WithdrawPrimaryType          = "HyperliquidTransaction:Withdraw"
	UsdClassTransferPrimaryType  = "HyperliquidTransaction:UsdClassTransfer"
	ApproveAgentPrimaryType      = "HyperliquidTransaction:ApproveAgent"
	ApproveBuilderFeePrimaryType = "HyperliquidTransaction:ApproveBuilderFee"
)

var UsdSendTypes = []apitypes.Type{
	{Name: "hyperliquidChain", Type: "string"},
	{Name: "destination", Type: "string"},
	{Name: "amount", Type: "string"},
	{Name: "time", Type: "uint64"},
}

var SpotSendTypes = []apitypes.Type{
	{Name: "hyperliquidChain", Type: "string"},
	{Name: "destination", Type: "string"},
	{Name: "token", Type: "string"},
	{Name: "amount", Type: "string"},
	{Name: "time", Type: "uint64"},
}

var WithdrawTypes = []apitypes.Type{
	{Name: "hyperliquidChain", Type: "string"},
	{Name: "destination", Type: "string"},
	{Name: "amount", Type: "string"},
	{Name: "time", Type: "uint64"},
}

var UsdClassTransferTypes = []apitypes.Type{
	{Name: "hyperliquidChain", Type: "string"},
	{Name: "amount", Type: "string"},
	{Name: "toPerp", Type: "bool"},
	{Name: "nonce", Type: "uint64"},
}

var ApproveAgentTypes = []apitypes.Type{
	{Name: "hyperliquidChain", Type: "string"},
	{Name: "agentAddress", Type: "address"},
	{Name: "agentName", Type: "string"},
	{Name: "nonce", Type: "uint64"},
}

var ApproveBuilderFeeTypes = []apitypes.Type{
	{Name: "hyperliquidChain", Type: "string"},
	{Name: "maxFeeRate", Type: "string"},
	{Name: "builder", Type: "address"},
	{Name: "nonce", Type: "uint64"},
}

// NewUserSignedTypedData builds the HyperliquidSignTransaction envelope for a
// user-signed action. The domain chain id comes from action.signatureChainId
// and the message carries only the listed fields.
func NewUserSignedTypedData(action *actionEncoder.Record, fields []apitypes.Type, primaryType string) (apitypes.TypedData, error) {
	if action == nil {
		return apitypes.TypedData{}, fmt.Errorf("action is nil")
	}
	if primaryType == "" {
		return apitypes.TypedData{}, fmt.Errorf("primary type is empty")
	}

	chainId, err := signatureChainId(action)
	if err != nil {
		return apitypes.TypedData{}, err
	}

	message := apitypes.TypedDataMessage{}
	for _, f := range fields {
		v, ok := action.Get(f.Name)
		if !ok || v.IsAbsent() {
			return apitypes.TypedData{}, fmt.Errorf("action is missing field %q", f.Name)
		}
		mv, err := messageValue(f, v)
		if err != nil {
			return apitypes.TypedData{}, err
		}
		message[f.Name] = mv
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			primaryType:      fields,
			eip712DomainType: eip712DomainFields,
		},
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              UserSignedDomainName,
			Version:           UserSignedDomainVersion,
			ChainId:           (*math.HexOrDecimal256)(chainId),
			VerifyingContract: ZeroAddress,
		},
		Message: message,
	}, nil
}

func signatureChainId(action *actionEncoder.Record) (*big.Int, error) {
	v, ok := action.Get("signatureChainId")
	if !ok || v.Kind() != actionEncoder.KindString {
		return nil, fmt.Errorf("action signatureChainId must be a hex string")
	}
	chainId, ok := math.ParseBig256(v.Str())
	if !ok {
		return nil, fmt.Errorf("invalid signatureChainId %q", v.Str())
	}
	return chainId, nil
}

func messageValue(f apitypes.Type, v actionEncoder.Value) (interface{}, error) {
	switch {
	case f.Type == "string":
		if v.Kind() != actionEncoder.KindString {
			return nil, fmt.Errorf("field %q: expected string, got %s", f.Name, v.Kind())
		}
		return v.Str(), nil
	case f.Type == "bool":
		if v.Kind() != actionEncoder.KindBool {
			return nil, fmt.Errorf("field %q: expected bool, got %s", f.Name, v.Kind())
		}
		return v.Bool(), nil
	case f.Type == "address":
		if v.Kind() != actionEncoder.KindString || !common.IsHexAddress(v.Str()) {
			return nil, fmt.Errorf("field %q: expected hex address", f.Name)
		}
		return strings.ToLower(v.Str()), nil
	case strings.HasPrefix(f.Type, "uint") || strings.HasPrefix(f.Type, "int"):
		if n, ok := v.AsBigInt(); ok {
			return n, nil
		}
		return nil, fmt.Errorf("field %q: expected integer, got %s", f.Name, v.Kind())
	default:
		return nil, fmt.Errorf("field %q: unsupported type %s", f.Name, f.Type)
	}
}
