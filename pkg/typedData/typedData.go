package typedData

import (
	"fmt"

	"github.com/Layr-Labs/l1-action-signer/pkg/actionHash"
	"github.com/Layr-Labs/l1-action-signer/pkg/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	// L1 actions are signed in a fixed domain whatever network they target
	L1DomainName    = "Exchange"
	L1DomainVersion = "1"
	L1ChainId       = 1337

	AgentPrimaryType = "Agent"

	UserSignedDomainName    = "HyperliquidSignTransaction"
	UserSignedDomainVersion = "1"
	DefaultSignatureChainId = "0x66eee"

	SourceMainnet = "a"
	SourceTestnet = "b"

	ZeroAddress = "0x0000000000000000000000000000000000000000"

	eip712DomainType = "EIP712Domain"
)

var eip712DomainFields = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

var AgentTypes = []apitypes.Type{
	{Name: "source", Type: "string"},
	{Name: "connectionId", Type: "bytes32"},
}

// SourceForNetwork returns the Agent source tag. Network selection travels
// in the message because the L1 domain chain id never changes.
func SourceForNetwork(network config.Network) string {
	if network.IsMainnet() {
		return SourceMainnet
	}
	return SourceTestnet
}

// NewL1AgentTypedData wraps a connection id in the Agent envelope:
//
//	domain  Exchange / 1 / 1337 / 0x0
//	message Agent{source: string, connectionId: bytes32}
func NewL1AgentTypedData(connectionId actionHash.ConnectionId, source string) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			AgentPrimaryType: AgentTypes,
			eip712DomainType: eip712DomainFields,
		},
		PrimaryType: AgentPrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              L1DomainName,
			Version:           L1DomainVersion,
			ChainId:           math.NewHexOrDecimal256(L1ChainId),
			VerifyingContract: ZeroAddress,
		},
		Message: apitypes.TypedDataMessage{
			"source":       source,
			"connectionId": hexutil.Encode(connectionId.Bytes()),
		},
	}
}

// Digest returns keccak256(0x19 0x01 ‖ domainSeparator ‖ hashStruct(message)),
// the 32 bytes a secp256k1 key actually signs.
func Digest(td apitypes.TypedData) (common.Hash, error) {
	domainSeparator, err := td.HashStruct(eip712DomainType, td.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash domain: %w", err)
	}

	messageHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := []byte{0x19, 0x01}
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, messageHash...)
	return crypto.Keccak256Hash(rawData), nil
}
