package actionSigner

import (
	"encoding/json"
	"strings"

	"github.com/Layr-Labs/l1-action-signer/pkg/actionEncoder"
	"github.com/Layr-Labs/l1-action-signer/pkg/actionHash"
	"github.com/Layr-Labs/l1-action-signer/pkg/signature"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// SignedAction is the result of one signing operation. ConnectionId is zero
// for user-signed actions, which have no frame.
type SignedAction struct {
	Action       actionEncoder.Value
	Nonce        uint64
	VaultAddress *common.Address
	ExpiresAfter *uint64
	ConnectionId actionHash.ConnectionId
	TypedData    apitypes.TypedData
	Signature    *signature.Signature
}

// ExchangePayload is the request body the exchange endpoint expects
type ExchangePayload struct {
	Action       actionEncoder.Value  `json:"action"`
	Nonce        uint64               `json:"nonce"`
	Signature    *signature.Signature `json:"signature"`
	VaultAddress *string              `json:"vaultAddress,omitempty"`
	ExpiresAfter *uint64              `json:"expiresAfter,omitempty"`
}

func (sa *SignedAction) Payload() *ExchangePayload {
	p := &ExchangePayload{
		Action:       sa.Action,
		Nonce:        sa.Nonce,
		Signature:    sa.Signature,
		ExpiresAfter: sa.ExpiresAfter,
	}
	if sa.VaultAddress != nil {
		vault := strings.ToLower(sa.VaultAddress.Hex())
		p.VaultAddress = &vault
	}
	return p
}

func (sa *SignedAction) MarshalPayload() ([]byte, error) {
	return json.Marshal(sa.Payload())
}
