package typedData

import (
	"math/big"
	"testing"

	"github.com/Layr-Labs/l1-action-signer/pkg/actionEncoder"
	"github.com/Layr-Labs/l1-action-signer/pkg/actionHash"
	"github.com/Layr-Labs/l1-action-signer/pkg/config"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConnectionId = "0x0eb804535c3dfb93cb8b20d0754acfbd36dbc86c1bed2bf8ecc0e6a01aa567a1"

func Test_SourceForNetwork(t *testing.T) {
	assert.Equal(t, "a", SourceForNetwork(config.Network_Mainnet))
	assert.Equal(t, "b", SourceForNetwork(config.Network_Testnet))
}

func Test_NewL1AgentTypedData(t *testing.T) {
	connectionId, err := actionHash.ConnectionIdFromHex(testConnectionId)
	require.NoError(t, err)

	t.Run("Should build the Agent envelope in the Exchange domain", func(t *testing.T) {
		td := NewL1AgentTypedData(connectionId, SourceMainnet)

		assert.Equal(t, AgentPrimaryType, td.PrimaryType)
		assert.Equal(t, "Exchange", td.Domain.Name)
		assert.Equal(t, "1", td.Domain.Version)
		assert.Equal(t, int64(1337), (*big.Int)(td.Domain.ChainId).Int64())
		assert.Equal(t, ZeroAddress, td.Domain.VerifyingContract)
		assert.Equal(t, "a", td.Message["source"])
		assert.Equal(t, testConnectionId, td.Message["connectionId"])
		require.Len(t, td.Types[AgentPrimaryType], 2)
		assert.Equal(t, "bytes32", td.Types[AgentPrimaryType][1].Type)
	})

	t.Run("Should produce the known mainnet and testnet digests", func(t *testing.T) {
		mainnet, err := Digest(NewL1AgentTypedData(connectionId, SourceMainnet))
		require.NoError(t, err)
		assert.Equal(t, "0xfba6dfab9e07e5079fe9e5d6831e16d6873f34f5923f6364bdd976738b8a13fe", mainnet.Hex())

		testnet, err := Digest(NewL1AgentTypedData(connectionId, SourceTestnet))
		require.NoError(t, err)
		assert.Equal(t, "0x49e33deb5dce1b11e7739667a2ed01756ea19d0e1b6445a6d310e3561ae6e0cd", testnet.Hex())
	})

	t.Run("Should change the digest when the connection id changes", func(t *testing.T) {
		other := connectionId
		other[0] ^= 0xff

		a, err := Digest(NewL1AgentTypedData(connectionId, SourceMainnet))
		require.NoError(t, err)
		b, err := Digest(NewL1AgentTypedData(other, SourceMainnet))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func usdSendAction() *actionEncoder.Record {
	return actionEncoder.NewRecord().
		Set("type", actionEncoder.String("usdSend")).
		Set("signatureChainId", actionEncoder.String(DefaultSignatureChainId)).
		Set("hyperliquidChain", actionEncoder.String("Testnet")).
		Set("destination", actionEncoder.String("0x0000000000000000000000000000000000000001")).
		Set("amount", actionEncoder.String("1")).
		Set("time", actionEncoder.Uint(1700000000000))
}

func Test_NewUserSignedTypedData(t *testing.T) {
	t.Run("Should build the HyperliquidSignTransaction envelope", func(t *testing.T) {
		td, err := NewUserSignedTypedData(usdSendAction(), UsdSendTypes, UsdSendPrimaryType)
		require.NoError(t, err)

		assert.Equal(t, UserSignedDomainName, td.Domain.Name)
		assert.Equal(t, int64(0x66eee), (*big.Int)(td.Domain.ChainId).Int64())
		assert.Len(t, td.Message, len(UsdSendTypes))
		assert.NotContains(t, td.Message, "type")
		assert.NotContains(t, td.Message, "signatureChainId")
		assert.Equal(t, big.NewInt(1700000000000), td.Message["time"])
	})

	t.Run("Should produce the known UsdSend digest", func(t *testing.T) {
		td, err := NewUserSignedTypedData(usdSendAction(), UsdSendTypes, UsdSendPrimaryType)
		require.NoError(t, err)

		digest, err := Digest(td)
		require.NoError(t, err)
		assert.Equal(t, "0xbc86e4309ba9f5ccb0fc80bb8fc81aa8f7d66be6c2c1eb174789c33b25a2425c", digest.Hex())
	})

	t.Run("Should convert bool and address fields", func(t *testing.T) {
		action := actionEncoder.NewRecord().
			Set("signatureChainId", actionEncoder.String("0xa4b1")).
			Set("hyperliquidChain", actionEncoder.String("Mainnet")).
			Set("agentAddress", actionEncoder.String("0xABCDEFabcdefABCDEFabcdefABCDEFabcdefABCD")).
			Set("agentName", actionEncoder.String("bot")).
			Set("nonce", actionEncoder.Int(42))

		td, err := NewUserSignedTypedData(action, ApproveAgentTypes, ApproveAgentPrimaryType)
		require.NoError(t, err)
		assert.Equal(t, "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd", td.Message["agentAddress"])
		assert.Equal(t, int64(0xa4b1), (*big.Int)(td.Domain.ChainId).Int64())

		_, err = Digest(td)
		require.NoError(t, err)
	})

	t.Run("Should fail on missing or mistyped fields", func(t *testing.T) {
		missing := usdSendAction().Delete("time")
		_, err := NewUserSignedTypedData(missing, UsdSendTypes, UsdSendPrimaryType)
		assert.ErrorContains(t, err, "time")

		mistyped := usdSendAction().Set("amount", actionEncoder.Int(1))
		_, err = NewUserSignedTypedData(mistyped, UsdSendTypes, UsdSendPrimaryType)
		assert.Error(t, err)

		noChain := usdSendAction().Delete("signatureChainId")
		_, err = NewUserSignedTypedData(noChain, UsdSendTypes, UsdSendPrimaryType)
		assert.ErrorContains(t, err, "signatureChainId")

		badAddress := usdSendAction().Set("destination", actionEncoder.String("not-an-address"))
		_, err = NewUserSignedTypedData(badAddress, []apitypes.Type{{Name: "destination", Type: "address"}}, "X")
		assert.Error(t, err)

		_, err = NewUserSignedTypedData(nil, UsdSendTypes, UsdSendPrimaryType)
		assert.Error(t, err)
	})
}
