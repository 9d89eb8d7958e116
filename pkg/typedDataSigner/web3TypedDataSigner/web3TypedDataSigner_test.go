package web3TypedDataSigner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Layr-Labs/l1-action-signer/pkg/actionHash"
	"github.com/Layr-Labs/l1-action-signer/pkg/clients/web3signer"
	"github.com/Layr-Labs/l1-action-signer/pkg/signature"
	"github.com/Layr-Labs/l1-action-signer/pkg/typedData"
	"github.com/Layr-Labs/l1-action-signer/pkg/typedDataSigner"
	"github.com/Layr-Labs/l1-action-signer/pkg/typedDataSigner/inMemoryTypedDataSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var _ typedDataSigner.ITypedDataSigner = (*Web3TypedDataSigner)(nil)

// fakeWeb3Signer re-decodes the typed data the way a remote signer would and
// signs it with a local key.
type fakeWeb3Signer struct {
	signer  *inMemoryTypedDataSigner.InMemoryTypedDataSigner
	account string
	err     error
}

func (f *fakeWeb3Signer) SetHttpClient(*http.Client) {}

func (f *fakeWeb3Signer) EthAccounts(context.Context) ([]string, error) {
	return []string{f.signer.GetAddress().Hex()}, nil
}

func (f *fakeWeb3Signer) EthSignTypedData(ctx context.Context, account string, td interface{}) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.account = account

	raw, err := json.Marshal(td)
	if err != nil {
		return "", err
	}
	var decoded apitypes.TypedData
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", err
	}
	return f.signer.SignTypedData(ctx, decoded)
}

var _ web3signer.IWeb3Signer = (*fakeWeb3Signer)(nil)

func Test_Web3TypedDataSigner(t *testing.T) {
	l := zaptest.NewLogger(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	local := inMemoryTypedDataSigner.NewInMemoryTypedDataSigner(key, l)

	td := typedData.NewL1AgentTypedData(actionHash.Hash([]byte("frame")), typedData.SourceTestnet)
	digest, err := typedData.Digest(td)
	require.NoError(t, err)

	t.Run("Should sign through the remote signer", func(t *testing.T) {
		fake := &fakeWeb3Signer{signer: local}
		s := NewWeb3TypedDataSigner(fake, local.GetAddress(), l)

		hexSig, err := s.SignTypedData(context.Background(), td)
		require.NoError(t, err)
		assert.Equal(t, local.GetAddress().Hex(), fake.account)

		sig, err := signature.Split(hexSig)
		require.NoError(t, err)
		addr, err := sig.Recover(digest)
		require.NoError(t, err)
		assert.Equal(t, local.GetAddress(), addr)
	})

	t.Run("Should report the configured address", func(t *testing.T) {
		addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
		s := NewWeb3TypedDataSigner(&fakeWeb3Signer{signer: local}, addr, l)
		assert.Equal(t, addr, s.GetAddress())
	})

	t.Run("Should wrap remote failures", func(t *testing.T) {
		rpcErr := &web3signer.JsonRpcError{Code: -32000, Message: "locked"}
		s := NewWeb3TypedDataSigner(&fakeWeb3Signer{signer: local, err: rpcErr}, local.GetAddress(), l)

		_, err := s.SignTypedData(context.Background(), td)
		assert.True(t, errors.Is(err, rpcErr))
	})
}
