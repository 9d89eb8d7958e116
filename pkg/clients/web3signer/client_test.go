package web3signer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, handler func(req JsonRpcRequest) JsonRpcResponse) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req JsonRpcRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JsonRpc)
		assert.NotEmpty(t, req.Id)

		res := handler(req)
		res.JsonRpc = "2.0"
		res.Id = req.Id
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string) *Client {
	cfg := DefaultConfig()
	cfg.BaseUrl = url
	client, err := NewClient(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func Test_EthAccounts(t *testing.T) {
	srv := newTestServer(t, func(req JsonRpcRequest) JsonRpcResponse {
		assert.Equal(t, "eth_accounts", req.Method)
		return JsonRpcResponse{Result: json.RawMessage(`["0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"]`)}
	})

	accounts, err := newTestClient(t, srv.URL).EthAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"}, accounts)
}

func Test_EthSignTypedData(t *testing.T) {
	t.Run("Should send the account and typed data", func(t *testing.T) {
		srv := newTestServer(t, func(req JsonRpcRequest) JsonRpcResponse {
			assert.Equal(t, "eth_signTypedData", req.Method)
			if assert.Len(t, req.Params, 2) {
				assert.Equal(t, "0xabc", req.Params[0])
				assert.Equal(t, map[string]interface{}{"primaryType": "Agent"}, req.Params[1])
			}
			return JsonRpcResponse{Result: json.RawMessage(`"0x1234"`)}
		})

		sig, err := newTestClient(t, srv.URL).EthSignTypedData(context.Background(), "0xabc", map[string]interface{}{"primaryType": "Agent"})
		require.NoError(t, err)
		assert.Equal(t, "0x1234", sig)
	})

	t.Run("Should surface JSON-RPC errors", func(t *testing.T) {
		srv := newTestServer(t, func(req JsonRpcRequest) JsonRpcResponse {
			return JsonRpcResponse{Error: &JsonRpcError{Code: -32000, Message: "key not found"}}
		})

		_, err := newTestClient(t, srv.URL).EthSignTypedData(context.Background(), "0xabc", struct{}{})
		var rpcErr *JsonRpcError
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, -32000, rpcErr.Code)
		assert.Equal(t, "key not found", rpcErr.Message)
	})

	t.Run("Should fail on non 200 responses", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).EthSignTypedData(context.Background(), "0xabc", struct{}{})
		assert.ErrorContains(t, err, "500")
	})

	t.Run("Should fail on a missing result", func(t *testing.T) {
		srv := newTestServer(t, func(req JsonRpcRequest) JsonRpcResponse {
			return JsonRpcResponse{}
		})

		_, err := newTestClient(t, srv.URL).EthSignTypedData(context.Background(), "0xabc", struct{}{})
		assert.ErrorContains(t, err, "no result")
	})

	t.Run("Should honour a cancelled context", func(t *testing.T) {
		srv := newTestServer(t, func(req JsonRpcRequest) JsonRpcResponse {
			return JsonRpcResponse{Result: json.RawMessage(`"0x"`)}
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestClient(t, srv.URL).EthSignTypedData(ctx, "0xabc", struct{}{})
		assert.Error(t, err)
	})
}

func Test_SetHttpClient(t *testing.T) {
	srv := newTestServer(t, func(req JsonRpcRequest) JsonRpcResponse {
		return JsonRpcResponse{Result: json.RawMessage(`[]`)}
	})

	client := newTestClient(t, srv.URL)
	client.SetHttpClient(srv.Client())

	accounts, err := client.EthAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
