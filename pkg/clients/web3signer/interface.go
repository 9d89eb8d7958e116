package web3signer

import (
	"context"
	"net/http"
)

// IWeb3Signer defines the subset of the Web3Signer JSON-RPC API used for
// typed data signing.
type IWeb3Signer interface {
	// SetHttpClient allows setting a custom HTTP client, mostly for tests.
	SetHttpClient(client *http.Client)

	// EthAccounts returns the accounts available for signing (eth_accounts).
	EthAccounts(ctx context.Context) ([]string, error)

	// EthSignTypedData signs EIP-712 typed data with the specified account
	// (eth_signTypedData) and returns the hex encoded signature.
	EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error)
}

// Compile-time check to ensure Client implements IWeb3Signer
var _ IWeb3Signer = (*Client)(nil)
