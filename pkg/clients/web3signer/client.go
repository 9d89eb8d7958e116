package web3signer

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Layr-Labs/l1-action-signer/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseUrl           = "http://localhost:9000"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 20

	jsonRpcVersion = "2.0"
)

type Config struct {
	BaseUrl           string
	Timeout           time.Duration
	RequestsPerSecond float64

	// PEM encoded TLS material, all optional
	CACert string
	Cert   string
	Key    string
}

func DefaultConfig() *Config {
	return &Config{
		BaseUrl:           DefaultBaseUrl,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
	}
}

func NewConfigWithTLS(baseUrl, caCert, cert, key string) *Config {
	cfg := DefaultConfig()
	cfg.BaseUrl = baseUrl
	cfg.CACert = caCert
	cfg.Cert = cert
	cfg.Key = key
	return cfg
}

type Client struct {
	cfg        *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

type JsonRpcRequest struct {
	JsonRpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	Id      string        `json:"id"`
}

type JsonRpcResponse struct {
	JsonRpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JsonRpcError   `json:"error,omitempty"`
	Id      interface{}     `json:"id"`
}

type JsonRpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *JsonRpcError) Error() string {
	return fmt.Sprintf("web3signer error %d: %s", e.Code, e.Message)
}

func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseUrl == "" {
		return nil, fmt.Errorf("base url is required")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.CACert != "" || cfg.Cert != "" {
		tlsConfig, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsConfig
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// NewWeb3SignerClientFromRemoteSignerConfig builds a client from the signer
// configuration, falling back to defaults when cfg is nil.
func NewWeb3SignerClientFromRemoteSignerConfig(cfg *config.RemoteSignerConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return NewClient(DefaultConfig(), logger)
	}
	return NewClient(NewConfigWithTLS(cfg.Url, cfg.CACert, cfg.Cert, cfg.Key), logger)
}

func buildTLSConfig(cfg *Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CACert != "" {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM([]byte(cfg.CACert)) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = pool
	}
	if cfg.Cert != "" || cfg.Key != "" {
		cert, err := tls.X509KeyPair([]byte(cfg.Cert), []byte(cfg.Key))
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) EthAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.call(ctx, "eth_accounts", []interface{}{}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// EthSignTypedData signs typedData (any value that marshals to the EIP-712
// JSON form, such as apitypes.TypedData) with account.
func (c *Client) EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error) {
	var sig string
	if err := c.call(ctx, "eth_signTypedData", []interface{}{account, typedData}, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req := JsonRpcRequest{
		JsonRpc: jsonRpcVersion,
		Method:  method,
		Params:  params,
		Id:      uuid.New().String(),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseUrl, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Sending Web3Signer request",
		zap.String("method", method),
		zap.String("id", req.Id),
	)

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s request returned status %d: %s", method, res.StatusCode, string(resBody))
	}

	var rpcRes JsonRpcResponse
	if err := json.Unmarshal(resBody, &rpcRes); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if rpcRes.Error != nil {
		return rpcRes.Error
	}
	if len(rpcRes.Result) == 0 {
		return fmt.Errorf("%s response has no result", method)
	}
	if err := json.Unmarshal(rpcRes.Result, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}
