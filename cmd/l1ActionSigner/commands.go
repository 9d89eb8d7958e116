package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	internalAws "github.com/Layr-Labs/l1-action-signer/internal/aws"
	"github.com/Layr-Labs/l1-action-signer/pkg/actionEncoder"
	"github.com/Layr-Labs/l1-action-signer/pkg/actionHash"
	"github.com/Layr-Labs/l1-action-signer/pkg/actionSigner"
	"github.com/Layr-Labs/l1-action-signer/pkg/clients/web3signer"
	"github.com/Layr-Labs/l1-action-signer/pkg/config"
	"github.com/Layr-Labs/l1-action-signer/pkg/logger"
	"github.com/Layr-Labs/l1-action-signer/pkg/nonceManager"
	"github.com/Layr-Labs/l1-action-signer/pkg/signature"
	"github.com/Layr-Labs/l1-action-signer/pkg/typedData"
	"github.com/Layr-Labs/l1-action-signer/pkg/typedDataSigner"
	"github.com/Layr-Labs/l1-action-signer/pkg/typedDataSigner/awsKmsTypedDataSigner"
	"github.com/Layr-Labs/l1-action-signer/pkg/typedDataSigner/inMemoryTypedDataSigner"
	"github.com/Layr-Labs/l1-action-signer/pkg/typedDataSigner/web3TypedDataSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

// readAction parses --action, which is inline JSON or @path
func readAction(c *cli.Context) (actionEncoder.Value, error) {
	raw := c.String("action")
	data := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		var err error
		data, err = os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return actionEncoder.Value{}, fmt.Errorf("failed to read action file: %w", err)
		}
	}
	return actionEncoder.FromJSON(data)
}

func signingContext(c *cli.Context) (*actionHash.SigningContext, error) {
	sc := &actionHash.SigningContext{Nonce: c.Uint64("nonce")}
	if v := c.String("vault-address"); v != "" {
		if !common.IsHexAddress(v) {
			return nil, fmt.Errorf("invalid vault address %q", v)
		}
		addr := common.HexToAddress(v)
		sc.VaultAddress = &addr
	}
	if c.IsSet("expires-after") {
		expires := c.Uint64("expires-after")
		sc.ExpiresAfter = &expires
	}
	return sc, nil
}

func writeJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runEncode(c *cli.Context) error {
	action, err := readAction(c)
	if err != nil {
		return err
	}
	encoded, err := actionEncoder.EncodeValue(action)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, hexutil.Encode(encoded))
	return err
}

type hashOutput struct {
	EncodedLength int    `json:"encodedLength"`
	Frame         string `json:"frame"`
	ConnectionId  string `json:"connectionId"`
}

func runHash(c *cli.Context) error {
	action, err := readAction(c)
	if err != nil {
		return err
	}
	sc, err := signingContext(c)
	if err != nil {
		return err
	}

	encoded, err := actionEncoder.EncodeValue(action)
	if err != nil {
		return err
	}
	frame := sc.BuildFrame(encoded)

	return writeJSON(c, hashOutput{
		EncodedLength: len(encoded),
		Frame:         hexutil.Encode(frame),
		ConnectionId:  actionHash.Hash(frame).Hex(),
	})
}

func signerConfigFromFlags(c *cli.Context) (*config.SignerConfig, error) {
	network, err := config.ParseNetwork(c.String("network"))
	if err != nil {
		return nil, err
	}

	cfg := &config.SignerConfig{
		Network:         network,
		Type:            config.SignerType(c.String("signer-type")),
		PrivateKey:      c.String("private-key"),
		LegacyRecoveryV: c.Bool("legacy-v"),
		NonceStore: &config.NonceStoreConfig{
			Type:           config.NonceStoreType(c.String("nonce-store")),
			BadgerPath:     c.String("badger-path"),
			RedisAddress:   c.String("redis-address"),
			RedisPassword:  c.String("redis-password"),
			RedisKeyPrefix: c.String("redis-key-prefix"),
		},
		Debug: c.Bool("verbose"),
	}
	switch cfg.Type {
	case config.SignerType_Web3Signer:
		cfg.RemoteSigner = &config.RemoteSignerConfig{
			Url:         c.String("web3signer-url"),
			FromAddress: c.String("from-address"),
		}
	case config.SignerType_AWSKMS:
		cfg.AWSKMS = &config.AWSKMSConfig{
			KeyId:  c.String("kms-key-id"),
			Region: c.String("aws-region"),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newTypedDataSigner(ctx context.Context, cfg *config.SignerConfig, l *zap.Logger) (typedDataSigner.ITypedDataSigner, error) {
	switch cfg.Type {
	case config.SignerType_PrivateKey:
		var opts []inMemoryTypedDataSigner.Option
		if cfg.LegacyRecoveryV {
			opts = append(opts, inMemoryTypedDataSigner.WithLegacyV())
		}
		return inMemoryTypedDataSigner.NewInMemoryTypedDataSignerFromHex(cfg.PrivateKey, l, opts...)
	case config.SignerType_Web3Signer:
		client, err := web3signer.NewWeb3SignerClientFromRemoteSignerConfig(cfg.RemoteSigner, l)
		if err != nil {
			return nil, fmt.Errorf("failed to create Web3Signer client: %w", err)
		}
		return web3TypedDataSigner.NewWeb3TypedDataSigner(client, common.HexToAddress(cfg.RemoteSigner.FromAddress), l), nil
	case config.SignerType_AWSKMS:
		awsCfg, err := internalAws.LoadAWSConfig(ctx, cfg.AWSKMS.Region)
		if err != nil {
			return nil, err
		}
		if err := internalAws.LogCallerIdentity(ctx, awsCfg, l); err != nil {
			return nil, err
		}
		return awsKmsTypedDataSigner.NewAWSKMSTypedDataSignerFromConfig(ctx, awsCfg, cfg.AWSKMS.KeyId, l)
	default:
		return nil, fmt.Errorf("unsupported signer type: %s", cfg.Type)
	}
}

func runSign(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	cfg, err := signerConfigFromFlags(c)
	if err != nil {
		return err
	}

	action, err := readAction(c)
	if err != nil {
		return err
	}
	sc, err := signingContext(c)
	if err != nil {
		return err
	}

	signer, err := newTypedDataSigner(c.Context, cfg, l)
	if err != nil {
		return err
	}

	signerCfg := &actionSigner.Config{Network: cfg.Network, VerifySignatures: true}
	if sc.Nonce == 0 {
		store, err := nonceManager.NewNonceStore(cfg.NonceStore, l)
		if err != nil {
			return fmt.Errorf("failed to open nonce store: %w", err)
		}
		defer func() { _ = store.Close() }()
		signerCfg.NonceManager = nonceManager.NewNonceManager(store, l)
	}

	s, err := actionSigner.NewL1ActionSigner(signerCfg, signer, l)
	if err != nil {
		return err
	}

	l.Sugar().Infow("Signing action",
		"network", cfg.Network,
		"signer", signer.GetAddress().Hex(),
	)

	var signed *actionSigner.SignedAction
	if sc.Nonce == 0 {
		signed, err = s.SignL1ActionWithNextNonce(c.Context, action, sc.VaultAddress, sc.ExpiresAfter)
	} else {
		signed, err = s.SignL1Action(c.Context, action, sc)
	}
	if err != nil {
		return err
	}

	return writeJSON(c, signed.Payload())
}

type splitOutput struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

func runSplitSignature(c *cli.Context) error {
	sig, err := signature.Split(c.String("signature"))
	if err != nil {
		return err
	}
	return writeJSON(c, splitOutput{R: sig.RHex(), S: sig.SHex(), V: int(sig.V)})
}

func runRecover(c *cli.Context) error {
	network, err := config.ParseNetwork(c.String("network"))
	if err != nil {
		return err
	}
	connectionId, err := actionHash.ConnectionIdFromHex(c.String("connection-id"))
	if err != nil {
		return err
	}
	sig, err := signature.Split(c.String("signature"))
	if err != nil {
		return err
	}

	digest, err := typedData.Digest(typedData.NewL1AgentTypedData(connectionId, typedData.SourceForNetwork(network)))
	if err != nil {
		return err
	}
	addr, err := sig.Recover(digest)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, addr.Hex())
	return err
}
