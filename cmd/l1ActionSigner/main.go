package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Layr-Labs/l1-action-signer/pkg/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "l1-action-signer",
		Usage: "Encode, hash and sign exchange L1 actions",
		Description: `Developer tooling around the L1 action signing pipeline:

- canonical MessagePack encoding of an action
- frame construction and Keccak-256 connection id
- EIP-712 Agent signing with a local key, Web3Signer or AWS KMS
- r/s/v signature splitting and signer recovery`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvL1SignerVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "encode",
				Usage:  "Print the canonical MessagePack encoding of an action",
				Flags:  []cli.Flag{actionFlag()},
				Action: runEncode,
			},
			{
				Name:   "hash",
				Usage:  "Print the frame and connection id of an action",
				Flags:  hashFlags(),
				Action: runHash,
			},
			{
				Name:   "sign",
				Usage:  "Sign an action and print the exchange payload",
				Flags:  append(hashFlags(), signerFlags()...),
				Action: runSign,
			},
			{
				Name:  "split-signature",
				Usage: "Split a 65-byte hex signature into r, s and v",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "signature", Aliases: []string{"sig"}, Usage: "0x-prefixed signature", Required: true},
				},
				Action: runSplitSignature,
			},
			{
				Name:  "recover",
				Usage: "Recover the signer address of an L1 action signature",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "connection-id", Usage: "0x-prefixed 32-byte connection id", Required: true},
					&cli.StringFlag{Name: "signature", Aliases: []string{"sig"}, Usage: "0x-prefixed signature", Required: true},
					networkFlag(),
				},
				Action: runRecover,
			},
		},
	}
}

func actionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "action",
		Aliases:  []string{"a"},
		Usage:    "Action as JSON, or @path to read it from a file",
		Required: true,
	}
}

func networkFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "network",
		Aliases: []string{"n"},
		Usage:   fmt.Sprintf("Network: %s", config.GetSupportedNetworksString()),
		Value:   string(config.Network_Mainnet),
		EnvVars: []string{config.EnvL1SignerNetwork},
	}
}

func hashFlags() []cli.Flag {
	return []cli.Flag{
		actionFlag(),
		&cli.Uint64Flag{
			Name:  "nonce",
			Usage: "Nonce (milliseconds); 0 takes the next nonce from the nonce store when signing",
		},
		&cli.StringFlag{
			Name:  "vault-address",
			Usage: "Optional vault or sub-account address",
		},
		&cli.Uint64Flag{
			Name:  "expires-after",
			Usage: "Optional expiry timestamp (milliseconds)",
		},
	}
}

func signerFlags() []cli.Flag {
	return []cli.Flag{
		networkFlag(),
		&cli.StringFlag{
			Name:    "signer-type",
			Usage:   "Signer: private-key, web3signer or aws-kms",
			Value:   string(config.SignerType_PrivateKey),
			EnvVars: []string{config.EnvL1SignerType},
		},
		&cli.StringFlag{
			Name:    "private-key",
			Usage:   "Hex secp256k1 private key for the private-key signer",
			EnvVars: []string{config.EnvL1SignerPrivateKey},
		},
		&cli.BoolFlag{
			Name:    "legacy-v",
			Usage:   "Emit v as 27/28 with the private-key signer",
			EnvVars: []string{config.EnvL1SignerLegacyRecoveryV},
		},
		&cli.StringFlag{
			Name:    "web3signer-url",
			Usage:   "Web3Signer JSON-RPC URL",
			EnvVars: []string{config.EnvL1SignerWeb3SignerUrl},
		},
		&cli.StringFlag{
			Name:    "from-address",
			Usage:   "Address of the Web3Signer key",
			EnvVars: []string{config.EnvL1SignerFromAddress},
		},
		&cli.StringFlag{
			Name:    "kms-key-id",
			Usage:   "AWS KMS key id or alias for the aws-kms signer",
			EnvVars: []string{config.EnvL1SignerKMSKeyId},
		},
		&cli.StringFlag{
			Name:    "aws-region",
			Usage:   "AWS region override",
			EnvVars: []string{config.EnvL1SignerAWSRegion},
		},
		&cli.StringFlag{
			Name:    "nonce-store",
			Usage:   "Nonce store: memory, badger or redis",
			Value:   string(config.NonceStoreType_Memory),
			EnvVars: []string{config.EnvL1SignerNonceStore},
		},
		&cli.StringFlag{
			Name:    "badger-path",
			Usage:   "Directory of the badger nonce store",
			EnvVars: []string{config.EnvL1SignerBadgerPath},
		},
		&cli.StringFlag{
			Name:    "redis-address",
			Usage:   "Redis host:port of the redis nonce store",
			EnvVars: []string{config.EnvL1SignerRedisAddress},
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			EnvVars: []string{config.EnvL1SignerRedisPassword},
		},
		&cli.StringFlag{
			Name:    "redis-key-prefix",
			Usage:   "Prefix for redis nonce keys",
			EnvVars: []string{config.EnvL1SignerRedisKeyPrefix},
		},
	}
}
