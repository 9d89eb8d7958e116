package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the signer CLI
const (
	EnvL1SignerNetwork         = "L1_SIGNER_NETWORK"
	EnvL1SignerType            = "L1_SIGNER_TYPE"
	EnvL1SignerPrivateKey      = "L1_SIGNER_PRIVATE_KEY"
	EnvL1SignerWeb3SignerUrl   = "L1_SIGNER_WEB3SIGNER_URL"
	EnvL1SignerFromAddress     = "L1_SIGNER_FROM_ADDRESS"
	EnvL1SignerKMSKeyId        = "L1_SIGNER_KMS_KEY_ID"
	EnvL1SignerAWSRegion       = "L1_SIGNER_AWS_REGION"
	EnvL1SignerNonceStore      = "L1_SIGNER_NONCE_STORE"
	EnvL1SignerBadgerPath      = "L1_SIGNER_BADGER_PATH"
	EnvL1SignerRedisAddress    = "L1_SIGNER_REDIS_ADDRESS"
	EnvL1SignerRedisPassword   = "L1_SIGNER_REDIS_PASSWORD"
	EnvL1SignerRedisKeyPrefix  = "L1_SIGNER_REDIS_KEY_PREFIX"
	EnvL1SignerVerbose         = "L1_SIGNER_VERBOSE"
	EnvL1SignerLegacyRecoveryV = "L1_SIGNER_LEGACY_V"
)

// Network selects which exchange deployment an action is meant for. It is
// carried inside the signed message, not in the EIP-712 chain id.
type Network string

const (
	Network_Mainnet Network = "mainnet"
	Network_Testnet Network = "testnet"
)

func (n Network) String() string {
	return string(n)
}

func (n Network) IsMainnet() bool {
	return n == Network_Mainnet
}

// HyperliquidChain is the value of the hyperliquidChain field of user-signed actions.
func (n Network) HyperliquidChain() string {
	if n.IsMainnet() {
		return "Mainnet"
	}
	return "Testnet"
}

func ParseNetwork(s string) (Network, error) {
	switch Network(strings.ToLower(strings.TrimSpace(s))) {
	case Network_Mainnet:
		return Network_Mainnet, nil
	case Network_Testnet:
		return Network_Testnet, nil
	default:
		return "", fmt.Errorf("unsupported network %q. Supported: %s", s, GetSupportedNetworksString())
	}
}

func GetSupportedNetworksString() string {
	return fmt.Sprintf("%s, %s", Network_Mainnet, Network_Testnet)
}

type SignerType string

const (
	SignerType_PrivateKey SignerType = "private-key"
	SignerType_Web3Signer SignerType = "web3signer"
	SignerType_AWSKMS     SignerType = "aws-kms"
)

type NonceStoreType string

const (
	NonceStoreType_Memory NonceStoreType = "memory"
	NonceStoreType_Badger NonceStoreType = "badger"
	NonceStoreType_Redis  NonceStoreType = "redis"
)

type RemoteSignerConfig struct {
	Url         string `json:"url" yaml:"url"`
	CACert      string `json:"caCert" yaml:"caCert"`
	Cert        string `json:"cert" yaml:"cert"`
	Key         string `json:"key" yaml:"key"`
	FromAddress string `json:"fromAddress" yaml:"fromAddress"`
	PublicKey   string `json:"publicKey" yaml:"publicKey"`
}

func (rsc *RemoteSignerConfig) Validate() error {
	var allErrors field.ErrorList
	if rsc.FromAddress == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("fromAddress"), "fromAddress is required"))
	} else if !common.IsHexAddress(rsc.FromAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("fromAddress"), rsc.FromAddress, "must be a hex address"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

type AWSKMSConfig struct {
	KeyId  string `json:"keyId" yaml:"keyId"`
	Region string `json:"region" yaml:"region"`
}

type NonceStoreConfig struct {
	Type NonceStoreType `json:"type" yaml:"type"`

	BadgerPath string `json:"badgerPath" yaml:"badgerPath"`

	RedisAddress   string `json:"redisAddress" yaml:"redisAddress"`
	RedisPassword  string `json:"redisPassword" yaml:"redisPassword"`
	RedisDB        int    `json:"redisDb" yaml:"redisDb"`
	RedisKeyPrefix string `json:"redisKeyPrefix" yaml:"redisKeyPrefix"`
}

// SignerConfig is the complete configuration of an L1 action signer
type SignerConfig struct {
	Network Network    `json:"network"`
	Type    SignerType `json:"type"`

	// PrivateKey is a hex secp256k1 key, only for SignerType_PrivateKey
	PrivateKey string `json:"privateKey"`
	// LegacyRecoveryV makes the private key signer emit v as 27/28
	LegacyRecoveryV bool `json:"legacyRecoveryV"`

	RemoteSigner *RemoteSignerConfig `json:"remoteSigner,omitempty"`
	AWSKMS       *AWSKMSConfig       `json:"awsKms,omitempty"`
	NonceStore   *NonceStoreConfig   `json:"nonceStore,omitempty"`

	Debug bool `json:"debug"`
}

// Validate checks the configuration and reports every problem at once
func (c *SignerConfig) Validate() error {
	var allErrors field.ErrorList

	if _, err := ParseNetwork(string(c.Network)); err != nil {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("network"), c.Network,
			[]string{string(Network_Mainnet), string(Network_Testnet)}))
	}

	switch c.Type {
	case SignerType_PrivateKey:
		allErrors = append(allErrors, validatePrivateKey(field.NewPath("privateKey"), c.PrivateKey)...)
	case SignerType_Web3Signer:
		p := field.NewPath("remoteSigner")
		if c.RemoteSigner == nil {
			allErrors = append(allErrors, field.Required(p, "remoteSigner is required for the web3signer signer type"))
			break
		}
		if c.RemoteSigner.Url == "" {
			allErrors = append(allErrors, field.Required(p.Child("url"), "url is required"))
		}
		if err := c.RemoteSigner.Validate(); err != nil {
			allErrors = append(allErrors, field.Invalid(p, c.RemoteSigner.FromAddress, err.Error()))
		}
	case SignerType_AWSKMS:
		p := field.NewPath("awsKms")
		if c.AWSKMS == nil || c.AWSKMS.KeyId == "" {
			allErrors = append(allErrors, field.Required(p.Child("keyId"), "keyId is required for the aws-kms signer type"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("type"), c.Type,
			[]string{string(SignerType_PrivateKey), string(SignerType_Web3Signer), string(SignerType_AWSKMS)}))
	}

	if c.NonceStore != nil {
		allErrors = append(allErrors, c.NonceStore.validate(field.NewPath("nonceStore"))...)
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func (n *NonceStoreConfig) validate(p *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	switch n.Type {
	case NonceStoreType_Memory:
	case NonceStoreType_Badger:
		if n.BadgerPath == "" {
			allErrors = append(allErrors, field.Required(p.Child("badgerPath"), "badgerPath is required for the badger nonce store"))
		}
	case NonceStoreType_Redis:
		if n.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(p.Child("redisAddress"), "redisAddress is required for the redis nonce store"))
		}
		if n.RedisDB < 0 || n.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(p.Child("redisDb"), n.RedisDB, "must be between 0-15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(p.Child("type"), n.Type,
			[]string{string(NonceStoreType_Memory), string(NonceStoreType_Badger), string(NonceStoreType_Redis)}))
	}
	return allErrors
}

func validatePrivateKey(p *field.Path, key string) field.ErrorList {
	if key == "" {
		return field.ErrorList{field.Required(p, "private key cannot be empty")}
	}
	k := key
	if !strings.HasPrefix(k, "0x") {
		k = "0x" + k
	}
	if len(k) != 66 { // 0x + 64 hex chars
		return field.ErrorList{field.Invalid(p, "<redacted>",
			fmt.Sprintf("private key must be 32 bytes (64 hex chars), got %d chars", len(k)-2))}
	}
	return nil
}
