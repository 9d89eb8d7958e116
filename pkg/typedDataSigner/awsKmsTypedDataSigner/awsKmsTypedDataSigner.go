package awsKmsTypedDataSigner

import (
	"context"
	cryptoEcdsa "crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/l1-action-signer/pkg/typedData"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// IKMSClient is the part of the KMS API the signer needs; *kms.Client satisfies it.
type IKMSClient interface {
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

var (
	secp256k1N, _  = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

type AWSKMSTypedDataSigner struct {
	logger    *zap.Logger
	kmsClient IKMSClient
	keyId     string
	publicKey *cryptoEcdsa.PublicKey
	address   common.Address
}

func NewAWSKMSTypedDataSignerFromConfig(ctx context.Context, awsCfg aws.Config, keyId string, logger *zap.Logger) (*AWSKMSTypedDataSigner, error) {
	return NewAWSKMSTypedDataSigner(ctx, kms.NewFromConfig(awsCfg), keyId, logger)
}

// NewAWSKMSTypedDataSigner loads the public key of keyId once so the signing
// address is known up front.
func NewAWSKMSTypedDataSigner(ctx context.Context, kmsClient IKMSClient, keyId string, logger *zap.Logger) (*AWSKMSTypedDataSigner, error) {
	if keyId == "" {
		return nil, errors.New("key id is required")
	}

	out, err := kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(keyId),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for key %s", keyId)
	}

	pubKey, err := parseECDSAPublicKey(out.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for key %s", keyId)
	}

	return &AWSKMSTypedDataSigner{
		logger:    logger,
		kmsClient: kmsClient,
		keyId:     keyId,
		publicKey: pubKey,
		address:   crypto.PubkeyToAddress(*pubKey),
	}, nil
}

func (a *AWSKMSTypedDataSigner) GetAddress() common.Address {
	return a.address
}

func (a *AWSKMSTypedDataSigner) SignTypedData(ctx context.Context, td apitypes.TypedData) (string, error) {
	digest, err := typedData.Digest(td)
	if err != nil {
		return "", errors.Wrap(err, "failed to compute typed data digest")
	}

	sig, err := a.signDigest(ctx, digest.Bytes())
	if err != nil {
		return "", errors.Wrapf(err, "failed to sign digest with key %s", a.keyId)
	}
	return hexutil.Encode(sig), nil
}

// parseECDSAPublicKey parses the DER-encoded public key from KMS
func parseECDSAPublicKey(derBytes []byte) (*cryptoEcdsa.PublicKey, error) {
	var asn1pubk asn1EcPublicKey
	if _, err := asn1.Unmarshal(derBytes, &asn1pubk); err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 public key: %w", err)
	}
	return crypto.UnmarshalPubkey(asn1pubk.PublicKey.Bytes)
}

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

func (a *AWSKMSTypedDataSigner) signDigest(ctx context.Context, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("digest must be exactly 32 bytes, got %d", len(digest))
	}

	signOutput, err := a.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(a.keyId),
		Message:          digest,
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      types.MessageTypeDigest,
	})
	if err != nil {
		return nil, err
	}

	var sigAsn1 asn1EcSig
	if _, err := asn1.Unmarshal(signOutput.Signature, &sigAsn1); err != nil {
		return nil, errors.Wrap(err, "failed to parse ASN.1 signature")
	}

	r := new(big.Int).SetBytes(sigAsn1.R.Bytes)
	s := new(big.Int).SetBytes(sigAsn1.S.Bytes)

	// low-S form, as Ethereum recovery requires
	if s.Cmp(secp256k1HalfN) > 0 {
		s = new(big.Int).Sub(secp256k1N, s)
	}

	sig := make([]byte, 65)
	r.FillBytes(sig[0:32])
	s.FillBytes(sig[32:64])

	// KMS does not return a recovery id, find the one that yields our key
	for recoveryId := 0; recoveryId < 2; recoveryId++ {
		sig[64] = byte(recoveryId)

		recovered, err := crypto.SigToPub(digest, sig)
		if err != nil {
			a.logger.Debug("Ecrecover failed",
				zap.Int("recoveryId", recoveryId),
				zap.Error(err))
			continue
		}
		if recovered.X.Cmp(a.publicKey.X) == 0 && recovered.Y.Cmp(a.publicKey.Y) == 0 {
			sig[64] = byte(27 + recoveryId)
			return sig, nil
		}
	}

	return nil, errors.New("could not determine valid recovery ID - signature recovery failed")
}
