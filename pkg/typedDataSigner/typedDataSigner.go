package typedDataSigner

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ITypedDataSigner produces secp256k1 signatures over EIP-712 typed data
type ITypedDataSigner interface {
	// SignTypedData returns a 0x-prefixed hex encoding of r ‖ s ‖ v (65 bytes)
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) (string, error)

	// GetAddress returns the address whose key produces the signatures
	GetAddress() common.Address
}

var ErrSigningRejected = errors.New("signing rejected")

// SigningRejectedError carries the signer's own failure
type SigningRejectedError struct {
	Cause error
}

func NewSigningRejectedError(cause error) *SigningRejectedError {
	return &SigningRejectedError{Cause: cause}
}

func (e *SigningRejectedError) Error() string {
	if e.Cause == nil {
		return ErrSigningRejected.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSigningRejected.Error(), e.Cause)
}

func (e *SigningRejectedError) Unwrap() error { return e.Cause }

func (e *SigningRejectedError) Is(target error) bool { return target == ErrSigningRejected }
