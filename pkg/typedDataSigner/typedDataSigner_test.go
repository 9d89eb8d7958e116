package typedDataSigner

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SigningRejectedError(t *testing.T) {
	cause := errors.New("user declined")
	err := fmt.Errorf("sign: %w", NewSigningRejectedError(cause))

	assert.True(t, errors.Is(err, ErrSigningRejected))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "user declined")

	var rejected *SigningRejectedError
	assert.True(t, errors.As(err, &rejected))
	assert.Equal(t, cause, rejected.Cause)

	assert.Equal(t, "signing rejected", NewSigningRejectedError(nil).Error())
}
