package actionHash

import (
	"fmt"

	"github.com/Layr-Labs/l1-action-signer/pkg/actionEncoder"
)

// ComputeConnectionId encodes action, frames it with sc and hashes the
// frame. The frame is returned for inspection.
func ComputeConnectionId(action interface{}, sc *SigningContext) (ConnectionId, []byte, error) {
	if sc == nil {
		return ConnectionId{}, nil, fmt.Errorf("signing context cannot be nil")
	}
	actionBytes, err := actionEncoder.Encode(action)
	if err != nil {
		return ConnectionId{}, nil, err
	}
	frame := sc.BuildFrame(actionBytes)
	return Hash(frame), frame, nil
}
