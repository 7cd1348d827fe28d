package agent

import (
	"context"

	"github.com/kongswap/treasury-adaptor/internal/types"
)

// Request describes one canister call: its method, whether it mutates state,
// and its serialized argument.
type Request interface {
	Method() string
	Update() bool
	Payload() ([]byte, error)
}

// TypedRequest additionally knows how to decode the raw reply into its typed
// result and the audit witness proving what happened.
type TypedRequest[Ok any] interface {
	Request
	Decode(canisterID types.Principal, raw []byte) (types.Witness, Ok, *types.Error)
}

// Agent performs exactly one outbound call per invocation and returns the raw
// reply bytes. Transport failures come back as an error; backend-level errors
// live inside the reply and are the request's Decode to surface.
type Agent interface {
	Call(ctx context.Context, canisterID types.Principal, req Request) ([]byte, error)
}
