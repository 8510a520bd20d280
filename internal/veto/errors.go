package veto

import (
	"errors"
	"fmt"
)

// ErrSilentReject marks an authorization error per §7: the action is
// dropped with no state change and no broadcast. Dispatchers must check
// errors.Is(err, ErrSilentReject) and suppress any error reply.
var ErrSilentReject = errors.New("veto: action rejected")

// ErrConfigInvalid marks a configuration error at create-time (§7):
// callers should emit a single lobbyCreationError and create nothing.
var ErrConfigInvalid = errors.New("veto: invalid lobby configuration")

// rejectf wraps a reason with ErrSilentReject for %w-compatible unwrapping
// while keeping a human-readable message for logs.
func rejectf(reason string) error {
	return fmt.Errorf("%w: %s", ErrSilentReject, reason)
}
