package services

import (
	"errors"
	"fmt"
)

// Recoverable failure kinds surfaced to the transport layer. Every kind maps
// to a distinct user-facing message in the handlers; none is fatal to the
// process.
var (
	ErrMalformedValue    = errors.New("declared value is not a whole number")
	ErrInvalidValue      = errors.New("value must be a non-negative amount")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrUnauthorized      = errors.New("not authorized to resolve claims")
	ErrAlreadyFinalized  = errors.New("claim already finalized")
	ErrClaimNotFound     = errors.New("claim not found")

	// ErrStoreUnavailable wraps persistence-layer failures. Operations that
	// hit it abort entirely; partial state never lands because every
	// multi-step mutation runs in a single transaction.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
