package engine

import "errors"

// The error taxonomy of the engine. Every member except ErrSwapFailed
// inside the deposit flow aborts the whole unit of work with no
// partial effect. A deposit-flow swap failure is the sole recoverable
// condition: the custodied value stays in place pending an admin
// refund.
var (
	ErrInvalidProof      = errors.New("invalid deposit proof")
	ErrAlreadyProcessed  = errors.New("already processed")
	ErrUnsupportedAsset  = errors.New("unsupported asset")
	ErrInvalidPath       = errors.New("invalid exchange path")
	ErrInvalidScript     = errors.New("invalid destination script")
	ErrUnauthorized      = errors.New("caller lacks the required capability")
	ErrOutOfRangeFee     = errors.New("fee configuration out of range")
	ErrValueMismatch     = errors.New("value mismatch")
	ErrSwapFailed        = errors.New("swap failed")
	ErrAlreadyCompleted  = errors.New("deposit already completed")
	ErrReentrantCall     = errors.New("re-entrant call rejected")
	ErrUnknownDeposit    = errors.New("unknown deposit")
	ErrUnknownRedemption = errors.New("unknown redemption index")
	ErrNoDestinationMap  = errors.New("no destination asset mapping configured")
)
