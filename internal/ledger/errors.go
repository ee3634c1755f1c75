package ledger

import "errors"

// Domain errors. All are recoverable conditions returned to the
// caller; an operation that reports one of these has made no change to
// any account. The HTTP layer maps them onto status codes.
var (
	// ErrAccountNotFound: the acting account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists: an account with that username already exists.
	ErrAccountExists = errors.New("account already exists")

	// ErrRecipientNotFound: the transfer destination does not exist.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrInvalidAmount: the amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds: the source balance does not cover the
	// transfer amount. Settlement never reports this; it is allowed
	// to drive a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidPeriod: the billing period key is not YYYY-MM.
	ErrInvalidPeriod = errors.New("invalid billing period")

	// ErrPeriodSettled: monthly charges were already applied to this
	// account for the given period.
	ErrPeriodSettled = errors.New("period already settled")
)
