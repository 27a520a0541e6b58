package credit

import "errors"

// Errors returned by the Credit Manager (§4.2).
var (
	ErrInsufficientCredit = errors.New("credit: insufficient credit")
	ErrMaxCreditExceeded  = errors.New("credit: award would exceed maximum credit")
	ErrStakeNotFound      = errors.New("credit: stake not found")
	ErrStakeImmutable     = errors.New("credit: stake is immutable")
)
