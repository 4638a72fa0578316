package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount is returned for negative, non-numeric or over-precise amounts
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrPreconditionViolation is returned when a pipeline phase is invoked out of order
	ErrPreconditionViolation = errors.New("precondition violation")

	// ErrUnsupportedCurrency is returned for symbols without a chain adapter.
	// It also matches ErrPreconditionViolation.
	ErrUnsupportedCurrency = fmt.Errorf("%w: unsupported currency", ErrPreconditionViolation)

	// ErrRemoteService is returned when a remote call fails at the transport level
	ErrRemoteService = errors.New("remote service failure")

	// ErrQuoteRefresh is returned when the swap quote could not be refreshed
	ErrQuoteRefresh = errors.New("quote refresh failed")
)
