package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrExternal indicates a failure in an external collaborator
	ErrExternal = errors.New("external service error")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Market data errors

var (
	// ErrInvalidAsset indicates a malformed or unusable asset identifier
	ErrInvalidAsset = errors.New("invalid asset identifier")

	// ErrNoCandidates indicates the market data source returned no usable assets
	ErrNoCandidates = errors.New("no candidate assets available")

	// ErrRateLimitExceeded indicates an upstream API rate limit was hit
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Wallet and execution errors

var (
	// ErrInsufficientBalance indicates the wallet balance cannot cover an instruction
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrExecutionFailed indicates a trade instruction was rejected or failed
	ErrExecutionFailed = errors.New("trade execution failed")

	// ErrCycleInProgress indicates a rebalance cycle is already running
	ErrCycleInProgress = errors.New("rebalance cycle already in progress")

	// ErrHoldingNotFound indicates a mint is not present in the wallet
	ErrHoldingNotFound = errors.New("holding not found")
)

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
