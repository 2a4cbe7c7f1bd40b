package actions

import (
	"errors"
	"fmt"
)

// Sentinel errors for argument and resolution failures.
var (
	ErrPoolNotFound    = errors.New("pool not found")
	ErrPairMismatch    = errors.New("pair does not contain the given symbols")
	ErrInvalidPercent  = errors.New("percent must be between 1 and 100")
	ErrMissingArgument = errors.New("missing argument")
	ErrUndefinedAction = errors.New("undefined action")
)

// LedgerCallError wraps a failed ledger read or write.
type LedgerCallError struct {
	Op  string
	Err error
}

func (e *LedgerCallError) Error() string {
	return fmt.Sprintf("ledger call %s: %v", e.Op, e.Err)
}

func (e *LedgerCallError) Unwrap() error {
	return e.Err
}

func ledgerErr(op string, err error) error {
	return &LedgerCallError{Op: op, Err: err}
}
