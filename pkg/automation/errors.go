package automation

import (
	"errors"
	"fmt"
)

var (
	ErrLaunch            = errors.New("automation browser failed to launch")
	ErrSessionLost       = errors.New("automation browser session lost")
	ErrNavigationTimeout = errors.New("page did not finish loading")
)

// OperationError wraps a failure of one controller operation on one URL.
type OperationError struct {
	Op  string
	URL string
	Err error
}

func (e *OperationError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func wrapOp(op, url string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}
	return &OperationError{Op: op, URL: url, Err: err}
}

// IsLaunchError returns true if the browser could not be started. Launch
// failures block every operation and must be surfaced to the user.
func IsLaunchError(err error) bool {
	return errors.Is(err, ErrLaunch)
}

// IsSessionLost returns true if the browser died during the operation.
func IsSessionLost(err error) bool {
	return errors.Is(err, ErrSessionLost)
}

// IsNavigationTimeout returns true if the page never settled.
func IsNavigationTimeout(err error) bool {
	return errors.Is(err, ErrNavigationTimeout)
}
