package cli

import "errors"

// ErrUsage marks errors caused by how the tool was invoked rather than by the
// conversion itself; main exits with status 1 either way, but callers can
// match on it.
var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}
