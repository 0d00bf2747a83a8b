package di718b

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Exit codes follow sysexits.h so shell automation can tell a bad
// hostname from a protocol desync or an unplugged device.
const (
	ExOK          = 0
	ExUsage       = 64
	ExDataErr     = 65
	ExNoHost      = 68
	ExUnavailable = 69
	ExIOErr       = 74
	ExProtocol    = 76
)

// Error is a classified driver failure. Code is one of the Ex constants.
type Error struct {
	Code int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func errf(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// SyncError reports a stream word whose sync flags contradict its channel
// position, which means the frame it belongs to is unreliable.
type SyncError struct {
	Channel int
	Word    uint16
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync flag mismatch at channel %d: %04X", e.Channel, e.Word)
}

// ExitCode maps err to its sysexits-style process exit status. Errors not
// produced by this package classify as I/O failures.
func ExitCode(err error) int {
	if err == nil {
		return ExOK
	}

	var derr *Error
	if xerrors.As(err, &derr) {
		return derr.Code
	}

	return ExIOErr
}
