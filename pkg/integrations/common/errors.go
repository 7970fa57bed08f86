package common

import (
	"fmt"
	"io/fs"
	"syscall"

	"github.com/pkg/errors"
)

// Sentinel causes for every OS-facing failure. Callers branch on these with
// errors.Is or KindOf, never on message text.
var (
	ErrPlatformUnsupported = errors.New("platform unsupported")
	ErrProcessGone         = errors.New("process gone")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrTransient           = errors.New("transient os error")
)

// Kind classifies an OS failure.
type Kind int

const (
	KindNone Kind = iota
	KindPlatformUnsupported
	KindProcessGone
	KindPermissionDenied
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPlatformUnsupported:
		return "platform_unsupported"
	case KindProcessGone:
		return "process_gone"
	case KindPermissionDenied:
		return "permission_denied"
	case KindTransient:
		return "transient"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindPlatformUnsupported:
		return ErrPlatformUnsupported
	case KindProcessGone:
		return ErrProcessGone
	case KindPermissionDenied:
		return ErrPermissionDenied
	case KindTransient:
		return ErrTransient
	}
	return nil
}

// OpError records a failed operation against a single process.
type OpError struct {
	Op   string
	PID  int32
	Kind Kind
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s pid %d: %s", e.Op, e.PID, e.Kind)
	}
	return fmt.Sprintf("%s pid %d: %s: %v", e.Op, e.PID, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind, so errors.Is(err,
// ErrPermissionDenied) works on any classified error.
func (e *OpError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Classify wraps err into an OpError with the kind inferred from the
// underlying cause. A nil err stays nil; an already classified error keeps
// its kind.
func Classify(op string, pid int32, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, PID: pid, Kind: kindFromCause(err), Err: err}
}

// NewError builds an OpError of an explicit kind.
func NewError(op string, pid int32, kind Kind, cause error) error {
	return &OpError{Op: op, PID: pid, Kind: kind, Err: cause}
}

// KindOf reports the classification of err. Unclassified non-nil errors
// count as transient.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	switch {
	case errors.Is(err, ErrPlatformUnsupported):
		return KindPlatformUnsupported
	case errors.Is(err, ErrProcessGone):
		return KindProcessGone
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	}
	return kindFromCause(err)
}

func kindFromCause(err error) Kind {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ESRCH:
			return KindProcessGone
		case syscall.EPERM, syscall.EACCES:
			return KindPermissionDenied
		case syscall.ENOSYS:
			return KindPlatformUnsupported
		}
	}
	switch {
	case errors.Is(err, ErrPlatformUnsupported):
		return KindPlatformUnsupported
	case errors.Is(err, ErrProcessGone), errors.Is(err, fs.ErrNotExist):
		return KindProcessGone
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	}
	return KindTransient
}

// IsPermission reports whether err was classified as PermissionDenied.
func IsPermission(err error) bool { return KindOf(err) == KindPermissionDenied }

// IsGone reports whether err was classified as ProcessGone.
func IsGone(err error) bool { return KindOf(err) == KindProcessGone }
