package availabilitystore

import (
	"github.com/pkg/errors"
)

// errIndexOutOfRange is returned when a validator index falls outside
// the chunk set a Coder produced.
var errIndexOutOfRange = errors.New("validator index out of range")

// errReplyDropped is returned when a requester's reply channel has no
// receiver ready.
var errReplyDropped = errors.New("reply channel not ready")

// Kind classifies an error by how the control loop should react to it,
// independent of the underlying cause.
type Kind int

const (
	// KindRuntimeAPI covers failures talking to the runtime-API client.
	KindRuntimeAPI Kind = iota
	// KindChainAPI covers failures talking to the chain-API client.
	KindChainAPI
	// KindErasure covers failures deriving or validating erasure chunks.
	KindErasure
	// KindIO covers filesystem/database I/O failures.
	KindIO
	// KindReplyCanceled covers a requester dropping its reply channel.
	KindReplyCanceled
	// KindBus covers failures receiving from the message bus.
	KindBus
	// KindClock covers failures reading the wall clock.
	KindClock
	// KindUnsupportedDatabase covers a database backend this subsystem can't open.
	KindUnsupportedDatabase
)

func (k Kind) String() string {
	switch k {
	case KindRuntimeAPI:
		return "runtime_api"
	case KindChainAPI:
		return "chain_api"
	case KindErasure:
		return "erasure"
	case KindIO:
		return "io"
	case KindReplyCanceled:
		return "reply_canceled"
	case KindBus:
		return "bus"
	case KindClock:
		return "clock"
	case KindUnsupportedDatabase:
		return "unsupported_database"
	default:
		return "unknown"
	}
}

// Error is the subsystem's error type: a Kind the control loop can
// dispatch severity on, plus the wrapped cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrap annotates err with a Kind and a message, using pkg/errors so the
// call-site stack survives into the log.
func wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: errors.Wrap(err, msg)}
}

// isLowSignal reports whether an error kind is logged at debug and
// otherwise ignored by the control loop.
func isLowSignal(kind Kind) bool {
	return kind == KindRuntimeAPI || kind == KindReplyCanceled
}

// isFatal reports whether an error kind can only occur during
// construction and must abort startup.
func isFatal(kind Kind) bool {
	return kind == KindUnsupportedDatabase
}

// logLoopError logs an error produced by one control loop iteration at
// the severity its Kind warrants. Fatal kinds are never expected here;
// the loop keeps running regardless.
func logLoopError(err error) {
	if err == nil {
		return
	}
	var asErr *Error
	if errors.As(err, &asErr) {
		if isLowSignal(asErr.Kind) {
			log.WithError(err).WithField("kind", asErr.Kind).Debug("Availability store iteration failed")
			return
		}
		log.WithError(err).WithField("kind", asErr.Kind).Warn("Availability store iteration failed")
		return
	}
	log.WithError(err).Warn("Availability store iteration failed")
}
