package voice

import (
	"errors"
	"fmt"
)

// ErrAborted is returned by a Start that was superseded by Stop or by a
// newer Start.
var ErrAborted = errors.New("voice: start aborted")

// errSignalingState is wrapped when an answer arrives in the wrong state.
var errSignalingState = errors.New("unexpected signaling state")

// ErrorKind classifies session failures.
type ErrorKind int

const (
	// KindCredential: the token could not be obtained.
	KindCredential ErrorKind = iota + 1
	// KindCapture: microphone access was denied or failed.
	KindCapture
	// KindNegotiation: peer setup or the offer/answer exchange failed.
	KindNegotiation
	// KindTransport: an established connection was lost.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindCapture:
		return "capture"
	case KindNegotiation:
		return "negotiation"
	case KindTransport:
		return "transport"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a session failure. The session has been torn down by the time
// it is returned.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("voice: %s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the presenter text for the failure.
func (e *Error) Status() string {
	prefix := statusConnectionError
	switch e.Kind {
	case KindCredential:
		prefix = statusCredentialError
	case KindCapture:
		prefix = statusCaptureError
	case KindTransport:
		prefix = statusConnectionLost
	}
	var st statusTexter
	if errors.As(e.Err, &st) {
		return prefix + st.StatusText()
	}
	return prefix + e.Err.Error()
}

// statusTexter is implemented by errors whose user-facing text differs
// from Error.
type statusTexter interface {
	StatusText() string
}

// IsKind reports whether err is a *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Kind == k
}
