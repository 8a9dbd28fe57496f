package userauth

import "fmt"

// Sentinel errors returned by the driver and transport port. Callers
// should compare with errors.Is rather than direct equality, since every
// returned error is wrapped with call-site context.
var (
	// ErrTransportClosed is returned when the transport port signals EOF
	// or a fatal I/O error while the driver is waiting for a message.
	ErrTransportClosed = fmt.Errorf("userauth: transport closed")

	// ErrServiceRejected is returned when the "ssh-userauth" service
	// request is refused at driver construction time.
	ErrServiceRejected = fmt.Errorf("userauth: ssh-userauth service rejected")
)

// ProtocolViolationError is returned whenever the server sends a message
// the driver or the active method did not expect. Whether the driver
// detects the violation itself (readForMethod) or a Method's Run returns
// one, the driver calls Port.Disconnect before this error reaches the
// caller of ListMethods/Authenticate.
type ProtocolViolationError struct {
	// Code is the offending SSH message number, or -1 if the violation
	// was detected before a message code could be read (e.g. truncation).
	Code int
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("userauth: protocol violation: %s", e.Reason)
	}
	return fmt.Sprintf("userauth: protocol violation: message code %d: %s", e.Code, e.Reason)
}

// DecodeError describes a malformed wire payload encountered by the
// codec. The driver boundary always converts a DecodeError into a
// ProtocolViolationError before surfacing it to a caller (spec §7); the
// distinct type exists so the codec itself stays free of driver
// concerns.
type DecodeError struct {
	Kind   DecodeErrorKind
	Detail string
}

// DecodeErrorKind enumerates the ways a wire payload can fail to decode.
type DecodeErrorKind int

const (
	// Truncated means the cursor ran past the end of the buffer while
	// reading a fixed-size field (a byte, a boolean, or a 4-byte length
	// prefix).
	Truncated DecodeErrorKind = iota
	// BadUTF8 means a string field declared as text failed UTF-8
	// validation.
	BadUTF8
	// LengthOverflow means a length prefix claimed more bytes than
	// remain in the buffer, or would overflow an int on decode.
	LengthOverflow
)

func (k DecodeErrorKind) String() string {
	switch k {
	case Truncated:
		return "truncated"
	case BadUTF8:
		return "bad utf-8"
	case LengthOverflow:
		return "length overflow"
	default:
		return "unknown"
	}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("userauth: decode error: %s: %s", e.Kind, e.Detail)
}
