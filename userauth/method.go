package userauth

import "context"

// Method is the contract each authentication mechanism implements
// (spec §4.D). A Method instance is constructed with its username and
// service already bound (as NewPasswordMethod, NewPublicKeyMethod and
// NewKeyboardInteractiveMethod do), so Authenticate takes only the
// method itself.
type Method interface {
	// Name is the wire method name, e.g. "password", "publickey",
	// "keyboard-interactive".
	Name() string
	// Username and Service are cached by the driver into the Handle
	// passed to Run; they are not re-read after Run begins.
	Username() string
	Service() string
	// Run drives the method's sub-protocol using h, and returns the
	// resulting Outcome. Returning a zero-value Outcome (Kind == Ready)
	// together with a nil error tells the driver the method did not
	// itself determine a terminal outcome; the driver will read one
	// more message and treat anything other than SUCCESS/FAILURE as a
	// protocol violation (spec §4.C). None of the three canonical
	// methods in this package use that fallback — each reads via
	// Handle.ReadMessage until it yields a terminal Outcome, or returns
	// a ProtocolViolationError on an unexpected message — but a
	// minimal custom Method may rely on it.
	//
	// A method may return (Outcome{Kind: Cancelled}, nil) without ever
	// calling h.ReadMessage, to abandon the attempt locally (e.g. a
	// declined prompt) without waiting on the server.
	Run(ctx context.Context, h *Handle) (Outcome, error)
}

// Handle is the borrowed, Run-call-scoped reference a Method uses to
// talk to the driver (spec §9 "Shared driver reference": scoped to the
// call, not a shared/owned reference, so there is no cycle between
// Method and Driver).
type Handle struct {
	driver        *Driver
	method        string
	username      string
	service       string
	correlationID string
}

// SendRequest formats and dispatches SSH_MSG_USERAUTH_REQUEST with the
// given method-specific data, using the username/service/method name
// cached on this handle.
func (h *Handle) SendRequest(ctx context.Context, methodData []byte) error {
	return h.driver.sendRequest(ctx, h.username, h.service, h.method, methodData)
}

// SendRaw dispatches a pre-framed payload as-is, without wrapping it in
// an SSH_MSG_USERAUTH_REQUEST envelope. Used by methods that must send
// a message of a different top-level type mid-exchange, such as
// keyboard-interactive's SSH_MSG_USERAUTH_INFO_RESPONSE (code 61),
// which is a standalone message, not a USERAUTH_REQUEST.
func (h *Handle) SendRaw(ctx context.Context, payload []byte) error {
	return h.driver.transport.SendMessage(ctx, payload, true)
}

// ReadMessage returns the next message belonging to this method's
// sub-protocol. Banner messages are absorbed internally and never
// returned here. If the driver determines a terminal Outcome
// (SUCCESS, or FAILURE with its partial-success flag) before a
// method-specific message arrives, ReadMessage returns a non-nil
// Outcome and a nil body; the caller MUST return that Outcome from Run
// immediately, without issuing further sends or reads.
func (h *Handle) ReadMessage(ctx context.Context) (body []byte, outcome *Outcome, err error) {
	return h.driver.readForMethod(ctx, h.correlationID)
}

// SessionIdentifier returns the key-exchange hash bound to this
// connection, required for publickey signing (spec §3).
func (h *Handle) SessionIdentifier() []byte {
	return h.driver.SessionIdentifier()
}

func (h *Handle) Username() string { return h.username }
func (h *Handle) Service() string  { return h.service }
