package userauth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Driver is the RFC 4252 client-side authentication state machine
// (spec §4.C). It is the sole consumer of inbound user-auth-range
// messages on its transport for its entire lifetime.
//
// Grounded on massiveart-go.crypto/ssh/client.go's handshake/mainLoop
// dispatch idiom (read a packet, switch on its leading message code,
// hand the decoded result to the right collaborator) generalized from a
// KEX+channel-multiplexing loop into a user-auth-only state machine.
type Driver struct {
	// mu serializes public entry points. The model is single-threaded
	// cooperative (spec §5); this lock exists only to turn a
	// programmer error (concurrent Authenticate/ListMethods calls)
	// into lock contention rather than interleaved wire traffic, per
	// the spec's allowance that "implementations may use native
	// threads provided they serialise driver calls with a lock".
	mu sync.Mutex

	transport Port
	observer  Observer
	banner    BannerSink

	state         Outcome
	sessionID     []byte
	authenticated bool
}

// DriverOption configures a Driver at construction time.
type DriverOption func(*Driver)

// WithObserver installs an Observer to receive lifecycle events.
func WithObserver(o Observer) DriverOption {
	return func(d *Driver) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithBannerSink installs a BannerSink at construction time; equivalent
// to calling SetBannerSink afterward.
func WithBannerSink(sink BannerSink) DriverOption {
	return func(d *Driver) {
		d.banner = sink
	}
}

// NewDriver constructs a Driver over transport, starts the
// "ssh-userauth" service, and captures the session identifier. The
// transport is assumed to have already completed its RFC 4253 key
// exchange.
func NewDriver(ctx context.Context, transport Port, opts ...DriverOption) (*Driver, error) {
	d := &Driver{
		transport: transport,
		observer:  noopObserver{},
		state:     Outcome{Kind: Failed, Methods: []string{}},
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := transport.StartService(ctx, serviceUserAuth); err != nil {
		return nil, fmt.Errorf("userauth: starting %s service: %w: %v", serviceUserAuth, ErrServiceRejected, err)
	}
	d.sessionID = transport.SessionIdentifier()
	return d, nil
}

// SetBannerSink registers sink as the destination for banner text.
// Passing nil discards future banners silently.
func (d *Driver) SetBannerSink(sink BannerSink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.banner = sink
}

// SetObserver replaces the driver's Observer. Passing nil installs a
// no-op observer.
func (d *Driver) SetObserver(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if o == nil {
		o = noopObserver{}
	}
	d.observer = o
}

// IsAuthenticated reports whether a prior Authenticate call reached
// Complete.
func (d *Driver) IsAuthenticated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.authenticated
}

// SessionIdentifier returns the key-exchange hash captured at
// construction time.
func (d *Driver) SessionIdentifier() []byte {
	return d.sessionID
}

// ListMethods sends the "none" probe (spec §4.C) and returns the
// server's advertised method list. If the server accepts empty-auth,
// the return is (nil, nil) and IsAuthenticated() becomes true — callers
// should check IsAuthenticated() after a nil-error, nil-methods return.
func (d *Driver) ListMethods(ctx context.Context, username, service string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.authenticated {
		return nil, nil
	}

	cid := uuid.NewString()
	d.observer.MethodStarted(cid, username, service, "none")

	if err := d.sendRequest(ctx, username, service, "none", nil); err != nil {
		return nil, fmt.Errorf("userauth: sending none probe: %w", err)
	}

	body, outcome, err := d.readForMethod(ctx, cid)
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		// "none" never carries a method-specific message; any non-
		// terminal, non-banner payload here is a protocol violation.
		return nil, d.violation(ctx, int(body[0]), "unexpected method-specific message during none probe")
	}

	d.state = *outcome
	d.observer.MethodOutcome(cid, username, service, "none", *outcome)

	switch outcome.Kind {
	case Complete:
		return nil, nil
	case Failed, FurtherRequired:
		return outcome.Methods, nil
	default:
		return nil, d.violation(ctx, -1, fmt.Sprintf("unexpected outcome %s during none probe", outcome.Kind))
	}
}

// Authenticate drives method to completion. See spec §4.C for the full
// state machine description.
func (d *Driver) Authenticate(ctx context.Context, m Method) (Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.authenticated {
		// Once Complete has been signalled, further calls are
		// idempotent no-ops returning Complete (spec invariant); the
		// transport's send path is never invoked.
		return Outcome{Kind: Complete}, nil
	}

	cid := uuid.NewString()
	d.observer.MethodStarted(cid, m.Username(), m.Service(), m.Name())

	h := &Handle{
		driver:        d,
		method:        m.Name(),
		username:      m.Username(),
		service:       m.Service(),
		correlationID: cid,
	}

	outcome, err := m.Run(ctx, h)
	if err != nil {
		// A method-detected violation is just as fatal to the connection
		// as one the driver detects itself in readForMethod; disconnect
		// here too so ProtocolViolationError always means "the transport
		// has been torn down" (spec §4.C, §7).
		var pv *ProtocolViolationError
		if errors.As(err, &pv) {
			_ = d.transport.Disconnect(ctx, DisconnectProtocolError, pv.Error())
		}
		d.observer.ProtocolError(cid, err)
		return Outcome{}, err
	}

	if outcome.Kind == Ready {
		// Method returned without determining an outcome: read one
		// more message ourselves (spec §4.C).
		body, oc, rerr := d.readForMethod(ctx, cid)
		if rerr != nil {
			return Outcome{}, rerr
		}
		if oc == nil {
			return Outcome{}, d.violation(ctx, int(body[0]), "method returned without an outcome and next message was not terminal")
		}
		outcome = *oc
	}

	d.state = outcome
	d.observer.MethodOutcome(cid, m.Username(), m.Service(), m.Name(), outcome)
	return outcome, nil
}

// sendRequest formats and dispatches SSH_MSG_USERAUTH_REQUEST.
func (d *Driver) sendRequest(ctx context.Context, username, service, method string, methodData []byte) error {
	req := userAuthRequest{Username: username, Service: service, Method: method, MethodData: methodData}
	return d.transport.SendMessage(ctx, req.encode(), true)
}

// readForMethod loops absorbing banners until it sees SUCCESS, FAILURE,
// or a method-specific message. SUCCESS/FAILURE are converted into a
// terminal Outcome and returned directly rather than as raw bytes,
// implementing the "raise outcomes out of the read loop" design (spec
// §9) via a typed return value instead of a language exception.
func (d *Driver) readForMethod(ctx context.Context, correlationID string) (body []byte, outcome *Outcome, err error) {
	for {
		payload, rerr := d.transport.NextMessage(ctx)
		if rerr != nil {
			return nil, nil, fmt.Errorf("userauth: %w: %v", ErrTransportClosed, rerr)
		}
		if len(payload) == 0 {
			return nil, nil, d.violation(ctx, -1, "empty payload")
		}

		switch payload[0] {
		case msgUserAuthBanner:
			b, derr := decodeUserAuthBanner(payload[1:])
			if derr != nil {
				return nil, nil, d.violation(ctx, int(payload[0]), derr.Error())
			}
			if d.banner != nil {
				d.banner.DisplayBanner(b.Text, b.Language)
			}
			d.observer.BannerReceived(correlationID, b.Text, b.Language)
			continue

		case msgUserAuthSuccess:
			if !d.authenticated {
				d.transport.MarkAuthenticated()
				d.authenticated = true
			}
			oc := Outcome{Kind: Complete}
			return nil, &oc, nil

		case msgUserAuthFailure:
			f, derr := decodeUserAuthFailure(payload[1:])
			if derr != nil {
				return nil, nil, d.violation(ctx, int(payload[0]), derr.Error())
			}
			oc := outcomeFromFailure(f)
			return nil, &oc, nil

		default:
			return payload, nil, nil
		}
	}
}

// violation constructs a ProtocolViolationError, disconnects the
// transport, and notifies the observer. code is -1 when the violation
// was detected before a message code could be attributed. The
// ProtocolError event raised here carries an empty correlation ID.
func (d *Driver) violation(ctx context.Context, code int, reason string) error {
	err := &ProtocolViolationError{Code: code, Reason: reason}
	_ = d.transport.Disconnect(ctx, DisconnectProtocolError, err.Error())
	d.observer.ProtocolError("", err)
	return err
}
