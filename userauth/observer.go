package userauth

// Observer receives driver lifecycle events. It replaces the
// process-wide event bus pattern flagged in spec §9 with an explicit,
// per-Driver collaborator: every call is synchronous on the driver's
// calling goroutine, so an Observer that blocks, blocks authentication
// (the same deliberate trade-off spec §4.H makes for the banner sink).
//
// A nil Observer is never stored on Driver; NewDriver installs noopObserver
// by default and SetObserver/WithObserver replace it.
type Observer interface {
	// MethodStarted fires once per authenticate() call, before the
	// method's run() is invoked.
	MethodStarted(correlationID, username, service, method string)
	// MethodOutcome fires once per authenticate() call, after an
	// Outcome has been determined (including Cancelled and
	// ProtocolViolation-adjacent Failed/FurtherRequired paths).
	MethodOutcome(correlationID, username, service, method string, outcome Outcome)
	// BannerReceived fires for every SSH_MSG_USERAUTH_BANNER the
	// driver absorbs, independent of any banner sink registered via
	// SetBannerSink.
	BannerReceived(correlationID, text, language string)
	// ProtocolError fires whenever the driver is about to return a
	// ProtocolViolationError (and disconnect).
	ProtocolError(correlationID string, err error)
}

type noopObserver struct{}

func (noopObserver) MethodStarted(string, string, string, string)          {}
func (noopObserver) MethodOutcome(string, string, string, string, Outcome) {}
func (noopObserver) BannerReceived(string, string, string)                 {}
func (noopObserver) ProtocolError(string, error)                           {}

// BannerSink receives banner text for display to a human, per spec §4.H.
// If none is registered, banner text is discarded — never written to
// standard output, so the library stays silent by default.
type BannerSink interface {
	DisplayBanner(text, language string)
}
