package userauth

import "context"

// DisconnectCode mirrors the SSH_DISCONNECT reason codes relevant to
// this layer (RFC 4253 §11.1). Only a small subset is named, and the
// driver itself raises only DisconnectProtocolError; a transport
// implementation is free to accept any uint32 it likes through
// Disconnect.
type DisconnectCode uint32

const (
	DisconnectProtocolError    DisconnectCode = 2
	DisconnectServiceNotAvailable DisconnectCode = 7
)

// Port is the interface the auth driver consumes from an
// already-established SSH-2 transport (spec §4.B). The driver is the
// sole consumer of inbound user-auth-range messages for the lifetime of
// a Driver; a Port implementation must not hand the same connection to
// two Drivers concurrently (spec §5).
//
// Modeled on the request/response idiom of
// massiveart-go.crypto/ssh/client.go's readPacket/writePacket/
// sendGlobalRequest, abstracted into an interface since the concrete
// transport (KEX, ciphers, MAC, rekey) is out of this module's scope.
type Port interface {
	// StartService sends SSH_MSG_SERVICE_REQUEST for name and blocks
	// for SSH_MSG_SERVICE_ACCEPT. Returns ErrServiceRejected on
	// mismatch or refusal.
	StartService(ctx context.Context, name string) error

	// NextMessage returns the next decrypted, length-stripped,
	// MAC-verified application payload. Blocks until one is available.
	// Returns ErrTransportClosed on EOF or a fatal transport error.
	NextMessage(ctx context.Context) ([]byte, error)

	// SendMessage enqueues a payload for transmission. highPriority
	// hints that this payload (a user-auth request) should be
	// scheduled ahead of non-auth traffic already queued.
	SendMessage(ctx context.Context, payload []byte, highPriority bool) error

	// SessionIdentifier returns the key-exchange hash from the first
	// KEX, stable for the connection's lifetime.
	SessionIdentifier() []byte

	// MarkAuthenticated signals that the user-auth phase succeeded,
	// so the transport may relax strict-kex checks and release
	// buffered connection-layer messages.
	MarkAuthenticated()

	// Disconnect tears the transport down with an SSH DISCONNECT
	// carrying code and a human-readable reason.
	Disconnect(ctx context.Context, code DisconnectCode, reason string) error
}
