// Package demotransport is a minimal framed-message transport used only
// by cmd/sshauth-demo. It implements userauth.Port over a plain
// net.Conn with 4-byte-length-prefixed framing — it does NOT perform a
// real RFC 4253 key exchange, cipher, or MAC pipeline (those are out of
// this module's scope per spec.md §1). It exists so the demo can drive
// userauth.Driver end-to-end against a small matching test server
// (see internal/demoserver) without pulling in a full transport
// implementation.
//
// Framing and context-deadline handling are modeled on
// massiveart-go.crypto/ssh/client.go's binary.BigEndian-based length
// parsing (mainLoop's msgChannelData handling) and on
// Websoft9-AppOS/backend/internal/terminal/ssh.go's context-aware I/O
// cancellation idiom.
package demotransport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/nahara-io/sshauth/userauth"
)

const maxFrame = 1 << 20 // 1 MiB, generous for userauth payloads

// Transport adapts a net.Conn to userauth.Port.
type Transport struct {
	conn      net.Conn
	sessionID []byte

	mu            sync.Mutex
	authenticated bool
}

// New wraps conn. sessionID stands in for the key-exchange hash a real
// transport would have produced during RFC 4253 KEX.
func New(conn net.Conn, sessionID []byte) *Transport {
	return &Transport{conn: conn, sessionID: sessionID}
}

func (t *Transport) StartService(ctx context.Context, name string) error {
	if err := t.writeFrame(ctx, []byte(name)); err != nil {
		return fmt.Errorf("demotransport: requesting service %s: %w", name, err)
	}
	resp, err := t.readFrame(ctx)
	if err != nil {
		return fmt.Errorf("demotransport: awaiting service accept: %w", err)
	}
	if string(resp) != "ACCEPT" {
		return fmt.Errorf("demotransport: service %s rejected: %s: %w", name, resp, userauth.ErrServiceRejected)
	}
	return nil
}

func (t *Transport) NextMessage(ctx context.Context) ([]byte, error) {
	payload, err := t.readFrame(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, userauth.ErrTransportClosed
		}
		return nil, fmt.Errorf("demotransport: %w: %v", userauth.ErrTransportClosed, err)
	}
	return payload, nil
}

func (t *Transport) SendMessage(ctx context.Context, payload []byte, highPriority bool) error {
	return t.writeFrame(ctx, payload)
}

func (t *Transport) SessionIdentifier() []byte {
	return t.sessionID
}

func (t *Transport) MarkAuthenticated() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.authenticated = true
}

func (t *Transport) IsAuthenticated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.authenticated
}

func (t *Transport) Disconnect(ctx context.Context, code userauth.DisconnectCode, reason string) error {
	_ = t.writeFrame(ctx, []byte(fmt.Sprintf("DISCONNECT %d %s", code, reason)))
	return t.conn.Close()
}

func (t *Transport) applyDeadline(ctx context.Context) {
	if dl, ok := ctx.Deadline(); ok {
		t.conn.SetDeadline(dl)
	} else {
		t.conn.SetDeadline(time.Time{})
	}
}

func (t *Transport) writeFrame(ctx context.Context, payload []byte) error {
	t.applyDeadline(ctx)
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := t.conn.Write(hdr[:]); err != nil {
		return err
	}
	_, err := t.conn.Write(payload)
	return err
}

func (t *Transport) readFrame(ctx context.Context) ([]byte, error) {
	t.applyDeadline(ctx)
	var hdr [4]byte
	if _, err := io.ReadFull(t.conn, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxFrame {
		return nil, fmt.Errorf("demotransport: frame of %d bytes exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(t.conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
