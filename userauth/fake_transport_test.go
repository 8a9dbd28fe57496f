package userauth

import (
	"context"
	"io"
	"sync"
)

// fakeTransport is an in-memory Port used by this package's tests.
// Modeled on massiveart-go.crypto/ssh/client.go's globalRequest
// (lock-guarded request/response channel) idiom, generalized into a
// two-queue (inbox/outbox) test harness instead of a single pending
// global request.
type fakeTransport struct {
	mu sync.Mutex

	inbox  chan []byte
	outbox [][]byte

	sessionID []byte

	serviceErr error

	disconnects    int
	lastDisconnect string
	markAuthCount  int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbox:     make(chan []byte, 32),
		sessionID: []byte{0x01, 0x02, 0x03, 0x04},
	}
}

func (f *fakeTransport) push(msg []byte) {
	f.inbox <- msg
}

func (f *fakeTransport) closeInbox() {
	close(f.inbox)
}

func (f *fakeTransport) sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.outbox))
	copy(out, f.outbox)
	return out
}

func (f *fakeTransport) StartService(ctx context.Context, name string) error {
	return f.serviceErr
}

func (f *fakeTransport) NextMessage(ctx context.Context) ([]byte, error) {
	select {
	case m, ok := <-f.inbox:
		if !ok {
			return nil, io.EOF
		}
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) SendMessage(ctx context.Context, payload []byte, highPriority bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outbox = append(f.outbox, payload)
	return nil
}

func (f *fakeTransport) SessionIdentifier() []byte {
	return f.sessionID
}

func (f *fakeTransport) MarkAuthenticated() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markAuthCount++
}

func (f *fakeTransport) Disconnect(ctx context.Context, code DisconnectCode, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.lastDisconnect = reason
	return nil
}

// --- server-side message builders used by tests ---

func serverFailure(methods []string, partial bool) []byte {
	w := newWriter()
	w.writeByte(msgUserAuthFailure)
	w.writeNameList(methods)
	w.writeBool(partial)
	return w.Bytes()
}

func serverSuccess() []byte {
	return []byte{msgUserAuthSuccess}
}

func serverBanner(text, language string) []byte {
	w := newWriter()
	w.writeByte(msgUserAuthBanner)
	w.writeUTF8(text)
	w.writeUTF8(language)
	return w.Bytes()
}

func serverPKOK(algo string, blob []byte) []byte {
	w := newWriter()
	w.writeByte(msgUserAuthPKOK)
	w.writeUTF8(algo)
	w.writeString(blob)
	return w.Bytes()
}

func serverPasswdChangeReq(prompt, language string) []byte {
	w := newWriter()
	w.writeByte(msgUserAuthPasswdChangeReq)
	w.writeUTF8(prompt)
	w.writeUTF8(language)
	return w.Bytes()
}

func serverInfoRequest(name, instruction string, prompts []Prompt) []byte {
	w := newWriter()
	w.writeByte(msgUserAuthInfoRequest)
	w.writeUTF8(name)
	w.writeUTF8(instruction)
	w.writeUTF8("")
	w.writeU32(uint32(len(prompts)))
	for _, p := range prompts {
		w.writeUTF8(p.Text)
		w.writeBool(p.Echo)
	}
	return w.Bytes()
}
