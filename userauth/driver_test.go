package userauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDriver(t *testing.T, ft *fakeTransport) *Driver {
	t.Helper()
	d, err := NewDriver(context.Background(), ft)
	require.NoError(t, err)
	return d
}

// S1 — method enumeration.
func TestListMethods_S1(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverFailure([]string{"publickey", "password"}, false))

	methods, err := d.ListMethods(context.Background(), "alice", "ssh-connection")
	require.NoError(t, err)
	require.Equal(t, []string{"publickey", "password"}, methods)
	require.False(t, d.IsAuthenticated())

	sent := ft.sent()
	require.Len(t, sent, 1)
	r := newReader(sent[0][1:])
	user, _ := r.readUTF8()
	service, _ := r.readUTF8()
	method, _ := r.readUTF8()
	require.Equal(t, "alice", user)
	require.Equal(t, "ssh-connection", service)
	require.Equal(t, "none", method)
}

// S2 — password success.
func TestAuthenticate_PasswordSuccess_S2(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverSuccess())

	outcome, err := d.Authenticate(context.Background(), NewPasswordMethod("alice", "ssh-connection", "hunter2"))
	require.NoError(t, err)
	require.Equal(t, Complete, outcome.Kind)
	require.True(t, d.IsAuthenticated())
	require.Equal(t, 1, ft.markAuthCount)

	sent := ft.sent()
	require.Len(t, sent, 1)
	r := newReader(sent[0][1:])
	_, _ = r.readUTF8() // username
	_, _ = r.readUTF8() // service
	_, _ = r.readUTF8() // method
	changeFlag, _ := r.readBool()
	password, _ := r.readUTF8()
	require.False(t, changeFlag)
	require.Equal(t, "hunter2", password)
}

// S6 — banner interleaving does not perturb state or the returned
// method list.
func TestListMethods_BannerInterleaving_S6(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	var gotText, gotLang string
	d.SetBannerSink(bannerFunc(func(text, language string) {
		gotText, gotLang = text, language
	}))

	ft.push(serverBanner("Welcome\n", "en"))
	ft.push(serverFailure([]string{"password"}, false))

	methods, err := d.ListMethods(context.Background(), "alice", "ssh-connection")
	require.NoError(t, err)
	require.Equal(t, []string{"password"}, methods)
	require.Equal(t, "Welcome\n", gotText)
	require.Equal(t, "en", gotLang)
}

// Idempotent Complete: once authenticated, Authenticate never touches
// the transport's send path again.
func TestAuthenticate_IdempotentAfterComplete(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverSuccess())
	_, err := d.Authenticate(context.Background(), NewPasswordMethod("alice", "ssh-connection", "hunter2"))
	require.NoError(t, err)
	require.True(t, d.IsAuthenticated())

	sentBefore := len(ft.sent())

	outcome, err := d.Authenticate(context.Background(), NewPasswordMethod("alice", "ssh-connection", "anything"))
	require.NoError(t, err)
	require.Equal(t, Complete, outcome.Kind)
	require.Equal(t, sentBefore, len(ft.sent()))
	require.Equal(t, 1, ft.markAuthCount)
}

// FurtherRequired on partial success.
func TestAuthenticate_PartialSuccess(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverFailure([]string{"publickey"}, true))

	outcome, err := d.Authenticate(context.Background(), NewPasswordMethod("alice", "ssh-connection", "hunter2"))
	require.NoError(t, err)
	require.Equal(t, FurtherRequired, outcome.Kind)
	require.Equal(t, []string{"publickey"}, outcome.Methods)
	require.False(t, d.IsAuthenticated())
}

// Outright failure.
func TestAuthenticate_Failed(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverFailure([]string{"publickey"}, false))

	outcome, err := d.Authenticate(context.Background(), NewPasswordMethod("alice", "ssh-connection", "wrong"))
	require.NoError(t, err)
	require.Equal(t, Failed, outcome.Kind)
	require.Equal(t, []string{"publickey"}, outcome.Methods)
}

// S10 — the "none" probe is not auto-retried; a second call issues a
// fresh request rather than reusing the first FAILURE's methods.
func TestListMethods_NotAutoRetried_S10(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverFailure([]string{"password"}, true))
	_, err := d.ListMethods(context.Background(), "alice", "ssh-connection")
	require.NoError(t, err)

	ft.push(serverFailure([]string{"publickey", "password"}, false))
	methods, err := d.ListMethods(context.Background(), "alice", "ssh-connection")
	require.NoError(t, err)
	require.Equal(t, []string{"publickey", "password"}, methods)
	require.Len(t, ft.sent(), 2)
}

// An unexpected message code during the "none" probe is a protocol
// violation and disconnects the transport.
func TestListMethods_ProtocolViolation(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	// INFO_REQUEST (60) is not legal during a "none" probe.
	ft.push(serverInfoRequest("n", "i", nil))

	_, err := d.ListMethods(context.Background(), "alice", "ssh-connection")
	require.Error(t, err)
	var pv *ProtocolViolationError
	require.ErrorAs(t, err, &pv)
	require.Equal(t, 1, ft.disconnects)
}

// empty-auth: SUCCESS in response to the "none" probe.
func TestListMethods_EmptyAuthAccepted(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverSuccess())

	methods, err := d.ListMethods(context.Background(), "alice", "ssh-connection")
	require.NoError(t, err)
	require.Nil(t, methods)
	require.True(t, d.IsAuthenticated())
}

func TestNewDriver_ServiceRejected(t *testing.T) {
	ft := newFakeTransport()
	ft.serviceErr = assertError{"nope"}

	_, err := NewDriver(context.Background(), ft)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrServiceRejected)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }

type bannerFunc func(text, language string)

func (f bannerFunc) DisplayBanner(text, language string) { f(text, language) }
