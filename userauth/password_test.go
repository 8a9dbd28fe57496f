package userauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// S3 — password change sub-dialogue.
func TestPassword_ChangeRequest_S3(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverPasswdChangeReq("expired", ""))
	ft.push(serverSuccess())

	m := NewPasswordMethod("alice", "ssh-connection", "old").WithNewPassword("new")
	outcome, err := d.Authenticate(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, Complete, outcome.Kind)

	sent := ft.sent()
	require.Len(t, sent, 2)

	r := newReader(sent[1][1:])
	_, _ = r.readUTF8()
	_, _ = r.readUTF8()
	_, _ = r.readUTF8()
	changeFlag, _ := r.readBool()
	oldPw, _ := r.readUTF8()
	newPw, _ := r.readUTF8()
	require.True(t, changeFlag)
	require.Equal(t, "old", oldPw)
	require.Equal(t, "new", newPw)
}

// S9 — password change declined locally when no new password was
// supplied: Cancelled, no second request sent.
func TestPassword_ChangeDeclinedLocally_S9(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverPasswdChangeReq("expired", ""))

	outcome, err := d.Authenticate(context.Background(), NewPasswordMethod("alice", "ssh-connection", "old"))
	require.NoError(t, err)
	require.Equal(t, Cancelled, outcome.Kind)
	require.Len(t, ft.sent(), 1)
	require.False(t, d.IsAuthenticated())
}

func TestPassword_UnknownCodeIsProtocolViolation(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	// Code 60 is PASSWD_CHANGEREQ for the password method, so use a code
	// the password method has no meaning for.
	ft.push([]byte{msgUserAuthInfoResponse})

	_, err := d.Authenticate(context.Background(), NewPasswordMethod("alice", "ssh-connection", "pw"))
	require.Error(t, err)
	var pv *ProtocolViolationError
	require.ErrorAs(t, err, &pv)
	require.Equal(t, 1, ft.disconnects)
}

func TestPassword_SecretsZeroedAfterRun(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)
	ft.push(serverSuccess())

	m := NewPasswordMethod("alice", "ssh-connection", "hunter2")
	_, err := d.Authenticate(context.Background(), m)
	require.NoError(t, err)

	for _, b := range m.password.Bytes() {
		require.Equal(t, byte(0), b)
	}
}
