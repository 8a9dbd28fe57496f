package userauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyboardInteractive_SinglePromptRound(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverInfoRequest("", "Enter your OTP", []Prompt{{Text: "OTP: ", Echo: false}}))
	ft.push(serverSuccess())

	var gotPrompts []Prompt
	cb := func(name, instruction string, prompts []Prompt) ([]string, error) {
		gotPrompts = prompts
		return []string{"123456"}, nil
	}

	outcome, err := d.Authenticate(context.Background(), NewKeyboardInteractiveMethod("alice", "ssh-connection", cb))
	require.NoError(t, err)
	require.Equal(t, Complete, outcome.Kind)
	require.Equal(t, []Prompt{{Text: "OTP: ", Echo: false}}, gotPrompts)

	sent := ft.sent()
	require.Len(t, sent, 2)
	require.Equal(t, byte(msgUserAuthInfoResponse), sent[1][0])

	r := newReader(sent[1][1:])
	count, _ := r.readU32()
	require.Equal(t, uint32(1), count)
	resp, _ := r.readUTF8()
	require.Equal(t, "123456", resp)
}

// S7 — zero-prompt INFO_REQUEST requires an empty INFO_RESPONSE without
// invoking the callback.
func TestKeyboardInteractive_ZeroPrompts_S7(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverInfoRequest("", "", nil))
	ft.push(serverSuccess())

	called := false
	cb := func(name, instruction string, prompts []Prompt) ([]string, error) {
		called = true
		return nil, nil
	}

	outcome, err := d.Authenticate(context.Background(), NewKeyboardInteractiveMethod("alice", "ssh-connection", cb))
	require.NoError(t, err)
	require.Equal(t, Complete, outcome.Kind)
	require.False(t, called)

	sent := ft.sent()
	require.Len(t, sent, 2)
	r := newReader(sent[1][1:])
	count, _ := r.readU32()
	require.Equal(t, uint32(0), count)
}

func TestKeyboardInteractive_MultiRound(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverInfoRequest("", "first", []Prompt{{Text: "Password: ", Echo: false}}))
	ft.push(serverInfoRequest("", "second", []Prompt{{Text: "PIN: ", Echo: false}}))
	ft.push(serverSuccess())

	round := 0
	cb := func(name, instruction string, prompts []Prompt) ([]string, error) {
		round++
		if round == 1 {
			return []string{"pw"}, nil
		}
		return []string{"1234"}, nil
	}

	outcome, err := d.Authenticate(context.Background(), NewKeyboardInteractiveMethod("alice", "ssh-connection", cb))
	require.NoError(t, err)
	require.Equal(t, Complete, outcome.Kind)
	require.Equal(t, 2, round)
	require.Len(t, ft.sent(), 3) // initial request + 2 responses
}

func TestKeyboardInteractive_CallbackDeclineCancels(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDriver(t, ft)

	ft.push(serverInfoRequest("", "", []Prompt{{Text: "Password: ", Echo: false}}))

	cb := func(name, instruction string, prompts []Prompt) ([]string, error) {
		return nil, errDeclined
	}

	outcome, err := d.Authenticate(context.Background(), NewKeyboardInteractiveMethod("alice", "ssh-connection", cb))
	require.NoError(t, err)
	require.Equal(t, Cancelled, outcome.Kind)
	require.Len(t, ft.sent(), 1) // no INFO_RESPONSE sent after declining
}

var errDeclined = assertError{"declined"}
