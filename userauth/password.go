package userauth

import "context"

// PasswordMethod implements the "password" authentication method
// (spec §4.E), including the server-initiated change-password
// sub-dialogue (SSH_MSG_USERAUTH_PASSWD_CHANGEREQ).
type PasswordMethod struct {
	username string
	service  string

	password    secret
	newPassword secret
	hasNew      bool
}

// NewPasswordMethod constructs a password method attempt. If the server
// then requests a password change and a replacement was attached with
// WithNewPassword, the method replies with the change-password
// sub-request automatically; otherwise it returns Cancelled.
func NewPasswordMethod(username, service, password string) *PasswordMethod {
	return &PasswordMethod{username: username, service: service, password: newSecret(password)}
}

// WithNewPassword attaches a replacement password to send if the server
// requests a password change mid-attempt.
func (m *PasswordMethod) WithNewPassword(newPassword string) *PasswordMethod {
	m.newPassword = newSecret(newPassword)
	m.hasNew = true
	return m
}

func (m *PasswordMethod) Name() string     { return "password" }
func (m *PasswordMethod) Username() string { return m.username }
func (m *PasswordMethod) Service() string  { return m.service }

func (m *PasswordMethod) Run(ctx context.Context, h *Handle) (Outcome, error) {
	defer m.password.Zero()
	defer m.newPassword.Zero()

	if err := h.SendRequest(ctx, m.encodeFirstRequest()); err != nil {
		return Outcome{}, err
	}

	body, outcome, err := h.ReadMessage(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if outcome != nil {
		return *outcome, nil
	}

	if body[0] != msgUserAuthPasswdChangeReq {
		return Outcome{}, &ProtocolViolationError{
			Code:   int(body[0]),
			Reason: "password method expected PASSWD_CHANGEREQ",
		}
	}

	// Decoding the prompt/language is required by the wire protocol
	// even though this method doesn't surface them to a caller; a
	// richer Method could accept a callback here the way
	// keyboard-interactive does.
	if _, err := decodeChangeRequest(body[1:]); err != nil {
		return Outcome{}, &ProtocolViolationError{Code: int(body[0]), Reason: err.Error()}
	}

	if !m.hasNew {
		return Outcome{Kind: Cancelled}, nil
	}

	if err := h.SendRequest(ctx, m.encodeChangeRequest()); err != nil {
		return Outcome{}, err
	}

	body, outcome, err = h.ReadMessage(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if outcome != nil {
		return *outcome, nil
	}
	return Outcome{}, &ProtocolViolationError{Code: int(body[0]), Reason: "password method received a second non-terminal message"}
}

func (m *PasswordMethod) encodeFirstRequest() []byte {
	w := newWriter()
	w.writeBool(false)
	w.writeString(m.password.Bytes())
	return w.Bytes()
}

func (m *PasswordMethod) encodeChangeRequest() []byte {
	w := newWriter()
	w.writeBool(true)
	w.writeString(m.password.Bytes())
	w.writeString(m.newPassword.Bytes())
	return w.Bytes()
}

type changeRequest struct {
	Prompt   string
	Language string
}

func decodeChangeRequest(body []byte) (*changeRequest, error) {
	r := newReader(body)
	prompt, err := r.readUTF8()
	if err != nil {
		return nil, err
	}
	lang, err := r.readUTF8()
	if err != nil {
		return nil, err
	}
	return &changeRequest{Prompt: prompt, Language: lang}, nil
}
