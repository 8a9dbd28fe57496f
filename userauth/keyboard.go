package userauth

import "context"

// Prompt is one line of an INFO_REQUEST, per RFC 4256.
type Prompt struct {
	Text string
	Echo bool
}

// KeyboardInteractiveCallback collects responses for a batch of prompts
// from the server, synchronously (spec §4.G). name and instruction are
// the server-supplied heading text. It is never invoked for a round with
// zero prompts; the method answers such a round itself with an empty
// INFO_RESPONSE.
//
// Modeled on marmos91-dittofs/internal/cli/prompt's promptui-backed
// single-prompt helpers (Input/Password), generalized to a batch
// callback since a single INFO_REQUEST can carry multiple prompts.
type KeyboardInteractiveCallback func(name, instruction string, prompts []Prompt) (responses []string, err error)

// KeyboardInteractiveMethod implements the "keyboard-interactive"
// method (spec §4.G): an INFO_REQUEST/INFO_RESPONSE loop driven by a
// caller-supplied prompt callback.
type KeyboardInteractiveMethod struct {
	username string
	service  string
	callback KeyboardInteractiveCallback
}

// NewKeyboardInteractiveMethod constructs a keyboard-interactive
// attempt. The server may issue any number of INFO_REQUEST rounds
// before a terminal SUCCESS/FAILURE; callback is invoked once per
// round that carries at least one prompt.
func NewKeyboardInteractiveMethod(username, service string, callback KeyboardInteractiveCallback) *KeyboardInteractiveMethod {
	return &KeyboardInteractiveMethod{username: username, service: service, callback: callback}
}

func (m *KeyboardInteractiveMethod) Name() string     { return "keyboard-interactive" }
func (m *KeyboardInteractiveMethod) Username() string { return m.username }
func (m *KeyboardInteractiveMethod) Service() string  { return m.service }

func (m *KeyboardInteractiveMethod) Run(ctx context.Context, h *Handle) (Outcome, error) {
	if err := h.SendRequest(ctx, encodeInitialInfoRequest()); err != nil {
		return Outcome{}, err
	}

	for {
		body, outcome, err := h.ReadMessage(ctx)
		if err != nil {
			return Outcome{}, err
		}
		if outcome != nil {
			return *outcome, nil
		}
		if body[0] != msgUserAuthInfoRequest {
			return Outcome{}, &ProtocolViolationError{
				Code:   int(body[0]),
				Reason: "keyboard-interactive expected INFO_REQUEST",
			}
		}

		req, derr := decodeInfoRequest(body[1:])
		if derr != nil {
			return Outcome{}, &ProtocolViolationError{Code: int(body[0]), Reason: derr.Error()}
		}

		var responses []string
		if len(req.Prompts) == 0 {
			// A zero-prompt round (e.g. a pure informational banner-like
			// message) is answered with an empty INFO_RESPONSE without
			// consulting the caller (spec §8 S7).
			responses = nil
		} else {
			var cberr error
			responses, cberr = m.callback(req.Name, req.Instruction, req.Prompts)
			if cberr != nil {
				return Outcome{Kind: Cancelled}, nil
			}
		}

		if err := h.SendRaw(ctx, encodeInfoResponse(responses)); err != nil {
			return Outcome{}, err
		}
	}
}

type infoRequest struct {
	Name        string
	Instruction string
	Language    string
	Prompts     []Prompt
}

func decodeInfoRequest(body []byte) (*infoRequest, error) {
	r := newReader(body)
	name, err := r.readUTF8()
	if err != nil {
		return nil, err
	}
	instruction, err := r.readUTF8()
	if err != nil {
		return nil, err
	}
	lang, err := r.readUTF8()
	if err != nil {
		return nil, err
	}
	count, err := r.readU32()
	if err != nil {
		return nil, err
	}
	prompts := make([]Prompt, 0, count)
	for i := uint32(0); i < count; i++ {
		text, err := r.readUTF8()
		if err != nil {
			return nil, err
		}
		echo, err := r.readBool()
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, Prompt{Text: text, Echo: echo})
	}
	return &infoRequest{Name: name, Instruction: instruction, Language: lang, Prompts: prompts}, nil
}

// encodeInitialInfoRequest builds the first USERAUTH_REQUEST's
// method-specific data: empty language tag and empty submethods, per
// spec §4.G.
func encodeInitialInfoRequest() []byte {
	w := newWriter()
	w.writeUTF8("")
	w.writeUTF8("")
	return w.Bytes()
}

// encodeInfoResponse builds SSH_MSG_USERAUTH_INFO_RESPONSE. A
// zero-prompt round still produces a well-formed message with
// num-responses=0 (spec §4.G).
func encodeInfoResponse(responses []string) []byte {
	w := newWriter()
	w.writeByte(msgUserAuthInfoResponse)
	w.writeU32(uint32(len(responses)))
	for _, r := range responses {
		w.writeUTF8(r)
	}
	return w.Bytes()
}
