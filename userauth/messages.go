package userauth

// SSH_MSG_USERAUTH_* message numbers, per RFC 4252 and the method
// extensions in RFC 4252 §8/§5.4 this module implements. Named the way
// massiveart-go.crypto/ssh/common.go names its msgKexInit-style
// constants (lower-case msg prefix), generalized to this package's
// user-auth-only vocabulary.
const (
	msgUserAuthRequest = 50
	msgUserAuthFailure = 51
	msgUserAuthSuccess = 52
	msgUserAuthBanner  = 53

	// The following three share code 60 and are disambiguated by which
	// method is currently in flight (spec §6): PK_OK for publickey,
	// PASSWD_CHANGEREQ for password, INFO_REQUEST for
	// keyboard-interactive.
	msgUserAuthPKOK           = 60
	msgUserAuthPasswdChangeReq = 60
	msgUserAuthInfoRequest    = 60
	msgUserAuthInfoResponse   = 61
)

const (
	serviceUserAuth = "ssh-userauth"
)

// userAuthRequest is the logical request tuple from spec §3. MethodData
// is always pre-encoded raw bytes supplied by the method.
type userAuthRequest struct {
	Username   string
	Service    string
	Method     string
	MethodData []byte
}

func (m userAuthRequest) encode() []byte {
	w := newWriter()
	w.writeByte(msgUserAuthRequest)
	w.writeUTF8(m.Username)
	w.writeUTF8(m.Service)
	w.writeUTF8(m.Method)
	w.buf = append(w.buf, m.MethodData...)
	return w.Bytes()
}

// userAuthFailure is the decoded SSH_MSG_USERAUTH_FAILURE payload.
type userAuthFailure struct {
	Methods       []string
	PartialSuccess bool
}

func decodeUserAuthFailure(body []byte) (*userAuthFailure, error) {
	r := newReader(body)
	methods, err := r.readNameList()
	if err != nil {
		return nil, err
	}
	partial, err := r.readBool()
	if err != nil {
		return nil, err
	}
	return &userAuthFailure{Methods: methods, PartialSuccess: partial}, nil
}

// userAuthBanner is the decoded SSH_MSG_USERAUTH_BANNER payload.
type userAuthBanner struct {
	Text     string
	Language string
}

func decodeUserAuthBanner(body []byte) (*userAuthBanner, error) {
	r := newReader(body)
	text, err := r.readUTF8()
	if err != nil {
		return nil, err
	}
	lang, err := r.readUTF8()
	if err != nil {
		return nil, err
	}
	return &userAuthBanner{Text: text, Language: lang}, nil
}
