// Package demoserver is a throwaway user-authentication server used
// only to give cmd/sshauth-demo something to authenticate against. It
// speaks the same 4-byte length-prefixed framing as
// internal/demotransport and a deliberately small subset of RFC 4252
// wire messages — just enough to exercise the "none" probe, password
// (optionally with a forced password change), public-key, and
// keyboard-interactive methods. It is not a reference server
// implementation and has no bearing on the client driver's
// correctness.
package demoserver

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
)

const (
	msgUserAuthRequest         = 50
	msgUserAuthFailure         = 51
	msgUserAuthSuccess         = 52
	msgUserAuthBanner          = 53
	msgUserAuthPKOK            = 60
	msgUserAuthPasswdChangeReq = 60
	msgUserAuthInfoRequest     = 60
	msgUserAuthInfoResponse    = 61
)

// Credentials describes the single account this server recognizes.
type Credentials struct {
	Username       string
	Password       string
	RequireNewPass bool   // if true, each connection's first correct password login gets a change request
	AuthorizedKey  []byte // raw public key blob accepted for publickey auth
	AuthorizedAlgo string
}

// Server accepts one connection at a time and runs the toy
// authentication exchange against it.
type Server struct {
	creds Credentials
	log   *slog.Logger
}

// New constructs a Server that authenticates exactly creds.
func New(creds Credentials, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{creds: creds, log: log}
}

// Serve accepts and handles connections on ln until it returns an
// error (including listener closure).
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	log := s.log.With("remote", conn.RemoteAddr().String())
	log.Info("connection accepted")

	svc, err := readFrame(conn)
	if err != nil {
		log.Warn("reading service request", "error", err)
		return
	}
	if string(svc) != "ssh-userauth" {
		log.Warn("unknown service requested", "service", string(svc))
		return
	}
	if err := writeFrame(conn, []byte("ACCEPT")); err != nil {
		return
	}

	passwordChanged := !s.creds.RequireNewPass

	for {
		req, err := readFrame(conn)
		if err != nil {
			if err != io.EOF {
				log.Warn("reading request", "error", err)
			}
			return
		}
		if len(req) == 0 || req[0] != msgUserAuthRequest {
			log.Warn("unexpected top-level message", "code", req)
			return
		}

		r := newReader(req[1:])
		username, _ := r.readUTF8()
		service, _ := r.readUTF8()
		method, _ := r.readUTF8()

		log.Info("auth attempt", "username", username, "service", service, "method", method)

		if username != s.creds.Username {
			writeFailure(conn, s.availableMethods())
			continue
		}

		switch method {
		case "none":
			writeFailure(conn, s.availableMethods())

		case "password":
			ok := s.handlePassword(conn, r, &passwordChanged)
			if ok {
				writeSuccess(conn)
				return
			}

		case "publickey":
			ok := s.handlePublicKey(conn, r)
			if ok {
				writeSuccess(conn)
				return
			}

		case "keyboard-interactive":
			ok := s.handleKeyboardInteractive(conn)
			if ok {
				writeSuccess(conn)
				return
			}

		default:
			writeFailure(conn, s.availableMethods())
		}
	}
}

func (s *Server) availableMethods() []string {
	methods := []string{"password", "keyboard-interactive"}
	if len(s.creds.AuthorizedKey) > 0 {
		methods = append(methods, "publickey")
	}
	return methods
}

func (s *Server) handlePassword(conn net.Conn, r *reader, passwordChanged *bool) bool {
	_, _ = r.readBool() // changePassword flag, unused by this toy server
	pw, _ := r.readUTF8()

	if pw != s.creds.Password {
		writeFailure(conn, s.availableMethods())
		return false
	}
	if *passwordChanged {
		return true
	}

	if err := writeFrame(conn, encodePasswdChangeReq("please choose a new password", "")); err != nil {
		return false
	}
	next, err := readFrame(conn)
	if err != nil || len(next) == 0 || next[0] != msgUserAuthRequest {
		return false
	}
	r2 := newReader(next[1:])
	_, _ = r2.readUTF8() // username
	_, _ = r2.readUTF8() // service
	_, _ = r2.readUTF8() // method
	_, _ = r2.readBool() // changePassword flag
	_, _ = r2.readUTF8() // old password
	newPw, _ := r2.readUTF8()
	if newPw == "" {
		writeFailure(conn, s.availableMethods())
		return false
	}
	*passwordChanged = true
	return true
}

func (s *Server) handlePublicKey(conn net.Conn, r *reader) bool {
	hasSig, _ := r.readBool()
	algo, _ := r.readUTF8()
	blob, _ := r.readBytes()

	if algo != s.creds.AuthorizedAlgo || string(blob) != string(s.creds.AuthorizedKey) {
		writeFailure(conn, s.availableMethods())
		return false
	}
	if !hasSig {
		_ = writeFrame(conn, encodePKOK(algo, blob))
		return false
	}
	// A real server would verify the signature here. This fixture trusts
	// any signature over a recognized key since it has no transport-layer
	// session identifier of its own to bind against.
	return true
}

func (s *Server) handleKeyboardInteractive(conn net.Conn) bool {
	if err := writeFrame(conn, encodeInfoRequest("demo login", "enter the word \"demo\"", "password")); err != nil {
		return false
	}
	resp, err := readFrame(conn)
	if err != nil || len(resp) == 0 || resp[0] != msgUserAuthInfoResponse {
		return false
	}
	r := newReader(resp[1:])
	n, _ := r.readU32()
	if n != 1 {
		writeFailure(conn, s.availableMethods())
		return false
	}
	answer, _ := r.readUTF8()
	if answer != "demo" {
		writeFailure(conn, s.availableMethods())
		return false
	}
	return true
}

func writeFailure(conn net.Conn, methods []string) {
	w := newWriter()
	w.writeByte(msgUserAuthFailure)
	w.writeNameList(methods)
	w.writeBool(false)
	_ = writeFrame(conn, w.Bytes())
}

func writeSuccess(conn net.Conn) {
	_ = writeFrame(conn, []byte{msgUserAuthSuccess})
}

func encodePasswdChangeReq(prompt, language string) []byte {
	w := newWriter()
	w.writeByte(msgUserAuthPasswdChangeReq)
	w.writeUTF8(prompt)
	w.writeUTF8(language)
	return w.Bytes()
}

func encodePKOK(algo string, blob []byte) []byte {
	w := newWriter()
	w.writeByte(msgUserAuthPKOK)
	w.writeUTF8(algo)
	w.writeString(blob)
	return w.Bytes()
}

func encodeInfoRequest(name, instruction string, promptTexts ...string) []byte {
	w := newWriter()
	w.writeByte(msgUserAuthInfoRequest)
	w.writeUTF8(name)
	w.writeUTF8(instruction)
	w.writeUTF8("")
	w.writeU32(uint32(len(promptTexts)))
	for _, p := range promptTexts {
		w.writeUTF8(p)
		w.writeBool(false)
	}
	return w.Bytes()
}

func writeFrame(conn net.Conn, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := conn.Write(hdr[:]); err != nil {
		return err
	}
	_, err := conn.Write(payload)
	return err
}

func readFrame(conn net.Conn) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > 1<<20 {
		return nil, fmt.Errorf("demoserver: frame of %d bytes exceeds limit", n)
	}
	buf := make([]byte, n)
	_, err := io.ReadFull(conn, buf)
	return buf, err
}
