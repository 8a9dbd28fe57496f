package userauth

import (
	"io"

	"golang.org/x/crypto/ssh"
)

// PublicKey is the abstract public-key collaborator the publickey
// method consumes (spec §4.F: "Algorithm-name and key-blob formats ...
// are negotiated by the signer, not the driver"). This package never
// parses or generates key material itself; see WrapCryptoPublicKey.
type PublicKey interface {
	// Algo is the wire algorithm name sent in a probe or signed
	// request, e.g. "ssh-rsa", "ssh-ed25519", or an OpenSSH
	// certificate algorithm name such as "ssh-rsa-cert-v01@openssh.com".
	Algo() string
	// Blob is the RFC 4253 §6.6 public key blob.
	Blob() []byte
}

// Signer is the abstract signing collaborator (spec §4.F, §9
// "Shared ... handle"). The publickey method holds only a Signer, never
// raw private key bytes, and uses it strictly synchronously.
type Signer interface {
	PublicKey() PublicKey
	// Sign returns the wire signature format name (which may differ
	// from PublicKey().Algo(), e.g. "rsa-sha2-256" for an "ssh-rsa"
	// key) and the raw signature blob. The caller wraps these as
	// `string format || string blob` per spec §3; Sign itself must not
	// perform that wrapping.
	Sign(rand io.Reader, data []byte) (format string, blob []byte, err error)
}

// cryptoPublicKey adapts golang.org/x/crypto/ssh.PublicKey (including
// *ssh.Certificate values, whose Type() already returns the certificate
// algorithm name per RFC PROTOCOL.certkeys) to PublicKey.
type cryptoPublicKey struct {
	key ssh.PublicKey
}

// WrapCryptoPublicKey adapts a golang.org/x/crypto/ssh.PublicKey (plain
// key or certificate) to this package's PublicKey interface. Mirrors
// massiveart-go.crypto/ssh/certs.go's CertAlgoRSAv01-style algorithm
// name tables, but delegates the actual name lookup to the wrapped
// library rather than re-deriving it.
func WrapCryptoPublicKey(key ssh.PublicKey) PublicKey {
	return cryptoPublicKey{key: key}
}

func (k cryptoPublicKey) Algo() string { return k.key.Type() }
func (k cryptoPublicKey) Blob() []byte { return k.key.Marshal() }

// cryptoSigner adapts golang.org/x/crypto/ssh.Signer to Signer.
type cryptoSigner struct {
	signer ssh.Signer
}

// WrapCryptoSigner adapts a golang.org/x/crypto/ssh.Signer (as returned
// by ssh.NewSignerFromKey, an agent.Agent's signers, or a certificate
// signer built with ssh.NewCertSigner) to this package's Signer
// interface.
func WrapCryptoSigner(signer ssh.Signer) Signer {
	return cryptoSigner{signer: signer}
}

func (s cryptoSigner) PublicKey() PublicKey {
	return WrapCryptoPublicKey(s.signer.PublicKey())
}

func (s cryptoSigner) Sign(rand io.Reader, data []byte) (string, []byte, error) {
	sig, err := s.signer.Sign(rand, data)
	if err != nil {
		return "", nil, err
	}
	return sig.Format, sig.Blob, nil
}

// certAlgoNames mirrors massiveart-go.crypto/ssh/certs.go's
// certAlgoNames table against the real library's exported constants,
// for callers that need to branch on certificate vs. plain-key
// algorithm names (e.g. to decide whether a probe response's echoed
// algorithm is expected to be a cert algorithm).
var certAlgoNames = map[string]bool{
	ssh.CertAlgoRSAv01:      true,
	ssh.CertAlgoDSAv01:      true,
	ssh.CertAlgoECDSA256v01: true,
	ssh.CertAlgoECDSA384v01: true,
	ssh.CertAlgoECDSA521v01: true,
	ssh.CertAlgoED25519v01:  true,
}

// IsCertAlgo reports whether name is an OpenSSH certificate algorithm
// name rather than a plain public-key algorithm name.
func IsCertAlgo(name string) bool {
	return certAlgoNames[name]
}
