package userauth

// secret holds a byte string that must be zeroed as soon as it is no
// longer needed (spec §5: "Secret-bearing fields ... zero-on-drop for
// password bytes as a correctness property against process-memory
// exposure"). It does not guard against aliases: Bytes() hands back the
// live backing array, not a copy, so callers must not keep it beyond
// the call that consumes it.
type secret struct {
	b []byte
}

func newSecret(s string) secret {
	return secret{b: []byte(s)}
}

// Bytes returns the live backing array. Do not retain past Zero().
func (s secret) Bytes() []byte {
	return s.b
}

func (s secret) Len() int {
	return len(s.b)
}

// Zero overwrites the backing array with zeroes. Safe to call more than
// once or on an empty secret.
func (s secret) Zero() {
	for i := range s.b {
		s.b[i] = 0
	}
}
