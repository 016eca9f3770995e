// Package password verifies plaintext passwords against the hashes stored by
// the identity provider. Verification is an opaque oracle for the rest of the
// service: Verify(plain, hash) reports a match and never errors.
package password

import "strings"

// Verifier checks a plaintext password against a stored hash.
type Verifier interface {
	Verify(plain, hash string) bool
}

// Hasher produces a storable hash for a plaintext password.
type Hasher interface {
	Hash(plain string) (string, error)
}

// Auto dispatches on the hash format: "$argon2id$" hashes go to Argon2id,
// everything else (the "$2a$"/"$2b$"/"$2y$" family) to Bcrypt.
type Auto struct {
	Bcrypt   *Bcrypt
	Argon2id *Argon2id
}

// NewAuto returns an Auto verifier with default parameters.
func NewAuto() *Auto {
	return &Auto{Bcrypt: NewBcrypt(0), Argon2id: NewArgon2id()}
}

func (a *Auto) Verify(plain, hash string) bool {
	if strings.HasPrefix(hash, argonPrefix) {
		return a.Argon2id.Verify(plain, hash)
	}
	return a.Bcrypt.Verify(plain, hash)
}
