package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argonPrefix = "$argon2id$"

// Upper bounds for parameters read back from a stored hash. Memory is in KiB.
const (
	maxArgonMemory     = 1 << 20
	maxArgonIterations = 16
	maxArgonSaltLength = 64
	maxArgonKeyLength  = 128
)

type argonParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// Argon2id hashes passwords into PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>
type Argon2id struct {
	params argonParams
}

func NewArgon2id() *Argon2id {
	return &Argon2id{params: argonParams{
		memory:      64 * 1024,
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
	}}
}

func (a *Argon2id) Hash(plain string) (string, error) {
	salt := make([]byte, a.params.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plain), salt, a.params.iterations, a.params.memory, a.params.parallelism, a.params.keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.params.memory, a.params.iterations, a.params.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters encoded in hash. Malformed
// hashes never match.
func (a *Argon2id) Verify(plain, hash string) bool {
	p, salt, key, err := decodeArgon(hash)
	if err != nil {
		return false
	}
	other := argon2.IDKey([]byte(plain), salt, p.iterations, p.memory, p.parallelism, p.keyLength)
	return subtle.ConstantTimeCompare(key, other) == 1
}

func decodeArgon(encoded string) (*argonParams, []byte, []byte, error) {
	vals := strings.Split(encoded, "$")
	if len(vals) != 6 || vals[1] != "argon2id" {
		return nil, nil, nil, errors.New("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(vals[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, nil, errors.New("incompatible argon2 version")
	}

	p := &argonParams{}
	if n, err := fmt.Sscanf(vals[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil || n != 3 {
		return nil, nil, nil, errors.New("invalid argon2 parameters")
	}
	if p.iterations == 0 || p.parallelism == 0 {
		return nil, nil, nil, errors.New("invalid argon2 parameters")
	}
	if p.memory > maxArgonMemory || p.iterations > maxArgonIterations {
		return nil, nil, nil, errors.New("argon2 parameters out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(vals[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	if len(salt) > maxArgonSaltLength {
		return nil, nil, nil, errors.New("argon2 salt too long")
	}
	key, err := base64.RawStdEncoding.DecodeString(vals[5])
	if err != nil || len(key) == 0 || len(key) > maxArgonKeyLength {
		return nil, nil, nil, errors.New("invalid argon2 key")
	}
	p.saltLength = uint32(len(salt))
	p.keyLength = uint32(len(key))

	return p, salt, key, nil
}
