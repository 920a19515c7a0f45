package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts without truncation.
const MaxPasswordBytes = 72

var (
	// ErrPasswordTooLong is returned when a password exceeds MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
	// ErrUnknownHasher is returned by NewHasher for unsupported algorithm names.
	ErrUnknownHasher = errors.New("unknown password hasher")
)

// Hasher produces and checks one-way password hashes.
type Hasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches encoded. Malformed hashes never match.
	Verify(plaintext, encoded string) bool
}

// NewHasher returns a hasher that writes new hashes with the named algorithm
// ("bcrypt" or "argon2id") and verifies hashes produced by either.
func NewHasher(name string) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bcrypt":
		return &dispatchHasher{primary: BcryptHasher{Cost: bcrypt.DefaultCost}}, nil
	case "argon2id", "argon2":
		return &dispatchHasher{primary: NewArgon2idHasher()}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownHasher, name)
	}
}

type dispatchHasher struct {
	primary Hasher
}

func (d *dispatchHasher) Hash(plaintext string) (string, error) {
	return d.primary.Hash(plaintext)
}

func (d *dispatchHasher) Verify(plaintext, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return NewArgon2idHasher().Verify(plaintext, encoded)
	case strings.HasPrefix(encoded, "$2"):
		return BcryptHasher{}.Verify(plaintext, encoded)
	default:
		return false
	}
}

// BcryptHasher hashes with bcrypt at the configured cost.
type BcryptHasher struct {
	Cost int
}

func (b BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (b BcryptHasher) Verify(plaintext, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext)) == nil
}

// Argon2idHasher hashes with Argon2id and encodes results in PHC string format.
type Argon2idHasher struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// NewArgon2idHasher returns an Argon2idHasher with interactive-login parameters.
func NewArgon2idHasher() Argon2idHasher {
	return Argon2idHasher{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (a Argon2idHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	salt := make([]byte, a.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.Memory,
		a.Iterations,
		a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a Argon2idHasher) Verify(plaintext, encoded string) bool {
	params, salt, key, ok := decodeArgon2id(encoded)
	if !ok {
		return false
	}
	candidate := argon2.IDKey([]byte(plaintext), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

// decodeArgon2id parses $argon2id$v=19$m=..,t=..,p=..$salt$key.
func decodeArgon2id(encoded string) (Argon2idHasher, []byte, []byte, bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Argon2idHasher{}, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Argon2idHasher{}, nil, nil, false
	}

	var params Argon2idHasher
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return Argon2idHasher{}, nil, nil, false
	}
	if params.Iterations == 0 || params.Parallelism == 0 {
		return Argon2idHasher{}, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Argon2idHasher{}, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Argon2idHasher{}, nil, nil, false
	}
	return params, salt, key, true
}
