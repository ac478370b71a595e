package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2SaltLength = 16
	argon2KeyLength  = 32
)

var errInvalidHash = errors.New("invalid password hash")

// PasswordParams controls argon2id cost.
type PasswordParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultPasswordParams returns interactive-login costs.
func DefaultPasswordParams() PasswordParams {
	return PasswordParams{MemoryKiB: 64 * 1024, Iterations: 3, Parallelism: 2}
}

// PasswordService hashes and verifies user passwords with argon2id.
type PasswordService struct {
	params PasswordParams
}

// NewPasswordService constructs a PasswordService. Zero fields fall back to defaults.
func NewPasswordService(params PasswordParams) *PasswordService {
	def := DefaultPasswordParams()
	if params.MemoryKiB == 0 {
		params.MemoryKiB = def.MemoryKiB
	}
	if params.Iterations == 0 {
		params.Iterations = def.Iterations
	}
	if params.Parallelism == 0 {
		params.Parallelism = def.Parallelism
	}
	return &PasswordService{params: params}
}

// Hash returns an encoded digest in the PHC string format:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt>$<key>
func (s *PasswordService) Hash(plaintext string) (string, error) {
	salt := make([]byte, argon2SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, s.params.Iterations, s.params.MemoryKiB, s.params.Parallelism, argon2KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		s.params.MemoryKiB,
		s.params.Iterations,
		s.params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches digest. Malformed digests never match.
func (s *PasswordService) Verify(digest, plaintext string) bool {
	params, salt, expected, err := decodeHash(digest)
	if err != nil {
		return false
	}

	// Refuse digests whose cost is far beyond what this process produces.
	if params.MemoryKiB > s.params.MemoryKiB*4 || params.Iterations > s.params.Iterations*4 {
		return false
	}

	key := argon2.IDKey([]byte(plaintext), salt, params.Iterations, params.MemoryKiB, params.Parallelism, uint32(len(expected))) // #nosec G115 -- bounded by decodeHash.
	return subtle.ConstantTimeCompare(key, expected) == 1
}

func decodeHash(encoded string) (PasswordParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return PasswordParams{}, nil, nil, errInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return PasswordParams{}, nil, nil, errInvalidHash
	}

	var mem, iter, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iter, &par); err != nil {
		return PasswordParams{}, nil, nil, errInvalidHash
	}
	if mem == 0 || iter == 0 || par == 0 || par > 255 {
		return PasswordParams{}, nil, nil, errInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < 8 {
		return PasswordParams{}, nil, nil, errInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) < 16 || len(key) > 128 {
		return PasswordParams{}, nil, nil, errInvalidHash
	}

	return PasswordParams{MemoryKiB: mem, Iterations: iter, Parallelism: uint8(par)}, salt, key, nil // #nosec G115 -- par <= 255.
}
