// Password hashing.
//
// WHY ARGON2ID?
// Argon2id is memory-hard: each guess costs tens of megabytes of RAM, which
// makes GPU and ASIC brute force expensive. It is the OWASP first choice
// for new applications.
//
// Every Hash call draws a fresh random salt, so two users with the same
// password get different hashes. The salt and parameters are embedded in the
// output (PHC string format), so no separate salt column is needed:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<base64 salt>$<base64 key>
//	          ^     ^       ^   ^
//	          |     |       |   parallelism
//	          |     |       iterations
//	          |     memory in KiB
//	          algorithm version
//
// Verify reads the parameters back from the hash, so raising the defaults
// later does not break existing accounts.

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// Argon2Params are the tunable cost parameters.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params follows the OWASP password storage cheat sheet.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordService provides argon2id hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected in
// tests: 64 MiB per hash adds up quickly across a test suite.
type PasswordService struct {
	params Argon2Params
}

// NewPasswordService creates a PasswordService with DefaultArgon2Params.
func NewPasswordService() *PasswordService {
	return &PasswordService{params: DefaultArgon2Params}
}

// NewPasswordServiceForTest uses tiny parameters. Do NOT use in production.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{params: Argon2Params{
		Memory:      8,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}}
}

// Hash returns the PHC-encoded argon2id hash of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	salt := make([]byte, p.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt,
		p.params.Iterations, p.params.Memory, p.params.Parallelism, p.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.params.Memory,
		p.params.Iterations,
		p.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks plaintext against an encoded hash.
//
// Returns nil on match, ErrPasswordMismatch on mismatch, and a different
// error if the stored hash is malformed. The comparison is constant-time.
func (p *PasswordService) Verify(encoded, plaintext string) error {
	params, salt, want, err := decodeArgon2Hash(encoded)
	if err != nil {
		return err
	}

	got := argon2.IDKey([]byte(plaintext), salt,
		params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

func decodeArgon2Hash(encoded string) (Argon2Params, []byte, []byte, error) {
	var params Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, errors.New("auth: unsupported password hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, fmt.Errorf("auth: parsing hash version: %w", err)
	}
	if version != argon2.Version {
		return params, nil, nil, fmt.Errorf("auth: incompatible argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, fmt.Errorf("auth: parsing hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("auth: decoding salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, fmt.Errorf("auth: decoding key: %w", err)
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))
	return params, salt, key, nil
}
