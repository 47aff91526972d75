// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// MinPasswordLength is enforced by the account rules before hashing.
const MinPasswordLength = 8

const saltLength = 16

var errMalformedHash = errors.New("malformed password hash")

// PasswordParams are the argon2id cost settings encoded into every hash.
type PasswordParams struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
}

var DefaultPasswordParams = PasswordParams{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	KeyLen:  32,
}

// HashPassword returns a PHC formatted argon2id hash:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func HashPassword(password string) (string, error) {
	return hashWith(password, DefaultPasswordParams)
}

func hashWith(password string, p PasswordParams) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Time,
		p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	p, salt, key, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

// VerifyPasswordWithRehash also returns a fresh hash when the stored one
// was made with outdated parameters. An empty string means keep the old
// hash.
func VerifyPasswordWithRehash(
	password, encodedHash string,
) (bool, string, error) {
	valid, err := VerifyPassword(password, encodedHash)
	if err != nil || !valid {
		return false, "", err
	}

	if !needsRehash(encodedHash) {
		return true, "", nil
	}

	newHash, err := HashPassword(password)
	if err != nil {
		//nolint:nilerr // the password matched; a failed rehash only defers the upgrade
		return true, "", nil
	}

	return true, newHash, nil
}

var dummyHash = sync.OnceValue(func() string {
	hash, err := HashPassword("dummy_password_for_timing_attack_prevention")
	if err != nil {
		panic(fmt.Sprintf("security: failed to generate dummy hash: %v", err))
	}
	return hash
})

// VerifyPasswordTimingSafe spends the same work whether or not an account
// exists. A nil or empty hash always fails.
func VerifyPasswordTimingSafe(
	password string,
	encodedHash *string,
) (bool, string, error) {
	if encodedHash == nil || *encodedHash == "" {
		//nolint:errcheck // result discarded, only the elapsed time matters
		_, _, _ = VerifyPasswordWithRehash(password, dummyHash())
		return false, "", nil
	}

	return VerifyPasswordWithRehash(password, *encodedHash)
}

func decodeHash(encodedHash string) (PasswordParams, []byte, []byte, error) {
	var p PasswordParams

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, errMalformedHash
	}

	if parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("unsupported algorithm %q: %w", parts[1], errMalformedHash)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("version: %w", errMalformedHash)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("incompatible version %d: %w", version, errMalformedHash)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, fmt.Errorf("params: %w", errMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("salt: %w", errMalformedHash)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("key: %w", errMalformedHash)
	}

	//nolint:gosec // G115: argon2 keys are a few dozen bytes
	p.KeyLen = uint32(len(key))

	return p, salt, key, nil
}

func needsRehash(encodedHash string) bool {
	p, _, _, err := decodeHash(encodedHash)
	return err != nil || p != DefaultPasswordParams
}
