package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Authentication hashing uses Argon2id with the cost parameters embedded in
// the output string, so they can evolve without breaking stored hashes:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<digest>
const (
	argonMemory      = 64 * 1024 // KiB
	argonTime        = 3
	argonParallelism = 4
	argonKeyLen      = 32

	// Bounds accepted during verification. Anything outside is treated as
	// a foreign or malicious hash string and verification returns false.
	minArgonMemory = 8 * 1024
	maxArgonMemory = 1 << 21 // 2 GiB in KiB
	maxArgonTime   = 32
	maxArgonPar    = 64
)

func hashPassword(password []byte, rng io.Reader) (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := io.ReadFull(rng, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	digest := argon2.IDKey(password, salt, argonTime, argonMemory, argonParallelism, argonKeyLen)
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory, argonTime, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	)
	return encoded, nil
}

// verifyPassword recomputes the digest with the parameters embedded in
// encoded and compares in constant time. Malformed, foreign-format or
// out-of-range hash strings return false; no error detail is exposed, so a
// caller cannot tell which part of the comparison failed.
func verifyPassword(password []byte, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil || n != 3 {
		return false
	}
	if memory < minArgonMemory || memory > maxArgonMemory {
		return false
	}
	if iterations == 0 || iterations > maxArgonTime {
		return false
	}
	if parallelism == 0 || parallelism > maxArgonPar {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < 16 {
		return false
	}
	storedDigest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(storedDigest) < 16 || len(storedDigest) > 64 {
		return false
	}

	digest := argon2.IDKey(password, salt, iterations, memory, parallelism, uint32(len(storedDigest)))
	return subtle.ConstantTimeCompare(storedDigest, digest) == 1
}
