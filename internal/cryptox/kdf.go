package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// KDFIterations is the fixed PBKDF2 iteration count for deriving the
// wrapping key. It is a policy floor, not a tunable: lowering it would let a
// misconfigured client silently weaken every envelope it writes.
const KDFIterations = 600_000

// deriveWrappingKey stretches (password, salt) into a 256-bit wrapping key.
// Deterministic: the same inputs always yield a key that unwraps the same
// envelope. The bytes stay inside the returned handle.
func deriveWrappingKey(password, salt []byte) *WrappingKey {
	key := pbkdf2.Key(password, salt, KDFIterations, KeyLength, sha256.New)
	return &WrappingKey{key: key}
}
