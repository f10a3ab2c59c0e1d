package auth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when hashing an empty string.
var ErrEmptyPassword = errors.New("password must not be empty")

// Hasher performs one-way password hashing with a configurable bcrypt work
// factor. A single Hasher is created at startup and shared across requests.
type Hasher struct {
	cost  int
	decoy []byte
}

// NewHasher creates a Hasher with the given work factor, clamped to bcrypt's
// supported range. The decoy digest is precomputed from a random value so the
// login path can burn an equivalent verification when no account matches.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	decoy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	if err != nil {
		// Only reachable with an out-of-range cost, which is clamped above.
		panic(err)
	}
	return &Hasher{cost: cost, decoy: decoy}
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int { return h.cost }

// Hash generates a bcrypt digest of the plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches the digest. bcrypt's comparison is
// constant-time over the digest length; a malformed digest fails closed.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// VerifyDecoy runs a full verification against the precomputed decoy digest.
// It always fails; the point is to equalize response latency when no user
// record exists.
func (h *Hasher) VerifyDecoy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.decoy, []byte(plaintext))
}
