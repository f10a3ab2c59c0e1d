package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		attempt  string
		want     bool
	}{
		{name: "matching password", password: "Passw0rd!", attempt: "Passw0rd!", want: true},
		{name: "wrong password", password: "Passw0rd!", attempt: "Passw0rd?", want: false},
		{name: "case sensitive", password: "Passw0rd!", attempt: "passw0rd!", want: false},
		{name: "unicode password", password: "Pässw0rd-ünïcode", attempt: "Pässw0rd-ünïcode", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digest, err := hasher.Hash(tt.password)
			assert.NoError(t, err)
			assert.NotEqual(t, tt.password, digest)
			assert.Equal(t, tt.want, hasher.Verify(tt.attempt, digest))
		})
	}
}

func TestHasher_EmptyPassword(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	_, err := hasher.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHasher_MalformedDigestFailsClosed(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	for _, digest := range []string{"", "not-a-digest", "$2a$garbage", "plaintext"} {
		assert.False(t, hasher.Verify("Passw0rd!", digest))
	}
}

func TestHasher_CostClamped(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).Cost())
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(100).Cost())
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).Cost())
}

func TestHasher_DecoyNeverMatches(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	// VerifyDecoy burns a real bcrypt comparison but must never panic or
	// accept anything.
	hasher.VerifyDecoy("Passw0rd!")
	hasher.VerifyDecoy("")
}
