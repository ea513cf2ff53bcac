package credential

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUnknownFormat = errors.New("credential: unrecognized digest format")
	ErrMalformed     = errors.New("credential: malformed digest")
)

// Hasher is the one-way transform applied to passwords before storage.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, stored string) (bool, error)
}

// Verifier hashes with a primary Hasher and verifies any digest format this
// package knows about.
type Verifier struct {
	primary Hasher
	argon   *Argon2
	bcrypt  *Bcrypt
	legacy  Legacy
}

func NewVerifier(primary Hasher) *Verifier {
	v := &Verifier{primary: primary, bcrypt: &Bcrypt{cost: DefaultBcryptCost}}
	switch h := primary.(type) {
	case *Argon2:
		v.argon = h
	case *Bcrypt:
		v.bcrypt = h
	}
	if v.argon == nil {
		v.argon = &Argon2{config: DefaultArgon2Config()}
	}
	return v
}

func (v *Verifier) Hash(plain string) (string, error) {
	return v.primary.Hash(plain)
}

func (v *Verifier) Verify(plain, stored string) (bool, error) {
	switch {
	case isArgon2(stored):
		return v.argon.Verify(plain, stored)
	case isBcrypt(stored):
		return v.bcrypt.Verify(plain, stored)
	case isLegacy(stored):
		return v.legacy.Verify(plain, stored)
	}
	return false, ErrUnknownFormat
}

// NeedsRehash reports whether stored should be replaced with a fresh digest
// from the primary hasher: it is in another format (such as Legacy) or was
// made with weaker parameters.
func (v *Verifier) NeedsRehash(stored string) bool {
	switch p := v.primary.(type) {
	case *Argon2:
		if !isArgon2(stored) {
			return true
		}
		weak, err := p.NeedsUpgrade(stored)
		return err == nil && weak
	case *Bcrypt:
		if !isBcrypt(stored) {
			return true
		}
		cost, err := bcrypt.Cost([]byte(stored))
		return err == nil && cost < p.cost
	}
	return false
}

func isArgon2(stored string) bool {
	return strings.HasPrefix(stored, "$"+argon2ID+"$")
}

// New builds the Verifier for a configured algorithm name.
func New(algorithm string, bcryptCost int) (*Verifier, error) {
	switch strings.ToLower(algorithm) {
	case "", argon2ID, "argon2":
		h, err := NewArgon2(DefaultArgon2Config())
		if err != nil {
			return nil, err
		}
		return NewVerifier(h), nil
	case "bcrypt":
		h, err := NewBcrypt(bcryptCost)
		if err != nil {
			return nil, err
		}
		return NewVerifier(h), nil
	}
	return nil, fmt.Errorf("credential: unsupported algorithm %q", algorithm)
}
