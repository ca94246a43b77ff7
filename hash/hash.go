// Package hash provides password hashing behind a single interface, with
// argon2id and bcrypt providers.
package hash

import (
	"errors"
	"fmt"
)

var ErrUnknownAlgorithm = errors.New("hash: unknown algorithm")

// Hasher hashes plain strings and verifies them against stored hashes.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) (bool, error)
}

// Algorithm names accepted by New.
const (
	AlgorithmArgon2 = "argon2"
	AlgorithmBcrypt = "bcrypt"
)

// New returns the Hasher for the named algorithm with its default
// parameters.
func New(algorithm string) (Hasher, error) {
	switch algorithm {
	case AlgorithmArgon2:
		return NewArgon2Hasher(DefaultArgon2Params()), nil
	case AlgorithmBcrypt:
		return NewBcryptHasher(0), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}
