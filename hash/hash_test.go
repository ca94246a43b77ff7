package hash_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/fizzify/fizzify/hash"
)

func fastArgon2Params() hash.Argon2Params {
	return hash.Argon2Params{
		Memory:     8 * 1024,
		Iterations: 1,
		Threads:    1,
		SaltLength: 16,
		KeyLength:  32,
	}
}

func TestHashers_HashAndVerify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		hasher hash.Hasher
	}{
		{name: "argon2", hasher: hash.NewArgon2Hasher(fastArgon2Params())},
		{name: "bcrypt", hasher: hash.NewBcryptHasher(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			const plain = "correct horse battery staple"

			hashed, err := tt.hasher.Hash(plain)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", plain, err)
			}
			if hashed == plain || hashed == "" {
				t.Fatalf("Hash(%q) = %q, want a non-empty hash", plain, hashed)
			}

			ok, err := tt.hasher.Verify(plain, hashed)
			if err != nil {
				t.Fatalf("Verify error = %v", err)
			}
			if !ok {
				t.Error("Verify(correct password) = false, want true")
			}

			ok, err = tt.hasher.Verify("wrong password", hashed)
			if err != nil {
				t.Fatalf("Verify(wrong password) error = %v", err)
			}
			if ok {
				t.Error("Verify(wrong password) = true, want false")
			}
		})
	}
}

func TestArgon2Hasher_HashFormat(t *testing.T) {
	t.Parallel()

	hasher := hash.NewArgon2Hasher(fastArgon2Params())

	hashed, err := hasher.Hash("secret")
	if err != nil {
		t.Fatalf("Hash error = %v", err)
	}

	if !strings.HasPrefix(hashed, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Errorf("Hash produced %q, want PHC-formatted argon2id string", hashed)
	}
}

func TestArgon2Hasher_VerifyInvalidFormat(t *testing.T) {
	t.Parallel()

	hasher := hash.NewArgon2Hasher(fastArgon2Params())

	if _, err := hasher.Verify("secret", "not-a-hash"); err == nil {
		t.Error("Verify of a malformed hash should fail")
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, algorithm := range []string{hash.AlgorithmArgon2, hash.AlgorithmBcrypt} {
		if _, err := hash.New(algorithm); err != nil {
			t.Errorf("New(%q) error = %v", algorithm, err)
		}
	}

	if _, err := hash.New("md5_crypt"); !errors.Is(err, hash.ErrUnknownAlgorithm) {
		t.Errorf("New(md5_crypt) error = %v, want %v", err, hash.ErrUnknownAlgorithm)
	}
}
