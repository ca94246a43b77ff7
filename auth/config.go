package auth

import (
	"github.com/fizzify/fizzify/config"
	"github.com/fizzify/fizzify/hash"
)

// Config holds the token and password settings of an Auth instance.
type Config struct {
	SecretKey         string          `json:"secret_key" validate:"required"`
	Algorithm         string          `json:"algorithm" validate:"required,oneof=HS256 HS384 HS512"`
	Issuer            string          `json:"issuer,omitempty"`
	AccessTokenTTL    config.Duration `json:"access_token_ttl,omitempty"`
	PasswordAlgorithm string          `json:"password_algorithm,omitempty" validate:"omitempty,oneof=argon2 bcrypt"`
}

// LoadConfig reads and validates an auth config from a JSON file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if err := config.LoadJSON(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) passwordAlgorithm() string {
	if c.PasswordAlgorithm == "" {
		return hash.AlgorithmArgon2
	}
	return c.PasswordAlgorithm
}
