package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/constants"
)

// ErrUnknownHashFormat is returned when a stored hash was produced by no
// supported algorithm.
var ErrUnknownHashFormat = errors.New("unknown password hash format")

// Hasher hashes and verifies user passwords. Stored hashes are
// self-describing so verification never needs the configuration that
// produced them.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// BcryptHasher hashes with bcrypt at a fixed cost.
type BcryptHasher struct {
	Cost int
}

// Hash implements Hasher.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = constants.DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify implements Hasher.
func (h BcryptHasher) Verify(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
	return true, nil
}

// PasswordConfig holds the parameters for the Argon2id password hashing algorithm
type PasswordConfig struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultPasswordConfig returns the default configuration for password hashing
func DefaultPasswordConfig() *PasswordConfig {
	return &PasswordConfig{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2idHasher encodes hashes in the PHC string format:
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
type Argon2idHasher struct {
	Config *PasswordConfig
}

// Hash implements Hasher.
func (h Argon2idHasher) Hash(password string) (string, error) {
	cfg := h.Config
	if cfg == nil {
		cfg = DefaultPasswordConfig()
	}

	salt, err := GenerateRandomBytes(cfg.SaltLength)
	if err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, cfg.Iterations, cfg.Memory, cfg.Parallelism, cfg.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, cfg.Memory, cfg.Iterations, cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify implements Hasher. The parameters are read from the encoded hash.
func (h Argon2idHasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrUnknownHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version: %s", parts[2])
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("failed to parse argon2 parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	comparisonHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(hash)))

	// Use constant-time comparison to avoid timing attacks
	return subtle.ConstantTimeCompare(hash, comparisonHash) == 1, nil
}

// PasswordHasher hashes with the configured algorithm and verifies hashes of
// either supported format, so switching algorithms keeps old accounts working.
type PasswordHasher struct {
	primary Hasher
	bcrypt  BcryptHasher
	argon   Argon2idHasher
}

// NewHasher builds the application hasher from configuration.
func NewHasher(cfg *config.HashSettings) *PasswordHasher {
	h := &PasswordHasher{
		bcrypt: BcryptHasher{Cost: cfg.Cost},
		argon: Argon2idHasher{Config: &PasswordConfig{
			Memory:      cfg.Memory,
			Iterations:  cfg.Iterations,
			Parallelism: cfg.Parallelism,
			SaltLength:  cfg.SaltLength,
			KeyLength:   cfg.KeyLength,
		}},
	}
	if cfg.Memory == 0 || cfg.Iterations == 0 || cfg.Parallelism == 0 || cfg.SaltLength == 0 || cfg.KeyLength == 0 {
		h.argon.Config = DefaultPasswordConfig()
	}

	if cfg.Algorithm == constants.HashAlgorithmArgon2id {
		h.primary = h.argon
	} else {
		h.primary = h.bcrypt
	}
	return h
}

// Hash implements Hasher.
func (h *PasswordHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

// Verify implements Hasher.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return h.argon.Verify(password, encoded)
	case strings.HasPrefix(encoded, "$2"):
		return h.bcrypt.Verify(password, encoded)
	default:
		return false, ErrUnknownHashFormat
	}
}

// GenerateRandomBytes generates cryptographically secure random bytes
func GenerateRandomBytes(length uint32) ([]byte, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
