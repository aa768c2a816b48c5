package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/taskhub/backend/internal/constants"
)

// TokenService mints password reset tokens. The raw token goes to the user
// and only its digest is stored.
type TokenService struct {
	// Size is the number of random bytes in a raw token.
	Size uint32
}

// NewTokenService creates a token service producing 256-bit tokens.
func NewTokenService() *TokenService {
	return &TokenService{Size: constants.ResetTokenBytes}
}

// GenerateToken returns a new hex-encoded random token.
func (s *TokenService) GenerateToken() (string, error) {
	size := s.Size
	if size < 16 {
		size = constants.ResetTokenBytes
	}
	b, err := GenerateRandomBytes(size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the lookup digest of a raw token.
func (s *TokenService) HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Generate returns a fresh raw token together with its digest.
func (s *TokenService) Generate() (raw, hash string, err error) {
	raw, err = s.GenerateToken()
	if err != nil {
		return "", "", err
	}
	return raw, s.HashToken(raw), nil
}
