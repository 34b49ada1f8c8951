package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// NewOpaque genera un token opaco aleatorio (base64url sin padding).
// Con nBytes=32 el token tiene 256 bits de entropía.
func NewOpaque(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Digest devuelve sha256(plaintext) crudo, para guardar en DB.
// Nunca persistimos el token en claro.
func Digest(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	return sum[:]
}
