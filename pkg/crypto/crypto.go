package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const passwordSaltLength = 16

// HashPassword returns a salted Argon2id digest of the supplied secret in PHC string form.
// The same digest format is used for passwords and persisted refresh tokens.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("crypto: password is required")
	}

	salt := make([]byte, passwordSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto: generate salt: %w", err)
	}

	params := DefaultArgon2Params()
	key, err := DeriveKeyArgon2id([]byte(password), salt, params)
	if err != nil {
		return "", err
	}
	return encodePHC(params, salt, key), nil
}

// VerifyPassword compares the stored digest with the plaintext candidate.
// Digests that are not Argon2id PHC strings never verify.
func VerifyPassword(hashedPassword, password string) bool {
	if hashedPassword == "" || password == "" {
		return false
	}

	params, salt, expected, err := decodePHC(hashedPassword)
	if err != nil {
		return false
	}

	computed, err := DeriveKeyArgon2id([]byte(password), salt, params)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// GenerateHexToken returns length random bytes hex encoded.
func GenerateHexToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("crypto: token length must be positive")
	}
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer), nil
}

// SignHMAC returns the hex encoded HMAC-SHA256 of message under secret.
func SignHMAC(secret []byte, message string) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("crypto: hmac secret is required")
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
