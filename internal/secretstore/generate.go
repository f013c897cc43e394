// Package secretstore generates secret material and persists it to the flat
// secrets directory referenced by compose secret declarations. Values live
// only here; compose documents carry file references, never the material
// itself.
package secretstore

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Encoding selects the text encoding of generated secret material.
type Encoding string

const (
	// EncodingBase64URL is unpadded URL-safe base64, safe to paste into
	// env files and connection strings.
	EncodingBase64URL Encoding = "base64url"
	// EncodingHex is lowercase hexadecimal.
	EncodingHex Encoding = "hex"
)

// DefaultLength is the number of random bytes drawn for a default secret.
const DefaultLength = 32

// Generate draws n bytes from the operating system's CSPRNG and encodes
// them. Every call is independent; there is no seeding.
func Generate(n int, enc Encoding) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	switch enc {
	case EncodingBase64URL, "":
		return base64.RawURLEncoding.EncodeToString(buf), nil
	case EncodingHex:
		return hex.EncodeToString(buf), nil
	default:
		return "", fmt.Errorf("unknown secret encoding %q", enc)
	}
}

// GenerateDefault returns a 32-byte URL-safe base64 secret.
func GenerateDefault() (string, error) {
	return Generate(DefaultLength, EncodingBase64URL)
}
