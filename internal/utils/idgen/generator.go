package idgen

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const charset = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultLength is the length of the random part of public IDs.
const DefaultLength = 16

// Prefixes used for public identifiers.
const (
	PrefixConversation = "conv"
	PrefixMessage      = "msg"
	PrefixProject      = "proj"
	PrefixRecording    = "rec"
	PrefixBlogPost     = "post"
	PrefixApplication  = "app"
	PrefixStream       = "strm"
)

// GenerateSecureID generates a cryptographically secure ID with the given prefix and length.
// The random part only uses 0-9 and a-z.
func GenerateSecureID(prefix string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid id length %d", length)
	}
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	encoded := make([]byte, length)
	for i := range bytes {
		encoded[i] = charset[int(bytes[i])%len(charset)]
	}
	return prefix + "_" + string(encoded), nil
}

// New returns a DefaultLength ID for prefix.
func New(prefix string) (string, error) {
	return GenerateSecureID(prefix, DefaultLength)
}

// ValidateIDFormat reports whether id looks like "<prefix>_<[0-9a-z]+>".
func ValidateIDFormat(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"_")
	if !ok || rest == "" || len(rest) > 64 {
		return false
	}
	for _, r := range rest {
		if !strings.ContainsRune(charset, r) {
			return false
		}
	}
	return true
}
