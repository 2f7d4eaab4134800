package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// PIILevel controls how much personal data survives into logs and spans.
type PIILevel string

const (
	// PIILevelNone redacts user content entirely.
	PIILevelNone PIILevel = "none"
	// PIILevelHashed replaces detected personal data with salted hashes.
	PIILevelHashed PIILevel = "hashed"
	// PIILevelFull leaves content untouched.
	PIILevelFull PIILevel = "full"
)

const redacted = "[REDACTED]"

type rule struct {
	pattern *regexp.Regexp
	label   string
	// hashed rules keep a short digest so repeated values can be correlated.
	hashed bool
}

// Sanitizer masks personal data in questions, applicant details and ids
// before they are logged.
type Sanitizer struct {
	level PIILevel
	salt  string
	rules []rule
}

// ParseLevel maps a PII_LEVEL value to a level. Unknown values are hashed.
func ParseLevel(raw string) PIILevel {
	switch PIILevel(strings.ToLower(strings.TrimSpace(raw))) {
	case PIILevelNone:
		return PIILevelNone
	case PIILevelFull:
		return PIILevelFull
	default:
		return PIILevelHashed
	}
}

// NewSanitizer creates a sanitizer that salts hashes with salt.
func NewSanitizer(level PIILevel, salt string) *Sanitizer {
	return &Sanitizer{
		level: level,
		salt:  salt,
		rules: []rule{
			{pattern: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), label: "EMAIL", hashed: true},
			// Korean and Japanese mobile numbers, then North American ones.
			{pattern: regexp.MustCompile(`\b0\d{1,2}[-.\s]?\d{3,4}[-.\s]?\d{4}\b`), label: "PHONE", hashed: true},
			{pattern: regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\(?\b\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`), label: "PHONE", hashed: true},
			{pattern: regexp.MustCompile(`\b\d{6}-[1-4]\d{6}\b`), label: "RRN"},
			{pattern: regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`), label: "CC"},
			{pattern: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), label: "IP", hashed: true},
		},
	}
}

// Level returns the configured level.
func (s *Sanitizer) Level() PIILevel { return s.level }

// SanitizePrompt masks a user question.
func (s *Sanitizer) SanitizePrompt(input string) string {
	switch s.level {
	case PIILevelNone:
		return redacted
	case PIILevelFull:
		return input
	default:
		return s.mask(input)
	}
}

// SanitizeEmail masks a single address, keeping its domain at the hashed
// level.
func (s *Sanitizer) SanitizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	switch s.level {
	case PIILevelNone:
		return redacted
	case PIILevelFull:
		return email
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return s.hash(email)
	}
	return s.hash(local) + "@" + domain
}

// SanitizeUserID masks an account or guest id.
func (s *Sanitizer) SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	switch s.level {
	case PIILevelNone:
		return redacted
	case PIILevelFull:
		return userID
	default:
		return s.hash(userID)
	}
}

func (s *Sanitizer) mask(input string) string {
	for _, r := range s.rules {
		input = r.pattern.ReplaceAllStringFunc(input, func(match string) string {
			if !r.hashed {
				return "[" + r.label + ":REDACTED]"
			}
			return "[" + r.label + ":" + s.hash(match) + "]"
		})
	}
	return input
}

// hash returns the first 8 hex characters of the salted SHA-256.
func (s *Sanitizer) hash(data string) string {
	sum := sha256.Sum256([]byte(data + s.salt))
	return hex.EncodeToString(sum[:])[:8]
}
