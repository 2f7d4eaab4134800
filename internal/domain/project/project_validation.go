package project

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"ruleout-server/internal/utils/idgen"
)

// ValidationConfig holds project field limits.
type ValidationConfig struct {
	MaxTitleLength       int
	MaxDescriptionLength int
}

// DefaultValidationConfig returns the default limits.
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxTitleLength:       120,
		MaxDescriptionLength: 2000,
	}
}

// Validator checks project fields.
type Validator struct {
	config *ValidationConfig
}

// NewValidator creates a validator. A nil config uses the defaults.
func NewValidator(config *ValidationConfig) *Validator {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &Validator{config: config}
}

// ValidateID checks the public id format.
func (v *Validator) ValidateID(id string) error {
	if !idgen.ValidateIDFormat(id, idgen.PrefixProject) {
		return fmt.Errorf("invalid project ID format")
	}
	return nil
}

// ValidateTitle checks a trimmed, non-empty title.
func (v *Validator) ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title cannot be empty or only whitespace")
	}
	if utf8.RuneCountInString(title) > v.config.MaxTitleLength {
		return fmt.Errorf("title exceeds maximum length of %d characters", v.config.MaxTitleLength)
	}
	for _, r := range title {
		if !unicode.IsPrint(r) {
			return fmt.Errorf("title contains unprintable characters")
		}
	}
	return nil
}

// ValidateDescription allows empty text. Newlines and tabs are permitted.
func (v *Validator) ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > v.config.MaxDescriptionLength {
		return fmt.Errorf("description exceeds maximum length of %d characters", v.config.MaxDescriptionLength)
	}
	for _, r := range description {
		if !unicode.IsPrint(r) && r != '\n' && r != '\t' && r != '\r' {
			return fmt.Errorf("description contains unprintable characters")
		}
	}
	return nil
}
