// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate collects field-level failures into one
// [apperr.AppError] with code VALIDATION_ERROR.
//
// Handlers run the shape checks (required, lengths, enums) and services run the
// rules that need state. Storage never validates.
//
//	err := (&validate.Validator{}).
//		Required("title", input.Title).
//		MaxLen("title", input.Title, 200).
//		OneOf("priority", input.Priority, "low", "medium", "high").
//		Err()
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/pkg/uuid"
)

// ErrInvalidJSON is returned when the request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// hexColor matches #rgb and #rrggbb.
var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validator accumulates failures; the zero value is ready to use. It is not
// safe for concurrent use.
type Validator struct {
	errs []apperr.FieldError
}

// # Presence & Length

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(field, strings.TrimSpace(value) == "", "This field is required")
}

// MaxLen fails if value has more than max characters.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	return v.Custom(field, utf8.RuneCountInString(value) > max, fmt.Sprintf("Maximum %d characters", max))
}

// MinLen fails if value has fewer than min characters.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	return v.Custom(field, utf8.RuneCountInString(value) < min, fmt.Sprintf("Minimum %d characters", min))
}

// # Formats

// Email fails unless value is a bare address such as ada@example.com.
func (v *Validator) Email(field, value string) *Validator {
	address, err := mail.ParseAddress(value)
	return v.Custom(field, err != nil || address.Address != strings.TrimSpace(value), "Must be a valid email address")
}

// HexColor fails unless value is a CSS hex color.
func (v *Validator) HexColor(field, value string) *Validator {
	return v.Custom(field, !hexColor.MatchString(value), "Must be a hex color such as #6366f1")
}

// UUID fails unless value parses as a UUID.
func (v *Validator) UUID(field, value string) *Validator {
	return v.Custom(field, !uuid.Valid(value), "Must be a valid UUID")
}

// OneOf fails unless value is one of allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	return v.Custom(field, !slices.Contains(allowed, value), "Must be one of: "+strings.Join(allowed, ", "))
}

// Custom records message against field when failed is true.
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
	}
	return v
}

// # Result

// Err returns the accumulated failures as one error, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// RequiredError builds a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{Field: field, Message: message})
}
