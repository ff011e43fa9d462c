package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength bounds tree and member names.
const MaxNameLength = 256

// ValidateTreeName validates the display name of a family tree.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateTreeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "tree name cannot be empty")
	}
	return validateText("tree name", name)
}

// ValidateMemberName validates the name of a household member.
// Primary members must be named; spouses may be left blank by the editor,
// so callers pass required=false for them.
func ValidateMemberName(name string, required bool) error {
	if required && strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidMember, "member name cannot be empty")
	}
	if err := validateText("member name", name); err != nil {
		return New(ErrCodeInvalidMember, "%s", UserMessage(err))
	}
	return nil
}

// ValidateID validates an opaque node, edge or tree identifier.
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}
	if len(id) > MaxNameLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, MaxNameLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || r == '/' || r == '\\' {
			return New(ErrCodeInvalidInput, "%s id contains invalid characters", kind)
		}
	}
	return nil
}

func validateText(what, s string) error {
	if utf8.RuneCountInString(s) > MaxNameLength {
		return New(ErrCodeInvalidName, "%s too long (max %d characters)", what, MaxNameLength)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "%s contains invalid control characters", what)
		}
	}
	return nil
}
