package identity

import "unicode"

// Password strength policy: minimum 8 characters with at least one uppercase
// letter, one lowercase letter, one digit and one symbol. Mirrors the checks
// shown on the registration form, re-validated server-side.
const MinPasswordLength = 8

// PasswordCheck is a single failed policy requirement, suitable for display.
type PasswordCheck string

const (
	CheckMinLength PasswordCheck = "min_length"
	CheckUpper     PasswordCheck = "uppercase"
	CheckLower     PasswordCheck = "lowercase"
	CheckDigit     PasswordCheck = "digit"
	CheckSymbol    PasswordCheck = "symbol"
)

// CheckPasswordStrength returns the list of policy requirements the password
// fails. An empty slice means the password is acceptable.
func CheckPasswordStrength(password string) []PasswordCheck {
	var failed []PasswordCheck

	if len(password) < MinPasswordLength {
		failed = append(failed, CheckMinLength)
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasUpper {
		failed = append(failed, CheckUpper)
	}
	if !hasLower {
		failed = append(failed, CheckLower)
	}
	if !hasDigit {
		failed = append(failed, CheckDigit)
	}
	if !hasSymbol {
		failed = append(failed, CheckSymbol)
	}

	return failed
}

// ValidatePassword enforces the strength policy and the confirmation match.
// Violations fail before any store mutation is attempted.
func ValidatePassword(password, confirm string) error {
	if failed := CheckPasswordStrength(password); len(failed) > 0 {
		return ErrWeakPassword().WithDetail("failed_checks", failed)
	}
	if password != confirm {
		return ErrPasswordMismatch()
	}
	return nil
}
