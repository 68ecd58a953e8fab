package identity_test

import (
	"testing"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/identity"
)

// --- Strength policy tests ---

func TestCheckPasswordStrength_AcceptsCompliant(t *testing.T) {
	if failed := identity.CheckPasswordStrength("Sup3r$ecret"); len(failed) != 0 {
		t.Fatalf("expected no failures, got %v", failed)
	}
}

func TestCheckPasswordStrength_ReportsEachMissingClass(t *testing.T) {
	cases := []struct {
		password string
		want     identity.PasswordCheck
	}{
		{"Ab1$", identity.CheckMinLength},
		{"lower1$lower", identity.CheckUpper},
		{"UPPER1$UPPER", identity.CheckLower},
		{"NoDigits$$here", identity.CheckDigit},
		{"NoSymbols123abc", identity.CheckSymbol},
	}

	for _, tc := range cases {
		failed := identity.CheckPasswordStrength(tc.password)
		found := false
		for _, f := range failed {
			if f == tc.want {
				found = true
			}
		}
		if !found {
			t.Errorf("password %q: expected check %q among failures %v", tc.password, tc.want, failed)
		}
	}
}

func TestCheckPasswordStrength_ShortPasswordFailsEverythingMissing(t *testing.T) {
	failed := identity.CheckPasswordStrength("a")
	// min length, upper, digit, symbol — lowercase is present.
	if len(failed) != 4 {
		t.Fatalf("expected 4 failed checks, got %v", failed)
	}
}

// --- ValidatePassword tests ---

func TestValidatePassword_WeakBeforeMismatch(t *testing.T) {
	// A weak password must surface the policy violation even when the
	// confirmation also differs.
	err := identity.ValidatePassword("short", "different")
	var xerr *errx.Error
	if !errx.As(err, &xerr) {
		t.Fatalf("expected errx.Error, got %v", err)
	}
	if xerr.Code != identity.CodeWeakPassword.Code {
		t.Fatalf("expected weak password error, got %s", xerr.Code)
	}
	if _, ok := xerr.Details["failed_checks"]; !ok {
		t.Fatalf("expected failed_checks detail, got %v", xerr.Details)
	}
}

func TestValidatePassword_Mismatch(t *testing.T) {
	err := identity.ValidatePassword("Sup3r$ecret", "Sup3r$ecret!")
	var xerr *errx.Error
	if !errx.As(err, &xerr) {
		t.Fatalf("expected errx.Error, got %v", err)
	}
	if xerr.Code != identity.CodePasswordMismatch.Code {
		t.Fatalf("expected mismatch error, got %s", xerr.Code)
	}
}

func TestValidatePassword_OK(t *testing.T) {
	if err := identity.ValidatePassword("Sup3r$ecret", "Sup3r$ecret"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
