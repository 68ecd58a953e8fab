package invitation_test

import (
	"strings"
	"testing"
	"time"

	"github.com/hirecopilot/relay/pkg/iam/invitation"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// --- Token generation tests ---

func TestNewToken_LengthAndEncoding(t *testing.T) {
	token, err := invitation.NewToken()
	if err != nil {
		t.Fatalf("NewToken failed: %v", err)
	}
	if len(token) != invitation.TokenBytes*2 {
		t.Fatalf("expected %d hex chars, got %d", invitation.TokenBytes*2, len(token))
	}
	for _, r := range token {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("token contains non-hex rune %q", r)
		}
	}
}

func TestNewToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := invitation.NewToken()
		if err != nil {
			t.Fatalf("NewToken failed: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token[:8])
		}
		seen[token] = true
	}
}

// --- Redemption window tests ---

func TestInvitation_IsExpired(t *testing.T) {
	live := invitation.Invitation{ExpiresAt: time.Now().Add(time.Hour)}
	if live.IsExpired() {
		t.Fatal("expected invitation with future ExpiresAt to be live")
	}

	stale := invitation.Invitation{ExpiresAt: time.Now().Add(-time.Minute)}
	if !stale.IsExpired() {
		t.Fatal("expected invitation with past ExpiresAt to be expired")
	}
}

func TestInvitation_IsRedeemable(t *testing.T) {
	inv := invitation.Invitation{
		Status:    invitation.StatusPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if !inv.IsRedeemable() {
		t.Fatal("expected pending, unexpired invitation to be redeemable")
	}

	inv.ExpiresAt = time.Now().Add(-time.Second)
	if inv.IsRedeemable() {
		t.Fatal("expected expired invitation to not be redeemable")
	}
}

// --- Link and DTO tests ---

func TestInvitation_RedemptionLink(t *testing.T) {
	inv := invitation.Invitation{Token: "abc123"}
	got := inv.RedemptionLink("https://hirecopilot.me")
	want := "https://hirecopilot.me/register?token=abc123"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestInvitation_ToDTOExcludesToken(t *testing.T) {
	inv := invitation.Invitation{
		Token:     "secret-token",
		FullName:  "Jordan Vega",
		Email:     "jordan@acme.test",
		Role:      user.RoleUser,
		CompanyID: kernel.CompanyID("comp-1"),
		Status:    invitation.StatusPending,
	}
	dto := inv.ToDTO()
	if dto.FullName != "Jordan Vega" || dto.Email != "jordan@acme.test" {
		t.Fatalf("unexpected DTO contents: %+v", dto)
	}
	if dto.Role != string(user.RoleUser) {
		t.Fatalf("expected role %q, got %q", user.RoleUser, dto.Role)
	}
	if dto.CompanyID != "comp-1" {
		t.Fatalf("expected company comp-1, got %q", dto.CompanyID)
	}
}
