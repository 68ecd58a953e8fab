package invitation

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// Status of an invite record. Only Pending is ever persisted: redemption
// deletes the row (Consumed) and expiry is derived from ExpiresAt.
type Status string

const (
	StatusPending Status = "Pending"
)

// TokenBytes is the entropy of an invite token. 32 random bytes (256 bits),
// hex encoded, used verbatim as the record's primary key — the token is both
// an unguessable capability and the lookup key.
const TokenBytes = 32

// Invitation is a single-use, time-limited offer binding an email to a role
// and company. Never updated in place; deleted on redemption.
type Invitation struct {
	Token        string           `db:"token" json:"token"`
	FullName     string           `db:"full_name" json:"full_name"`
	Email        string           `db:"email" json:"email"`
	Role         user.Role        `db:"role" json:"role"`
	CompanyID    kernel.CompanyID `db:"company_id" json:"company_id"`
	Status       Status           `db:"status" json:"status"`
	InvitedBy    kernel.UserID    `db:"invited_by" json:"invited_by"`
	InviteSentAt time.Time        `db:"invite_sent_at" json:"invite_sent_at"`
	ExpiresAt    time.Time        `db:"expires_at" json:"expires_at"`
}

// IsExpired reports whether the redemption window has closed.
func (i *Invitation) IsExpired() bool {
	return !time.Now().Before(i.ExpiresAt)
}

// IsRedeemable reports whether the invite can still be exchanged for an
// account: it exists and now is before ExpiresAt.
func (i *Invitation) IsRedeemable() bool {
	return i.Status == StatusPending && !i.IsExpired()
}

// NewToken generates a cryptographically random invite token.
func NewToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to generate invite token", errx.TypeInternal)
	}
	return hex.EncodeToString(buf), nil
}

// RedemptionLink builds the URL mailed to the invitee. The token is a bearer
// credential; the link must only travel over secure transport.
func (i *Invitation) RedemptionLink(baseURL string) string {
	return baseURL + "/register?token=" + i.Token
}

// ============================================================================
// DTOs
// ============================================================================

// InvitationDTO exposes the invite's public fields for the redemption page.
// The token itself is only included for authenticated admin listings.
type InvitationDTO struct {
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name,omitempty"`
	Status      string    `json:"status"`
	SentAt      time.Time `json:"invite_sent_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ToDTO converts the invitation to its public representation.
func (i *Invitation) ToDTO() InvitationDTO {
	return InvitationDTO{
		FullName:  i.FullName,
		Email:     i.Email,
		Role:      string(i.Role),
		CompanyID: i.CompanyID.String(),
		Status:    string(i.Status),
		SentAt:    i.InviteSentAt,
		ExpiresAt: i.ExpiresAt,
	}
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("INVITATION")

var (
	CodeNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Invitation not found")
	CodeExpired         = ErrRegistry.Register("EXPIRED", errx.TypeBusiness, http.StatusGone, "Invitation has expired")
	CodeAlreadyRedeemed = ErrRegistry.Register("ALREADY_REDEEMED", errx.TypeConflict, http.StatusConflict, "Invitation has already been redeemed")
	CodeDeliveryFailed  = ErrRegistry.Register("EMAIL_DELIVERY_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to deliver the invitation email")
)

func ErrInvitationNotFound() *errx.Error { return ErrRegistry.New(CodeNotFound) }
func ErrInvitationExpired() *errx.Error  { return ErrRegistry.New(CodeExpired) }
func ErrAlreadyRedeemed() *errx.Error    { return ErrRegistry.New(CodeAlreadyRedeemed) }
func ErrDeliveryFailed() *errx.Error     { return ErrRegistry.New(CodeDeliveryFailed) }
