package invitation

import (
	"context"

	"github.com/hirecopilot/relay/pkg/kernel"
)

// InvitationRepository persists pending invites keyed by token.
type InvitationRepository interface {
	// Create inserts a new pending invite.
	Create(ctx context.Context, inv *Invitation) error

	// FindByToken returns the invite with the given token, expired or not.
	FindByToken(ctx context.Context, token string) (*Invitation, error)

	// FindByCompany lists pending invites issued for the given company,
	// newest first.
	FindByCompany(ctx context.Context, companyID kernel.CompanyID, opts kernel.PaginationOptions) (kernel.Paginated[Invitation], error)

	// ConsumePending atomically deletes the invite iff it is still within its
	// redemption window, returning the deleted row. At most one concurrent
	// caller receives the invite; all others get ErrInvitationNotFound.
	ConsumePending(ctx context.Context, token string) (*Invitation, error)

	// Delete removes the invite unconditionally (revocation, expiry sweep).
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes all invites whose window has closed, returning
	// the number of rows swept.
	DeleteExpired(ctx context.Context) (int64, error)
}
