package user

import (
	"net/http"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// Role is the authorization level of a user within their company.
type Role string

const (
	RoleUser          Role = "User"
	RoleAdministrator Role = "Administrator"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdministrator
}

// User is the profile record owned 1:1 by a credential-store account. The
// record is created on first successful authentication or by invite
// redemption, and its CompanyID stays at the pending sentinel until
// onboarding completes.
type User struct {
	ID        kernel.UserID    `db:"id" json:"id"`
	FullName  string           `db:"full_name" json:"full_name"`
	Email     string           `db:"email" json:"email"`
	CompanyID kernel.CompanyID `db:"company_id" json:"company_id"`
	Role      Role             `db:"role" json:"role"`
	IsInvited bool             `db:"is_invited" json:"is_invited"`
	LastLogin *time.Time       `db:"last_login" json:"last_login,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// IsAdministrator reports whether the user holds the Administrator role.
func (u *User) IsAdministrator() bool {
	return u.Role == RoleAdministrator
}

// IsOnboarded reports whether the user belongs to a real company.
func (u *User) IsOnboarded() bool {
	return !u.CompanyID.IsEmpty() && !u.CompanyID.IsPending()
}

// SameCompany reports whether another user shares this user's company. The
// pending sentinel never matches anything, including itself: users who have
// not onboarded have no company scope.
func (u *User) SameCompany(other *User) bool {
	if u.CompanyID.IsPending() || other.CompanyID.IsPending() {
		return false
	}
	return u.CompanyID == other.CompanyID
}

// ============================================================================
// DTOs
// ============================================================================

// UserDTO is the API representation of a user.
type UserDTO struct {
	ID        string     `json:"id"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	CompanyID string     `json:"company_id"`
	Role      string     `json:"role"`
	IsInvited bool       `json:"is_invited"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToDTO converts the user to its API representation.
func (u *User) ToDTO() UserDTO {
	return UserDTO{
		ID:        u.ID.String(),
		FullName:  u.FullName,
		Email:     u.Email,
		CompanyID: u.CompanyID.String(),
		Role:      string(u.Role),
		IsInvited: u.IsInvited,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound     = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeUserExists       = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "User already exists")
	CodeInvalidRole      = ErrRegistry.Register("INVALID_ROLE", errx.TypeValidation, http.StatusBadRequest, "Invalid role")
	CodeCannotModifySelf = ErrRegistry.Register("CANNOT_MODIFY_SELF", errx.TypeBusiness, http.StatusBadRequest, "Administrators cannot modify their own account through this operation")
)

func ErrUserNotFound() *errx.Error     { return ErrRegistry.New(CodeUserNotFound) }
func ErrUserExists() *errx.Error       { return ErrRegistry.New(CodeUserExists) }
func ErrInvalidRole() *errx.Error      { return ErrRegistry.New(CodeInvalidRole) }
func ErrCannotModifySelf() *errx.Error { return ErrRegistry.New(CodeCannotModifySelf) }
