package kernel

// ============================================================================
// Context Types
// ============================================================================

// AuthContext is the verified request identity injected into every
// authenticated request. Server-side operations receive it explicitly; it is
// never read from shared mutable state, and its role/company values are only
// used for routing — authorization re-resolves both from the user store.
type AuthContext struct {
	UserID    UserID    `json:"user_id"`
	CompanyID CompanyID `json:"company_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

// IsValid checks whether the AuthContext carries a usable identity.
func (ac *AuthContext) IsValid() bool {
	return !ac.UserID.IsEmpty()
}

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// AuthContextKey stores the AuthContext in a context.Context.
	AuthContextKey ContextKey = "auth_context"

	// RequestIDKey stores the request ID.
	RequestIDKey ContextKey = "request_id"
)
