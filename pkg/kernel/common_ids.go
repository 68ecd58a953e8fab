package kernel

type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

type CompanyID string

// PendingCompanyID is the sentinel company identifier for accounts that have
// signed in but not completed onboarding yet. It never references a real
// company record.
const PendingCompanyID CompanyID = "__pending__"

func NewCompanyID(id string) CompanyID { return CompanyID(id) }
func (c CompanyID) String() string     { return string(c) }
func (c CompanyID) IsEmpty() bool      { return string(c) == "" }
func (c CompanyID) IsPending() bool    { return c == PendingCompanyID }
