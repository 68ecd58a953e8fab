package usersrv_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/identity"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/iam/user/usersrv"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// --- Fakes ---

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[kernel.UserID]user.User
	stamped   map[kernel.UserID]time.Time
	deleteErr error
}

func newFakeUserRepo(users ...user.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users:   make(map[kernel.UserID]user.User),
		stamped: make(map[kernel.UserID]time.Time),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound()
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (r *fakeUserRepo) FindByCompany(ctx context.Context, companyID kernel.CompanyID) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*user.User
	for _, u := range r.users {
		if u.CompanyID == companyID {
			u := u
			out = append(out, &u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Save(ctx context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id kernel.UserID, role user.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound()
	}
	u.Role = role
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) UpdateCompany(ctx context.Context, id kernel.UserID, companyID kernel.CompanyID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound()
	}
	u.CompanyID = companyID
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) StampLastLogin(ctx context.Context, id kernel.UserID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stamped[id] = at
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id kernel.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.users, id)
	return nil
}

type fakeAccountRepo struct {
	mu         sync.Mutex
	disabled   map[kernel.UserID]bool
	disableErr error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{disabled: make(map[kernel.UserID]bool)}
}

func (r *fakeAccountRepo) Create(ctx context.Context, account identity.Account) error { return nil }

func (r *fakeAccountRepo) FindByID(ctx context.Context, id kernel.UserID) (*identity.Account, error) {
	return nil, identity.ErrAccountNotFound()
}

func (r *fakeAccountRepo) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	return nil, identity.ErrAccountNotFound()
}

func (r *fakeAccountRepo) Save(ctx context.Context, account identity.Account) error { return nil }

func (r *fakeAccountRepo) Disable(ctx context.Context, id kernel.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disableErr != nil {
		return r.disableErr
	}
	r.disabled[id] = true
	return nil
}

// --- Fixtures ---

const companyID = kernel.CompanyID("comp-1")

func adminUser(id kernel.UserID) user.User {
	return user.User{
		ID:        id,
		FullName:  "Alex Admin",
		Email:     string(id) + "@acme.test",
		CompanyID: companyID,
		Role:      user.RoleAdministrator,
	}
}

func memberUser(id kernel.UserID) user.User {
	return user.User{
		ID:        id,
		FullName:  "Riley Member",
		Email:     string(id) + "@acme.test",
		CompanyID: companyID,
		Role:      user.RoleUser,
	}
}

// --- EnsureUser tests ---

func TestEnsureUser_BootstrapsMinimalRecord(t *testing.T) {
	users := newFakeUserRepo()
	svc := usersrv.NewUserService(users, newFakeAccountRepo())

	account := identity.Account{
		ID:          kernel.UserID("acct-1"),
		Email:       "new@acme.test",
		DisplayName: "New Person",
	}

	u, err := svc.EnsureUser(context.Background(), &account)
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if u.CompanyID != kernel.PendingCompanyID {
		t.Fatalf("expected pending company sentinel, got %s", u.CompanyID)
	}
	if u.Role != user.RoleAdministrator {
		t.Fatalf("expected bootstrap role Administrator, got %s", u.Role)
	}
	if u.FullName != "New Person" {
		t.Fatalf("expected display name carried over, got %q", u.FullName)
	}
	if u.LastLogin == nil {
		t.Fatal("expected last login set on bootstrap")
	}
}

func TestEnsureUser_EmptyDisplayNameFallsBack(t *testing.T) {
	users := newFakeUserRepo()
	svc := usersrv.NewUserService(users, newFakeAccountRepo())

	account := identity.Account{ID: kernel.UserID("acct-1"), Email: "new@acme.test", DisplayName: "  "}
	u, err := svc.EnsureUser(context.Background(), &account)
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if u.FullName != "No Name" {
		t.Fatalf("expected fallback name, got %q", u.FullName)
	}
}

func TestEnsureUser_ExistingRecordStampsLastLogin(t *testing.T) {
	existing := memberUser("user-1")
	users := newFakeUserRepo(existing)
	svc := usersrv.NewUserService(users, newFakeAccountRepo())

	account := identity.Account{ID: existing.ID, Email: existing.Email}
	u, err := svc.EnsureUser(context.Background(), &account)
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if u.Role != user.RoleUser {
		t.Fatalf("existing record must keep its role, got %s", u.Role)
	}
	if _, ok := users.stamped[existing.ID]; !ok {
		t.Fatal("expected last login stamped for the existing record")
	}
	if u.LastLogin == nil {
		t.Fatal("expected returned user to carry the fresh last login")
	}
}

// --- Roster tests ---

func TestListCompanyUsers_RequiresAdministrator(t *testing.T) {
	member := memberUser("user-1")
	svc := usersrv.NewUserService(newFakeUserRepo(member), newFakeAccountRepo())

	_, err := svc.ListCompanyUsers(context.Background(), member.ID)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeAuthorization {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestListCompanyUsers_ScopesToRequesterCompany(t *testing.T) {
	admin := adminUser("admin-1")
	member := memberUser("user-1")
	outsider := memberUser("user-2")
	outsider.CompanyID = kernel.CompanyID("comp-2")

	svc := usersrv.NewUserService(newFakeUserRepo(admin, member, outsider), newFakeAccountRepo())

	roster, err := svc.ListCompanyUsers(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("ListCompanyUsers failed: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("expected 2 users in the roster, got %d", len(roster))
	}
	for _, dto := range roster {
		if dto.CompanyID != companyID.String() {
			t.Fatalf("roster leaked a user from %s", dto.CompanyID)
		}
	}
}

// --- UpdateOwnName tests ---

func TestUpdateOwnName(t *testing.T) {
	member := memberUser("user-1")
	users := newFakeUserRepo(member)
	svc := usersrv.NewUserService(users, newFakeAccountRepo())

	u, err := svc.UpdateOwnName(context.Background(), member.ID, "  Riley Renamed  ")
	if err != nil {
		t.Fatalf("UpdateOwnName failed: %v", err)
	}
	if u.FullName != "Riley Renamed" {
		t.Fatalf("expected trimmed name, got %q", u.FullName)
	}
}

func TestUpdateOwnName_RejectsEmpty(t *testing.T) {
	member := memberUser("user-1")
	svc := usersrv.NewUserService(newFakeUserRepo(member), newFakeAccountRepo())

	_, err := svc.UpdateOwnName(context.Background(), member.ID, "   ")
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// --- ChangeRole tests ---

func TestChangeRole_Success(t *testing.T) {
	admin := adminUser("admin-1")
	member := memberUser("user-1")
	users := newFakeUserRepo(admin, member)
	svc := usersrv.NewUserService(users, newFakeAccountRepo())

	if err := svc.ChangeRole(context.Background(), admin.ID, member.ID, user.RoleAdministrator); err != nil {
		t.Fatalf("ChangeRole failed: %v", err)
	}
	if users.users[member.ID].Role != user.RoleAdministrator {
		t.Fatalf("expected promoted role, got %s", users.users[member.ID].Role)
	}
}

func TestChangeRole_InvalidRole(t *testing.T) {
	admin := adminUser("admin-1")
	svc := usersrv.NewUserService(newFakeUserRepo(admin), newFakeAccountRepo())

	err := svc.ChangeRole(context.Background(), admin.ID, "user-1", user.Role("Owner"))
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Code != user.CodeInvalidRole.Code {
		t.Fatalf("expected invalid role error, got %v", err)
	}
}

func TestChangeRole_CrossCompanyDenied(t *testing.T) {
	admin := adminUser("admin-1")
	outsider := memberUser("user-2")
	outsider.CompanyID = kernel.CompanyID("comp-2")
	svc := usersrv.NewUserService(newFakeUserRepo(admin, outsider), newFakeAccountRepo())

	err := svc.ChangeRole(context.Background(), admin.ID, outsider.ID, user.RoleAdministrator)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeAuthorization {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

// --- DeleteUser tests ---

func TestDeleteUser_DisablesAccountThenRemovesRecord(t *testing.T) {
	admin := adminUser("admin-1")
	member := memberUser("user-1")
	users := newFakeUserRepo(admin, member)
	accounts := newFakeAccountRepo()
	svc := usersrv.NewUserService(users, accounts)

	if err := svc.DeleteUser(context.Background(), admin.ID, member.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if !accounts.disabled[member.ID] {
		t.Fatal("expected the account to be disabled")
	}
	if _, ok := users.users[member.ID]; ok {
		t.Fatal("expected the user record to be gone")
	}
}

func TestDeleteUser_SelfDenied(t *testing.T) {
	admin := adminUser("admin-1")
	svc := usersrv.NewUserService(newFakeUserRepo(admin), newFakeAccountRepo())

	err := svc.DeleteUser(context.Background(), admin.ID, admin.ID)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Code != user.CodeCannotModifySelf.Code {
		t.Fatalf("expected cannot-modify-self error, got %v", err)
	}
}

func TestDeleteUser_CrossCompanyDenied(t *testing.T) {
	admin := adminUser("admin-1")
	outsider := memberUser("user-2")
	outsider.CompanyID = kernel.CompanyID("comp-2")
	accounts := newFakeAccountRepo()
	svc := usersrv.NewUserService(newFakeUserRepo(admin, outsider), accounts)

	err := svc.DeleteUser(context.Background(), admin.ID, outsider.ID)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeAuthorization {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if accounts.disabled[outsider.ID] {
		t.Fatal("denied delete must not touch the account")
	}
}

func TestDeleteUser_RecordDeleteFailureIsRetryable(t *testing.T) {
	admin := adminUser("admin-1")
	member := memberUser("user-1")
	users := newFakeUserRepo(admin, member)
	users.deleteErr = errors.New("users table unavailable")
	accounts := newFakeAccountRepo()
	svc := usersrv.NewUserService(users, accounts)

	err := svc.DeleteUser(context.Background(), admin.ID, member.ID)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if retryable, _ := xerr.Details["retryable"].(bool); !retryable {
		t.Fatalf("expected retryable detail, got %v", xerr.Details)
	}
	// Safe state: access revoked even though the record lingers.
	if !accounts.disabled[member.ID] {
		t.Fatal("expected the account to stay disabled after the failed delete")
	}
}
