package invitationsrv_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/company"
	"github.com/hirecopilot/relay/pkg/iam/identity"
	"github.com/hirecopilot/relay/pkg/iam/invitation"
	"github.com/hirecopilot/relay/pkg/iam/invitation/invitationsrv"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/hirecopilot/relay/pkg/notifx"
)

// --- Fakes ---

type fakeInviteRepo struct {
	mu      sync.Mutex
	invites map[string]invitation.Invitation
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[string]invitation.Invitation)}
}

func (r *fakeInviteRepo) Create(ctx context.Context, inv *invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.invites[inv.Token]; exists {
		return invitation.ErrAlreadyRedeemed()
	}
	r.invites[inv.Token] = *inv
	return nil
}

func (r *fakeInviteRepo) FindByToken(ctx context.Context, token string) (*invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[token]
	if !ok {
		return nil, invitation.ErrInvitationNotFound()
	}
	return &inv, nil
}

func (r *fakeInviteRepo) FindByCompany(ctx context.Context, companyID kernel.CompanyID, opts kernel.PaginationOptions) (kernel.Paginated[invitation.Invitation], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []invitation.Invitation
	for _, inv := range r.invites {
		if inv.CompanyID == companyID {
			items = append(items, inv)
		}
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, len(items)), nil
}

// ConsumePending mirrors the conditional-delete gate: the row is handed to at
// most one caller, and only while its window is open.
func (r *fakeInviteRepo) ConsumePending(ctx context.Context, token string) (*invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[token]
	if !ok || inv.IsExpired() {
		return nil, invitation.ErrInvitationNotFound()
	}
	delete(r.invites, token)
	return &inv, nil
}

func (r *fakeInviteRepo) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invites[token]; !ok {
		return invitation.ErrInvitationNotFound()
	}
	delete(r.invites, token)
	return nil
}

func (r *fakeInviteRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept int64
	for token, inv := range r.invites {
		if inv.IsExpired() {
			delete(r.invites, token)
			swept++
		}
	}
	return swept, nil
}

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[kernel.UserID]user.User
	saveErr error
}

func newFakeUserRepo(users ...user.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[kernel.UserID]user.User)}
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
	return nil, nil
}

func (r *fakeUserRepo) Save(ctx context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id kernel.UserID, role user.Role) error {
	return nil
}

func (r *fakeUserRepo) UpdateCompany(ctx context.Context, id kernel.UserID, companyID kernel.CompanyID) error {
	return nil
}

func (r *fakeUserRepo) StampLastLogin(ctx context.Context, id kernel.UserID, at time.Time) error {
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id kernel.UserID) error {
	return nil
}

type fakeAccountRepo struct {
	mu        sync.Mutex
	accounts  map[string]identity.Account
	createErr error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]identity.Account)}
}

func (r *fakeAccountRepo) Create(ctx context.Context, account identity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.accounts[account.Email]; ok {
		return identity.ErrEmailInUse()
	}
	r.accounts[account.Email] = account
	return nil
}

func (r *fakeAccountRepo) FindByID(ctx context.Context, id kernel.UserID) (*identity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, identity.ErrAccountNotFound()
}

func (r *fakeAccountRepo) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return nil, identity.ErrAccountNotFound()
	}
	return &a, nil
}

func (r *fakeAccountRepo) Save(ctx context.Context, account identity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.Email] = account
	return nil
}

func (r *fakeAccountRepo) Disable(ctx context.Context, id kernel.UserID) error {
	return nil
}

type fakeCompanyRepo struct {
	companies map[kernel.CompanyID]company.Company
}

func (r *fakeCompanyRepo) FindByID(ctx context.Context, id kernel.CompanyID) (*company.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, company.ErrCompanyNotFound()
	}
	return &c, nil
}

func (r *fakeCompanyRepo) Save(ctx context.Context, c company.Company) error { return nil }

func (r *fakeCompanyRepo) Delete(ctx context.Context, id kernel.CompanyID) error { return nil }

type fakePasswords struct{}

func (fakePasswords) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakePasswords) Verify(hash, password string) bool    { return hash == "hashed:"+password }

type failingEmailProvider struct{}

func (failingEmailProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	return errors.New("smtp unreachable")
}

// --- Fixtures ---

const (
	adminID   = kernel.UserID("admin-1")
	companyID = kernel.CompanyID("comp-1")
)

func adminUser() user.User {
	return user.User{
		ID:        adminID,
		FullName:  "Alex Admin",
		Email:     "alex@acme.test",
		CompanyID: companyID,
		Role:      user.RoleAdministrator,
	}
}

func regularUser() user.User {
	return user.User{
		ID:        kernel.UserID("user-1"),
		FullName:  "Riley Regular",
		Email:     "riley@acme.test",
		CompanyID: companyID,
		Role:      user.RoleUser,
	}
}

type fixture struct {
	svc      *invitationsrv.InvitationService
	invites  *fakeInviteRepo
	users    *fakeUserRepo
	accounts *fakeAccountRepo
}

func newFixture(mailer *notifx.Client, seedUsers ...user.User) *fixture {
	invites := newFakeInviteRepo()
	users := newFakeUserRepo(seedUsers...)
	accounts := newFakeAccountRepo()
	companies := &fakeCompanyRepo{companies: map[kernel.CompanyID]company.Company{
		companyID: {ID: companyID, Name: "Acme Hiring"},
	}}

	svc := invitationsrv.NewInvitationService(
		invites, users, accounts, companies, fakePasswords{}, mailer,
		invitationsrv.Config{
			TTL:         24 * time.Hour,
			BaseURL:     "https://hirecopilot.me",
			FromAddress: "no-reply@hirecopilot.me",
		},
	)
	return &fixture{svc: svc, invites: invites, users: users, accounts: accounts}
}

func mustIssue(t *testing.T, f *fixture) *invitation.Invitation {
	t.Helper()
	inv, err := f.svc.Issue(context.Background(), adminID, invitationsrv.IssueRequest{
		FullName: "Jordan Vega",
		Email:    "jordan@acme.test",
		Role:     user.RoleUser,
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return inv
}

// --- Issue tests ---

func TestIssue_Success(t *testing.T) {
	f := newFixture(nil, adminUser())

	inv := mustIssue(t, f)
	if inv.Token == "" {
		t.Fatal("expected a generated token")
	}
	if inv.CompanyID != companyID {
		t.Fatalf("expected invite bound to %s, got %s", companyID, inv.CompanyID)
	}
	if inv.InvitedBy != adminID {
		t.Fatalf("expected InvitedBy %s, got %s", adminID, inv.InvitedBy)
	}
	if inv.IsExpired() {
		t.Fatal("fresh invite must not be expired")
	}
}

func TestIssue_NormalizesEmail(t *testing.T) {
	f := newFixture(nil, adminUser())

	inv, err := f.svc.Issue(context.Background(), adminID, invitationsrv.IssueRequest{
		FullName: "Jordan Vega",
		Email:    "  Jordan@ACME.test ",
		Role:     user.RoleUser,
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if inv.Email != "jordan@acme.test" {
		t.Fatalf("expected normalized email, got %q", inv.Email)
	}
}

func TestIssue_RequiresAdministrator(t *testing.T) {
	f := newFixture(nil, regularUser())

	_, err := f.svc.Issue(context.Background(), regularUser().ID, invitationsrv.IssueRequest{
		FullName: "Jordan Vega",
		Email:    "jordan@acme.test",
		Role:     user.RoleUser,
	})
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeAuthorization {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestIssue_RejectsPendingCompany(t *testing.T) {
	pendingAdmin := adminUser()
	pendingAdmin.CompanyID = kernel.PendingCompanyID
	f := newFixture(nil, pendingAdmin)

	_, err := f.svc.Issue(context.Background(), adminID, invitationsrv.IssueRequest{
		FullName: "Jordan Vega",
		Email:    "jordan@acme.test",
		Role:     user.RoleUser,
	})
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeAuthorization {
		t.Fatalf("expected authorization error before onboarding, got %v", err)
	}
}

func TestIssue_RejectsInvalidRole(t *testing.T) {
	f := newFixture(nil, adminUser())

	_, err := f.svc.Issue(context.Background(), adminID, invitationsrv.IssueRequest{
		FullName: "Jordan Vega",
		Email:    "jordan@acme.test",
		Role:     user.Role("Owner"),
	})
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Code != user.CodeInvalidRole.Code {
		t.Fatalf("expected invalid role error, got %v", err)
	}
}

func TestIssue_DeliveryFailureStillCreatesInvite(t *testing.T) {
	mailer := notifx.NewClient(failingEmailProvider{})
	f := newFixture(mailer, adminUser())

	inv, err := f.svc.Issue(context.Background(), adminID, invitationsrv.IssueRequest{
		FullName: "Jordan Vega",
		Email:    "jordan@acme.test",
		Role:     user.RoleUser,
	})
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Code != invitation.CodeDeliveryFailed.Code {
		t.Fatalf("expected delivery failure, got %v", err)
	}
	if inv == nil {
		t.Fatal("expected the invite to be returned despite delivery failure")
	}
	if _, findErr := f.invites.FindByToken(context.Background(), inv.Token); findErr != nil {
		t.Fatalf("expected invite to persist for a later resend: %v", findErr)
	}
}

// --- Inspect tests ---

func TestInspect_ReturnsCompanyNameWithoutToken(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)

	dto, err := f.svc.Inspect(context.Background(), inv.Token)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if dto.CompanyName != "Acme Hiring" {
		t.Fatalf("expected resolved company name, got %q", dto.CompanyName)
	}
	if dto.Email != "jordan@acme.test" {
		t.Fatalf("unexpected email %q", dto.Email)
	}
}

func TestInspect_ExpiredReportsExpired(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)

	stale := *inv
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	f.invites.invites[inv.Token] = stale

	_, err := f.svc.Inspect(context.Background(), inv.Token)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Code != invitation.CodeExpired.Code {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestInspect_UnknownTokenNotFound(t *testing.T) {
	f := newFixture(nil, adminUser())

	_, err := f.svc.Inspect(context.Background(), "no-such-token")
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

// --- Redeem tests ---

func TestRedeem_Success(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)

	redeemed, err := f.svc.Redeem(context.Background(), invitationsrv.RedeemRequest{
		Token:           inv.Token,
		Password:        "Sup3r$ecret",
		ConfirmPassword: "Sup3r$ecret",
	})
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}

	if redeemed.CompanyID != companyID || redeemed.Role != user.RoleUser {
		t.Fatalf("expected pre-assigned company and role, got %+v", redeemed)
	}
	if !redeemed.IsInvited {
		t.Fatal("expected IsInvited to be set")
	}

	account, err := f.accounts.FindByEmail(context.Background(), "jordan@acme.test")
	if err != nil {
		t.Fatalf("expected account to exist: %v", err)
	}
	if !account.EmailVerified {
		t.Fatal("invited accounts must be created email-verified")
	}
	if account.AuthMethod != identity.AuthMethodPassword {
		t.Fatalf("expected password auth method, got %s", account.AuthMethod)
	}

	if _, err := f.invites.FindByToken(context.Background(), inv.Token); err == nil {
		t.Fatal("expected the invite to be consumed")
	}
}

func TestRedeem_WeakPasswordConsumesNothing(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)

	_, err := f.svc.Redeem(context.Background(), invitationsrv.RedeemRequest{
		Token:           inv.Token,
		Password:        "weak",
		ConfirmPassword: "weak",
	})
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, findErr := f.invites.FindByToken(context.Background(), inv.Token); findErr != nil {
		t.Fatal("invite must remain pending after a rejected password")
	}
}

func TestRedeem_ExpiredInvite(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)

	stale := *inv
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	f.invites.invites[inv.Token] = stale

	_, err := f.svc.Redeem(context.Background(), invitationsrv.RedeemRequest{
		Token:           inv.Token,
		Password:        "Sup3r$ecret",
		ConfirmPassword: "Sup3r$ecret",
	})
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Code != invitation.CodeExpired.Code {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestRedeem_SecondAttemptLosesRace(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)

	req := invitationsrv.RedeemRequest{
		Token:           inv.Token,
		Password:        "Sup3r$ecret",
		ConfirmPassword: "Sup3r$ecret",
	}
	if _, err := f.svc.Redeem(context.Background(), req); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}

	_, err := f.svc.Redeem(context.Background(), req)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeNotFound {
		t.Fatalf("expected not found for the losing redeemer, got %v", err)
	}
}

func TestRedeem_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)

	req := invitationsrv.RedeemRequest{
		Token:           inv.Token,
		Password:        "Sup3r$ecret",
		ConfirmPassword: "Sup3r$ecret",
	}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Redeem(context.Background(), req)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winning redeemer, got %d", winners)
	}
}

func TestRedeem_UserSaveFailureSurfacesInconsistency(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)
	f.users.saveErr = errors.New("users table unavailable")

	_, err := f.svc.Redeem(context.Background(), invitationsrv.RedeemRequest{
		Token:           inv.Token,
		Password:        "Sup3r$ecret",
		ConfirmPassword: "Sup3r$ecret",
	})
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}

	// The credential exists even though the user record failed; the session
	// bootstrap covers sign-in for this orphan.
	if _, findErr := f.accounts.FindByEmail(context.Background(), "jordan@acme.test"); findErr != nil {
		t.Fatal("expected the account to remain after user save failure")
	}
}

func TestRedeem_TransientAccountFailureRestoresInvite(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)

	req := invitationsrv.RedeemRequest{
		Token:           inv.Token,
		Password:        "Sup3r$ecret",
		ConfirmPassword: "Sup3r$ecret",
	}

	f.accounts.createErr = errors.New("accounts table unavailable")
	if _, err := f.svc.Redeem(context.Background(), req); err == nil {
		t.Fatal("expected redeem to fail while accounts are unavailable")
	}

	// The same link must survive the outage.
	if _, findErr := f.invites.FindByToken(context.Background(), inv.Token); findErr != nil {
		t.Fatal("expected the invite restored after a transient account failure")
	}

	f.accounts.createErr = nil
	redeemed, err := f.svc.Redeem(context.Background(), req)
	if err != nil {
		t.Fatalf("retry after outage failed: %v", err)
	}
	if redeemed.CompanyID != companyID || !redeemed.IsInvited {
		t.Fatalf("expected a fully provisioned invitee on retry, got %+v", redeemed)
	}
}

func TestRedeem_ExistingAccountBurnsInvite(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)

	// The invitee signed up out of band before redeeming.
	if err := f.accounts.Create(context.Background(), identity.Account{
		ID:    kernel.NewUserID("acct-jordan"),
		Email: "jordan@acme.test",
	}); err != nil {
		t.Fatalf("seeding account failed: %v", err)
	}

	_, err := f.svc.Redeem(context.Background(), invitationsrv.RedeemRequest{
		Token:           inv.Token,
		Password:        "Sup3r$ecret",
		ConfirmPassword: "Sup3r$ecret",
	})
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Code != identity.CodeEmailInUse.Code {
		t.Fatalf("expected email-in-use, got %v", err)
	}

	if _, findErr := f.invites.FindByToken(context.Background(), inv.Token); findErr == nil {
		t.Fatal("expected the invite to stay consumed when the email already has an account")
	}
}

// --- Resend tests ---

func TestResend_RotatesToken(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)

	fresh, err := f.svc.Resend(context.Background(), adminID, inv.Token)
	if err != nil {
		t.Fatalf("Resend failed: %v", err)
	}
	if fresh.Token == inv.Token {
		t.Fatal("expected a rotated token")
	}
	if fresh.Email != inv.Email || fresh.Role != inv.Role {
		t.Fatalf("expected invitee details preserved, got %+v", fresh)
	}

	if _, err := f.invites.FindByToken(context.Background(), inv.Token); err == nil {
		t.Fatal("expected the superseded token to be dead")
	}
	if _, err := f.invites.FindByToken(context.Background(), fresh.Token); err != nil {
		t.Fatalf("expected the fresh token to be live: %v", err)
	}
}

func TestResend_DeliveryFailureStillReturnsRotatedInvite(t *testing.T) {
	mailer := notifx.NewClient(failingEmailProvider{})
	f := newFixture(mailer, adminUser())

	inv, _ := f.svc.Issue(context.Background(), adminID, invitationsrv.IssueRequest{
		FullName: "Jordan Vega",
		Email:    "jordan@acme.test",
		Role:     user.RoleUser,
	})
	if inv == nil {
		t.Fatal("expected the invite despite delivery failure")
	}

	fresh, err := f.svc.Resend(context.Background(), adminID, inv.Token)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Code != invitation.CodeDeliveryFailed.Code {
		t.Fatalf("expected delivery failure, got %v", err)
	}
	if fresh == nil {
		t.Fatal("expected the rotated invite to be returned despite delivery failure")
	}

	// The old token is already gone, so the admin must get the new one back.
	if fresh.Token == inv.Token {
		t.Fatal("expected a rotated token")
	}
	if _, findErr := f.invites.FindByToken(context.Background(), fresh.Token); findErr != nil {
		t.Fatalf("expected the fresh token to be live: %v", findErr)
	}
}

func TestResend_CrossCompanyDenied(t *testing.T) {
	otherAdmin := user.User{
		ID:        kernel.UserID("admin-2"),
		FullName:  "Sam Other",
		Email:     "sam@other.test",
		CompanyID: kernel.CompanyID("comp-2"),
		Role:      user.RoleAdministrator,
	}
	f := newFixture(nil, adminUser(), otherAdmin)
	inv := mustIssue(t, f)

	_, err := f.svc.Resend(context.Background(), otherAdmin.ID, inv.Token)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeAuthorization {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

// --- Revoke tests ---

func TestRevoke_RemovesInvite(t *testing.T) {
	f := newFixture(nil, adminUser())
	inv := mustIssue(t, f)

	if err := f.svc.Revoke(context.Background(), adminID, inv.Token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := f.invites.FindByToken(context.Background(), inv.Token); err == nil {
		t.Fatal("expected the invite to be gone")
	}
}

func TestRevoke_CrossCompanyDenied(t *testing.T) {
	otherAdmin := user.User{
		ID:        kernel.UserID("admin-2"),
		FullName:  "Sam Other",
		Email:     "sam@other.test",
		CompanyID: kernel.CompanyID("comp-2"),
		Role:      user.RoleAdministrator,
	}
	f := newFixture(nil, adminUser(), otherAdmin)
	inv := mustIssue(t, f)

	err := f.svc.Revoke(context.Background(), otherAdmin.ID, inv.Token)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeAuthorization {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if _, findErr := f.invites.FindByToken(context.Background(), inv.Token); findErr != nil {
		t.Fatal("invite must survive a denied revocation")
	}
}

// --- List and sweep tests ---

func TestList_RequiresAdministrator(t *testing.T) {
	f := newFixture(nil, regularUser())

	_, err := f.svc.List(context.Background(), regularUser().ID, kernel.PaginationOptions{Page: 1, PageSize: 20})
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeAuthorization {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestList_ClampsPagination(t *testing.T) {
	f := newFixture(nil, adminUser())
	mustIssue(t, f)

	page, err := f.svc.List(context.Background(), adminID, kernel.PaginationOptions{Page: 0, PageSize: 5000})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 invite, got %d", len(page.Items))
	}
}

func TestSweepExpired_RemovesOnlyExpired(t *testing.T) {
	f := newFixture(nil, adminUser())
	live := mustIssue(t, f)

	f.invites.invites["stale-token"] = invitation.Invitation{
		Token:     "stale-token",
		CompanyID: companyID,
		Status:    invitation.StatusPending,
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	swept, err := f.svc.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 swept invite, got %d", swept)
	}
	if _, err := f.invites.FindByToken(context.Background(), live.Token); err != nil {
		t.Fatal("live invite must survive the sweep")
	}
}
