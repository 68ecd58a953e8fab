package companysrv_test

import (
	"context"
	"io"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/fsx"
	"github.com/hirecopilot/relay/pkg/iam/company"
	"github.com/hirecopilot/relay/pkg/iam/company/companysrv"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/hirecopilot/relay/pkg/ptrx"
)

// --- Fakes ---

type fakeCompanyRepo struct {
	mu        sync.Mutex
	companies map[kernel.CompanyID]company.Company
}

func newFakeCompanyRepo(companies ...company.Company) *fakeCompanyRepo {
	r := &fakeCompanyRepo{companies: make(map[kernel.CompanyID]company.Company)}
	for _, c := range companies {
		r.companies[c.ID] = c
	}
	return r
}

func (r *fakeCompanyRepo) FindByID(ctx context.Context, id kernel.CompanyID) (*company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return nil, company.ErrCompanyNotFound()
	}
	return &c, nil
}

func (r *fakeCompanyRepo) Save(ctx context.Context, c company.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[c.ID] = c
	return nil
}

func (r *fakeCompanyRepo) Delete(ctx context.Context, id kernel.CompanyID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.companies, id)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[kernel.UserID]user.User
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
	return nil, user.ErrUserNotFound()
}

func (r *fakeUserRepo) FindByCompany(ctx context.Context, companyID kernel.CompanyID) ([]*user.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) Save(ctx context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id kernel.UserID, role user.Role) error {
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
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id kernel.UserID) error { return nil }

// memFS is an in-memory fsx.FileSystem capturing writes.
type memFS struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemFS() *memFS { return &memFS{files: make(map[string][]byte)} }

func (f *memFS) ReadFile(ctx context.Context, p string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[p]
	if !ok {
		return nil, errx.NotFound("file not found")
	}
	return data, nil
}

func (f *memFS) ReadFileStream(ctx context.Context, p string) (io.ReadCloser, error) {
	data, err := f.ReadFile(ctx, p)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (f *memFS) Stat(ctx context.Context, p string) (fsx.FileInfo, error) {
	return fsx.FileInfo{Name: path.Base(p)}, nil
}

func (f *memFS) List(ctx context.Context, p string) ([]fsx.FileInfo, error) { return nil, nil }

func (f *memFS) Exists(ctx context.Context, p string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[p]
	return ok, nil
}

func (f *memFS) WriteFile(ctx context.Context, p string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[p] = data
	return nil
}

func (f *memFS) WriteFileStream(ctx context.Context, p string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return f.WriteFile(ctx, p, data)
}

func (f *memFS) CreateDir(ctx context.Context, p string) error { return nil }

func (f *memFS) DeleteFile(ctx context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, p)
	return nil
}

func (f *memFS) DeleteDir(ctx context.Context, p string, recursive bool) error { return nil }

func (f *memFS) Join(elem ...string) string { return path.Join(elem...) }

// --- Fixtures ---

const (
	adminID   = kernel.UserID("admin-1")
	companyID = kernel.CompanyID("comp-1")
)

// pngHeader is a minimal PNG signature recognized by content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func pendingAdmin() user.User {
	return user.User{
		ID:        adminID,
		FullName:  "Alex Admin",
		Email:     "alex@acme.test",
		CompanyID: kernel.PendingCompanyID,
		Role:      user.RoleAdministrator,
	}
}

func onboardedAdmin() user.User {
	u := pendingAdmin()
	u.CompanyID = companyID
	return u
}

func acmeCompany() company.Company {
	return company.Company{
		ID:    companyID,
		Name:  "Acme Hiring",
		Phone: "+1 555 0100",
	}
}

func validOnboard() companysrv.OnboardRequest {
	return companysrv.OnboardRequest{
		Name:  "Acme Hiring",
		Phone: "+1 555 0100",
		Address: company.Address{
			Street: "1 Main St",
			City:   "Springfield",
			State:  "IL",
		},
	}
}

// --- Onboard tests ---

func TestOnboard_CreatesCompanyAndTransitionsAdmin(t *testing.T) {
	users := newFakeUserRepo(pendingAdmin())
	companies := newFakeCompanyRepo()
	svc := companysrv.NewCompanyService(companies, users, newMemFS(), "https://cdn.hirecopilot.me")

	c, err := svc.Onboard(context.Background(), adminID, validOnboard())
	if err != nil {
		t.Fatalf("Onboard failed: %v", err)
	}
	if c.Name != "Acme Hiring" {
		t.Fatalf("unexpected company name %q", c.Name)
	}
	if c.CreatedBy != adminID {
		t.Fatalf("expected CreatedBy %s, got %s", adminID, c.CreatedBy)
	}

	moved, _ := users.FindByID(context.Background(), adminID)
	if moved.CompanyID != c.ID {
		t.Fatalf("expected admin moved to %s, still at %s", c.ID, moved.CompanyID)
	}
}

func TestOnboard_NonAdministratorDenied(t *testing.T) {
	member := pendingAdmin()
	member.Role = user.RoleUser
	svc := companysrv.NewCompanyService(newFakeCompanyRepo(), newFakeUserRepo(member), newMemFS(), "")

	_, err := svc.Onboard(context.Background(), adminID, validOnboard())
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeAuthorization {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestOnboard_AlreadyOnboardedConflicts(t *testing.T) {
	svc := companysrv.NewCompanyService(newFakeCompanyRepo(acmeCompany()), newFakeUserRepo(onboardedAdmin()), newMemFS(), "")

	_, err := svc.Onboard(context.Background(), adminID, validOnboard())
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Code != company.CodeAlreadyOnboarded.Code {
		t.Fatalf("expected already-onboarded conflict, got %v", err)
	}
}

func TestOnboard_ValidatesForm(t *testing.T) {
	cases := []struct {
		name string
		req  companysrv.OnboardRequest
	}{
		{"missing name", companysrv.OnboardRequest{Phone: "+1 555 0100"}},
		{"missing phone", companysrv.OnboardRequest{Name: "Acme Hiring"}},
		{"bad state", companysrv.OnboardRequest{
			Name: "Acme Hiring", Phone: "+1 555 0100",
			Address: company.Address{State: "Illinois"},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := newFakeUserRepo(pendingAdmin())
			svc := companysrv.NewCompanyService(newFakeCompanyRepo(), users, newMemFS(), "")

			_, err := svc.Onboard(context.Background(), adminID, tc.req)
			var xerr *errx.Error
			if !errx.As(err, &xerr) || xerr.Type != errx.TypeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}

			still, _ := users.FindByID(context.Background(), adminID)
			if still.CompanyID != kernel.PendingCompanyID {
				t.Fatal("rejected onboarding must not move the requester")
			}
		})
	}
}

// --- Get and Update tests ---

func TestGet_BeforeOnboardingNotFound(t *testing.T) {
	svc := companysrv.NewCompanyService(newFakeCompanyRepo(), newFakeUserRepo(pendingAdmin()), newMemFS(), "")

	_, err := svc.Get(context.Background(), adminID)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	companies := newFakeCompanyRepo(acmeCompany())
	svc := companysrv.NewCompanyService(companies, newFakeUserRepo(onboardedAdmin()), newMemFS(), "")

	c, err := svc.Update(context.Background(), adminID, companysrv.UpdateRequest{Name: ptrx.Ptr("Acme Talent")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if c.Name != "Acme Talent" {
		t.Fatalf("expected updated name, got %q", c.Name)
	}
	if c.Phone != "+1 555 0100" {
		t.Fatalf("untouched field changed: %q", c.Phone)
	}
}

func TestUpdate_RejectsEmptyName(t *testing.T) {
	companies := newFakeCompanyRepo(acmeCompany())
	svc := companysrv.NewCompanyService(companies, newFakeUserRepo(onboardedAdmin()), newMemFS(), "")

	_, err := svc.Update(context.Background(), adminID, companysrv.UpdateRequest{Name: ptrx.Ptr("  ")})
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// --- Logo tests ---

func TestUploadLogo_Success(t *testing.T) {
	files := newMemFS()
	companies := newFakeCompanyRepo(acmeCompany())
	svc := companysrv.NewCompanyService(companies, newFakeUserRepo(onboardedAdmin()), files, "https://cdn.hirecopilot.me/")

	c, err := svc.UploadLogo(context.Background(), adminID, "logo.png", pngHeader)
	if err != nil {
		t.Fatalf("UploadLogo failed: %v", err)
	}
	if !strings.HasPrefix(c.LogoURL, "https://cdn.hirecopilot.me/company-logos/") {
		t.Fatalf("unexpected logo URL %q", c.LogoURL)
	}
	if len(files.files) != 1 {
		t.Fatalf("expected 1 stored file, got %d", len(files.files))
	}
}

func TestUploadLogo_RejectsOversize(t *testing.T) {
	svc := companysrv.NewCompanyService(newFakeCompanyRepo(acmeCompany()), newFakeUserRepo(onboardedAdmin()), newMemFS(), "")

	big := make([]byte, companysrv.MaxLogoSize+1)
	copy(big, pngHeader)
	_, err := svc.UploadLogo(context.Background(), adminID, "logo.png", big)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Code != company.CodeInvalidLogo.Code {
		t.Fatalf("expected invalid logo error, got %v", err)
	}
}

func TestUploadLogo_RejectsNonImage(t *testing.T) {
	svc := companysrv.NewCompanyService(newFakeCompanyRepo(acmeCompany()), newFakeUserRepo(onboardedAdmin()), newMemFS(), "")

	_, err := svc.UploadLogo(context.Background(), adminID, "logo.svg", []byte("<svg></svg>"))
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Code != company.CodeInvalidLogo.Code {
		t.Fatalf("expected invalid logo error, got %v", err)
	}
}

func TestUploadLogo_PendingAdminDenied(t *testing.T) {
	svc := companysrv.NewCompanyService(newFakeCompanyRepo(), newFakeUserRepo(pendingAdmin()), newMemFS(), "")

	_, err := svc.UploadLogo(context.Background(), adminID, "logo.png", pngHeader)
	var xerr *errx.Error
	if !errx.As(err, &xerr) || xerr.Type != errx.TypeAuthorization {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

// --- DisplayName tests ---

func TestDisplayName_FallsBackToID(t *testing.T) {
	svc := companysrv.NewCompanyService(newFakeCompanyRepo(acmeCompany()), newFakeUserRepo(), newMemFS(), "")

	if got := svc.DisplayName(context.Background(), companyID); got != "Acme Hiring" {
		t.Fatalf("expected company name, got %q", got)
	}
	if got := svc.DisplayName(context.Background(), kernel.CompanyID("ghost")); got != "ghost" {
		t.Fatalf("expected raw id fallback, got %q", got)
	}
}
