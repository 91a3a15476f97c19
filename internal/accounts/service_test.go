package accounts

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtlist/courtlist/internal/shared"
)

// ============================================================================
// MOCK COLLABORATORS
// ============================================================================

type mockRepository struct {
	accounts map[string]*Account

	saveError error
	saveCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{accounts: make(map[string]*Account)}
}

func (m *mockRepository) Save(ctx context.Context, account Account) (Account, error) {
	m.saveCalls++
	if m.saveError != nil {
		return Account{}, m.saveError
	}
	stored := account
	m.accounts[account.ID] = &stored
	return stored, nil
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return *a, nil
}

func (m *mockRepository) FindByProvenance(ctx context.Context, provenance Provenance, provenanceID string) (Account, error) {
	for _, a := range m.accounts {
		if a.Provenance == provenance && a.ProvenanceID == provenanceID {
			return *a, nil
		}
	}
	return Account{}, shared.ErrNotFound
}

func (m *mockRepository) FindByEmailAndProvenance(ctx context.Context, email string, provenance Provenance) (Account, error) {
	for _, a := range m.accounts {
		if a.Email == email && a.Provenance == provenance {
			return *a, nil
		}
	}
	return Account{}, shared.ErrNotFound
}

func (m *mockRepository) FindStaleByClass(ctx context.Context, class StaleClass, threshold time.Time) ([]Account, error) {
	return nil, nil
}

func (m *mockRepository) CountSystemAdmins(ctx context.Context) (int, error) {
	count := 0
	for _, a := range m.accounts {
		if a.Role == RoleSystemAdmin && a.Provenance != ProvenanceSSO {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) UpdateRole(ctx context.Context, id string, role Role) error {
	a, ok := m.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.Role = role
	return nil
}

func (m *mockRepository) UpdateLastVerified(ctx context.Context, id string, at time.Time) error {
	a, ok := m.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.LastVerified = &at
	return nil
}

func (m *mockRepository) UpdateLastSignedIn(ctx context.Context, id string, at time.Time) error {
	a, ok := m.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.LastSignedIn = &at
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.accounts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

type mockProvider struct {
	existing map[string]*Identity

	nextProviderID string
	createError    error
	findError      error
	updateError    error
	deleteError    error

	createCalls int
	findCalls   int
	updateCalls int
	deleteCalls int
}

func newMockProvider() *mockProvider {
	return &mockProvider{existing: make(map[string]*Identity), nextProviderID: "1234"}
}

func (m *mockProvider) CreateIdentity(ctx context.Context, req CreateIdentityRequest) (Identity, error) {
	m.createCalls++
	if m.createError != nil {
		return Identity{}, m.createError
	}
	return Identity{
		ProviderID:  m.nextProviderID,
		Email:       req.Email,
		DisplayName: req.Forenames + " " + req.Surname,
		Role:        req.Role,
	}, nil
}

func (m *mockProvider) FindIdentityByEmail(ctx context.Context, email string) (*Identity, error) {
	m.findCalls++
	if m.findError != nil {
		return nil, m.findError
	}
	return m.existing[email], nil
}

func (m *mockProvider) DeleteIdentity(ctx context.Context, providerID string) error {
	m.deleteCalls++
	return m.deleteError
}

func (m *mockProvider) UpdateRole(ctx context.Context, providerID string, role Role) error {
	m.updateCalls++
	return m.updateError
}

type mockNotifier struct {
	welcomeError error

	welcomeCalls  int
	reminderCalls int
	noticeCalls   int
}

func (m *mockNotifier) SendWelcome(ctx context.Context, email, name string) error {
	m.welcomeCalls++
	return m.welcomeError
}

func (m *mockNotifier) SendVerificationReminder(ctx context.Context, email, name string) error {
	m.reminderCalls++
	return nil
}

func (m *mockNotifier) SendInactivityNotice(ctx context.Context, email, name string, provenance Provenance, lastDate time.Time) error {
	m.noticeCalls++
	return nil
}

func newTestService(repo *mockRepository, provider *mockProvider, notifier *mockNotifier) *Service {
	svc := NewService(slog.Default(), repo, provider, notifier, 4)
	svc.clock = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func directoryCandidate(email string) Candidate {
	return Candidate{
		Email:      email,
		Role:       RoleAdminCTSC,
		Provenance: ProvenanceInternalDirectory,
		Forenames:  "Pat",
		Surname:    "Winters",
	}
}

// ============================================================================
// PROVISIONING
// ============================================================================

func TestCreateAccountsSingleVerified(t *testing.T) {
	repo := newMockRepository()
	provider := newMockProvider()
	notifier := &mockNotifier{}
	svc := newTestService(repo, provider, notifier)

	result, err := svc.CreateAccounts(context.Background(), "issuer-1", []Candidate{
		directoryCandidate("a@b.com"),
	})
	require.NoError(t, err)

	require.Len(t, result.Created, 1)
	assert.Empty(t, result.Errored)
	created := result.Created[0]
	assert.Equal(t, "1234", created.ProvenanceID)
	assert.Equal(t, "a@b.com", created.Email)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, notifier.welcomeCalls)
	assert.Equal(t, 1, provider.createCalls)
}

func TestCreateAccountsBatchAllValid(t *testing.T) {
	repo := newMockRepository()
	provider := newMockProvider()
	svc := newTestService(repo, provider, &mockNotifier{})

	candidates := []Candidate{
		{Email: "one@example.com", Role: RoleVerified, Provenance: ProvenanceCourtIdam, ProvenanceID: "idam-1"},
		{Email: "two@example.com", Role: RoleVerified, Provenance: ProvenanceCrimeIdam, ProvenanceID: "idam-2"},
		{Email: "three@example.com", Role: RoleGeneralThirdParty, Provenance: ProvenanceThirdParty, ProvenanceID: "tp-1"},
	}
	result, err := svc.CreateAccounts(context.Background(), "issuer-1", candidates)
	require.NoError(t, err)

	assert.Len(t, result.Created, len(candidates))
	assert.Empty(t, result.Errored)
	// No directory-backed candidates, so the provider is never touched.
	assert.Equal(t, 0, provider.findCalls)
	assert.Equal(t, 0, provider.createCalls)
}

func TestCreateAccountsInvalidEmailMakesNoExternalCalls(t *testing.T) {
	repo := newMockRepository()
	provider := newMockProvider()
	svc := newTestService(repo, provider, &mockNotifier{})

	candidate := directoryCandidate("not-an-email")
	result, err := svc.CreateAccounts(context.Background(), "issuer-1", []Candidate{candidate})
	require.NoError(t, err)

	assert.Empty(t, result.Created)
	require.Len(t, result.Errored, 1)
	assert.Contains(t, result.Errored[0].Messages, "email: must be a well-formed email address")
	assert.Equal(t, 0, provider.findCalls)
	assert.Equal(t, 0, provider.createCalls)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestCreateAccountsMissingRole(t *testing.T) {
	svc := newTestService(newMockRepository(), newMockProvider(), &mockNotifier{})

	candidate := Candidate{Email: "a@b.com", Provenance: ProvenanceCourtIdam, ProvenanceID: "idam-9"}
	result, err := svc.CreateAccounts(context.Background(), "issuer-1", []Candidate{candidate})
	require.NoError(t, err)

	assert.Empty(t, result.Created)
	require.Len(t, result.Errored, 1)
	assert.Equal(t, []string{"role: must not be null"}, result.Errored[0].Messages)
	assert.Equal(t, "a@b.com", result.Errored[0].Candidate.Email)
}

func TestCreateAccountsMixedValidityIsOrderIndependent(t *testing.T) {
	valid := Candidate{Email: "ok@example.com", Role: RoleVerified, Provenance: ProvenanceCourtIdam, ProvenanceID: "idam-3"}
	invalid := Candidate{Email: "broken", Role: RoleVerified, Provenance: ProvenanceCourtIdam, ProvenanceID: "idam-4"}

	for name, batch := range map[string][]Candidate{
		"valid first":   {valid, invalid},
		"invalid first": {invalid, valid},
	} {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(newMockRepository(), newMockProvider(), &mockNotifier{})
			result, err := svc.CreateAccounts(context.Background(), "issuer-1", batch)
			require.NoError(t, err)
			assert.Len(t, result.Created, 1)
			assert.Len(t, result.Errored, 1)
			assert.Equal(t, "ok@example.com", result.Created[0].Email)
			assert.Equal(t, "broken", result.Errored[0].Candidate.Email)
		})
	}
}

func TestCreateAccountsDuplicateIdentity(t *testing.T) {
	provider := newMockProvider()
	provider.existing["a@b.com"] = &Identity{ProviderID: "aad-7", Email: "a@b.com", DisplayName: "Existing User", Role: RoleAdminCTSC}
	svc := newTestService(newMockRepository(), provider, &mockNotifier{})

	result, err := svc.CreateAccounts(context.Background(), "issuer-1", []Candidate{directoryCandidate("a@b.com")})
	require.NoError(t, err)

	assert.Empty(t, result.Created)
	require.Len(t, result.Errored, 1)
	assert.Contains(t, result.Errored[0].Messages[0], "identity already exists")
	assert.Equal(t, 0, provider.createCalls)
}

func TestCreateAccountsRepairsIncompleteIdentity(t *testing.T) {
	provider := newMockProvider()
	provider.existing["a@b.com"] = &Identity{ProviderID: "aad-7", Email: "a@b.com"}
	repo := newMockRepository()
	svc := newTestService(repo, provider, &mockNotifier{})

	result, err := svc.CreateAccounts(context.Background(), "issuer-1", []Candidate{directoryCandidate("a@b.com")})
	require.NoError(t, err)

	require.Len(t, result.Created, 1)
	assert.Empty(t, result.Errored)
	// The half-provisioned identity is completed and reused, never duplicated.
	assert.Equal(t, "aad-7", result.Created[0].ProvenanceID)
	assert.Equal(t, 1, provider.updateCalls)
	assert.Equal(t, 0, provider.createCalls)
}

func TestCreateAccountsProviderErrorVerbatim(t *testing.T) {
	provider := newMockProvider()
	provider.createError = errors.New("directory returned status 502: upstream unavailable")
	repo := newMockRepository()
	svc := newTestService(repo, provider, &mockNotifier{})

	result, err := svc.CreateAccounts(context.Background(), "issuer-1", []Candidate{directoryCandidate("a@b.com")})
	require.NoError(t, err)

	assert.Empty(t, result.Created)
	require.Len(t, result.Errored, 1)
	assert.Equal(t, []string{"directory returned status 502: upstream unavailable"}, result.Errored[0].Messages)
	assert.Equal(t, 0, repo.saveCalls)
}

func TestCreateAccountsPersistenceFailureKeepsProviderIdentity(t *testing.T) {
	provider := newMockProvider()
	repo := newMockRepository()
	repo.saveError = errors.New("connection reset")
	svc := newTestService(repo, provider, &mockNotifier{})

	result, err := svc.CreateAccounts(context.Background(), "issuer-1", []Candidate{directoryCandidate("a@b.com")})
	require.NoError(t, err)

	assert.Empty(t, result.Created)
	require.Len(t, result.Errored, 1)
	assert.Contains(t, result.Errored[0].Messages[0], "persistence:")
	// Orphaned external identities are preferred over lost accounts: the
	// provider identity is never rolled back.
	assert.Equal(t, 1, provider.createCalls)
	assert.Equal(t, 0, provider.deleteCalls)
}

func TestCreateAccountsNotificationFailureDualReports(t *testing.T) {
	notifier := &mockNotifier{welcomeError: errors.New("smtp unavailable")}
	repo := newMockRepository()
	svc := newTestService(repo, newMockProvider(), notifier)

	result, err := svc.CreateAccounts(context.Background(), "issuer-1", []Candidate{directoryCandidate("a@b.com")})
	require.NoError(t, err)

	// The account stays authoritative in created AND advisory in errored.
	require.Len(t, result.Created, 1)
	require.Len(t, result.Errored, 1)
	assert.Contains(t, result.Errored[0].Messages[0], "account created, notification failed")
	assert.Len(t, repo.accounts, 1)
}

func TestCreateAccountsSystemAdminCap(t *testing.T) {
	repo := newMockRepository()
	for i := 0; i < 4; i++ {
		account := Account{ID: string(rune('a' + i)), Role: RoleSystemAdmin, Provenance: ProvenanceInternalDirectory}
		repo.accounts[account.ID] = &account
	}
	provider := newMockProvider()
	svc := newTestService(repo, provider, &mockNotifier{})

	candidate := directoryCandidate("admin@example.com")
	candidate.Role = RoleSystemAdmin
	result, err := svc.CreateAccounts(context.Background(), "issuer-1", []Candidate{candidate})
	require.NoError(t, err)

	assert.Empty(t, result.Created)
	require.Len(t, result.Errored, 1)
	assert.Contains(t, result.Errored[0].Messages[0], "system administrator limit reached")
	assert.Equal(t, 0, provider.createCalls)
}

// ============================================================================
// DELETION PRIMITIVE
// ============================================================================

func TestDeleteAccountDirectoryProvenance(t *testing.T) {
	repo := newMockRepository()
	account := Account{ID: "acc-1", Provenance: ProvenanceInternalDirectory, ProvenanceID: "aad-1", Role: RoleAdminCTSC}
	repo.accounts[account.ID] = &account
	provider := newMockProvider()
	svc := newTestService(repo, provider, &mockNotifier{})

	deleted, err := svc.DeleteAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", deleted.ID)
	assert.Equal(t, 1, provider.deleteCalls)

	_, err = repo.FindByID(context.Background(), "acc-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteAccountToleratesMissingProviderIdentity(t *testing.T) {
	repo := newMockRepository()
	account := Account{ID: "acc-1", Provenance: ProvenanceInternalDirectory, ProvenanceID: "aad-1", Role: RoleAdminCTSC}
	repo.accounts[account.ID] = &account
	provider := newMockProvider()
	provider.deleteError = ErrIdentityNotFound
	svc := newTestService(repo, provider, &mockNotifier{})

	_, err := svc.DeleteAccount(context.Background(), "acc-1")
	require.NoError(t, err)
}

func TestDeleteAccountSkipsProviderForOtherProvenances(t *testing.T) {
	repo := newMockRepository()
	account := Account{ID: "acc-2", Provenance: ProvenanceCourtIdam, ProvenanceID: "idam-1", Role: RoleVerified}
	repo.accounts[account.ID] = &account
	provider := newMockProvider()
	svc := newTestService(repo, provider, &mockNotifier{})

	_, err := svc.DeleteAccount(context.Background(), "acc-2")
	require.NoError(t, err)
	assert.Equal(t, 0, provider.deleteCalls)
}

func TestDeleteAccountNotFound(t *testing.T) {
	svc := newTestService(newMockRepository(), newMockProvider(), &mockNotifier{})
	_, err := svc.DeleteAccount(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// ============================================================================
// ROLE AND ACTIVITY UPDATES
// ============================================================================

func TestUpdateRolePropagatesToProvider(t *testing.T) {
	repo := newMockRepository()
	account := Account{ID: "acc-1", Provenance: ProvenanceInternalDirectory, ProvenanceID: "aad-1", Role: RoleAdminCTSC}
	repo.accounts[account.ID] = &account
	provider := newMockProvider()
	svc := newTestService(repo, provider, &mockNotifier{})

	updated, err := svc.UpdateRole(context.Background(), "acc-1", RoleSuperAdminCTSC)
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdminCTSC, updated.Role)
	assert.Equal(t, 1, provider.updateCalls)
}

func TestUpdateRoleRejectsThirdPartyMismatch(t *testing.T) {
	repo := newMockRepository()
	account := Account{ID: "acc-1", Provenance: ProvenanceInternalDirectory, ProvenanceID: "aad-1", Role: RoleAdminCTSC}
	repo.accounts[account.ID] = &account
	svc := newTestService(repo, newMockProvider(), &mockNotifier{})

	_, err := svc.UpdateRole(context.Background(), "acc-1", RoleGeneralThirdParty)
	require.Error(t, err)
}

func TestTouchVerifiedOnlyForMediaAccounts(t *testing.T) {
	repo := newMockRepository()
	media := Account{ID: "media-1", Provenance: ProvenanceCourtIdam, Role: RoleVerified}
	admin := Account{ID: "admin-1", Provenance: ProvenanceInternalDirectory, Role: RoleAdminCTSC}
	repo.accounts[media.ID] = &media
	repo.accounts[admin.ID] = &admin
	svc := newTestService(repo, newMockProvider(), &mockNotifier{})

	require.NoError(t, svc.TouchVerified(context.Background(), "media-1"))
	assert.NotNil(t, repo.accounts["media-1"].LastVerified)

	assert.Error(t, svc.TouchVerified(context.Background(), "admin-1"))
}

func TestTouchSignedIn(t *testing.T) {
	repo := newMockRepository()
	account := Account{ID: "acc-1", Provenance: ProvenanceInternalDirectory, Role: RoleAdminCTSC}
	repo.accounts[account.ID] = &account
	svc := newTestService(repo, newMockProvider(), &mockNotifier{})

	require.NoError(t, svc.TouchSignedIn(context.Background(), "acc-1"))
	assert.NotNil(t, repo.accounts["acc-1"].LastSignedIn)
}
