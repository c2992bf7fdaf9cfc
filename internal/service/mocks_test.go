package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"suratku-server/internal/domain"
	"suratku-server/internal/repository"
)

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, repository.ErrNotFound)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
}

func (m *mockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}

type mockInstitutionRepository struct {
	institutions map[string]*domain.Institution
	findErr      error
}

func newMockInstitutionRepository() *mockInstitutionRepository {
	return &mockInstitutionRepository{
		institutions: make(map[string]*domain.Institution),
	}
}

func (m *mockInstitutionRepository) Create(ctx context.Context, institution *domain.Institution) error {
	m.institutions[institution.ID] = institution
	return nil
}

func (m *mockInstitutionRepository) FindByID(ctx context.Context, id string) (*domain.Institution, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if institution, ok := m.institutions[id]; ok {
		return institution, nil
	}
	return nil, fmt.Errorf("institution %s: %w", id, repository.ErrNotFound)
}

type mockLetterRepository struct {
	mu            sync.Mutex
	letters       map[string]*domain.Letter
	findErr       error
	markSignedErr error
	writes        int
}

func newMockLetterRepository() *mockLetterRepository {
	return &mockLetterRepository{
		letters: make(map[string]*domain.Letter),
	}
}

func (m *mockLetterRepository) Create(ctx context.Context, letter *domain.Letter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *letter
	m.letters[letter.ID] = &cp
	return nil
}

func (m *mockLetterRepository) FindByID(ctx context.Context, id string) (*domain.Letter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if letter, ok := m.letters[id]; ok {
		cp := *letter
		return &cp, nil
	}
	return nil, fmt.Errorf("letter %s: %w", id, repository.ErrNotFound)
}

func (m *mockLetterRepository) List(ctx context.Context, institutionID string) ([]*domain.Letter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var letters []*domain.Letter
	for _, letter := range m.letters {
		if institutionID == "" || letter.InstitutionID == institutionID {
			cp := *letter
			letters = append(letters, &cp)
		}
	}
	sort.Slice(letters, func(i, j int) bool {
		return letters[i].CreatedAt.After(letters[j].CreatedAt)
	})
	return letters, nil
}

func (m *mockLetterRepository) MarkSigned(ctx context.Context, id, documentHash, signedAt, signatureID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markSignedErr != nil {
		return m.markSignedErr
	}
	letter, ok := m.letters[id]
	if !ok {
		return fmt.Errorf("letter %s: %w", id, repository.ErrNotFound)
	}
	if letter.IsSigned {
		return fmt.Errorf("letter %s: %w", id, repository.ErrConflict)
	}
	letter.DocumentHash = documentHash
	letter.SignedAt = signedAt
	letter.SignatureID = signatureID
	letter.IsSigned = true
	letter.Status = domain.LetterStatusCompleted
	m.writes++
	return nil
}

type mockSignatureRepository struct {
	mu         sync.Mutex
	signatures []*domain.DigitalSignature
	createErr  error
	listErr    error
}

func (m *mockSignatureRepository) Create(ctx context.Context, signature *domain.DigitalSignature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *signature
	m.signatures = append(m.signatures, &cp)
	return nil
}

func (m *mockSignatureRepository) ListByLetter(ctx context.Context, letterID string) ([]*domain.DigitalSignature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*domain.DigitalSignature
	for _, sig := range m.signatures {
		if sig.LetterID == letterID {
			cp := *sig
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockVerificationRepository struct {
	mu           sync.Mutex
	records      []*domain.VerificationRecord
	appendErr    error
	beforeAppend func()
}

func (m *mockVerificationRepository) Append(ctx context.Context, record *domain.VerificationRecord) error {
	if m.beforeAppend != nil {
		m.beforeAppend()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *record
	cp.ID = fmt.Sprintf("verification-%d", len(m.records)+1)
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockVerificationRepository) ListByLetter(ctx context.Context, letterID string) ([]*domain.VerificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.VerificationRecord
	for _, r := range m.records {
		if r.LetterID == letterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockVerificationRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// stubClock returns a fixed time that tests can advance.
type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock() *stubClock {
	return &stubClock{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stubIDs returns sequential IDs: "id-1", "id-2", ...
type stubIDs struct {
	mu      sync.Mutex
	counter int
}

func (g *stubIDs) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("id-%d", g.counter)
}

func fixedIdentity(userID string) IdentityProvider {
	return IdentityFunc(func(ctx context.Context) (*domain.Identity, error) {
		return &domain.Identity{UserID: userID, Name: "Budi Santoso"}, nil
	})
}

func noIdentity() IdentityProvider {
	return IdentityFunc(func(ctx context.Context) (*domain.Identity, error) {
		return nil, ErrUnauthenticated
	})
}
