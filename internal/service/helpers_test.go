package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/imamteguh/backend-fullstack-taskman/internal/auth"
	"github.com/imamteguh/backend-fullstack-taskman/internal/domain"
	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
	"github.com/imamteguh/backend-fullstack-taskman/internal/event"
)

// The identity and invitation flows are state machines over the stores:
// issue then validate then consume must observe each other's writes. The
// tests here run them against small in-memory stores instead of per-call
// mocks so multi-step scenarios stay readable.

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestCodec() *auth.TokenCodec {
	return auth.NewTokenCodec("test-secret-key-for-testing")
}

func newTestProducer() *event.Producer {
	// No broker in tests; a nil kafka producer publishes nothing.
	return event.NewProducer(nil, newTestLogger())
}

// --- In-memory account store ---

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (f *fakeAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.Email == a.Email {
			return apperrors.EmailTaken(a.Email)
		}
	}
	cpy := *a
	f.accounts[a.ID] = &cpy
	return nil
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cpy := *a
	return &cpy, nil
}

func (f *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			cpy := *a
			return &cpy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeAccountRepo) Update(ctx context.Context, a *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[a.ID]; !ok {
		return apperrors.NotFound("account", a.ID)
	}
	cpy := *a
	f.accounts[a.ID] = &cpy
	return nil
}

func (f *fakeAccountRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[id]; !ok {
		return apperrors.NotFound("account", id)
	}
	delete(f.accounts, id)
	return nil
}

// --- In-memory token store ---

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.AuthToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*domain.AuthToken)}
}

func (f *fakeTokenRepo) Create(ctx context.Context, t *domain.AuthToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.tokens {
		if existing.AccountID == t.AccountID && existing.Purpose == t.Purpose {
			return apperrors.RequestAlreadyPending()
		}
	}
	cpy := *t
	f.tokens[t.ID] = &cpy
	return nil
}

func (f *fakeTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*domain.AuthToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == tokenHash {
			cpy := *t
			return &cpy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeTokenRepo) GetByAccountAndPurpose(ctx context.Context, accountID string, purpose domain.TokenPurpose) (*domain.AuthToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.AccountID == accountID && t.Purpose == purpose {
			cpy := *t
			return &cpy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeTokenRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, id)
	return nil
}

// count returns the number of stored tokens for the account and purpose.
func (f *fakeTokenRepo) count(accountID string, purpose domain.TokenPurpose) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tokens {
		if t.AccountID == accountID && t.Purpose == purpose {
			n++
		}
	}
	return n
}

// expire rewrites the expiry of every token for the account and purpose
// to the past.
func (f *fakeTokenRepo) expire(accountID string, purpose domain.TokenPurpose) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.AccountID == accountID && t.Purpose == purpose {
			t.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		}
	}
}

// --- In-memory invite store ---

type fakeInviteRepo struct {
	mu      sync.Mutex
	invites map[string]*domain.WorkspaceInvite
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[string]*domain.WorkspaceInvite)}
}

func (f *fakeInviteRepo) Create(ctx context.Context, inv *domain.WorkspaceInvite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// token_hash is unique in the store, like the real table.
	for _, existing := range f.invites {
		if existing.TokenHash == inv.TokenHash {
			return errors.New("duplicate invite token hash")
		}
	}
	cpy := *inv
	f.invites[inv.ID] = &cpy
	return nil
}

func (f *fakeInviteRepo) GetByHash(ctx context.Context, tokenHash string) (*domain.WorkspaceInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invites {
		if inv.TokenHash == tokenHash {
			cpy := *inv
			return &cpy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeInviteRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.WorkspaceInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.WorkspaceInvite{}
	for _, inv := range f.invites {
		if inv.WorkspaceID == workspaceID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInviteRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.invites, id)
	return nil
}

// --- In-memory workspace store ---

type memberKey struct {
	workspaceID string
	accountID   string
}

type fakeWorkspaceRepo struct {
	mu         sync.Mutex
	workspaces map[string]*domain.Workspace
	members    map[memberKey]*domain.Member
}

func newFakeWorkspaceRepo() *fakeWorkspaceRepo {
	return &fakeWorkspaceRepo{
		workspaces: make(map[string]*domain.Workspace),
		members:    make(map[memberKey]*domain.Member),
	}
}

func (f *fakeWorkspaceRepo) Create(ctx context.Context, w *domain.Workspace) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cpy := *w
	f.workspaces[w.ID] = &cpy
	f.members[memberKey{w.ID, w.OwnerID}] = &domain.Member{
		WorkspaceID: w.ID,
		AccountID:   w.OwnerID,
		Role:        domain.RoleOwner,
		JoinedAt:    w.CreatedAt,
	}
	return nil
}

func (f *fakeWorkspaceRepo) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workspaces[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cpy := *w
	return &cpy, nil
}

func (f *fakeWorkspaceRepo) ListByMember(ctx context.Context, accountID string) ([]domain.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Workspace{}
	for key, m := range f.members {
		if m.AccountID == accountID {
			if w, ok := f.workspaces[key.workspaceID]; ok {
				out = append(out, *w)
			}
		}
	}
	return out, nil
}

func (f *fakeWorkspaceRepo) Update(ctx context.Context, w *domain.Workspace) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.workspaces[w.ID]; !ok {
		return apperrors.NotFound("workspace", w.ID)
	}
	cpy := *w
	f.workspaces[w.ID] = &cpy
	return nil
}

func (f *fakeWorkspaceRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.workspaces[id]; !ok {
		return apperrors.NotFound("workspace", id)
	}
	delete(f.workspaces, id)
	return nil
}

func (f *fakeWorkspaceRepo) AddMember(ctx context.Context, m *domain.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey{m.WorkspaceID, m.AccountID}
	if _, ok := f.members[key]; ok {
		return apperrors.AlreadyMember()
	}
	cpy := *m
	f.members[key] = &cpy
	return nil
}

func (f *fakeWorkspaceRepo) GetMember(ctx context.Context, workspaceID, accountID string) (*domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberKey{workspaceID, accountID}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cpy := *m
	return &cpy, nil
}

func (f *fakeWorkspaceRepo) ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Member{}
	for key, m := range f.members {
		if key.workspaceID == workspaceID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeWorkspaceRepo) RemoveMember(ctx context.Context, workspaceID, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey{workspaceID, accountID}
	if _, ok := f.members[key]; !ok {
		return apperrors.NotFound("membership", accountID)
	}
	delete(f.members, key)
	return nil
}

// --- In-memory project and task stores ---

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*domain.Project)}
}

func (f *fakeProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cpy := *p
	f.projects[p.ID] = &cpy
	return nil
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cpy := *p
	return &cpy, nil
}

func (f *fakeProjectRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Project{}
	for _, p := range f.projects {
		if p.WorkspaceID == workspaceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[p.ID]; !ok {
		return apperrors.NotFound("project", p.ID)
	}
	cpy := *p
	f.projects[p.ID] = &cpy
	return nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[id]; !ok {
		return apperrors.NotFound("project", id)
	}
	delete(f.projects, id)
	return nil
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (f *fakeTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cpy := *t
	f.tasks[t.ID] = &cpy
	return nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cpy := *t
	return &cpy, nil
}

func (f *fakeTaskRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Task{}
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) ListByAssignee(ctx context.Context, workspaceID, accountID string) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Task{}
	for _, t := range f.tasks {
		if t.AssigneeID == accountID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[t.ID]; !ok {
		return apperrors.NotFound("task", t.ID)
	}
	cpy := *t
	f.tasks[t.ID] = &cpy
	return nil
}

func (f *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return apperrors.NotFound("task", id)
	}
	delete(f.tasks, id)
	return nil
}

// --- Mail and shield doubles ---

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return apperrors.NotificationFailed()
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// lastToken extracts the token query parameter from the most recently
// sent mail body.
func (m *recordingMailer) lastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	body := m.sent[len(m.sent)-1].Body
	idx := strings.Index(body, "token=")
	if idx < 0 {
		return ""
	}
	token := body[idx+len("token="):]
	if end := strings.IndexAny(token, "\n \t"); end >= 0 {
		token = token[:end]
	}
	return token
}

type denyingShield struct{}

func (denyingShield) Allow(ctx context.Context, key string) error {
	return apperrors.RequestDenied()
}

func (denyingShield) Reset(ctx context.Context, key string) error { return nil }

// recordingShield allows everything and remembers which keys were reset.
type recordingShield struct {
	mu     sync.Mutex
	resets []string
}

func (s *recordingShield) Allow(ctx context.Context, key string) error { return nil }

func (s *recordingShield) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets = append(s.resets, key)
	return nil
}

func (s *recordingShield) resetKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.resets...)
}
