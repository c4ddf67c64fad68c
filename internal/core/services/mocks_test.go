package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockClock is a manual clock. Sleep advances time instead of blocking.
type mockClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *mockClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// mockSession implements driven.Session for testing.
type mockSession struct {
	target domain.Target

	mu sync.Mutex

	// search
	pages       [][]string
	searchErrAt int // start row that fails, -1 for none
	searchErr   error
	startRows   []int
	pageSizes   []int

	// deployment
	library       *domain.Library
	libraryErr    error
	owner         *domain.Principal
	ownerErr      error
	uploadErr     error
	uploads       map[string][]byte
	updateErr     error
	rejectFields  map[string]string
	updatedFields []domain.FieldValue

	// probing
	createErr error
	deleteErr error
	exists    bool
	existsErr error
	deleted   []string
	checked   []string
}

var _ driven.Session = (*mockSession)(nil)

func newMockSession(target string) *mockSession {
	return &mockSession{
		target:      domain.Target(target),
		searchErrAt: -1,
		library:     &domain.Library{ID: "lib-1", Title: "Documents", RootFolder: "/sites/x/Shared Documents"},
		owner:       &domain.Principal{LoginName: "i:0#.f|membership|owner@contoso.com", Title: "Owner"},
		uploads:     make(map[string][]byte),
	}
}

func (m *mockSession) Target() domain.Target { return m.target }

func (m *mockSession) Search(_ context.Context, _ string, pageSize, startRow int) (domain.SearchPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startRows = append(m.startRows, startRow)
	m.pageSizes = append(m.pageSizes, pageSize)
	if startRow == m.searchErrAt {
		return domain.SearchPage{}, m.searchErr
	}
	idx := startRow / pageSize
	if idx >= len(m.pages) {
		return domain.SearchPage{}, nil
	}
	// An empty string stands for a row without a Path cell.
	page := domain.SearchPage{Rows: len(m.pages[idx])}
	for _, p := range m.pages[idx] {
		if p != "" {
			page.Paths = append(page.Paths, p)
		}
	}
	return page, nil
}

func (m *mockSession) DefaultLibrary(context.Context) (*domain.Library, error) {
	return m.library, m.libraryErr
}

func (m *mockSession) SiteOwner(context.Context) (*domain.Principal, error) {
	return m.owner, m.ownerErr
}

func (m *mockSession) UploadFile(
	_ context.Context, library *domain.Library, name string, content []byte,
) (*domain.RemoteFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploads[name] = content
	return &domain.RemoteFile{Name: name, ServerRelativeURL: library.FileURL(name)}, nil
}

func (m *mockSession) UpdateItemMetadata(
	_ context.Context, _ *domain.Library, _ string, fields []domain.FieldValue,
) ([]domain.FieldUpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updatedFields = fields
	results := make([]domain.FieldUpdateResult, 0, len(fields))
	for _, f := range fields {
		msg, rejected := m.rejectFields[f.Name]
		results = append(results, domain.FieldUpdateResult{Name: f.Name, HasException: rejected, ErrorMessage: msg})
	}
	return results, nil
}

func (m *mockSession) CreateProbeFile(context.Context) (*domain.RemoteFile, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &domain.RemoteFile{Name: "Document.docx", ServerRelativeURL: m.library.FileURL("Document.docx")}, nil
}

func (m *mockSession) DeleteFile(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	return m.deleteErr
}

func (m *mockSession) FileExists(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checked = append(m.checked, url)
	return m.exists, m.existsErr
}

// mockFactory implements driven.SessionFactory for testing.
type mockFactory struct {
	mu       sync.Mutex
	sessions map[domain.Target]*mockSession
	openErr  map[domain.Target]error
	opened   []domain.Target
	class    domain.IdentityClass
}

var _ driven.SessionFactory = (*mockFactory)(nil)

func newMockFactory(sessions ...*mockSession) *mockFactory {
	f := &mockFactory{
		sessions: make(map[domain.Target]*mockSession),
		openErr:  make(map[domain.Target]error),
		class:    domain.IdentityUser,
	}
	for _, s := range sessions {
		f.sessions[s.target] = s
	}
	return f
}

func (f *mockFactory) Open(_ context.Context, target domain.Target) (driven.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, target)
	if err := f.openErr[target]; err != nil {
		return nil, err
	}
	s, ok := f.sessions[target]
	if !ok {
		return nil, errors.New("no session configured for " + target.String())
	}
	return s, nil
}

func (f *mockFactory) IdentityClass() domain.IdentityClass { return f.class }

// memoryTemplates implements driven.TemplateStore in memory.
type memoryTemplates map[string][]byte

var _ driven.TemplateStore = memoryTemplates(nil)

func (t memoryTemplates) List() ([]string, error) {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (t memoryTemplates) Read(name string) ([]byte, error) {
	b, ok := t[name]
	if !ok {
		return nil, errors.New("template not found: " + name)
	}
	return b, nil
}

// countingMetrics implements driven.MetricsRecorder by counting calls.
type countingMetrics struct {
	mu       sync.Mutex
	pages    []int
	outcomes map[domain.ProbeOutcome]int
	deployed int
	failed   int
}

var _ driven.MetricsRecorder = (*countingMetrics)(nil)

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: make(map[domain.ProbeOutcome]int)}
}

func (m *countingMetrics) ObserveRequest(string, int, time.Duration) {}

func (m *countingMetrics) SearchPage(rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, rows)
}

func (m *countingMetrics) ProbeOutcome(o domain.ProbeOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[o]++
}

func (m *countingMetrics) DecoyDeployment(deployed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if deployed {
		m.deployed++
	} else {
		m.failed++
	}
}
