package feed

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ayush/nebula-feed/internal/apperr"
	"github.com/ayush/nebula-feed/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// memStore backs both AccountStore and PostStore.
type memStore struct {
	mu       sync.Mutex
	accounts map[int64]models.Account
	posts    []models.PostView
	nextAcc  int64
	nextPost int64
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[int64]models.Account),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) addAccount(username, email string, admin bool) models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextAcc++
	a := models.Account{ID: m.nextAcc, Username: username, Email: email, IsAdmin: admin, RegisteredAt: m.clock}
	m.accounts[a.ID] = a
	return a
}

func (m *memStore) FindByID(_ context.Context, id int64) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return models.Account{}, apperr.NotFound("mem.FindByID", "account")
	}
	return a, nil
}

func (m *memStore) UpdateProfile(_ context.Context, id int64, email, bio string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return apperr.NotFound("mem.UpdateProfile", "account")
	}
	for _, other := range m.accounts {
		if other.ID != id && other.Email == email {
			return apperr.ConflictError{Op: "mem.UpdateProfile", Field: "email"}
		}
	}
	a.Email, a.Bio = email, bio
	m.accounts[id] = a
	return nil
}

func (m *memStore) SetAvatar(_ context.Context, id int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return apperr.NotFound("mem.SetAvatar", "account")
	}
	a.AvatarKey = key
	m.accounts[id] = a
	return nil
}

func (m *memStore) ListAccounts(_ context.Context) ([]models.AccountSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AccountSummary, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, models.AccountSummary{ID: a.ID, Username: a.Username, Email: a.Email, IsAdmin: a.IsAdmin, RegisteredAt: a.RegisteredAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreatePost(_ context.Context, authorID int64, content string) (models.PostView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[authorID]
	if !ok {
		return models.PostView{}, apperr.OpError{Op: "mem.CreatePost", Kind: apperr.ErrInvalidReference}
	}
	m.nextPost++
	m.clock = m.clock.Add(time.Second)
	p := models.PostView{ID: m.nextPost, AuthorID: authorID, Content: content, CreatedAt: m.clock, Username: a.Username}
	m.posts = append(m.posts, p)
	return p, nil
}

func (m *memStore) ListAll(_ context.Context) ([]models.PostView, error) {
	return m.filter(func(models.PostView) bool { return true }), nil
}

func (m *memStore) ListByAuthor(_ context.Context, authorID int64) ([]models.PostView, error) {
	return m.filter(func(p models.PostView) bool { return p.AuthorID == authorID }), nil
}

func (m *memStore) filter(keep func(models.PostView) bool) []models.PostView {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PostView, 0, len(m.posts))
	for i := len(m.posts) - 1; i >= 0; i-- {
		if keep(m.posts[i]) {
			out = append(out, m.posts[i])
		}
	}
	return out
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (o *memObjects) Put(_ context.Context, key string, data []byte, contentType string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = append([]byte(nil), data...)
	o.types[key] = contentType
	return nil
}

func (o *memObjects) Get(_ context.Context, key string) ([]byte, string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.objects[key]
	if !ok {
		return nil, "", apperr.NotFound("mem.Get", "avatar")
	}
	return data, o.types[key], nil
}

type memAudit struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (a *memAudit) Record(_ context.Context, ev models.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return nil
}

func (a *memAudit) Recent(_ context.Context, limit int64) ([]models.AuditEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.AuditEvent, 0, limit)
	for i := len(a.events) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		out = append(out, a.events[i])
	}
	return out, nil
}

type capturePublisher struct {
	mu    sync.Mutex
	posts []models.PostView
}

func (c *capturePublisher) Publish(p models.PostView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = append(c.posts, p)
}
