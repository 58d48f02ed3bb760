package auth

import (
	"context"
	"sync"
	"time"

	"github.com/ayush/nebula-feed/internal/apperr"
	"github.com/ayush/nebula-feed/internal/models"
)

type memAccounts struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]models.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: make(map[int64]models.Account)}
}

func (m *memAccounts) CreateAccount(_ context.Context, in models.NewAccount) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.byID {
		if a.Username == in.Username {
			return models.Account{}, apperr.ConflictError{Op: "mem.CreateAccount", Field: "username"}
		}
		if a.Email == in.Email {
			return models.Account{}, apperr.ConflictError{Op: "mem.CreateAccount", Field: "email"}
		}
	}

	m.nextID++
	a := models.Account{
		ID:           m.nextID,
		Username:     in.Username,
		SecretHash:   in.SecretHash,
		Email:        in.Email,
		Bio:          in.Bio,
		IsAdmin:      in.IsAdmin,
		RegisteredAt: time.Now().UTC(),
	}
	m.byID[a.ID] = a
	return a, nil
}

func (m *memAccounts) FindByUsername(_ context.Context, username string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Username == username {
			return a, nil
		}
	}
	return models.Account{}, apperr.NotFound("mem.FindByUsername", "account")
}

func (m *memAccounts) FindByID(_ context.Context, id int64) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return models.Account{}, apperr.NotFound("mem.FindByID", "account")
	}
	return a, nil
}

func (m *memAccounts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memRecorder struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (r *memRecorder) Record(_ context.Context, ev models.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Action)
	}
	return out
}
