package auth

import (
	"context"
	"linkednotes/cmd/internal/domain/entity"
	"sync"
)

// SessionStore maps bearer tokens to user ids.
type SessionStore interface {
	Save(ctx context.Context, token string, userID int64) error

	// Lookup returns the owner of token. ok is false for unknown tokens.
	Lookup(ctx context.Context, token string) (userID int64, ok bool, err error)

	// Delete forgets token. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error
}

// MemorySessionStore keeps sessions in process memory. Sessions are lost on restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]int64
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]int64)}
}

func (m *MemorySessionStore) Save(_ context.Context, token string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = userID
	return nil
}

func (m *MemorySessionStore) Lookup(_ context.Context, token string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userID, ok := m.sessions[token]
	return userID, ok, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

type tokenRepository interface {
	FindByToken(ctx context.Context, token string) (*entity.User, error)
	SetToken(ctx context.Context, userID int64, token string) error
	ClearToken(ctx context.Context, token string) error
}

// DBSessionStore persists the token on the user row, so a new login
// replaces the previous session of that user.
type DBSessionStore struct {
	users tokenRepository
}

func NewDBSessionStore(users tokenRepository) *DBSessionStore {
	return &DBSessionStore{users: users}
}

func (d *DBSessionStore) Save(ctx context.Context, token string, userID int64) error {
	return d.users.SetToken(ctx, userID, token)
}

func (d *DBSessionStore) Lookup(ctx context.Context, token string) (int64, bool, error) {
	user, err := d.users.FindByToken(ctx, token)
	if err != nil {
		return 0, false, err
	}

	if user == nil {
		return 0, false, nil
	}
	return user.ID, true, nil
}

func (d *DBSessionStore) Delete(ctx context.Context, token string) error {
	return d.users.ClearToken(ctx, token)
}
