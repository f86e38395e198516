package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/obotesoftech/prisonreturns/types"
)

// Memory keeps every table in process memory. It backs DB_DRIVER=memory and
// tests; all repositories built from one Memory share its lock so a rename
// rewrites returns and sessions atomically, as the SQL transaction does.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]types.Account
	returns  []types.ReturnRecord
	sessions map[string]types.Session
	guard    map[string]types.GuardState
	marks    map[string]int
	chat     []types.ChatMessage
	returnID int64
	chatID   int64
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]types.Account),
		sessions: make(map[string]types.Session),
		guard:    make(map[string]types.GuardState),
		marks:    make(map[string]int),
		now:      time.Now,
	}
}

func (m *Memory) Accounts() MemoryAccountRepository     { return MemoryAccountRepository{m} }
func (m *Memory) Returns() MemoryReturnRepository       { return MemoryReturnRepository{m} }
func (m *Memory) Sessions() MemorySessionRepository     { return MemorySessionRepository{m} }
func (m *Memory) Chat() MemoryChatRepository            { return MemoryChatRepository{m} }
func (m *Memory) Guard() MemoryGuardRepository          { return MemoryGuardRepository{m} }
func (m *Memory) Watermarks() MemoryWatermarkRepository { return MemoryWatermarkRepository{m} }

// MemoryAccountRepository is the in-memory AccountRepository.
type MemoryAccountRepository struct{ m *Memory }

func (r MemoryAccountRepository) Get(ctx context.Context, identifier string) (types.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	account, ok := r.m.accounts[identifier]
	if !ok {
		return types.Account{}, ErrNotFound
	}
	return account, nil
}

func (r MemoryAccountRepository) List(ctx context.Context) ([]types.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]types.Account, 0, len(r.m.accounts))
	for _, account := range r.m.accounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

func (r MemoryAccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.accounts[account.Identifier]; ok {
		return types.Account{}, ErrConflict
	}
	now := r.m.now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.m.accounts[account.Identifier] = account
	return account, nil
}

func (r MemoryAccountRepository) Update(ctx context.Context, identifier string, change AccountChange) (types.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	account, ok := r.m.accounts[identifier]
	if !ok {
		return types.Account{}, ErrNotFound
	}

	if change.NewIdentifier != "" && change.NewIdentifier != identifier {
		if _, taken := r.m.accounts[change.NewIdentifier]; taken {
			return types.Account{}, ErrConflict
		}
		delete(r.m.accounts, identifier)
		account.Identifier = change.NewIdentifier
		for i := range r.m.returns {
			if r.m.returns[i].SubmittedBy == identifier {
				r.m.returns[i].SubmittedBy = change.NewIdentifier
			}
		}
		for id, session := range r.m.sessions {
			if session.Identifier == identifier {
				session.Identifier = change.NewIdentifier
				r.m.sessions[id] = session
			}
		}
	}
	if change.PasswordHash != "" {
		account.PasswordHash = change.PasswordHash
	}
	account.UpdatedAt = r.m.now().UTC()
	r.m.accounts[account.Identifier] = account
	return account, nil
}

func (r MemoryAccountRepository) Delete(ctx context.Context, identifier string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	account, ok := r.m.accounts[identifier]
	if !ok {
		return ErrNotFound
	}
	if account.Role == types.RoleAdmin {
		admins := 0
		for _, other := range r.m.accounts {
			if other.Role == types.RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}
	delete(r.m.accounts, identifier)
	for id, session := range r.m.sessions {
		if session.Identifier == identifier {
			delete(r.m.sessions, id)
		}
	}
	return nil
}

// MemoryReturnRepository is the in-memory ReturnRepository.
type MemoryReturnRepository struct{ m *Memory }

func (r MemoryReturnRepository) Get(ctx context.Context, id int64) (types.ReturnRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, record := range r.m.returns {
		if record.ID == id {
			return record, nil
		}
	}
	return types.ReturnRecord{}, ErrNotFound
}

func (r MemoryReturnRepository) List(ctx context.Context) ([]types.ReturnRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append(make([]types.ReturnRecord, 0, len(r.m.returns)), r.m.returns...), nil
}

func (r MemoryReturnRepository) ListBySubmitter(ctx context.Context, identifier string) ([]types.ReturnRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]types.ReturnRecord, 0)
	for _, record := range r.m.returns {
		if record.SubmittedBy == identifier {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r MemoryReturnRepository) Create(ctx context.Context, record types.ReturnRecord) (types.ReturnRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.returnID++
	record.ID = r.m.returnID
	r.m.returns = append(r.m.returns, record)
	return record, nil
}

// MemorySessionRepository is the in-memory SessionRepository.
type MemorySessionRepository struct{ m *Memory }

func (r MemorySessionRepository) Create(ctx context.Context, session types.Session) (types.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.sessions[session.ID]; ok {
		return types.Session{}, ErrConflict
	}
	r.m.sessions[session.ID] = session
	return session, nil
}

func (r MemorySessionRepository) Get(ctx context.Context, id string) (types.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	session, ok := r.m.sessions[id]
	if !ok {
		return types.Session{}, ErrNotFound
	}
	return session, nil
}

func (r MemorySessionRepository) SetChatIdentity(ctx context.Context, id string, identity types.ChatIdentity) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	session, ok := r.m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	session.Chat = &identity
	r.m.sessions[id] = session
	return nil
}

func (r MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.sessions, id)
	return nil
}

func (r MemorySessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var removed int64
	for id, session := range r.m.sessions {
		if session.Expired(now) {
			delete(r.m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions.
func (r MemorySessionRepository) Len() int {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.m.sessions)
}

// MemoryChatRepository is the in-memory ChatRepository.
type MemoryChatRepository struct{ m *Memory }

func (r MemoryChatRepository) Append(ctx context.Context, msg types.ChatMessage) (types.ChatMessage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if msg.Kind == "" {
		msg.Kind = types.MessageKindMessage
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = r.m.now().UTC()
	}
	r.m.chatID++
	msg.ID = r.m.chatID
	r.m.chat = append(r.m.chat, msg)
	return msg, nil
}

func (r MemoryChatRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]types.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultChatPage
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]types.ChatMessage, 0)
	for _, msg := range r.m.chat {
		if msg.ID <= afterID {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, msg)
	}
	return out, nil
}

// MemoryGuardRepository is the in-memory GuardRepository.
type MemoryGuardRepository struct{ m *Memory }

func (r MemoryGuardRepository) Update(ctx context.Context, scope string, fn func(types.GuardState) types.GuardState) (types.GuardState, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	next := fn(r.m.guard[scope])
	if next.Last == nil {
		delete(r.m.guard, scope)
		return next, nil
	}
	r.m.guard[scope] = next
	return next, nil
}

// MemoryWatermarkRepository is the in-memory WatermarkRepository.
type MemoryWatermarkRepository struct{ m *Memory }

func (r MemoryWatermarkRepository) Advance(ctx context.Context, scope string, count int) (int, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	previous, found := r.m.marks[scope]
	r.m.marks[scope] = count
	return previous, found, nil
}
