package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/obotesoftech/prisonreturns/config"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/mq"
	"github.com/obotesoftech/prisonreturns/internal/storage"
	"github.com/obotesoftech/prisonreturns/internal/store"
	"github.com/obotesoftech/prisonreturns/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// recordingBus captures published events.
type recordingBus struct {
	mu     sync.Mutex
	events []mq.Message
	byChan map[string]int
}

func (b *recordingBus) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.byChan == nil {
		b.byChan = make(map[string]int)
	}
	b.events = append(b.events, mq.Message{ID: channel, Data: data, Attributes: attrs})
	b.byChan[channel]++
	return channel, nil
}

func (b *recordingBus) count(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.byChan[channel]
}

type testEnv struct {
	db            *store.Memory
	objects       *storage.Memory
	bus           *recordingBus
	accounts      *AccountService
	sessions      *SessionService
	returns       *ReturnService
	chat          *ChatService
	notifications *NotificationService
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestEnv(t *testing.T, auth config.AuthConfig) *testEnv {
	t.Helper()
	db := store.NewMemory()
	log := logging.Discard()
	objects := storage.NewMemory("returns")
	bus := &recordingBus{}

	accounts := NewAccountService(db.Accounts(), auth, log)
	accounts.cost = bcrypt.MinCost

	sessions, err := NewSessionService(accounts, db.Sessions(), testSecret, time.Hour, log)
	require.NoError(t, err)

	returns := NewReturnService(db.Returns(), db.Guard(), accounts, objects, bus, log)

	return &testEnv{
		db:            db,
		objects:       objects,
		bus:           bus,
		accounts:      accounts,
		sessions:      sessions,
		returns:       returns,
		chat:          NewChatService(db.Chat(), sessions, bus, log),
		notifications: NewNotificationService(returns, db.Watermarks()),
	}
}

func (e *testEnv) register(t *testing.T, identifier string, role types.Role, station string) types.Account {
	t.Helper()
	account, err := e.accounts.Register(context.Background(), RegisterInput{
		Identifier: identifier,
		Password:   "secret123",
		Role:       role,
		Station:    station,
	})
	require.NoError(t, err)
	return account
}

func (e *testEnv) storedReturns(t *testing.T) []types.ReturnRecord {
	t.Helper()
	records, err := e.db.Returns().List(context.Background())
	require.NoError(t, err)
	return records
}

func sessionFor(a types.Account) types.Session {
	return types.Session{ID: "sid-" + a.Identifier, Identifier: a.Identifier, Role: a.Role}
}
