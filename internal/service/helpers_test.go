package service

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/timmy/wdym/internal/logger"
	"github.com/timmy/wdym/internal/repository"
	"github.com/timmy/wdym/internal/repository/repotest"
	"gorm.io/gorm"
)

// memoryStorage is an in-process ObjectStorage.
type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStorage) GetURL(key string) string {
	return "https://cdn.test/" + key
}

func (m *memoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memoryStorage) EnsureBucket(ctx context.Context) error {
	return nil
}

type testEnv struct {
	db      *gorm.DB
	memes   *repository.MemeRepository
	games   *repository.GameRepository
	users   *repository.UserRepository
	sampler *RoundSampler
	ledger  *SessionLedger
	game    *GameService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := repotest.NewDB(t)
	repotest.SeedCatalog(t, db)

	env := &testEnv{
		db:    db,
		memes: repository.NewMemeRepository(db),
		games: repository.NewGameRepository(db),
		users: repository.NewUserRepository(db),
	}
	env.sampler = NewRoundSampler(env.memes, nil, rand.New(rand.NewPCG(1, 2)))
	env.ledger = NewSessionLedger(env.games, env.memes)
	env.game = NewGameService(env.sampler, env.ledger, logger.NewDefault())
	return env
}
