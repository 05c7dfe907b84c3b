package autopilot

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/model"
	"github.com/unclebandit/autobuzz-backend/internal/repository"
)

// StatusStore is the single writer of per-owner autopilot state. The
// repository is the source of truth; nothing is cached here.
type StatusStore struct {
	repo  repository.AutopilotRepositoryInterface
	locks *keyedMutex
}

func NewStatusStore(repo repository.AutopilotRepositoryInterface) *StatusStore {
	return &StatusStore{repo: repo, locks: newKeyedMutex()}
}

func (s *StatusStore) Get(ctx context.Context, ownerID string) (*model.AutopilotStatus, error) {
	status, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return nil, appErrors.NewPersistence("read autopilot status", err)
	}
	return status, nil
}

// Toggle sets the enabled flag. Setting the current value writes nothing.
func (s *StatusStore) Toggle(ctx context.Context, ownerID string, enabled bool) (*model.AutopilotStatus, error) {
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	current, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if current.Enabled == enabled {
		return current, nil
	}

	if err := s.repo.SetEnabled(ctx, ownerID, enabled); err != nil {
		return nil, appErrors.NewPersistence("toggle autopilot", err)
	}
	next := *current
	next.Enabled = enabled
	return &next, nil
}

// RecordRun stores last-run metadata under the same per-owner lock as Toggle.
func (s *StatusStore) RecordRun(ctx context.Context, ownerID string, result *model.RunResult) error {
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	at := result.FinishedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if err := s.repo.RecordRun(ctx, ownerID, at, result.Message, result.Trigger); err != nil {
		return appErrors.NewPersistence("record autopilot run", err)
	}
	return nil
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds or
// waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
