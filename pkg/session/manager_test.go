package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/lookout/pkg/adapters/memory"
	"github.com/aretw0/lookout/pkg/domain"
	"github.com/aretw0/lookout/pkg/ports"
	"github.com/aretw0/lookout/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (s *SlowStore) Save(ctx context.Context, threadID string, state *domain.State) error {
	if s.inFlight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inFlight.Add(-1)
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Store.Save(ctx, threadID, state)
}

func TestManager_SerializesWrites(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Save(ctx, "race-test", domain.NewState("race-test"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, store.overlap.Load(), "writes to one thread must not overlap")
}

func TestManager_LoadOrCreate(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	state, loaded, err := manager.LoadOrCreate(ctx, "1")
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, "1", state.ThreadID)
	assert.Empty(t, state.Messages)

	state.Append(domain.NewUserMessage("hi"))
	require.NoError(t, manager.Save(ctx, "1", state))

	again, loaded, err := manager.LoadOrCreate(ctx, "1")
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Len(t, again.Messages, 1)
}

type failingStore struct{ ports.StateStore }

func (failingStore) Load(ctx context.Context, threadID string) (*domain.State, error) {
	return nil, errors.New("disk on fire")
}

func TestManager_LoadOrCreate_PropagatesStoreErrors(t *testing.T) {
	manager := session.NewManager(failingStore{})
	_, _, err := manager.LoadOrCreate(context.Background(), "1")
	assert.ErrorContains(t, err, "disk on fire")
}

type countingLocker struct {
	locks   atomic.Int32
	unlocks atomic.Int32
	fail    bool
}

func (c *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if c.fail {
		return nil, errors.New("busy")
	}
	c.locks.Add(1)
	return func(ctx context.Context) error {
		c.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "1", domain.NewState("1")))
	_, err := manager.Load(ctx, "1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), locker.locks.Load())
	assert.Equal(t, int32(2), locker.unlocks.Load())

	locker.fail = true
	err = manager.Save(ctx, "1", domain.NewState("1"))
	assert.ErrorContains(t, err, "distributed lock")
}
