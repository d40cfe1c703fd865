package locks

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrLockTimeout = errors.New("timeout acquiring lock")
	ErrLockNotHeld = errors.New("lock not held by this instance")
)

// Locker сериализует изменения одного турнира.
type Locker interface {
	// Acquire блокирует, пока ключ не освободится или ctx не завершится.
	Acquire(ctx context.Context, key string) (Lock, error)
}

type Lock interface {
	Release(ctx context.Context) error
}

// TournamentKey is the lock key of a tournament.
func TournamentKey(tournamentID int) string {
	return fmt.Sprintf("tournament:%d", tournamentID)
}

// WithLock runs fn while holding key.
func WithLock(ctx context.Context, locker Locker, key string, fn func(ctx context.Context) error) (err error) {
	lock, err := locker.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if rErr := lock.Release(context.WithoutCancel(ctx)); rErr != nil && err == nil {
			err = rErr
		}
	}()
	return fn(ctx)
}

// LocalLocker - мьютекс на ключ внутри одного процесса.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*localSlot
}

type localSlot struct {
	ch      chan struct{}
	waiters int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*localSlot)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (Lock, error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.waiters++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		return &localLock{locker: l, key: key, slot: slot}, nil
	case <-ctx.Done():
		l.leave(key, slot)
		return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
	}
}

func (l *LocalLocker) leave(key string, slot *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.waiters--
	if slot.waiters == 0 {
		delete(l.slots, key)
	}
}

type localLock struct {
	locker *LocalLocker
	key    string
	slot   *localSlot
	once   sync.Once
}

func (l *localLock) Release(_ context.Context) error {
	released := false
	l.once.Do(func() {
		<-l.slot.ch
		l.locker.leave(l.key, l.slot)
		released = true
	})
	if !released {
		return ErrLockNotHeld
	}
	return nil
}
