package application

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/example/room-booking/internal/errs"
)

// DefaultLockTimeout bounds how long a request waits for a room's token.
const DefaultLockTimeout = 5 * time.Second

// LocalRoomLocker serializes work per room inside one process. Rooms are
// independent; idle rooms hold no state.
type LocalRoomLocker struct {
	timeout time.Duration

	mu    sync.Mutex
	rooms map[string]*roomSlot
}

type roomSlot struct {
	sem  *semaphore.Weighted
	refs int
}

// NewLocalRoomLocker returns a locker whose waits are bounded by timeout.
// A non-positive timeout waits until the caller's context ends.
func NewLocalRoomLocker(timeout time.Duration) *LocalRoomLocker {
	return &LocalRoomLocker{timeout: timeout, rooms: make(map[string]*roomSlot)}
}

// Lock blocks until roomID's token is free. A wait that runs past the
// timeout or the context deadline fails with ErrBusy.
func (l *LocalRoomLocker) Lock(ctx context.Context, roomID string) (func(), error) {
	slot := l.checkout(roomID)

	waitCtx, cancel := ctx, context.CancelFunc(func() {})
	if l.timeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
	}
	defer cancel()

	if err := slot.sem.Acquire(waitCtx, 1); err != nil {
		l.checkin(roomID, slot)
		if errs.Is(err, context.DeadlineExceeded) {
			return nil, errs.Mark(errs.Wrapf(err, "room %s lock not acquired", roomID), ErrBusy)
		}
		return nil, errs.Wrapf(err, "wait for room %s lock", roomID)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			slot.sem.Release(1)
			l.checkin(roomID, slot)
		})
	}, nil
}

// checkout returns the slot for roomID, creating it on first use.
func (l *LocalRoomLocker) checkout(roomID string) *roomSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.rooms[roomID]
	if !ok {
		slot = &roomSlot{sem: semaphore.NewWeighted(1)}
		l.rooms[roomID] = slot
	}
	slot.refs++
	return slot
}

// checkin drops a reference and forgets the slot once nobody holds or waits on it.
func (l *LocalRoomLocker) checkin(roomID string, slot *roomSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.rooms, roomID)
	}
}

func (l *LocalRoomLocker) activeRooms() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
