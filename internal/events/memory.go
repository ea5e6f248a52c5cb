package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryBus is an in-process Bus for tests and single-node development.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[*memorySubscription]struct{}
	all  map[*memorySubscription]struct{}
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subs: make(map[uuid.UUID]map[*memorySubscription]struct{}),
		all:  make(map[*memorySubscription]struct{}),
	}
}

var _ Bus = (*MemoryBus)(nil)

func (b *MemoryBus) Publish(ctx context.Context, e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, uid := range e.Recipients() {
		for sub := range b.subs[uid] {
			select {
			case sub.ch <- e:
			default:
			}
		}
	}
	for sub := range b.all {
		select {
		case sub.ch <- e:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, userID uuid.UUID) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &memorySubscription{bus: b, userID: userID, ch: make(chan Event, 16)}
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[*memorySubscription]struct{})
	}
	b.subs[userID][sub] = struct{}{}
	return sub, nil
}

func (b *MemoryBus) SubscribeAll(ctx context.Context) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &memorySubscription{bus: b, firehose: true, ch: make(chan Event, 16)}
	b.all[sub] = struct{}{}
	return sub, nil
}

type memorySubscription struct {
	bus      *MemoryBus
	userID   uuid.UUID
	firehose bool
	ch       chan Event
	once     sync.Once
}

func (s *memorySubscription) C() <-chan Event { return s.ch }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		if s.firehose {
			delete(s.bus.all, s)
		} else {
			delete(s.bus.subs[s.userID], s)
		}
		s.bus.mu.Unlock()
		close(s.ch)
	})
	return nil
}
