package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// subjectPrefix namespaces every subject this process publishes.
const subjectPrefix = "caretap.appointments.user."

// subjectFirehose carries each event exactly once, for workers that
// need the full stream rather than one user's slice of it.
const subjectFirehose = "caretap.appointments.events"

// NatsBus publishes each event once per recipient on
// caretap.appointments.user.<id>, so a subscriber only ever sees its
// own appointments.
type NatsBus struct {
	nc *nats.Conn
}

func NewNatsBus(nc *nats.Conn) *NatsBus {
	return &NatsBus{nc: nc}
}

var _ Bus = (*NatsBus)(nil)

func (b *NatsBus) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	for _, uid := range e.Recipients() {
		if err := b.nc.Publish(subjectPrefix+uid.String(), payload); err != nil {
			slog.Warn("event publish failed", "subject", subjectPrefix+uid.String(), "err", err)
		}
	}
	if err := b.nc.Publish(subjectFirehose, payload); err != nil {
		slog.Warn("event publish failed", "subject", subjectFirehose, "err", err)
	}
	return nil
}

func (b *NatsBus) Subscribe(ctx context.Context, userID uuid.UUID) (Subscription, error) {
	return b.subscribe(subjectPrefix+userID.String(), userID)
}

func (b *NatsBus) SubscribeAll(ctx context.Context) (Subscription, error) {
	return b.subscribe(subjectFirehose, uuid.Nil)
}

func (b *NatsBus) subscribe(subject string, userID uuid.UUID) (Subscription, error) {
	ns := &natsSubscription{ch: make(chan Event, 16)}
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		var e Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			slog.Warn("event decode failed", "subject", msg.Subject, "err", err)
			return
		}
		ns.deliver(e, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	ns.sub = sub
	return ns, nil
}

type natsSubscription struct {
	sub    *nats.Subscription
	mu     sync.Mutex
	closed bool
	ch     chan Event
}

func (s *natsSubscription) deliver(e Event, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
	default:
		// Slow consumer: drop rather than stall the delivery goroutine.
		slog.Debug("event dropped for slow subscriber", "user_id", userID)
	}
}

func (s *natsSubscription) C() <-chan Event { return s.ch }

func (s *natsSubscription) Close() error {
	err := s.sub.Unsubscribe()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return err
}
