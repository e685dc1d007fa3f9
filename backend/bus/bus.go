package bus

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

type Handler func(Message)

// Bus is an in-process publish/subscribe channel. Delivery is synchronous
// in the publisher's goroutine, in subscription order, at most once.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]*Subscription
}

func New() *Bus {
	return &Bus{subs: make(map[Topic][]*Subscription)}
}

type Subscription struct {
	ID      uuid.UUID
	topic   Topic
	handler Handler
	bus     *Bus
}

func (b *Bus) Subscribe(topic Topic, h Handler) *Subscription {
	s := &Subscription{ID: uuid.New(), topic: topic, handler: h, bus: b}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], s)
	return s
}

// Unsubscribe removes the subscription. It returns false if the
// subscription was already removed.
func (s *Subscription) Unsubscribe() bool {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[s.topic]
	idx := slices.Index(list, s)
	if idx < 0 {
		return false
	}
	b.subs[s.topic] = slices.Delete(slices.Clone(list), idx, idx+1)
	return true
}

// Publish delivers m to every current subscriber of its topic and
// returns how many handlers were invoked.
func (b *Bus) Publish(m Message) int {
	b.mu.RLock()
	list := b.subs[m.Topic()]
	b.mu.RUnlock()
	for _, s := range list {
		s.handler(m)
	}
	return len(list)
}

// Subscribers returns the number of live subscriptions on topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
