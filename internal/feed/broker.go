// Package feed fans live events out to in-process subscribers. It backs the
// Server-Sent Events streams of the global chat and the Q&A board.
//
// Delivery is best effort: each subscriber owns a bounded buffer and events
// are dropped for a subscriber whose buffer is full, so a slow reader never
// blocks a writer. Clients recover missed events by polling.
package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/anonote-backend/internal/observability"
)

// Topics.
const (
	TopicChat      = "chat"
	TopicQuestions = "questions"
)

// Event is one published item.
type Event struct {
	ID    string `json:"id"`
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  any    `json:"data"`
}

type subscriber struct {
	topic string
	ch    chan Event
}

// Broker is safe for concurrent use. The zero value is not usable; use NewBroker.
type Broker struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	buffer int
	closed bool
}

// NewBroker returns a broker whose subscribers buffer up to buffer events.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broker{subs: make(map[*subscriber]struct{}), buffer: buffer}
}

// Subscribe registers for events on topic until ctx is done. The returned
// channel is closed when the subscription ends.
func (b *Broker) Subscribe(ctx context.Context, topic string) <-chan Event {
	s := &subscriber{topic: topic, ch: make(chan Event, b.buffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.ch)
		return s.ch
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(s)
	}()
	return s.ch
}

func (b *Broker) remove(s *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}

// Publish delivers an event to every subscriber of topic without blocking.
func (b *Broker) Publish(topic, typ string, data any) {
	ev := Event{ID: uuid.NewString(), Topic: topic, Type: typ, Data: data}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		if s.topic != topic {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			observability.FeedDropped.Inc()
			log.Debug().Str("topic", topic).Msg("feed subscriber full, dropping event")
		}
	}
}

// Subscribers returns the number of live subscriptions on topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for s := range b.subs {
		if s.topic == topic {
			n++
		}
	}
	return n
}

// Close ends every subscription. Later Subscribe calls get a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		close(s.ch)
		delete(b.subs, s)
	}
}
