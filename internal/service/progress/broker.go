package progress

import (
	"sync"

	"PriceOpt/internal/domain/models"
)

// Broker fans progress events out per session. Slow subscribers miss events
// rather than block the enrichment.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[chan models.ProgressEvent]struct{}
	buffer int
}

func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 32
	}
	return &Broker{subs: make(map[string]map[chan models.ProgressEvent]struct{}), buffer: buffer}
}

func (b *Broker) Publish(ev models.ProgressEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns the event channel and a cancel func that closes it.
func (b *Broker) Subscribe(sessionID string) (<-chan models.ProgressEvent, func()) {
	ch := make(chan models.ProgressEvent, b.buffer)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan models.ProgressEvent]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[sessionID], ch)
			if len(b.subs[sessionID]) == 0 {
				delete(b.subs, sessionID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broker) Subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
