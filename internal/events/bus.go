package events

import (
	"sync"
	"sync/atomic"

	"github.com/osvaldoandrade/imagegenie/pkg/domain"
)

// Bus fans events out to subscribers. Publish never blocks; a subscriber whose
// buffer is full misses the event.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan domain.Event
	next    int
	buffer  int
	dropped atomic.Int64
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{subs: map[int]chan domain.Event{}, buffer: buffer}
}

// Subscribe returns a receive channel and a func that closes it.
func (b *Bus) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, b.buffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bus) Publish(e domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were skipped because a subscriber lagged.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
