// Package progress рассылает события поиска подписчикам по идентификатору прогона.
package progress

import (
	"sync"
)

// Event — сообщение о ходе поиска.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Broker доставляет события подписчикам канала runID.
// Медленный подписчик теряет события, публикация не блокируется.
type Broker interface {
	Subscribe(runID string) chan Event
	Unsubscribe(runID string, ch chan Event)
	Publish(runID string, evt Event)
}

// MemoryBroker — брокер внутри процесса.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

var _ Broker = (*MemoryBroker)(nil)

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *MemoryBroker) Subscribe(runID string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[runID] == nil {
		b.subs[runID] = map[chan Event]struct{}{}
	}
	b.subs[runID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe закрывает канал, только если он подписан на runID; повторный вызов ничего не делает.
func (b *MemoryBroker) Unsubscribe(runID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[runID]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, runID)
	}
	close(ch)
}

func (b *MemoryBroker) Publish(runID string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[runID] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
