package feed

import "sync"

// Log is a bounded, ordered timeline of received events. When full, the
// oldest event is discarded.
type Log struct {
	mu     sync.RWMutex
	cap    int
	events []Event
	total  uint64
}

// NewLog returns a log holding at most capacity events (minimum 1).
func NewLog(capacity int) *Log {
	return &Log{cap: max(1, capacity)}
}

// Append records an event.
func (l *Log) Append(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total++
	if len(l.events) == l.cap {
		copy(l.events, l.events[1:])
		l.events[len(l.events)-1] = e
		return
	}
	l.events = append(l.events, e)
}

// Events returns the retained events, oldest first.
func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Event(nil), l.events...)
}

// Last returns up to n of the most recent events, oldest first.
func (l *Log) Last(n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	start := max(0, len(l.events)-n)
	return append([]Event(nil), l.events[start:]...)
}

// Len is the number of retained events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Total counts every event ever appended, including discarded ones.
func (l *Log) Total() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}
