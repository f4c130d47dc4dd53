package docker

import (
	"sync"
	"time"

	"github.com/shipyard/dashboard/internal/core/domain"
)

const defaultEventLogSize = 100

// eventLog keeps the most recent events in memory, dropping the oldest.
type eventLog struct {
	mu     sync.Mutex
	size   int
	events []domain.Event
	now    func() time.Time
}

func newEventLog(size int) *eventLog {
	return &eventLog{size: size, now: time.Now}
}

func (l *eventLog) record(typ, message, containerID, engineID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, domain.Event{
		Type:        typ,
		Time:        l.now(),
		Message:     message,
		Tags:        []string{"docker", typ},
		ContainerID: containerID,
		EngineID:    engineID,
	})
	if len(l.events) > l.size {
		l.events = l.events[len(l.events)-l.size:]
	}
}

// list returns the events newest first.
func (l *eventLog) list() []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Event, 0, len(l.events))
	for i := len(l.events) - 1; i >= 0; i-- {
		out = append(out, l.events[i])
	}
	return out
}
