package config

import (
	"sync"

	"barkback/pkg/models"
)

// StateUpdateResult tells a SettingsService.Update caller whether the
// mutation actually changed anything — only Changed triggers update
// handlers, so a no-op write doesn't cause spurious propagation.
type StateUpdateResult int

const (
	Changed StateUpdateResult = iota
	Unchanged
	Errored
)

// UpdateHandler is notified after a Changed update commits.
type UpdateHandler func()

type handlerEntry struct {
	id int
	cb UpdateHandler
}

// SettingsService guards a models.Settings snapshot behind a single mutex.
// Readers and updaters get the struct only for the duration of their
// closure and must copy any fields they need to locals — nothing may hold
// a reference past the closure returning. A closure passed to Read or
// Update must not itself call back into Read or Update: the underlying
// lock is a plain sync.Mutex, not reentrant.
type SettingsService struct {
	mu       sync.Mutex
	settings models.Settings

	handlersMu sync.Mutex
	handlers   []handlerEntry
	nextID     int
}

// NewSettingsService constructs a service seeded with initial.
func NewSettingsService(initial models.Settings) *SettingsService {
	return &SettingsService{settings: initial}
}

// Read runs fn with the current settings under the lock.
func (s *SettingsService) Read(fn func(*models.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
}

// Update runs fn under the lock and, if it reports Changed, notifies every
// registered handler after releasing the lock.
func (s *SettingsService) Update(fn func(*models.Settings) StateUpdateResult) StateUpdateResult {
	s.mu.Lock()
	result := fn(&s.settings)
	s.mu.Unlock()

	if result == Changed {
		s.notify()
	}
	return result
}

// AddUpdateHandler registers cb to run after every Changed update and
// returns an id usable with RemoveUpdateHandler.
func (s *SettingsService) AddUpdateHandler(cb UpdateHandler) int {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.nextID++
	s.handlers = append(s.handlers, handlerEntry{id: s.nextID, cb: cb})
	return s.nextID
}

// RemoveUpdateHandler unregisters a handler added by AddUpdateHandler.
func (s *SettingsService) RemoveUpdateHandler(id int) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	for i, h := range s.handlers {
		if h.id == id {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return
		}
	}
}

func (s *SettingsService) notify() {
	s.handlersMu.Lock()
	handlers := append([]handlerEntry(nil), s.handlers...)
	s.handlersMu.Unlock()
	for _, h := range handlers {
		h.cb()
	}
}
