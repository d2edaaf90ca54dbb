package cache

import (
	"log/slog"
	"time"
)

// Cleaner is implemented by caches that can drop expired items.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic cleanup for a set of caches.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
}

func NewManager() *Manager {
	return &Manager{stopCleanup: make(chan struct{})}
}

// Register adds a cache to the cleanup rotation.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup begins periodic cleanup in a background goroutine.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				total := 0
				for _, c := range m.caches {
					total += c.CleanExpired()
				}
				if total > 0 {
					slog.Debug("Cache cleanup completed", "entries_removed", total)
				}
			case <-m.stopCleanup:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine.
func (m *Manager) Stop() {
	close(m.stopCleanup)
}
