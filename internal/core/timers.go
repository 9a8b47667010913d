package core

import (
	"context"
	"sync"
	"time"
)

// timerEntry is one scheduled or active timer owned by a key.
type timerEntry struct {
	firesAt time.Time
	timer   *time.Timer
	cancel  context.CancelFunc
}

// active reports whether the entry's window/delay has not yet elapsed.
func (e *timerEntry) active(now time.Time) bool {
	return now.Before(e.firesAt)
}

// timerTable maps call keys to their single active timer entry. Each
// controller instance owns its own table; access is serialized by the mutex
// since keys may be touched from multiple goroutines.
//
// Entries are removed, not merely deactivated, once their timer fires, so a
// key that stops being used frees its memory after one window.
type timerTable struct {
	mu      sync.Mutex
	entries map[string]*timerEntry
}

func newTimerTable() *timerTable {
	return &timerTable{entries: make(map[string]*timerEntry)}
}

// removeIf deletes the key's entry only if it is still the given one. The
// identity check keeps a timer that fired late from evicting the entry a newer
// call has already installed for the same key.
func (tt *timerTable) removeIf(key string, e *timerEntry) bool {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if cur, ok := tt.entries[key]; ok && cur == e {
		delete(tt.entries, key)
		return true
	}
	return false
}

// size returns the number of live entries.
func (tt *timerTable) size() int {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	return len(tt.entries)
}

// pending reports whether the key currently has an active entry.
func (tt *timerTable) pending(key string) bool {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	e, ok := tt.entries[key]
	return ok && e.active(time.Now())
}

// clear stops and cancels every entry and empties the table.
func (tt *timerTable) clear() {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	for key, e := range tt.entries {
		e.timer.Stop()
		if e.cancel != nil {
			e.cancel()
		}
		delete(tt.entries, key)
	}
}
