// Package location models the address bar: the one place view state lives.
package location

import "sync"

// Store is the address port used by a browsing session.
//
// Replace rewrites the current entry, Push appends a new history entry.
// Neither notifies subscribers; subscribers hear only navigation that the
// session did not cause itself.
type Store interface {
	Current() string
	Replace(addr string)
	Push(addr string)
	Subscribe(fn func(addr string)) (unsubscribe func())
}

// Memory is an in-process Store with browser-style back/forward history.
// It is safe for concurrent use; callbacks run outside the lock.
type Memory struct {
	mu      sync.Mutex
	entries []string
	index   int
	subs    map[int]func(string)
	nextSub int
}

var _ Store = (*Memory)(nil)

// NewMemory returns a history holding a single entry, addr.
func NewMemory(addr string) *Memory {
	return &Memory{
		entries: []string{addr},
		subs:    make(map[int]func(string)),
	}
}

// Current returns the address at the history cursor.
func (m *Memory) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Replace overwrites the current entry.
func (m *Memory) Replace(addr string) {
	m.mu.Lock()
	m.entries[m.index] = addr
	m.mu.Unlock()
}

// Push appends addr after the cursor, discarding any forward entries.
// Pushing the current address again is a no-op.
func (m *Memory) Push(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[m.index] == addr {
		return
	}
	m.entries = append(m.entries[:m.index+1], addr)
	m.index++
}

// Back moves the cursor one entry back and notifies subscribers.
// It reports false when already at the oldest entry.
func (m *Memory) Back() bool {
	return m.move(-1)
}

// Forward moves the cursor one entry forward and notifies subscribers.
// It reports false when already at the newest entry.
func (m *Memory) Forward() bool {
	return m.move(1)
}

// Navigate behaves like following a link typed by the user: it pushes addr
// and notifies subscribers.
func (m *Memory) Navigate(addr string) {
	m.Push(addr)
	m.notify(m.Current())
}

// CanBack reports whether Back would move.
func (m *Memory) CanBack() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index > 0
}

// CanForward reports whether Forward would move.
func (m *Memory) CanForward() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index < len(m.entries)-1
}

// Len returns the number of history entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Subscribe registers fn for external navigation events.
func (m *Memory) Subscribe(fn func(addr string)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

func (m *Memory) move(delta int) bool {
	m.mu.Lock()
	next := m.index + delta
	if next < 0 || next >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = next
	addr := m.entries[next]
	m.mu.Unlock()

	m.notify(addr)
	return true
}

func (m *Memory) notify(addr string) {
	m.mu.Lock()
	fns := make([]func(string), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(addr)
	}
}
