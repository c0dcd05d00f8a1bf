package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	// MaxElementSize is the default per-entry limit (10 MiB).
	MaxElementSize = 10 << 20

	// MaxCacheSize is the default aggregate limit (200 MiB).
	MaxCacheSize = 200 << 20
)

// Observer receives cache events. Calls are made after the store lock is
// released. All methods must be safe for concurrent use. CacheSize snapshots
// are delivered in mutation order; a snapshot older than one already
// delivered is dropped.
type Observer interface {
	CacheHit()
	CacheMiss()
	CacheEvicted(n int)
	CacheSize(entries int, bytes int64)
}

// Entry is a single cached response.
type Entry struct {
	Key        string
	Payload    []byte
	Size       int64
	LastAccess time.Time
}

// Stats is a point-in-time view of the store.
type Stats struct {
	Entries   int
	Bytes     int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Rejected  uint64
}

// Options configures a Store. Zero values select the package defaults.
type Options struct {
	MaxElementSize int64
	MaxCacheSize   int64
	Observer       Observer

	// Now overrides the clock used for LastAccess (tests).
	Now func() time.Time
}

// Store is a byte-budgeted LRU map from resource key to response bytes.
type Store struct {
	mu sync.Mutex

	// entries maps keys to elements of order; the front of order is the most
	// recently used entry.
	entries map[string]*list.Element
	order   *list.List
	total   int64

	maxElement int64
	maxTotal   int64
	observer   Observer
	now        func() time.Time

	hits, misses, evictions, rejected uint64

	// seq numbers mutations under mu. sentMu guards sent, the seq of the last
	// size snapshot handed to the observer.
	seq    uint64
	sentMu sync.Mutex
	sent   uint64
}

// New creates an empty store.
func New(opts Options) *Store {
	if opts.MaxElementSize <= 0 {
		opts.MaxElementSize = MaxElementSize
	}
	if opts.MaxCacheSize <= 0 {
		opts.MaxCacheSize = MaxCacheSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Store{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxElement: opts.MaxElementSize,
		maxTotal:   opts.MaxCacheSize,
		observer:   opts.Observer,
		now:        opts.Now,
	}
}

// EntrySize is the accounted size of a payload stored under key.
func EntrySize(key string, payload []byte) int64 {
	return int64(len(payload)) + int64(len(key)) + 1
}

// Find returns the payload stored under key and marks it most recently used.
// The returned slice is shared with the store and must not be modified.
func (s *Store) Find(key string) ([]byte, bool) {
	s.mu.Lock()
	el, ok := s.entries[key]
	var payload []byte
	if ok {
		e := el.Value.(*Entry)
		e.LastAccess = s.now()
		s.order.MoveToFront(el)
		payload = e.Payload
		s.hits++
	} else {
		s.misses++
	}
	s.mu.Unlock()

	if s.observer != nil {
		if ok {
			s.observer.CacheHit()
		} else {
			s.observer.CacheMiss()
		}
	}
	return payload, ok
}

// Admit stores payload under key, evicting least recently used entries as
// needed. It returns false, leaving the store untouched, when key or payload
// is empty or the entry is larger than the per-entry or aggregate limit.
func (s *Store) Admit(key string, payload []byte) bool {
	if key == "" || len(payload) == 0 {
		s.reject()
		return false
	}
	size := EntrySize(key, payload)
	if size > s.maxElement || size > s.maxTotal {
		s.reject()
		return false
	}

	s.mu.Lock()
	evicted := 0
	now := s.now()

	if el, ok := s.entries[key]; ok {
		e := el.Value.(*Entry)
		// Keep the entry being replaced out of the eviction path.
		s.order.MoveToFront(el)
		for s.total-e.Size+size > s.maxTotal && s.order.Len() > 1 {
			s.removeElement(s.order.Back())
			evicted++
		}
		s.total += size - e.Size
		e.Payload = payload
		e.Size = size
		e.LastAccess = now
	} else {
		for s.total+size > s.maxTotal && s.order.Len() > 0 {
			s.removeElement(s.order.Back())
			evicted++
		}
		e := &Entry{Key: key, Payload: payload, Size: size, LastAccess: now}
		s.entries[key] = s.order.PushFront(e)
		s.total += size
	}

	s.evictions += uint64(evicted)
	seq, entries, total := s.mutated()
	s.mu.Unlock()

	s.notify(seq, evicted, entries, total)
	return true
}

// EvictOne removes the least recently used entry. It is a no-op on an empty
// store and reports whether an entry was removed.
func (s *Store) EvictOne() bool {
	s.mu.Lock()
	back := s.order.Back()
	if back == nil {
		s.mu.Unlock()
		return false
	}
	s.removeElement(back)
	s.evictions++
	seq, entries, total := s.mutated()
	s.mu.Unlock()

	s.notify(seq, 1, entries, total)
	return true
}

// Remove deletes key. It reports whether the key was present.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	el, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.removeElement(el)
	seq, entries, total := s.mutated()
	s.mu.Unlock()

	s.notify(seq, 0, entries, total)
	return true
}

// Exists reports whether key is cached without changing its recency.
func (s *Store) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Touch marks key as most recently used. It reports whether key was present.
func (s *Store) Touch(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.entries[key]
	if !ok {
		return false
	}
	el.Value.(*Entry).LastAccess = s.now()
	s.order.MoveToFront(el)
	return true
}

// Size returns the accounted size of all entries in bytes.
func (s *Store) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]*list.Element)
	s.order.Init()
	s.total = 0
	seq, _, _ := s.mutated()
	s.mu.Unlock()

	s.notify(seq, 0, 0, 0)
}

// Stats returns counters and current occupancy.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Entries:   len(s.entries),
		Bytes:     s.total,
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Rejected:  s.rejected,
	}
}

// Entries returns a copy of the entries ordered from most to least recently
// used. Payloads are shared, not copied.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*Entry))
	}
	return out
}

// Limits returns the per-entry and aggregate limits.
func (s *Store) Limits() (maxElement, maxTotal int64) {
	return s.maxElement, s.maxTotal
}

// removeElement must be called with s.mu held.
func (s *Store) removeElement(el *list.Element) {
	e := s.order.Remove(el).(*Entry)
	delete(s.entries, e.Key)
	s.total -= e.Size
}

func (s *Store) reject() {
	s.mu.Lock()
	s.rejected++
	s.mu.Unlock()
}

// mutated must be called with s.mu held. It numbers the mutation and returns
// the occupancy it left behind.
func (s *Store) mutated() (seq uint64, entries int, total int64) {
	s.seq++
	return s.seq, len(s.entries), s.total
}

func (s *Store) notify(seq uint64, evicted, entries int, total int64) {
	if s.observer == nil {
		return
	}
	if evicted > 0 {
		s.observer.CacheEvicted(evicted)
	}

	s.sentMu.Lock()
	defer s.sentMu.Unlock()
	if seq <= s.sent {
		return
	}
	s.sent = seq
	s.observer.CacheSize(entries, total)
}
