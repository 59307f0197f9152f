package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/BabyBrowser/internal/web/address"
)

// Entry is a stored response with freshness metadata. Entries are never
// mutated after storage, only replaced.
type Entry struct {
	Status   int
	Headers  map[string]string
	Body     []byte
	StoredAt time.Time
	MaxAge   time.Duration
}

// Store is an in-memory response cache keyed by final URL. Lifetime is the
// process lifetime; there is no cross-process persistence.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewStore creates an empty response cache.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// WithClock substitutes the time source. Used by tests to assert freshness
// deterministically.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Lookup returns a hit only while now - storedAt < maxAge. Expired entries
// are treated as misses and evicted lazily by the next Put for the key.
func (s *Store) Lookup(addr address.Address) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[addr.String()]
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.StoredAt) >= entry.MaxAge {
		return nil, false
	}
	return entry, true
}

// Put stores a response for the address, replacing any previous entry.
// A shallow copy stamped with the current time is stored, so the caller's
// entry and any entry already stored under another key stay untouched.
func (s *Store) Put(addr address.Address, entry *Entry) {
	stored := *entry
	stored.StoredAt = s.now()

	s.mu.Lock()
	s.entries[addr.String()] = &stored
	s.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Freshness extracts the freshness lifetime from a Cache-Control header
// value. It returns ok false when the response may not be stored: no
// max-age directive, a no-store directive, or an unparseable lifetime.
func Freshness(cacheControl string) (maxAge time.Duration, ok bool) {
	var found bool
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(strings.ToLower(directive))
		if directive == "no-store" {
			return 0, false
		}
		if value, has := strings.CutPrefix(directive, "max-age="); has {
			seconds, err := strconv.Atoi(value)
			if err != nil || seconds < 0 {
				return 0, false
			}
			maxAge = time.Duration(seconds) * time.Second
			found = true
		}
	}
	return maxAge, found
}
