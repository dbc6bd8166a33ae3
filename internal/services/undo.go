package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"vantage/internal/domain"
)

const (
	// DefaultUndoDepth bounds the ledger; the oldest entry is evicted
	// first.
	DefaultUndoDepth = 10
	// DefaultUndoTTL is the age past which an entry is treated as
	// absent. Expiry is a read-time predicate, never a timer.
	DefaultUndoTTL = 5 * time.Minute
)

// UndoLedger records reversible operations with a size bound and a
// lazily-enforced TTL. Entries are stored oldest first.
type UndoLedger struct {
	mu      sync.Mutex
	entries []domain.UndoEntry
	depth   int
	ttl     time.Duration
	busy    bool

	now func() time.Time // test seam
}

// NewUndoLedger creates a ledger. Non-positive depth or ttl fall back
// to the defaults.
func NewUndoLedger(depth int, ttl time.Duration) *UndoLedger {
	if depth <= 0 {
		depth = DefaultUndoDepth
	}
	if ttl <= 0 {
		ttl = DefaultUndoTTL
	}
	return &UndoLedger{
		depth: depth,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Push records a reversible operation. Expired entries are purged from
// the front first; then the oldest entry is evicted if the ledger
// would exceed its depth.
func (l *UndoLedger) Push(record domain.UndoRecord, description string) domain.UndoEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.purgeExpiredLocked()

	entry := domain.UndoEntry{
		ID:          uuid.New().String(),
		Record:      record,
		Description: description,
		CreatedAt:   l.now(),
	}
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.depth {
		l.entries = l.entries[len(l.entries)-l.depth:]
	}
	return entry
}

// Peek returns the most recent non-expired entry without removing it.
// If the top entry is expired, every older entry is too, so the whole
// ledger is cleared and false is returned.
func (l *UndoLedger) Peek() (domain.UndoEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peekLocked()
}

// Pop returns and removes the most recent non-expired entry, clearing
// the ledger when the top entry is expired.
func (l *UndoLedger) Pop() (domain.UndoEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.peekLocked()
	if !ok {
		return domain.UndoEntry{}, false
	}
	l.entries = l.entries[:len(l.entries)-1]
	return entry, true
}

// Drop removes the entry with the given id, if still present. Used
// after a successful reversal of a peeked entry.
func (l *UndoLedger) Drop(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// Valid returns the non-expired entries, oldest first, purging the
// rest.
func (l *UndoLedger) Valid() []domain.UndoEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.purgeExpiredLocked()
	out := make([]domain.UndoEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of non-expired entries.
func (l *UndoLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.purgeExpiredLocked()
	return len(l.entries)
}

// BeginExecute marks the ledger busy. It returns false when an undo
// execution is already in flight, guarding the top entry against
// concurrent reversal.
func (l *UndoLedger) BeginExecute() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return false
	}
	l.busy = true
	return true
}

// EndExecute clears the busy flag.
func (l *UndoLedger) EndExecute() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
}

func (l *UndoLedger) peekLocked() (domain.UndoEntry, bool) {
	if len(l.entries) == 0 {
		return domain.UndoEntry{}, false
	}
	top := l.entries[len(l.entries)-1]
	if l.expired(top) {
		// Entries are pushed in time order; an expired top implies an
		// expired remainder.
		l.entries = nil
		return domain.UndoEntry{}, false
	}
	return top, true
}

func (l *UndoLedger) purgeExpiredLocked() {
	cut := 0
	for cut < len(l.entries) && l.expired(l.entries[cut]) {
		cut++
	}
	if cut > 0 {
		l.entries = l.entries[cut:]
	}
}

func (l *UndoLedger) expired(entry domain.UndoEntry) bool {
	return l.now().Sub(entry.CreatedAt) > l.ttl
}
