package vault

// bounded_memory_backend.go adapts an S3-FIFO eviction cache to the vault
// Backend interface: a Protect-heavy session can otherwise grow the
// in-memory backend without bound for the lifetime of the process. This
// backend keeps a fixed number of entries resident, evicting the coldest
// ones, while never losing the session index needed for
// DeleteSession/RevokeSession.
//
// # Algorithm
//
// S3-FIFO ("Simple, Scalable, FIFO-based cache eviction", Yang et al.,
// 2023) uses two FIFO queues and a bounded ghost set:
//
//   - S (small, ~10% of capacity): probationary queue. All new tokens
//     are inserted here.
//   - M (main, ~90% of capacity): protected queue. Tokens promoted from
//     S after at least one access (freq > 0) land here.
//   - G (ghost): a circular-buffer set of tokens recently evicted from
//     S, bounded to 2x sTarget. A token found in G on insert bypasses S
//     and goes directly to M.
//
// Per-entry state: saturating frequency counter (uint8, max 3).
// Incremented on every Get hit; reset to 0 on M promotion.
//
// Evicting a token from either queue permanently removes the stored
// value: a session that overflows capacity loses its oldest, coldest
// vaulted values first rather than growing unbounded.
import (
	"container/list"
	"sync"
)

type boundedEntry struct {
	value Entry
	freq  uint8
	elem  *list.Element
	inM   bool
}

// BoundedMemoryBackend is an in-memory Backend bounded to capacity
// resident entries via S3-FIFO eviction. Useful for long-running
// processes that want the zero-dependency memory backend without
// unbounded growth.
type BoundedMemoryBackend struct {
	mu sync.Mutex

	capacity int
	sTarget  int
	ghostCap int

	entries map[string]*boundedEntry // keyed by token
	sQueue  *list.List
	mQueue  *list.List

	ghostBuf   []string
	ghostSet   map[string]struct{}
	ghostHead  int
	ghostCount int

	// sessionIndex maps sessionID -> set of resident tokens, so
	// DeleteSession/RevokeSession don't need a full scan.
	sessionIndex map[string]map[string]struct{}
}

// NewBoundedMemoryBackend returns a Backend holding at most capacity
// entries in memory at once. Values below 2 are clamped to 2.
func NewBoundedMemoryBackend(capacity int) *BoundedMemoryBackend {
	if capacity < 2 {
		capacity = 2
	}
	sTarget := capacity / 10
	if sTarget < 1 {
		sTarget = 1
	}
	ghostCap := 2 * sTarget
	if ghostCap < 4 {
		ghostCap = 4
	}
	return &BoundedMemoryBackend{
		capacity:     capacity,
		sTarget:      sTarget,
		ghostCap:     ghostCap,
		entries:      make(map[string]*boundedEntry, capacity),
		sQueue:       list.New(),
		mQueue:       list.New(),
		ghostBuf:     make([]string, ghostCap),
		ghostSet:     make(map[string]struct{}, ghostCap),
		sessionIndex: make(map[string]map[string]struct{}),
	}
}

// Put stores e, evicting the coldest resident entry if over capacity.
func (c *BoundedMemoryBackend) Put(e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertLocked(e)
	return nil
}

// Get returns the entry for token, bumping its frequency counter on hit.
func (c *BoundedMemoryBackend) Get(token string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[token]
	if !ok {
		return Entry{}, false, nil
	}
	if e.freq < 3 {
		e.freq++
	}
	return e.value, true, nil
}

// DeleteSession removes every resident entry belonging to sessionID.
func (c *BoundedMemoryBackend) DeleteSession(sessionID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tokens := c.sessionIndex[sessionID]
	n := 0
	for token := range tokens {
		if c.removeFromMemoryLocked(token) {
			n++
		}
	}
	delete(c.sessionIndex, sessionID)
	return n, nil
}

// RevokeSession marks every resident entry belonging to sessionID as
// revoked without evicting it.
func (c *BoundedMemoryBackend) RevokeSession(sessionID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for token := range c.sessionIndex[sessionID] {
		if e, ok := c.entries[token]; ok {
			e.value.Revoked = true
			n++
		}
	}
	return n, nil
}

// Close discards all resident state; there is nothing external to close.
func (c *BoundedMemoryBackend) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*boundedEntry)
	c.sessionIndex = make(map[string]map[string]struct{})
	c.sQueue.Init()
	c.mQueue.Init()
	return nil
}

func (c *BoundedMemoryBackend) insertLocked(e Entry) {
	if existing, ok := c.entries[e.Token]; ok {
		existing.value = e
		return
	}

	inM := c.ghostContains(e.Token)
	var elem *list.Element
	if inM {
		elem = c.mQueue.PushBack(e.Token)
	} else {
		elem = c.sQueue.PushBack(e.Token)
	}
	c.entries[e.Token] = &boundedEntry{value: e, freq: 0, elem: elem, inM: inM}
	c.indexSession(e.SessionID, e.Token)

	for c.sQueue.Len()+c.mQueue.Len() > c.capacity {
		c.evictOne()
	}
}

func (c *BoundedMemoryBackend) indexSession(sessionID, token string) {
	set, ok := c.sessionIndex[sessionID]
	if !ok {
		set = make(map[string]struct{})
		c.sessionIndex[sessionID] = set
	}
	set[token] = struct{}{}
}

func (c *BoundedMemoryBackend) evictOne() {
	if c.sQueue.Len() > 0 {
		c.evictFromS()
		return
	}
	c.evictFromM()
}

func (c *BoundedMemoryBackend) evictFromS() {
	front := c.sQueue.Front()
	if front == nil {
		return
	}
	token, _ := front.Value.(string)
	c.sQueue.Remove(front)

	e, ok := c.entries[token]
	if !ok {
		return
	}

	if e.freq > 0 {
		e.freq = 0
		e.inM = true
		e.elem = c.mQueue.PushBack(token)
		mTarget := c.capacity - c.sTarget
		if c.mQueue.Len() > mTarget {
			c.evictFromM()
		}
	} else {
		delete(c.entries, token)
		c.removeFromSessionIndex(e.value.SessionID, token)
		c.ghostAdd(token)
	}
}

func (c *BoundedMemoryBackend) evictFromM() {
	front := c.mQueue.Front()
	if front == nil {
		return
	}
	token, _ := front.Value.(string)
	c.mQueue.Remove(front)
	if e, ok := c.entries[token]; ok {
		c.removeFromSessionIndex(e.value.SessionID, token)
	}
	delete(c.entries, token)
}

// removeFromMemoryLocked removes token from whichever queue it lives in.
// Must be called with c.mu held. Reports whether it was resident.
func (c *BoundedMemoryBackend) removeFromMemoryLocked(token string) bool {
	e, ok := c.entries[token]
	if !ok {
		return false
	}
	if e.inM {
		c.mQueue.Remove(e.elem)
	} else {
		c.sQueue.Remove(e.elem)
	}
	delete(c.entries, token)
	return true
}

func (c *BoundedMemoryBackend) removeFromSessionIndex(sessionID, token string) {
	if set, ok := c.sessionIndex[sessionID]; ok {
		delete(set, token)
		if len(set) == 0 {
			delete(c.sessionIndex, sessionID)
		}
	}
}

func (c *BoundedMemoryBackend) ghostContains(token string) bool {
	_, ok := c.ghostSet[token]
	return ok
}

func (c *BoundedMemoryBackend) ghostAdd(token string) {
	if _, exists := c.ghostSet[token]; exists {
		return
	}
	if c.ghostCount == c.ghostCap {
		oldest := c.ghostBuf[c.ghostHead]
		delete(c.ghostSet, oldest)
		c.ghostHead = (c.ghostHead + 1) % c.ghostCap
		c.ghostCount--
	}
	writeIdx := (c.ghostHead + c.ghostCount) % c.ghostCap
	c.ghostBuf[writeIdx] = token
	c.ghostSet[token] = struct{}{}
	c.ghostCount++
}
