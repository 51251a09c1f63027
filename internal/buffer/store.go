package buffer

import (
	"hash/fnv"
	"sync"
	"time"

	"OppRadar/internal/domain/models"
)

const shardCount = 32

// Store is the registry of per-symbol price history. It is the only
// structure shared between the ingest path (Append) and the analysis path
// (Snapshot), so access goes through sharded locks to stay cheap at
// hundreds of symbols with sub-second tick rates.
type Store struct {
	capacity int
	shards   [shardCount]shard
}

type shard struct {
	mu      sync.RWMutex
	buffers map[string]*symbolBuffer
}

type symbolBuffer struct {
	ring         *ring
	lastPrice    float64
	volume24h    float64
	lastAnalysis time.Time
	prevAnalysis time.Time
	analyzing    bool
}

// Snapshot is a consistent point-in-time copy of one symbol's state.
type Snapshot struct {
	Symbol       string
	Samples      []models.PriceSample // chronological, oldest first
	LastPrice    float64
	Volume24h    float64
	LastAnalysis time.Time
}

// NewStore creates a store whose per-symbol history holds at most capacity
// samples, evicting oldest first.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 1000
	}
	s := &Store{capacity: capacity}
	for i := range s.shards {
		s.shards[i].buffers = make(map[string]*symbolBuffer)
	}
	return s
}

func (s *Store) shardFor(symbol string) *shard {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return &s.shards[h.Sum32()%shardCount]
}

// Register creates an empty buffer for symbol. Idempotent.
func (s *Store) Register(symbol string) {
	sh := s.shardFor(symbol)
	sh.mu.Lock()
	if _, ok := sh.buffers[symbol]; !ok {
		sh.buffers[symbol] = &symbolBuffer{ring: newRing(s.capacity)}
	}
	sh.mu.Unlock()
}

// Drop removes a symbol's buffer, releasing its history.
func (s *Store) Drop(symbol string) {
	sh := s.shardFor(symbol)
	sh.mu.Lock()
	delete(sh.buffers, symbol)
	sh.mu.Unlock()
}

// Append is the sole write path, called from the connector's tick handler.
// Unknown symbols are registered on first append.
func (s *Store) Append(symbol string, sample models.PriceSample) {
	sh := s.shardFor(symbol)
	sh.mu.Lock()
	b, ok := sh.buffers[symbol]
	if !ok {
		b = &symbolBuffer{ring: newRing(s.capacity)}
		sh.buffers[symbol] = b
	}
	b.ring.push(sample)
	b.lastPrice = sample.Price
	b.volume24h = sample.Volume
	sh.mu.Unlock()
}

// Snapshot returns a copy of the symbol's state for analysis. The bool is
// false when the symbol is unknown.
func (s *Store) Snapshot(symbol string) (Snapshot, bool) {
	sh := s.shardFor(symbol)
	sh.mu.RLock()
	b, ok := sh.buffers[symbol]
	if !ok {
		sh.mu.RUnlock()
		return Snapshot{}, false
	}
	snap := Snapshot{
		Symbol:       symbol,
		Samples:      b.ring.copyOut(),
		LastPrice:    b.lastPrice,
		Volume24h:    b.volume24h,
		LastAnalysis: b.lastAnalysis,
	}
	sh.mu.RUnlock()
	return snap, true
}

// Len returns the number of buffered samples for symbol.
func (s *Store) Len(symbol string) int {
	sh := s.shardFor(symbol)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if b, ok := sh.buffers[symbol]; ok {
		return b.ring.len()
	}
	return 0
}

// TryBeginAnalysis atomically checks that no analysis is running for the
// symbol and that at least minInterval elapsed since the last one; if both
// hold it records now as the new mark and flags the symbol as analyzing.
// Two overlapping fires for the same symbol cannot both pass. The caller
// must follow up with EndAnalysis, or AbortAnalysis when the work never ran.
func (s *Store) TryBeginAnalysis(symbol string, now time.Time, minInterval time.Duration) bool {
	sh := s.shardFor(symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	b, ok := sh.buffers[symbol]
	if !ok {
		return false
	}
	if b.analyzing {
		return false
	}
	if !b.lastAnalysis.IsZero() && now.Sub(b.lastAnalysis) < minInterval {
		return false
	}
	b.prevAnalysis = b.lastAnalysis
	b.lastAnalysis = now
	b.analyzing = true
	return true
}

// EndAnalysis marks the symbol's analysis as finished, keeping the mark set
// by TryBeginAnalysis. No-op for unknown symbols.
func (s *Store) EndAnalysis(symbol string) {
	sh := s.shardFor(symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if b, ok := sh.buffers[symbol]; ok {
		b.analyzing = false
	}
}

// AbortAnalysis undoes TryBeginAnalysis when the work was never submitted:
// the previous mark is restored so the dropped slot does not count against
// the interval. No-op for unknown symbols.
func (s *Store) AbortAnalysis(symbol string) {
	sh := s.shardFor(symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if b, ok := sh.buffers[symbol]; ok {
		b.lastAnalysis = b.prevAnalysis
		b.analyzing = false
	}
}

// Symbols returns all registered symbols, in no particular order.
func (s *Store) Symbols() []string {
	out := make([]string, 0, 64)
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for sym := range sh.buffers {
			out = append(out, sym)
		}
		sh.mu.RUnlock()
	}
	return out
}
