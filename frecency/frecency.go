// Package frecency implements the persistent frecency store: a combined
// frequency+recency score per (raw, channel) pair, used to prioritise
// previously selected items in the matcher.
//
// The read-side persistence idiom (locate a data file under a well-known
// config dir, tolerate it being absent, JSON-unmarshal it) follows the
// same shape as the rc-file loader this package sits next to. The
// write-side temp-file-then-rename save is plain Go file-safety practice,
// kept on the standard library since atomic file replacement needs
// nothing fancier.
package frecency

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/btree"
)

// Record is one persisted frecency entry.
type Record struct {
	Raw            string `json:"raw"`
	Channel        string `json:"channel"`
	AccessCount    int    `json:"access_count"`
	LastAccessUnix int64  `json:"last_access_epoch"`
}

func (r Record) key() recordKey { return recordKey{raw: r.Raw, channel: r.Channel} }

type recordKey struct {
	raw     string
	channel string
}

// Score computes the frecency score: ln(1 + access_count) /
// max(days_since_access, 0.1). Recovered verbatim from
// original_source/television/frecency.rs; spec.md's §3 prose gives the
// same formula.
func (r Record) Score(nowUnix int64) float64 {
	daysSinceAccess := float64(nowUnix-r.LastAccessUnix) / 86400.0
	if daysSinceAccess < 0.1 {
		daysSinceAccess = 0.1
	}
	return math.Log(1+float64(r.AccessCount)) / daysSinceAccess
}

// Store is a capacity-bounded, JSON-persisted frecency table.
type Store struct {
	mu       sync.Mutex
	path     string
	capacity int
	records  map[recordKey]*Record
}

// DefaultCapacity bounds the number of persisted records; exceeding it
// evicts the oldest-accessed record.
const DefaultCapacity = 5000

// DefaultPriorityKeyLimit is the number of top frecent raw strings exposed
// to the matcher as priority keys (spec.md §3: "top-N... currently ≤200").
const DefaultPriorityKeyLimit = 200

// Open loads path (if it exists) into a new Store. A missing file is not
// an error; the store starts empty. Any other read or parse failure is
// returned as-is together with an empty store; the caller prints it and
// carries on, never fatal per SPEC_FULL.md §7's propagation policy.
func Open(path string, capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{path: path, capacity: capacity, records: make(map[recordKey]*Record)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}
	if len(data) == 0 {
		return s, nil
	}

	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return s, err
	}
	for i := range recs {
		r := recs[i]
		s.records[r.key()] = &r
	}
	return s, nil
}

// Touch records an access (confirmation) for (raw, channel) at nowUnix,
// incrementing access_count and updating last_access_epoch. If the store
// is at capacity and raw/channel is new, the oldest-accessed record is
// evicted first.
func (s *Store) Touch(raw, channel string, nowUnix int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := recordKey{raw: raw, channel: channel}
	if r, ok := s.records[k]; ok {
		r.AccessCount++
		r.LastAccessUnix = nowUnix
		return
	}

	if len(s.records) >= s.capacity {
		s.evictOldestLocked()
	}
	s.records[k] = &Record{Raw: raw, Channel: channel, AccessCount: 1, LastAccessUnix: nowUnix}
}

func (s *Store) evictOldestLocked() {
	var oldestKey recordKey
	var oldestTime int64 = math.MaxInt64
	first := true
	for k, r := range s.records {
		if first || r.LastAccessUnix < oldestTime {
			oldestKey = k
			oldestTime = r.LastAccessUnix
			first = false
		}
	}
	if !first {
		delete(s.records, oldestKey)
	}
}

// scoredKey is a (score, raw) pair ordered highest-score-first by
// scoredLess, breaking ties on raw so TopKeys is deterministic across
// calls with identical scores.
type scoredKey struct {
	raw   string
	score float64
}

func scoredLess(a, b scoredKey) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.raw < b.raw
}

// TopKeys returns the top limit raw strings by score for channel (or
// globally if global is true), highest score first. Candidates are staged
// in a google/btree ordered tree rather than sorted as a slice, so a
// small limit only ever walks the top of the tree instead of paying for a
// full sort over every record in the store.
func (s *Store) TopKeys(channel string, global bool, limit int, nowUnix int64) []string {
	s.mu.Lock()
	tree := btree.NewG(32, scoredLess)
	for _, r := range s.records {
		if !global && r.Channel != channel {
			continue
		}
		tree.ReplaceOrInsert(scoredKey{raw: r.Raw, score: r.Score(nowUnix)})
	}
	s.mu.Unlock()

	if limit <= 0 || limit > tree.Len() {
		limit = tree.Len()
	}
	out := make([]string, 0, limit)
	tree.Ascend(func(item scoredKey) bool {
		out = append(out, item.raw)
		return len(out) < limit
	})
	return out
}

// Save persists the store to its path as a JSON array, field order
// unspecified but stable across successive saves modulo map iteration,
// written atomically via a temp file + rename so a crash mid-write never
// corrupts the existing file.
func (s *Store) Save() error {
	s.mu.Lock()
	recs := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		recs = append(recs, *r)
	}
	s.mu.Unlock()

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Channel != recs[j].Channel {
			return recs[i].Channel < recs[j].Channel
		}
		return recs[i].Raw < recs[j].Raw
	})

	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".frecency-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Len returns the number of persisted records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
