// Package preview implements the debounced, cached, bounded-concurrency
// preview executor: given a PreviewSpec and a stream of "selection changed"
// requests, it produces rendered Preview values for the currently selected
// entry's raw string.
//
// The debounce/cancel plumbing is a single pending timer guarded by a
// mutex (a newer request replaces the pending one), with results published
// on a channel; the nine numbered invariants of SPEC_FULL.md §4.5 give the
// state machine: Queued -> Debouncing -> Dispatching -> Running ->
// {Cached, TimedOut, Failed}, Cancelled reachable from any pre-Running
// state. Bounded concurrency uses a buffered semaphore channel, the same
// idiom peco's pipeline nodes use for worker-count limiting.
package preview

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/kepler-cli/kepler/internal/util"
	"github.com/kepler-cli/kepler/prototype"
	"github.com/kepler-cli/kepler/template"
)

// Defaults per SPEC_FULL.md §4.5.
const (
	DefaultDebounce       = 20 * time.Millisecond
	DefaultRequestMaxAge  = time.Second
	DefaultCacheCapacity  = 20
	DefaultMaxConcurrency = 3
	DefaultJobTimeout     = 500 * time.Millisecond
)

// Preview is the rendered result for one Entry's raw string.
type Preview struct {
	Title      string
	Content    string
	TotalLines int
	Footer     string
	Offset     int
}

// Result is delivered on Executor.Results() for every request that reaches
// a terminal state worth showing the user (Cached or Failed); TimedOut and
// Cancelled requests are silent, per spec: a dropped preview is not an
// error the user needs to see.
type Result struct {
	Raw     string
	Preview Preview
	Err     error
}

// Option configures an Executor at construction.
type Option func(*Executor)

func WithDebounce(d time.Duration) Option        { return func(e *Executor) { e.debounce = d } }
func WithRequestMaxAge(d time.Duration) Option    { return func(e *Executor) { e.maxAge = d } }
func WithCacheCapacity(n int) Option              { return func(e *Executor) { e.cacheCap = n } }
func WithMaxConcurrency(n int) Option             { return func(e *Executor) { e.sem = make(chan struct{}, n) } }
func WithJobTimeout(d time.Duration) Option       { return func(e *Executor) { e.jobTimeout = d } }

// Executor runs one PreviewSpec's command against a stream of selection
// changes. Safe for concurrent Request calls from the orchestrator's single
// coordinator goroutine; Results is read from the same goroutine.
type Executor struct {
	spec *prototype.PreviewSpec

	debounce   time.Duration
	maxAge     time.Duration
	cacheCap   int
	jobTimeout time.Duration
	sem        chan struct{}

	results chan Result

	mu        sync.Mutex
	cache     *ringCache
	inFlight  map[string]struct{}
	seq       uint64
	timer     *time.Timer
	pendingAt time.Time
	pendingKey string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewExecutor builds an Executor for spec, applying defaults overridden by
// opts.
func NewExecutor(spec *prototype.PreviewSpec, opts ...Option) *Executor {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		spec:       spec,
		debounce:   DefaultDebounce,
		maxAge:     DefaultRequestMaxAge,
		cacheCap:   DefaultCacheCapacity,
		jobTimeout: DefaultJobTimeout,
		sem:        make(chan struct{}, DefaultMaxConcurrency),
		results:    make(chan Result, 8),
		inFlight:   make(map[string]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cache = newRingCache(e.cacheCap)
	return e
}

// Results returns the channel Preview results (and failures) are published
// on.
func (e *Executor) Results() <-chan Result { return e.results }

// Request records that raw is now the selected entry's key and, after the
// selection has been stable for the configured debounce, dispatches a
// preview computation for it. A newer Request call before the debounce
// fires supersedes this one entirely — there is only ever one pending
// timer.
func (e *Executor) Request(raw string) {
	if e.spec == nil {
		return
	}

	e.mu.Lock()
	if cached, ok := e.cache.get(raw); ok {
		e.mu.Unlock()
		e.publish(Result{Raw: raw, Preview: cached})
		return
	}
	if _, busy := e.inFlight[raw]; busy {
		e.mu.Unlock()
		return
	}
	e.pendingKey = raw
	e.pendingAt = time.Now()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, func() { e.debounceFired(raw) })
	e.mu.Unlock()
}

func (e *Executor) debounceFired(raw string) {
	e.mu.Lock()
	if e.pendingKey != raw {
		// superseded by a newer Request while we were waiting out the
		// debounce window.
		e.mu.Unlock()
		return
	}
	stale := time.Since(e.pendingAt) > e.maxAge
	e.pendingKey = ""
	e.mu.Unlock()

	if stale {
		return
	}
	e.dispatch(raw)
}

// dispatch attempts to acquire a concurrency slot for raw. Per invariant 5,
// excess requests are dropped rather than queued: the next selection
// change re-requests.
func (e *Executor) dispatch(raw string) {
	e.mu.Lock()
	if _, busy := e.inFlight[raw]; busy {
		e.mu.Unlock()
		return
	}
	select {
	case e.sem <- struct{}{}:
	default:
		e.mu.Unlock()
		return
	}
	e.inFlight[raw] = struct{}{}
	e.mu.Unlock()

	go e.run(raw)
}

func (e *Executor) run(raw string) {
	defer func() {
		e.mu.Lock()
		delete(e.inFlight, raw)
		e.mu.Unlock()
		<-e.sem
	}()

	jobCtx, cancel := context.WithTimeout(e.ctx, e.jobTimeout)
	defer cancel()

	p, err := e.execute(jobCtx, raw)
	if jobCtx.Err() == context.DeadlineExceeded {
		// TimedOut: silent per spec, the cache is not populated.
		return
	}
	if e.ctx.Err() != nil {
		// Cancelled by Shutdown.
		return
	}
	if err != nil {
		e.publish(Result{Raw: raw, Err: err})
		return
	}

	e.mu.Lock()
	e.cache.put(raw, p)
	e.mu.Unlock()

	e.publish(Result{Raw: raw, Preview: p})
}

func (e *Executor) publish(r Result) {
	select {
	case e.results <- r:
	case <-e.ctx.Done():
	}
}

// execute formats the preview command, offset, header and footer templates
// against raw, runs the command, and builds a Preview from its output.
func (e *Executor) execute(ctx context.Context, raw string) (Preview, error) {
	spec := e.spec

	cmdTmpl, err := template.Parse(spec.Command.Current(0))
	if err != nil {
		return Preview{}, err
	}
	cmdText, err := cmdTmpl.Format(raw)
	if err != nil {
		return Preview{}, err
	}

	var cmd *exec.Cmd
	if spec.Command.Interactive {
		cmd = util.ShellInteractive(ctx, cmdText)
	} else {
		cmd = util.Shell(ctx, cmdText)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	content := stdout.String()
	if runErr != nil {
		// Exit channel: non-zero exit surfaces stderr as the content,
		// same shape as success, per invariant 8.
		content = stderr.String()
	}
	content = substituteNonPrintable(content)

	p := Preview{
		Title:      raw,
		Content:    content,
		TotalLines: strings.Count(content, "\n") + 1,
	}

	if spec.Header != nil {
		h, herr := spec.Header.Format(raw)
		if herr == nil {
			p.Title = h
		}
	}
	if spec.Footer != nil {
		f, ferr := spec.Footer.Format(raw)
		if ferr == nil {
			p.Footer = f
		}
	}
	if spec.Offset != nil {
		o, oerr := spec.Offset.Format(raw)
		if oerr == nil {
			if n, perr := strconv.Atoi(strings.TrimSpace(o)); perr == nil && n >= 0 {
				p.Offset = n
			}
		}
	}

	return p, nil
}

// substituteNonPrintable replaces non-printable bytes (other than newline
// and tab) with U+FFFD, preserving line structure for the preview panel.
func substituteNonPrintable(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || r == utf8.RuneError {
			out.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			out.WriteRune('�')
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// Shutdown cancels every in-flight preview task and stops accepting new
// requests. A shutdown request outranks any pending preview per spec.
func (e *Executor) Shutdown() {
	e.cancel()
	if e.timer != nil {
		e.timer.Stop()
	}
}
