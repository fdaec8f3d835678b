package channel

import (
	"context"
	"time"

	"github.com/kepler-cli/kepler/entry"
	"github.com/kepler-cli/kepler/matcher"
	"github.com/kepler-cli/kepler/source"
	"github.com/kepler-cli/kepler/template"
)

// resultEngine erases the Matcher's payload type parameter D behind a
// Channel-shaped interface, the same way entry.Injector[D] is handed out as
// an interface value so source.Run doesn't need to know D either. A
// Channel is instantiated from a Prototype at runtime, and the three
// EntryProcessor strategies carry three different D types (struct{},
// string, string) — erasing D here is what lets channel.Channel itself
// stay a plain, non-generic type usable uniformly by the orchestrator.
type resultEngine interface {
	Find(pattern string)
	Tick(timeout time.Duration) matcher.Status
	Results(n, offset int) []entry.Entry
	GetResult(i int) (entry.Entry, bool)
	Restart()
	SetPriorityKeys(keys []string)
	TotalItemCount() int
	MatchedItemCount() int
	Close()
	SpawnSource(ctx context.Context, commandLine string, interactive bool, env map[string]string, delimiter byte) *source.Runner
}

// engine wires one entry.Processor[D] strategy to its matcher.Matcher[D],
// converting MatchedItem[D] values into entry.Entry at the Results/
// GetResult boundary so nothing outside this file ever sees D.
type engine[D any] struct {
	m      *matcher.Matcher[D]
	proc   entry.Processor[D]
	output *template.Template
}

func newEngine[D any](proc entry.Processor[D], output *template.Template, cfg matcher.Config) *engine[D] {
	return &engine[D]{
		m:      matcher.New[D](cfg),
		proc:   proc,
		output: output,
	}
}

func (e *engine[D]) Find(pattern string) { e.m.Find(pattern) }

func (e *engine[D]) Tick(timeout time.Duration) matcher.Status { return e.m.Tick(timeout) }

func (e *engine[D]) Results(n, offset int) []entry.Entry {
	items := e.m.Results(n, offset)
	out := make([]entry.Entry, len(items))
	for i, it := range items {
		out[i] = e.proc.MakeEntry(it, offset+i, e.output)
	}
	return out
}

func (e *engine[D]) GetResult(i int) (entry.Entry, bool) {
	it, ok := e.m.GetResult(i)
	if !ok {
		return entry.Entry{}, false
	}
	return e.proc.MakeEntry(it, i, e.output), true
}

func (e *engine[D]) Restart() { e.m.Restart() }

func (e *engine[D]) SetPriorityKeys(keys []string) { e.m.SetPriorityKeys(keys) }

func (e *engine[D]) TotalItemCount() int { return e.m.TotalItemCount() }

func (e *engine[D]) MatchedItemCount() int { return e.m.MatchedItemCount() }

func (e *engine[D]) Close() { e.m.Close() }

func (e *engine[D]) SpawnSource(ctx context.Context, commandLine string, interactive bool, env map[string]string, delimiter byte) *source.Runner {
	return source.Run(ctx, commandLine, interactive, env, delimiter, e.proc, e.m.Injector())
}
