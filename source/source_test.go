package source

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kepler-cli/kepler/entry"
)

type fakeInjector struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeInjector) Push(data struct{}, haystack string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, haystack)
}

func (f *fakeInjector) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}

func TestRun_StreamsStdoutLines(t *testing.T) {
	inj := &fakeInjector{}
	r := Run[struct{}](context.Background(), "printf 'one\\ntwo\\nthree\\n'", false, nil, '\n', entry.Plain{}, inj)
	r.Abort()

	require.Equal(t, []string{"one", "two", "three"}, inj.snapshot())
	require.NoError(t, r.Err())
}

func TestRun_FallsBackToStderrWhenStdoutEmpty(t *testing.T) {
	inj := &fakeInjector{}
	r := Run[struct{}](context.Background(), "printf 'oops\\n' 1>&2", false, nil, '\n', entry.Plain{}, inj)
	r.Abort()

	require.Equal(t, []string{"oops"}, inj.snapshot())
}

func TestRun_EnvIsMerged(t *testing.T) {
	inj := &fakeInjector{}
	r := Run[struct{}](context.Background(), "echo $SOURCE_TEST_VAR", false, map[string]string{"SOURCE_TEST_VAR": "hello"}, '\n', entry.Plain{}, inj)
	r.Abort()

	require.Equal(t, []string{"hello"}, inj.snapshot())
}

func TestRun_AbortKillsLongRunningChild(t *testing.T) {
	inj := &fakeInjector{}
	r := Run[struct{}](context.Background(), "sleep 30", false, nil, '\n', entry.Plain{}, inj)

	done := make(chan struct{})
	go func() {
		r.Abort()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Abort did not return promptly; child process was not killed")
	}
}
