package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitIdle[D any](t *testing.T, m *Matcher[D]) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := m.Tick(50 * time.Millisecond)
		if !st.Running {
			return
		}
	}
	t.Fatal("matcher did not settle within deadline")
}

func pushAll(m *Matcher[struct{}], lines []string) {
	inj := m.Injector()
	for _, l := range lines {
		inj.Push(struct{}{}, l)
	}
}

func TestMatcher_EmptyPatternMatchesEverything(t *testing.T) {
	m := New[struct{}](Config{})
	defer m.Close()

	pushAll(m, []string{"alpha", "beta", "gamma"})
	m.Find("")
	waitIdle(t, m)

	require.Equal(t, 3, m.TotalItemCount())
	require.Equal(t, 3, m.MatchedItemCount())
	require.LessOrEqual(t, m.MatchedItemCount(), m.TotalItemCount())

	res := m.Results(10, 0)
	require.Len(t, res, 3)
}

func TestMatcher_BasicFuzzySubsequence(t *testing.T) {
	m := New[struct{}](Config{})
	defer m.Close()

	pushAll(m, []string{"foo", "bar", "foobar"})
	m.Find("fo")
	waitIdle(t, m)

	res := m.Results(10, 0)
	matched := map[string]bool{}
	for _, r := range res {
		matched[r.MatchedString] = true
	}
	require.True(t, matched["foo"])
	require.True(t, matched["foobar"])
	require.False(t, matched["bar"])
}

func TestMatcher_CaseSmart(t *testing.T) {
	m := New[struct{}](Config{})
	defer m.Close()

	pushAll(m, []string{"Foo", "foo"})
	m.Find("Foo")
	waitIdle(t, m)

	res := m.Results(10, 0)
	require.Len(t, res, 1)
	require.Equal(t, "Foo", res[0].MatchedString)

	m.Find("foo")
	waitIdle(t, m)
	res = m.Results(10, 0)
	require.Len(t, res, 2)
}

func TestMatcher_IgnoreCaseForcesInsensitive(t *testing.T) {
	m := New[struct{}](Config{IgnoreCase: true})
	defer m.Close()

	pushAll(m, []string{"Foo", "foo"})
	m.Find("Foo")
	waitIdle(t, m)

	res := m.Results(10, 0)
	require.Len(t, res, 2)
}

func TestMatcher_Restart(t *testing.T) {
	m := New[struct{}](Config{})
	defer m.Close()

	pushAll(m, []string{"alpha", "beta"})
	m.Find("a")
	waitIdle(t, m)
	require.Greater(t, m.TotalItemCount(), 0)

	m.Restart()
	require.Equal(t, 0, m.TotalItemCount())
	require.Equal(t, 0, m.MatchedItemCount())
	require.Nil(t, m.Results(10, 0))
}

func TestMatcher_GetResultOutOfRange(t *testing.T) {
	m := New[struct{}](Config{})
	defer m.Close()

	pushAll(m, []string{"one"})
	m.Find("")
	waitIdle(t, m)

	_, ok := m.GetResult(5)
	require.False(t, ok)

	_, ok = m.GetResult(0)
	require.True(t, ok)
}

func TestMatcher_PriorityBoostOrdersFrecentItemFirst(t *testing.T) {
	m := New[struct{}](Config{PreferFrecentItems: true})
	defer m.Close()

	pushAll(m, []string{"apple", "apricot", "avocado"})
	m.SetPriorityKeys([]string{"avocado"})
	m.Find("a")
	waitIdle(t, m)

	res := m.Results(10, 0)
	require.Len(t, res, 3)
	require.Equal(t, "avocado", res[0].MatchedString)
}

func TestMatcher_IncrementalPushAfterFind(t *testing.T) {
	m := New[struct{}](Config{})
	defer m.Close()

	pushAll(m, []string{"one"})
	m.Find("o")
	waitIdle(t, m)
	require.Len(t, m.Results(10, 0), 1)

	pushAll(m, []string{"two"})
	waitIdle(t, m)
	require.Len(t, m.Results(10, 0), 2)
}
