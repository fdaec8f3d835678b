package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_OpenMissingFileStartsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.json"), 0)
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())
}

func TestStore_AppendSuppressesConsecutiveDuplicates(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.json"), 0)
	require.NoError(t, err)

	s.Append("foo", "files", 100)
	s.Append("foo", "files", 200)
	require.Equal(t, 1, s.Len())
	require.Equal(t, int64(200), s.records[0].TimestampEpoch)
}

func TestStore_AppendKeepsDistinctQueries(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.json"), 0)
	require.NoError(t, err)

	s.Append("foo", "files", 100)
	s.Append("bar", "files", 200)
	s.Append("foo", "files", 300)
	require.Equal(t, 3, s.Len())
}

func TestStore_PrevNextNavigateChannelScoped(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.json"), 0)
	require.NoError(t, err)

	s.Append("one", "files", 100)
	s.Append("two", "procs", 200)
	s.Append("three", "files", 300)

	q, ok := s.Prev("files", false)
	require.True(t, ok)
	require.Equal(t, "three", q)

	q, ok = s.Prev("files", false)
	require.True(t, ok)
	require.Equal(t, "one", q)

	_, ok = s.Prev("files", false)
	require.False(t, ok)

	q, ok = s.Next("files", false)
	require.True(t, ok)
	require.Equal(t, "three", q)

	_, ok = s.Next("files", false)
	require.False(t, ok)
}

func TestStore_GlobalNavigationCrossesChannels(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.json"), 0)
	require.NoError(t, err)

	s.Append("one", "files", 100)
	s.Append("two", "procs", 200)

	q, ok := s.Prev("files", true)
	require.True(t, ok)
	require.Equal(t, "two", q)
}

func TestStore_TrimsAtCapacity(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.json"), 2)
	require.NoError(t, err)

	s.Append("a", "files", 1)
	s.Append("b", "files", 2)
	s.Append("c", "files", 3)

	require.Equal(t, 2, s.Len())
	require.Equal(t, "b", s.records[0].Query)
	require.Equal(t, "c", s.records[1].Query)
}

func TestStore_SaveAndReopenRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s, err := Open(path, 0)
	require.NoError(t, err)

	s.Append("foo", "files", 100)
	s.Append("bar", "files", 200)
	require.NoError(t, s.Save())

	reopened, err := Open(path, 0)
	require.NoError(t, err)
	require.Equal(t, 2, reopened.Len())
}
