package frecency

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_OpenMissingFileStartsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"), 0)
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())
}

func TestStore_TouchIncrementsAccessCount(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"), 0)
	require.NoError(t, err)

	s.Touch("foo.go", "files", 1000)
	s.Touch("foo.go", "files", 2000)

	s.mu.Lock()
	r := s.records[recordKey{raw: "foo.go", channel: "files"}]
	s.mu.Unlock()
	require.Equal(t, 2, r.AccessCount)
	require.Equal(t, int64(2000), r.LastAccessUnix)
}

func TestStore_ScoreMonotonicWithAccessCount(t *testing.T) {
	r1 := Record{AccessCount: 1, LastAccessUnix: 0}
	r2 := Record{AccessCount: 5, LastAccessUnix: 0}
	require.Less(t, r1.Score(86400), r2.Score(86400))
}

func TestStore_SaveAndReopenRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frecency.json")
	s, err := Open(path, 0)
	require.NoError(t, err)

	s.Touch("a", "files", 100)
	s.Touch("b", "files", 200)
	require.NoError(t, s.Save())

	reopened, err := Open(path, 0)
	require.NoError(t, err)
	require.Equal(t, 2, reopened.Len())
}

func TestStore_EvictsOldestAtCapacity(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"), 2)
	require.NoError(t, err)

	s.Touch("old", "files", 100)
	s.Touch("mid", "files", 200)
	s.Touch("new", "files", 300)

	require.Equal(t, 2, s.Len())
	s.mu.Lock()
	_, hasOld := s.records[recordKey{raw: "old", channel: "files"}]
	s.mu.Unlock()
	require.False(t, hasOld)
}

func TestStore_TopKeysOrdersByScoreDescending(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"), 0)
	require.NoError(t, err)

	s.Touch("rare", "files", 0)
	for i := 0; i < 10; i++ {
		s.Touch("frequent", "files", 0)
	}

	keys := s.TopKeys("files", false, 2, 86400)
	require.Equal(t, []string{"frequent", "rare"}, keys)
}

func TestStore_TopKeysFiltersByChannelUnlessGlobal(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"), 0)
	require.NoError(t, err)

	s.Touch("a", "files", 0)
	s.Touch("b", "git", 0)

	require.Len(t, s.TopKeys("files", false, 10, 86400), 1)
	require.Len(t, s.TopKeys("files", true, 10, 86400), 2)
}
