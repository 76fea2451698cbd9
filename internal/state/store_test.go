package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestToken_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.Token()
	assert.False(t, ok, "fresh store should have no token")

	require.NoError(t, s.SetToken("T"))

	token, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, "T", token)
}

func TestSetToken_Empty(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.SetToken(""))
}

func TestClearToken(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetToken("T"))
	require.NoError(t, s.ClearToken())

	_, ok := s.Token()
	assert.False(t, ok)

	// Clearing again is a no-op, not an error.
	assert.NoError(t, s.ClearToken())
}

func TestToken_FilePermissions(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("T"))

	info, err := os.Stat(filepath.Join(s.Dir(), "crova_token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRecentSearches_BoundMRUDedup(t *testing.T) {
	s := newTestStore(t)

	for _, term := range []string{"denim", "linen shirt", "oxford", "chinos", "parka", "beanie"} {
		require.NoError(t, s.AddRecentSearch(term))
	}

	// Six distinct terms leave exactly the five most recent, newest first.
	assert.Equal(t,
		[]string{"beanie", "parka", "chinos", "oxford", "linen shirt"},
		s.RecentSearches(),
	)

	// Re-searching an existing term moves it to the front without duplication.
	require.NoError(t, s.AddRecentSearch("oxford"))
	assert.Equal(t,
		[]string{"oxford", "beanie", "parka", "chinos", "linen shirt"},
		s.RecentSearches(),
	)
}

func TestAddRecentSearch_IgnoresBlank(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddRecentSearch("   "))
	assert.Empty(t, s.RecentSearches())
}

func TestRecentSearches_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.AddRecentSearch("denim"))

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"denim"}, reopened.RecentSearches())
}

func TestRecentSearches_CorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "crova_recent_searches.json"), []byte("{not json"), 0o644))

	assert.Nil(t, s.RecentSearches())
	// A corrupt file is overwritten on the next write.
	require.NoError(t, s.AddRecentSearch("denim"))
	assert.Equal(t, []string{"denim"}, s.RecentSearches())
}

func TestClearRecentSearches(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddRecentSearch("denim"))
	require.NoError(t, s.ClearRecentSearches())
	assert.Empty(t, s.RecentSearches())
}
