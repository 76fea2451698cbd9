package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Well-known storage keys. These are file names under the state directory
// and must stay stable across releases: they are the client's only
// persisted state and carry no versioning or migration logic.
const (
	tokenFile          = "crova_token"
	recentSearchesFile = "crova_recent_searches.json"
)

// MaxRecentSearches bounds the persisted search history.
const MaxRecentSearches = 5

// Store persists the bearer token and the recent-search history on disk.
// All methods are safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a state store rooted at dir, creating the directory if
// needed. An empty dir places the store under the per-user config
// directory.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user config dir: %w", err)
		}
		dir = filepath.Join(base, "crova")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// Token returns the persisted bearer token, if any.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	return token, token != ""
}

// SetToken persists the bearer token, replacing any previous one.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		return errors.New("token must not be empty")
	}
	return s.writeFile(tokenFile, []byte(token), 0o600)
}

// ClearToken removes the persisted token. Clearing an absent token is not
// an error.
func (s *Store) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, tokenFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// RecentSearches returns the persisted search history, most recent first.
func (s *Store) RecentSearches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readSearches()
}

// AddRecentSearch records a search term: the list stays de-duplicated,
// most-recent-first, and bounded to MaxRecentSearches entries.
func (s *Store) AddRecentSearch(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	terms := s.readSearches()
	next := make([]string, 0, MaxRecentSearches)
	next = append(next, term)
	for _, t := range terms {
		if t == term {
			continue
		}
		next = append(next, t)
		if len(next) == MaxRecentSearches {
			break
		}
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode recent searches: %w", err)
	}
	return s.writeFile(recentSearchesFile, data, 0o644)
}

// ClearRecentSearches removes the persisted search history.
func (s *Store) ClearRecentSearches() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, recentSearchesFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove recent searches: %w", err)
	}
	return nil
}

func (s *Store) readSearches() []string {
	data, err := os.ReadFile(filepath.Join(s.dir, recentSearchesFile))
	if err != nil {
		return nil
	}
	var terms []string
	if err := json.Unmarshal(data, &terms); err != nil {
		// Corrupt history is dropped rather than surfaced; it is
		// best-effort convenience state.
		return nil
	}
	return terms
}

// writeFile writes via a temp file and rename so a crash mid-write never
// leaves a truncated token on disk.
func (s *Store) writeFile(name string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
