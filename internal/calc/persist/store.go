package persist

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dshills/keycalc/internal/calc/history"
)

// Store reads and writes the state file. Failures never reach the
// caller: they are logged and a fresh state is used instead.
type Store struct {
	path       string
	maxEntries int
	logger     *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxEntries bounds the history restored by Load.
func WithMaxEntries(n int) Option {
	return func(s *Store) { s.maxEntries = n }
}

// NewStore creates a Store for the file at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:       path,
		maxEntries: history.DefaultMaxEntries,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state file. A missing, unreadable, corrupt or
// unsupported file yields a fresh state with an empty history.
func (s *Store) Load() State {
	state, err := s.read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no saved state", zap.String("path", s.path))
		} else {
			s.logger.Warn("discarding saved state", zap.String("path", s.path), zap.Error(err))
		}
		return State{Version: LatestVersion, History: history.New(s.maxEntries)}
	}
	s.logger.Debug("loaded state",
		zap.String("path", s.path),
		zap.Int("version", state.Version),
		zap.Int("entries", state.History.Len()),
	)
	state.Restored = true
	return state
}

func (s *Store) read() (State, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return State{}, err
	}
	defer f.Close()
	return Decode(f, s.maxEntries)
}

// Save writes state to the file and reports whether it succeeded. The
// file is replaced atomically so a failed save leaves the previous one
// intact.
func (s *Store) Save(state State) bool {
	if err := s.write(state); err != nil {
		s.logger.Error("saving state", zap.String("path", s.path), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) write(state State) (err error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = Encode(tmp, state); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
