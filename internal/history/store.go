// Package history persists the texts hark has broadcast.
package history

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store closed")

const defaultMaxEntries = 200

var keyPrefix = []byte("broadcast/")

// Entry is one recorded broadcast.
type Entry struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Options configures Open.
type Options struct {
	// Dir holds the badger files. Ignored when InMemory is set.
	Dir        string
	InMemory   bool
	MaxEntries int
	Logger     *slog.Logger
}

// Store is a badger-backed, size-bounded broadcast log.
type Store struct {
	db         *badger.DB
	maxEntries int
	now        func() time.Time

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the store.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("history dir is required for on-disk mode")
	}

	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	} else if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger: opts.Logger})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Store{db: db, maxEntries: maxEntries, now: time.Now}, nil
}

// DefaultDir returns $XDG_STATE_HOME/hark/history.
func DefaultDir() (string, error) {
	stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "hark", "history"), nil
}

// Record appends text and drops the oldest entries beyond the bound.
func (s *Store) Record(ctx context.Context, text string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, errors.New("history text is empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Entry{}, ErrClosed
	}

	entry := Entry{ID: uuid.NewString(), Text: text, At: s.now().UTC()}
	value, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("encode history entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry), value)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("write history entry: %w", err)
	}

	if err := s.trim(); err != nil {
		return entry, fmt.Errorf("trim history: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all
// retained entries.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	entries := []Entry{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(reverseOptions(true))
		defer it.Close()

		for it.Seek(seekLast()); it.ValidForPrefix(keyPrefix); it.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var entry Entry
			if err := json.Unmarshal(value, &entry); err != nil {
				return fmt.Errorf("decode history entry %q: %w", it.Item().Key(), err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close releases the underlying database. It is safe to call twice.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) trim() error {
	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(reverseOptions(false))
		defer it.Close()

		kept := 0
		for it.Seek(seekLast()); it.ValidForPrefix(keyPrefix); it.Next() {
			kept++
			if kept > s.maxEntries {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(stale) == 0 {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// entryKey orders entries by time: prefix, big-endian unix nanos, then the ID.
func entryKey(entry Entry) []byte {
	key := make([]byte, 0, len(keyPrefix)+8+1+len(entry.ID))
	key = append(key, keyPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(entry.At.UnixNano()))
	key = append(key, '/')
	return append(key, entry.ID...)
}

func seekLast() []byte {
	return append(bytes.Clone(keyPrefix), 0xFF)
}

func reverseOptions(values bool) badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.Prefix = keyPrefix
	opts.PrefetchValues = values
	return opts
}

// badgerLogger forwards badger warnings and errors to slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	if l.logger != nil {
		l.logger.Error("badger: " + strings.TrimSpace(fmt.Sprintf(f, v...)))
	}
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	if l.logger != nil {
		l.logger.Warn("badger: " + strings.TrimSpace(fmt.Sprintf(f, v...)))
	}
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}
