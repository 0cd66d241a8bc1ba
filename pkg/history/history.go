// Package history records conversation turns and learned vocabulary in a
// local BadgerDB store. It is a thin persistence collaborator: the speech
// protocol core has no dependency on it.
package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a requested entry does not exist.
	ErrNotFound = errors.New("history: not found")
)

// Turn is one recorded conversation utterance.
type Turn struct {
	SessionID string    `json:"session_id"`
	Speaker   string    `json:"speaker"` // "user" or "ai"
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Word is one learned vocabulary entry.
type Word struct {
	Word      string    `json:"word"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists conversation history and vocabulary. Safe for
// concurrent use.
type Store struct {
	db *badger.DB
}

// Options configures the store.
type Options struct {
	// Dir is the directory for data files. Required unless InMemory.
	Dir string

	// InMemory runs the store without disk persistence. Useful for
	// testing with the real storage engine.
	InMemory bool
}

// Open creates or opens a store.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("history: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("history: open store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Turn keys are conv:{session}:{seq} with a big-endian sequence so that
// lexicographic iteration is chronological.
func turnKey(sessionID string, seq uint64) []byte {
	key := make([]byte, 0, 5+len(sessionID)+1+8)
	key = append(key, "conv:"...)
	key = append(key, sessionID...)
	key = append(key, ':')
	key = binary.BigEndian.AppendUint64(key, seq)
	return key
}

func turnPrefix(sessionID string) []byte {
	return []byte("conv:" + sessionID + ":")
}

func wordKey(word string) []byte {
	return []byte("vocab:" + word)
}

// AppendTurn records one utterance at the end of a session's history.
func (s *Store) AppendTurn(ctx context.Context, sessionID, speaker, text string) error {
	turn := Turn{
		SessionID: sessionID,
		Speaker:   speaker,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	value, err := json.Marshal(&turn)
	if err != nil {
		return fmt.Errorf("history: marshal turn: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		seq, err := nextSeq(txn, turnPrefix(sessionID))
		if err != nil {
			return err
		}
		return txn.Set(turnKey(sessionID, seq), value)
	})
}

// nextSeq finds the next sequence number for a session by seeking to the
// last existing key under its prefix.
func nextSeq(txn *badger.Txn, prefix []byte) (uint64, error) {
	itOpts := badger.DefaultIteratorOptions
	itOpts.Reverse = true
	itOpts.PrefetchValues = false
	it := txn.NewIterator(itOpts)
	defer it.Close()

	// Reverse iteration: seek just past the prefix range.
	seek := append(append([]byte{}, prefix...), 0xFF)
	it.Seek(seek)
	if !it.ValidForPrefix(prefix) {
		return 0, nil
	}
	key := it.Item().Key()
	if len(key) < len(prefix)+8 {
		return 0, fmt.Errorf("history: malformed turn key %q", key)
	}
	return binary.BigEndian.Uint64(key[len(prefix):]) + 1, nil
}

// Turns returns a session's utterances in the order they were recorded.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]Turn, error) {
	var turns []Turn
	prefix := turnPrefix(sessionID)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var turn Turn
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &turn)
			})
			if err != nil {
				return fmt.Errorf("history: decode turn: %w", err)
			}
			turns = append(turns, turn)
		}
		return nil
	})
	return turns, err
}

// AddWord records or updates a vocabulary entry.
func (s *Store) AddWord(ctx context.Context, word, note string) error {
	if word == "" {
		return errors.New("history: word is empty")
	}
	entry := Word{Word: word, Note: note, CreatedAt: time.Now().UTC()}
	value, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("history: marshal word: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(wordKey(word), value)
	})
}

// GetWord looks up one vocabulary entry.
func (s *Store) GetWord(ctx context.Context, word string) (*Word, error) {
	var entry Word
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(wordKey(word))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Words returns all vocabulary entries in lexicographic order.
func (s *Store) Words(ctx context.Context) ([]Word, error) {
	var words []Word
	prefix := []byte("vocab:")

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry Word
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("history: decode word: %w", err)
			}
			words = append(words, entry)
		}
		return nil
	})
	return words, err
}
