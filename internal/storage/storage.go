// Package storage persists user-authored records — per-trade annotations
// and journal entries — in a local badger database. Trades themselves are
// never stored; they are recomputed from their source on every cycle.
package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
)

const (
	annotationPrefix = "ann:"
	journalPrefix    = "journal:"
)

// TradeAnnotation is user metadata keyed by trade id.
type TradeAnnotation struct {
	Tags        []string `json:"tags"`
	Notes       string   `json:"notes"`
	SetupType   string   `json:"setup_type"`
	MistakeType string   `json:"mistake_type"`
	Reviewed    bool     `json:"reviewed"`
	UpdatedAt   int64    `json:"updated_at,omitempty"`
}

// JournalEntry is a free-form trading journal record, optionally linked to
// trade ids.
type JournalEntry struct {
	ID             string    `json:"id"`
	Ts             time.Time `json:"ts"`
	Title          string    `json:"title"`
	Symbols        []string  `json:"symbols"`
	SetupType      string    `json:"setup_type"`
	Confidence     int       `json:"confidence"`
	Outcome        string    `json:"outcome"`
	MistakeType    string    `json:"mistake_type"`
	Notes          string    `json:"notes"`
	Tags           []string  `json:"tags"`
	LinkedTradeIDs []string  `json:"linked_trade_ids"`
}

// Store wraps the badger database.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open storage at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertAnnotation writes the annotation for tradeID, stamping UpdatedAt.
func (s *Store) UpsertAnnotation(tradeID string, ann TradeAnnotation) error {
	if tradeID == "" {
		return fmt.Errorf("annotation requires a trade id")
	}
	ann.UpdatedAt = time.Now().UnixMilli()
	return s.put(annotationPrefix+tradeID, ann)
}

// Annotation loads the annotation for tradeID, reporting whether one exists.
func (s *Store) Annotation(tradeID string) (TradeAnnotation, bool, error) {
	var ann TradeAnnotation
	found, err := s.get(annotationPrefix+tradeID, &ann)
	return ann, found, err
}

// Annotations loads all annotations keyed by trade id.
func (s *Store) Annotations() (map[string]TradeAnnotation, error) {
	out := make(map[string]TradeAnnotation)
	err := s.scan(annotationPrefix, func(key string, val []byte) error {
		var ann TradeAnnotation
		if err := json.Unmarshal(val, &ann); err != nil {
			return err
		}
		out[key] = ann
		return nil
	})
	return out, err
}

// SaveJournalEntry persists an entry, assigning an id and timestamp when
// missing, and returns the stored record.
func (s *Store) SaveJournalEntry(e JournalEntry) (JournalEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Ts.IsZero() {
		e.Ts = time.Now()
	}
	if err := s.put(journalPrefix+e.ID, e); err != nil {
		return JournalEntry{}, err
	}
	return e, nil
}

// JournalEntries returns all entries, newest first.
func (s *Store) JournalEntries() ([]JournalEntry, error) {
	var out []JournalEntry
	err := s.scan(journalPrefix, func(_ string, val []byte) error {
		var e JournalEntry
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Ts.After(out[j].Ts)
	})
	return out, nil
}

// DeleteJournalEntry removes the entry with the given id; deleting a
// missing entry is not an error.
func (s *Store) DeleteJournalEntry(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(journalPrefix + id))
	})
}

func (s *Store) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *Store) get(key string, out any) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// scan walks every key under prefix, passing the key with the prefix
// stripped.
func (s *Store) scan(prefix string, fn func(key string, val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())[len(prefix):]
			if err := item.Value(func(val []byte) error {
				return fn(key, val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
