package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"chat-sync/errors"

	"github.com/dgraph-io/badger/v4"
)

// maxConflictRetries bounds how many times an Update is replayed after
// badger reported a write conflict with a concurrent transaction.
const maxConflictRetries = 32

// Store is the generic key/value persistence primitive behind every entity.
// Records are untyped JSON documents at this level; Collection and Log add
// typing and schema validation.
type Store struct {
	db        *badger.DB
	log       *slog.Logger
	bandwidth uint64

	mu        sync.Mutex
	sequences map[Kind]*badger.Sequence
}

func NewStore(db *badger.DB, log *slog.Logger, bandwidth uint64) *Store {
	if bandwidth == 0 {
		bandwidth = 100
	}
	return &Store{
		db:        db,
		log:       log,
		bandwidth: bandwidth,
		sequences: make(map[Kind]*badger.Sequence),
	}
}

// Close releases the leased sequence ranges. The badger DB itself is owned
// by the caller.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for kind, seq := range s.sequences {
		if err := seq.Release(); err != nil {
			return fmt.Errorf("%w: releasing %s sequence: %v", errors.ErrStorage, kind, err)
		}
		delete(s.sequences, kind)
	}
	return nil
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(txn *Txn) error) error {
	err := s.db.View(func(txn *badger.Txn) error {
		return fn(&Txn{txn: txn, store: s})
	})
	return classify(err)
}

// Update runs fn in a read-write transaction. Every read performed by fn is
// checked against concurrent commits: when another transaction wrote a key fn
// read, badger rejects the commit and fn is replayed on fresh data. This is
// what makes CreateIfAbsent atomic. fn must therefore be free of side effects
// outside the transaction.
func (s *Store) Update(fn func(txn *Txn) error) error {
	for attempt := 1; ; attempt++ {
		err := s.db.Update(func(txn *badger.Txn) error {
			return fn(&Txn{txn: txn, store: s})
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			s.log.Debug("Transaction conflict, replaying", "attempt", attempt)
			continue
		}
		return classify(err)
	}
}

// Get returns the record stored under (kind, id).
func (s *Store) Get(kind Kind, id string) (data []byte, found bool, err error) {
	err = s.View(func(txn *Txn) error {
		data, found, err = txn.Get(kind, id)
		return err
	})
	return data, found, err
}

// Put overwrites the record stored under (kind, id).
func (s *Store) Put(kind Kind, id string, data []byte) error {
	return s.Update(func(txn *Txn) error {
		return txn.Put(kind, id, data)
	})
}

// CreateIfAbsent stores initial unless a record already exists under
// (kind, id). It returns the record that is stored once the call returns and
// whether this call created it.
func (s *Store) CreateIfAbsent(kind Kind, id string, initial []byte) (data []byte, created bool, err error) {
	err = s.Update(func(txn *Txn) error {
		data, created, err = txn.CreateIfAbsent(kind, id, initial)
		return err
	})
	return data, created, err
}

// Delete removes the record under (kind, id) and reports whether it existed.
func (s *Store) Delete(kind Kind, id string) (deleted bool, err error) {
	err = s.Update(func(txn *Txn) error {
		deleted, err = txn.Delete(kind, id)
		return err
	})
	return deleted, err
}

// List returns up to limit records of kind in insertion order, starting after
// cursor. The returned cursor is nil when no record follows the page.
func (s *Store) List(kind Kind, cursor *string, limit int) (items [][]byte, next *string, err error) {
	err = s.View(func(txn *Txn) error {
		items, next, err = txn.List(kind, cursor, limit)
		return err
	})
	return items, next, err
}

// Seed is one default record handed to EnsureSeed.
type Seed struct {
	ID   string
	Data []byte
}

// EnsureSeed writes seeds exactly once per store lifetime. The sentinel key
// and the records are committed together. It reports whether this call
// performed the seeding.
func (s *Store) EnsureSeed(kind Kind, seeds []Seed) (seeded bool, err error) {
	err = s.Update(func(txn *Txn) error {
		seeded, err = txn.MarkSeeded(kind)
		if err != nil || !seeded {
			return err
		}
		for _, seed := range seeds {
			if err = txn.Put(kind, seed.ID, seed.Data); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil && seeded {
		s.log.Info("Default records seeded", "kind", kind, "count", len(seeds))
	}
	return seeded, err
}

func (s *Store) nextSeq(kind Kind) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[kind]
	if !ok {
		var err error
		seq, err = s.db.GetSequence(sequenceKey(kind), s.bandwidth)
		if err != nil {
			return 0, err
		}
		s.sequences[kind] = seq
	}
	return seq.Next()
}

// classify maps badger failures onto ErrStorage and lets taxonomy errors
// raised by callbacks through untouched.
func classify(err error) error {
	if err == nil || errors.IsClassified(err) {
		return err
	}
	return fmt.Errorf("%w: %v", errors.ErrStorage, err)
}

// envelope is the stored form of a record. Seq points at the order index entry.
type envelope struct {
	Seq  uint64          `json:"seq"`
	Data json.RawMessage `json:"data"`
}
