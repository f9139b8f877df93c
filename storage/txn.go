package storage

import (
	"encoding/json"
	"fmt"

	"chat-sync/errors"

	"github.com/dgraph-io/badger/v4"
)

// Txn is a transaction over the entity key space. It is only valid inside the
// callback of Store.View or Store.Update.
type Txn struct {
	txn   *badger.Txn
	store *Store
}

func (t *Txn) Get(kind Kind, id string) ([]byte, bool, error) {
	env, found, err := t.envelope(kind, id)
	if err != nil || !found {
		return nil, found, err
	}
	return env.Data, true, nil
}

// Put overwrites a record. An existing record keeps its position in the
// insertion order; a new one is appended to it.
func (t *Txn) Put(kind Kind, id string, data []byte) error {
	env, found, err := t.envelope(kind, id)
	if err != nil {
		return err
	}
	if !found {
		return t.insert(kind, id, data)
	}
	env.Data = data
	return t.writeEnvelope(kind, id, env)
}

func (t *Txn) CreateIfAbsent(kind Kind, id string, initial []byte) ([]byte, bool, error) {
	env, found, err := t.envelope(kind, id)
	if err != nil {
		return nil, false, err
	}
	if found {
		return env.Data, false, nil
	}
	if err = t.insert(kind, id, initial); err != nil {
		return nil, false, err
	}
	return initial, true, nil
}

func (t *Txn) Delete(kind Kind, id string) (bool, error) {
	env, found, err := t.envelope(kind, id)
	if err != nil || !found {
		return false, err
	}
	if err = t.txn.Delete(orderKey(kind, env.Seq)); err != nil {
		return false, err
	}
	if err = t.txn.Delete(recordKey(kind, id)); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Txn) List(kind Kind, cursor *string, limit int) ([][]byte, *string, error) {
	if limit <= 0 {
		return nil, nil, fmt.Errorf("%w: limit must be positive, got %d", errors.ErrBadRequest, limit)
	}
	prefix := orderPrefix(kind)
	seek := prefix
	if cursor != nil {
		after, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, err
		}
		seek = orderKey(kind, after+1)
	}

	var ids []string
	var lastSeq string
	hasMore := false
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	it := t.txn.NewIterator(options)
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		if len(ids) == limit {
			hasMore = true
			break
		}
		item := it.Item()
		id, err := item.ValueCopy(nil)
		if err != nil {
			it.Close()
			return nil, nil, err
		}
		ids = append(ids, string(id))
		lastSeq = string(item.Key()[len(prefix):])
	}
	it.Close()

	items := make([][]byte, 0, len(ids))
	for _, id := range ids {
		data, found, err := t.Get(kind, id)
		if err != nil {
			return nil, nil, err
		}
		if !found {
			t.store.log.Warn("Order index points to a missing record", "kind", kind, "id", id)
			continue
		}
		items = append(items, data)
	}
	if !hasMore {
		return items, nil, nil
	}
	return items, &lastSeq, nil
}

// MarkSeeded sets the seed sentinel of kind and reports whether it was unset.
func (t *Txn) MarkSeeded(kind Kind) (bool, error) {
	_, found, err := t.raw(seedKey(kind))
	if err != nil || found {
		return false, err
	}
	return true, t.txn.Set(seedKey(kind), []byte{1})
}

// Append adds an entry to the log owned by owner. Entries are ordered by ts,
// then by insertion.
func (t *Txn) Append(kind Kind, owner string, ts int64, data []byte) error {
	if ts < 0 {
		return fmt.Errorf("%w: negative log timestamp %d", errors.ErrBadRequest, ts)
	}
	seq, err := t.store.nextSeq(kind)
	if err != nil {
		return err
	}
	return t.txn.Set(logKey(kind, owner, ts, seq), data)
}

// ReadLog returns every entry of the log owned by owner in order.
func (t *Txn) ReadLog(kind Kind, owner string) ([][]byte, error) {
	prefix := logPrefix(kind, owner)
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	it := t.txn.NewIterator(options)
	defer it.Close()

	entries := make([][]byte, 0)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		value, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		entries = append(entries, value)
	}
	return entries, nil
}

// DropLog deletes every entry of the log owned by owner and returns how many
// entries were removed.
func (t *Txn) DropLog(kind Kind, owner string) (int, error) {
	prefix := logPrefix(kind, owner)
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	options.PrefetchValues = false

	var keys [][]byte
	it := t.txn.NewIterator(options)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := t.txn.Delete(key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

func (t *Txn) insert(kind Kind, id string, data []byte) error {
	seq, err := t.store.nextSeq(kind)
	if err != nil {
		return err
	}
	if err = t.txn.Set(orderKey(kind, seq), []byte(id)); err != nil {
		return err
	}
	return t.writeEnvelope(kind, id, envelope{Seq: seq, Data: data})
}

func (t *Txn) envelope(kind Kind, id string) (envelope, bool, error) {
	raw, found, err := t.raw(recordKey(kind, id))
	if err != nil || !found {
		return envelope{}, false, err
	}
	var env envelope
	if err = json.Unmarshal(raw, &env); err != nil {
		return envelope{}, false, fmt.Errorf("%w: corrupted %s record %q: %v", errors.ErrStorage, kind, id, err)
	}
	return env, true, nil
}

func (t *Txn) writeEnvelope(kind Kind, id string, env envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return t.txn.Set(recordKey(kind, id), raw)
}

func (t *Txn) raw(key []byte) ([]byte, bool, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}
