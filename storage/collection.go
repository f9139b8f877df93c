package storage

import (
	"encoding/json"
	"fmt"

	"chat-sync/domain"
	"chat-sync/errors"

	"github.com/go-playground/validator/v10"
)

// Entity is the closed set of record types the store accepts.
type Entity interface {
	domain.User | domain.Chat | domain.ChatMessage
	EntityID() string
}

// Collection is the typed view of one Kind. Every record is validated against
// its schema before it reaches badger, so a malformed record is rejected as
// ErrBadRequest instead of being persisted.
type Collection[T Entity] struct {
	store    *Store
	kind     Kind
	validate *validator.Validate
}

func NewCollection[T Entity](store *Store, kind Kind, validate *validator.Validate) *Collection[T] {
	return &Collection[T]{store: store, kind: kind, validate: validate}
}

func (c *Collection[T]) Kind() Kind {
	return c.kind
}

func (c *Collection[T]) Get(id string) (record T, found bool, err error) {
	err = c.store.View(func(txn *Txn) error {
		record, found, err = c.GetTx(txn, id)
		return err
	})
	return record, found, err
}

func (c *Collection[T]) Put(record T) error {
	return c.store.Update(func(txn *Txn) error {
		return c.PutTx(txn, record)
	})
}

func (c *Collection[T]) CreateIfAbsent(record T) (stored T, created bool, err error) {
	err = c.store.Update(func(txn *Txn) error {
		stored, created, err = c.CreateIfAbsentTx(txn, record)
		return err
	})
	return stored, created, err
}

func (c *Collection[T]) Delete(id string) (deleted bool, err error) {
	err = c.store.Update(func(txn *Txn) error {
		deleted, err = c.DeleteTx(txn, id)
		return err
	})
	return deleted, err
}

// DeleteMany removes every listed record in one transaction and returns how
// many of them existed.
func (c *Collection[T]) DeleteMany(ids []string) (count int, err error) {
	err = c.store.Update(func(txn *Txn) error {
		count = 0
		for _, id := range ids {
			deleted, err := c.DeleteTx(txn, id)
			if err != nil {
				return err
			}
			if deleted {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (c *Collection[T]) List(cursor *string, limit int) (domain.Page[T], error) {
	raws, next, err := c.store.List(c.kind, cursor, limit)
	if err != nil {
		return domain.Page[T]{}, err
	}
	items := make([]T, 0, len(raws))
	for _, raw := range raws {
		record, err := c.decode(raw)
		if err != nil {
			return domain.Page[T]{}, err
		}
		items = append(items, record)
	}
	return domain.Page[T]{Items: items, Next: next}, nil
}

// EnsureSeed writes records the first time it is called for this kind.
func (c *Collection[T]) EnsureSeed(records []T) (bool, error) {
	seeds := make([]Seed, 0, len(records))
	for _, record := range records {
		data, err := c.encode(record)
		if err != nil {
			return false, err
		}
		seeds = append(seeds, Seed{ID: record.EntityID(), Data: data})
	}
	return c.store.EnsureSeed(c.kind, seeds)
}

func (c *Collection[T]) GetTx(txn *Txn, id string) (T, bool, error) {
	var zero T
	raw, found, err := txn.Get(c.kind, id)
	if err != nil || !found {
		return zero, false, err
	}
	record, err := c.decode(raw)
	if err != nil {
		return zero, false, err
	}
	return record, true, nil
}

func (c *Collection[T]) PutTx(txn *Txn, record T) error {
	data, err := c.encode(record)
	if err != nil {
		return err
	}
	return txn.Put(c.kind, record.EntityID(), data)
}

func (c *Collection[T]) CreateIfAbsentTx(txn *Txn, record T) (T, bool, error) {
	var zero T
	data, err := c.encode(record)
	if err != nil {
		return zero, false, err
	}
	raw, created, err := txn.CreateIfAbsent(c.kind, record.EntityID(), data)
	if err != nil {
		return zero, false, err
	}
	if created {
		return record, true, nil
	}
	existing, err := c.decode(raw)
	return existing, false, err
}

func (c *Collection[T]) DeleteTx(txn *Txn, id string) (bool, error) {
	return txn.Delete(c.kind, id)
}

func (c *Collection[T]) encode(record T) ([]byte, error) {
	if err := c.validate.Struct(record); err != nil {
		return nil, fmt.Errorf("%w: invalid %s record: %v", errors.ErrBadRequest, c.kind, err)
	}
	return json.Marshal(record)
}

func (c *Collection[T]) decode(raw []byte) (T, error) {
	var record T
	if err := json.Unmarshal(raw, &record); err != nil {
		return record, fmt.Errorf("%w: corrupted %s record: %v", errors.ErrStorage, c.kind, err)
	}
	return record, nil
}
