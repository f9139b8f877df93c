package storage

import (
	"encoding/json"
	"fmt"

	"chat-sync/errors"

	"github.com/go-playground/validator/v10"
)

// Log is an append-only sequence of entries owned by a single record.
// Entries are ordered by timestamp and, for equal timestamps, by insertion.
// The owner is responsible for dropping its log when it is deleted.
type Log[T Entity] struct {
	store    *Store
	kind     Kind
	validate *validator.Validate
}

func NewLog[T Entity](store *Store, kind Kind, validate *validator.Validate) *Log[T] {
	return &Log[T]{store: store, kind: kind, validate: validate}
}

func (l *Log[T]) AppendTx(txn *Txn, owner string, ts int64, entry T) error {
	if err := l.validate.Struct(entry); err != nil {
		return fmt.Errorf("%w: invalid %s entry: %v", errors.ErrBadRequest, l.kind, err)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return txn.Append(l.kind, owner, ts, data)
}

func (l *Log[T]) List(owner string) (entries []T, err error) {
	err = l.store.View(func(txn *Txn) error {
		entries, err = l.ListTx(txn, owner)
		return err
	})
	return entries, err
}

func (l *Log[T]) ListTx(txn *Txn, owner string) ([]T, error) {
	raws, err := txn.ReadLog(l.kind, owner)
	if err != nil {
		return nil, err
	}
	entries := make([]T, 0, len(raws))
	for _, raw := range raws {
		var entry T
		if err = json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("%w: corrupted %s entry: %v", errors.ErrStorage, l.kind, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *Log[T]) DropTx(txn *Txn, owner string) (int, error) {
	return txn.DropLog(l.kind, owner)
}
