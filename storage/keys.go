package storage

import (
	"fmt"
	"strconv"

	"chat-sync/errors"
)

// Kind names a family of records sharing a key space.
type Kind string

const (
	KindUser    Kind = "user"
	KindChat    Kind = "chat"
	KindMessage Kind = "msg"
)

// Key layout:
//
//	e:{kind}:{id}                          record envelope
//	o:{kind}:{seq}                         insertion order index -> id
//	l:{kind}:{owner}:{ts}:{seq}            owned log entry
//	s:{kind}                               seed sentinel
//	q:{kind}                               badger sequence backing {seq}
//
// seq is zero padded to 20 digits and ts to 19 digits so that the
// lexicographical order of badger keys is the numerical order.
func recordKey(kind Kind, id string) []byte {
	return []byte(fmt.Sprintf("e:%s:%s", kind, id))
}

func orderPrefix(kind Kind) []byte {
	return []byte(fmt.Sprintf("o:%s:", kind))
}

func orderKey(kind Kind, seq uint64) []byte {
	return []byte(fmt.Sprintf("o:%s:%s", kind, formatSeq(seq)))
}

func logPrefix(kind Kind, owner string) []byte {
	return []byte(fmt.Sprintf("l:%s:%s:", kind, owner))
}

func logKey(kind Kind, owner string, ts int64, seq uint64) []byte {
	return []byte(fmt.Sprintf("l:%s:%s:%019d:%s", kind, owner, ts, formatSeq(seq)))
}

func seedKey(kind Kind) []byte {
	return []byte(fmt.Sprintf("s:%s", kind))
}

func sequenceKey(kind Kind) []byte {
	return []byte(fmt.Sprintf("q:%s", kind))
}

func formatSeq(seq uint64) string {
	return fmt.Sprintf("%020d", seq)
}

// parseCursor turns a listing cursor back into the sequence it encodes.
func parseCursor(cursor string) (uint64, error) {
	if len(cursor) != 20 {
		return 0, fmt.Errorf("%w: malformed cursor %q", errors.ErrBadRequest, cursor)
	}
	seq, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed cursor %q", errors.ErrBadRequest, cursor)
	}
	return seq, nil
}
