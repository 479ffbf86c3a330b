// Package badgerstore provides a mediator.Backend that persists message
// records in BadgerDB.
package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/bjaus/mediator"
)

const prefix = "rec:"

// Backend stores records in BadgerDB. It implements mediator.Backend.
type Backend struct {
	db    *badger.DB
	owned bool
}

var _ mediator.Backend = (*Backend)(nil)

// Open opens (or creates) a database at path. An empty path opens an
// in-memory database. Badger's own logging goes to log at the matching
// levels; pass nil to silence it.
func Open(path string, log *slog.Logger) (*Backend, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	if log != nil {
		opts = opts.WithLogger(badgerLogger{log: log})
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return &Backend{db: db, owned: true}, nil
}

// New wraps an already open database. Close leaves it open.
func New(db *badger.DB) *Backend {
	return &Backend{db: db}
}

// key orders records by time. The timestamp is zero-padded to 19 digits so
// lexicographical order is chronological; the id separates records created
// in the same nanosecond.
func key(r mediator.Record) []byte {
	return fmt.Appendf(nil, "%s%019d:%s", prefix, r.At.UnixNano(), r.ID)
}

// Append implements mediator.Backend.
func (b *Backend) Append(_ context.Context, r mediator.Record) error {
	val, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", r.ID, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(r), val)
	})
}

// Scan implements mediator.Backend. Records are visited oldest first.
func (b *Backend) Scan(ctx context.Context, fn func(mediator.Record) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r mediator.Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return fmt.Errorf("decode record %s: %w", it.Item().Key(), err)
			}
			if err := fn(r); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len counts stored records.
func (b *Backend) Len(ctx context.Context) (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// Close implements mediator.Backend. A database passed to New is left open.
func (b *Backend) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}

// badgerLogger routes Badger's printf-style logging to slog.
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
