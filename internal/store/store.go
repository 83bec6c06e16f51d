// Package store implements the chain store contract of SPEC_FULL.md §4.3:
// init(path) exactly once, read() the whole chain, write(chain) to
// atomically replace it. It is grounded on the teacher's
// blockchain/blockchain.go (InitBlockChain, openDB/retry lock handling)
// but narrowed from a multi-key block database (one badger key per block
// hash, plus a persisted "utxo-" prefixed index) down to a single
// snapshot key, because SPEC_FULL.md §3/§9 is explicit that the chain is
// the sole source of truth and no separate index is persisted.
package store

import (
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/kilimbaDaniel/ledgerd/internal/codec"
	"github.com/kilimbaDaniel/ledgerd/internal/model"
	"github.com/kilimbaDaniel/ledgerd/internal/xerrors"
)

// snapshotKey is the single badger key the whole canonical chain encoding
// lives under.
var snapshotKey = []byte("chain-snapshot")

// Store is a handle to one initialized chain store.
type Store struct {
	db   *badger.DB
	path string
}

// Init opens (creating if necessary) the badger database at path and
// returns a Store. It fails with a StoreError if a store has already been
// initialized at this path in the current process — mirroring
// original_source/database.py's init_database, which raises
// "Database path has already been set !" on a second call.
func Init(path string) (*Store, error) {
	if _, err := os.Stat(lockMarker(path)); err == nil {
		return nil, &xerrors.StoreError{Reason: "store already initialized at " + path}
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := openWithRetry(opts)
	if err != nil {
		return nil, &xerrors.StoreError{Reason: "opening chain database", Err: err}
	}

	if err := os.WriteFile(lockMarker(path), []byte("1"), 0o600); err != nil {
		_ = db.Close()
		return nil, &xerrors.StoreError{Reason: "writing init marker", Err: err}
	}

	return &Store{db: db, path: path}, nil
}

func lockMarker(path string) string { return path + "/.ledgerd-initialized" }

// openWithRetry mirrors the teacher's blockchain.go retry() helper: a
// badger LOCK file left behind by an unclean shutdown of a previous
// process is removed once, and the open is retried, rather than failing
// startup outright.
func openWithRetry(opts badger.Options) (*badger.DB, error) {
	db, err := badger.Open(opts)
	if err != nil && needsLockRemoval(err) {
		if removeErr := os.Remove(opts.Dir + "/LOCK"); removeErr == nil {
			return badger.Open(opts)
		}
	}
	return db, err
}

func needsLockRemoval(err error) bool {
	return err != nil && isLockError(err)
}

func isLockError(err error) bool {
	// badger returns a plain *os.PathError wrapping syscall.EAGAIN/EWOULDBLOCK
	// when LOCK is already held by a dead process; string-matching its
	// "Resource temporarily unavailable"/"already locked" text is the same
	// heuristic the teacher's retry() used.
	msg := err.Error()
	return strings.Contains(msg, "Resource temporarily unavailable") || strings.Contains(msg, "already locked")
}

// Read returns the currently persisted chain. It fails with a StoreError
// if no snapshot has ever been written.
func (s *Store) Read() (model.Chain, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, &xerrors.StoreError{Reason: "no chain snapshot persisted", Err: err}
	}
	chain, err := codec.DecodeChain(raw)
	if err != nil {
		return nil, &xerrors.StoreError{Reason: "decoding persisted chain", Err: err}
	}
	return chain, nil
}

// Write atomically replaces the persisted chain snapshot with chain.
func (s *Store) Write(chain model.Chain) error {
	raw, err := codec.EncodeChain(chain)
	if err != nil {
		return &xerrors.StoreError{Reason: "encoding chain", Err: err}
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey, raw)
	})
	if err != nil {
		return &xerrors.StoreError{Reason: "writing chain snapshot", Err: err}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
