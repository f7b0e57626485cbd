package store

import "errors"

// Store is the durable key-value substrate shared by the risk guard and the
// ledger. Each Get/Set/Delete is atomic for a single key; nothing above this
// interface may assume cross-key transactions.
//
// A missing key is not an error: Get reports it with ok == false.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("store closed")
