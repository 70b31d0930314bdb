package store

import (
	"fmt"

	"github.com/gofrs/flock"
)

// WriterLock guards a store directory against concurrent indexer
// invocations from two separate processes; SQLite's own locking handles
// readers/writer within that constraint once only one indexer holds this.
type WriterLock struct {
	fl *flock.Flock
}

// AcquireWriterLock takes an exclusive, non-blocking lock on lockPath
// (conventionally <store-dir>/.write.lock). Returns an error if another
// process already holds it.
func AcquireWriterLock(lockPath string) (*WriterLock, error) {
	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire writer lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("index is already being written by another process")
	}
	return &WriterLock{fl: fl}, nil
}

// Release drops the lock.
func (w *WriterLock) Release() error {
	return w.fl.Unlock()
}
