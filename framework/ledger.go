package framework

import (
	"fmt"
	"sync"
)

// Ledger records the location of every resource a test has created in the service under test,
// so that all of them can be deleted when the test ends. Locations are kept in the order they
// were added, and Drain deletes them in that same order.
type Ledger struct {
	pending []string
	lock    sync.Mutex
}

// Append adds a location to the set of pending deletions.
func (l *Ledger) Append(location string) {
	l.lock.Lock()
	l.pending = append(l.pending, location)
	l.lock.Unlock()
}

// Len returns the number of pending deletions.
func (l *Ledger) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.pending)
}

// Pending returns a copy of the pending locations, oldest first.
func (l *Ledger) Pending() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string(nil), l.pending...)
}

func (l *Ledger) removeFirst() (string, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if len(l.pending) == 0 {
		return "", false
	}
	first := l.pending[0]
	l.pending = l.pending[1:]
	return first, true
}

// Drain removes every location from the ledger, oldest first, calling deleteFn for each one.
// Only one deletion is in progress at a time. A failed deletion is logged and then skipped;
// it is never retried and does not stop the remaining locations from being deleted. Drain
// returns only when the ledger is empty, and reports the deletions that failed.
func (l *Ledger) Drain(deleteFn func(location string) error, logger Logger) []error {
	if logger == nil {
		logger = NullLogger()
	}
	var failures []error
	for {
		location, ok := l.removeFirst()
		if !ok {
			return failures
		}
		if err := deleteFn(location); err != nil {
			logger.Printf("Cleanup of %s failed: %s", location, err)
			failures = append(failures, fmt.Errorf("cleanup of %s: %w", location, err))
		}
	}
}
