package storage

import "fmt"

// Error wraps a ledger storage fault. File absence on load is not an Error —
// that is a cold start. Everything else (permissions, malformed JSON, SQL
// faults) is, and aborts the run: proceeding with an empty ledger risks
// republishing duplicates.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &Error{Op: op, Err: err}
}
