package service

import "fmt"

// StoreError reports a backend failure during a service operation.
// Validation failures never produce a StoreError.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("tether: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
