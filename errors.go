package sloth

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by single-record lookups of stores built on this
// package.
var ErrNotFound = errors.New("record not found")

// ConfigError reports invalid construction or call arguments. It is never
// caused by the state of a store or cache.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a failure of the Content Store or the Cache. Nothing in
// this package retries it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func configErr(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
