// Package repository persists accounts.  Every implementation satisfies
// AccountStore and guarantees that Update is an atomic read-modify-write, so
// a single-use token can only be consumed by one of several concurrent
// callers.
package repository

import "errors"

// ErrNotFound is returned when no account matches the lookup.  Handlers
// never see it directly; the service maps it to its own error kinds.
var ErrNotFound = errors.New("account not found")

// ErrEmailExists is returned by Create when the email is already taken.
var ErrEmailExists = errors.New("email already exists")
