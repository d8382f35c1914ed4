// Package repository defines the store contracts for users, restaurants
// and bookings together with their MySQL implementations.  The sentinel
// errors below are shared by every store implementation so handlers can
// distinguish failure scenarios without knowing which backend is in use.
package repository

import "errors"

// ErrNotFound is returned when a record with the requested key does not
// exist.  Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned by UserStore.Create when the username is
// already registered.  Handlers should translate this into an HTTP 409.
var ErrUsernameTaken = errors.New("username already exists")

// ErrStatusConflict is returned by BookingStore.UpdateStatus when the
// booking is no longer in the expected state.
var ErrStatusConflict = errors.New("status conflict")
