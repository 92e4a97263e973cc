// Package repository holds direct database access for the terminal. Sentinel
// errors live here so handlers can map failures to HTTP statuses without
// inspecting driver error strings themselves.
package repository

import "errors"

// ErrEmailExists is returned when registration hits the unique email key.
// Handlers translate it into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a lookup matches no row. Handlers translate
// it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")
