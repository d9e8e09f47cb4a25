// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// leaking SQL details upward. Lookups that find nothing return
// ErrNotFound rather than a driver error so that "absent" stays an
// ordinary outcome, not an exception.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row. Handlers
// translate it into 404 (or into the deliberately vague 401 on the
// credential paths).
var ErrNotFound = errors.New("not found")

// ErrNameExists is returned when a user insert or rename collides with
// the unique name constraint. Handlers translate it into HTTP 409.
var ErrNameExists = errors.New("name already exists")

// ErrDuplicateToken is returned when a refresh-token insert collides
// with the unique hash constraint. With 48 bytes of entropy this is
// astronomically unlikely, but it must be surfaced, not swallowed.
var ErrDuplicateToken = errors.New("duplicate refresh token hash")

// ErrAlreadyMigrated is returned when a legacy password reset is
// attempted on an account that already has a password hash set.
// Handlers translate it into HTTP 400.
var ErrAlreadyMigrated = errors.New("account already migrated")
