package errorutil

import "errors"

// ErrDataIntegrity is a base error type to use for failures that are due to
// unrecoverable data integrity issues.
var ErrDataIntegrity = errors.New("data integrity error")

// ErrConfiguration is a base error type for failures caused by a mismatch
// between how two inputs were produced, such as profiles collected with
// different measurement modes.
var ErrConfiguration = errors.New("configuration error")
