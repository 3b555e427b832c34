package databases

import "errors"

// ErrNotFound is wrapped by clients and repositories when a lookup matches
// nothing.
var ErrNotFound = errors.New("no document found")
