package stack

import "errors"

// ErrNotFound reports a missing stack or compose document.
var ErrNotFound = errors.New("stack not found")

// ErrAlreadyExists reports an attempt to create a stack that already
// exists; New never merges into an existing directory.
var ErrAlreadyExists = errors.New("stack already exists")
