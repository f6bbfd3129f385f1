package domain

import "errors"

// ErrInvalidQuery is returned by stores when asked to address a label,
// attribute or edge type they do not support.
var ErrInvalidQuery = errors.New("invalid graph query")
