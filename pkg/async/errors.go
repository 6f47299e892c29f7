package async

import "errors"

// ErrTimeout is the conventional resolution for a Future whose deadline passed.
var ErrTimeout = errors.New("async: timeout")
