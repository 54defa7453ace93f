package classifications

import "errors"

// ErrOrphaned indicates a record references a message that does not exist.
var ErrOrphaned = errors.New("classification references an unknown message")
