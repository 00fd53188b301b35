package reminder

import "errors"

// ErrEntityNotFound means the entity was deleted or deactivated between enumeration
// and firing. Callers skip it.
var ErrEntityNotFound = errors.New("reminder entity not found")
