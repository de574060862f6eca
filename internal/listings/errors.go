package listings

import "errors"

// ErrDuplicateKey reports a create whose Food_ID already exists.
var ErrDuplicateKey = errors.New("duplicate food id")

// ErrNotFound reports an update or delete on a missing Food_ID.
var ErrNotFound = errors.New("listing not found")

// ErrValidation reports a listing or quantity that breaks a field rule.
var ErrValidation = errors.New("invalid listing")
