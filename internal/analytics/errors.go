package analytics

import "errors"

// ErrDataIntegrity is returned when a snapshot violates a ledger invariant,
// such as a loan due before it was checked out or a fine pointing at a
// patron that does not exist. The whole report build is aborted.
var ErrDataIntegrity = errors.New("data integrity violation")

// ErrInvalidAsOf is returned when the reference instant is unusable
var ErrInvalidAsOf = errors.New("invalid as-of instant")
