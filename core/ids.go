package core

import (
	"github.com/google/uuid"
)

// ID identifies any stored entity. Only ParseID and NewID produce one from the outside world.
type ID string

// NewID returns a fresh random identifier.
func NewID() ID {
	return ID(uuid.New().String())
}

// ParseID validates an externally supplied identifier and normalizes it.
func ParseID(raw string) (ID, bool) {
	u, err := uuid.Parse(CleanString(raw))
	if err != nil {
		return "", false
	}
	return ID(u.String()), true
}

// MustParseID is ParseID for trusted input (tests, fixtures); it panics on malformed ids.
func MustParseID(raw string) ID {
	id, ok := ParseID(raw)
	if !ok {
		panic("core: malformed id " + raw)
	}
	return id
}

func (id ID) String() string { return string(id) }
