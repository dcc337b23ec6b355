package roster

import (
	"strings"

	"github.com/trezcool/teampoints/core"
)

// RefKind tells how a StudentRef designates its student.
type RefKind int

const (
	RefByID RefKind = iota + 1
	RefByEmail
)

// StudentRef is an enrollment reference: a student id or an email, never both.
type StudentRef struct {
	Kind  RefKind
	ID    core.ID
	Email string
	Raw   string
}

// ParseStudentRef classifies a raw enrollment reference.
// Anything that parses as an id is a RefByID; the rest is treated as an email.
func ParseStudentRef(raw string) (StudentRef, bool) {
	raw = core.CleanString(raw)
	if raw == "" {
		return StudentRef{}, false
	}
	if id, ok := core.ParseID(raw); ok {
		return StudentRef{Kind: RefByID, ID: id, Raw: raw}, true
	}
	return StudentRef{Kind: RefByEmail, Email: strings.ToLower(raw), Raw: raw}, true
}
