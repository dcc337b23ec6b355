package roster

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/teampoints/core"
)

// Resolve finds the student a reference designates.
// Email references that match no student fall back to an id lookup with the raw value,
// since some legacy enrollments store ids in a format ParseStudentRef does not recognize.
func Resolve(ctx context.Context, lookup StudentLookup, ref StudentRef) (Student, error) {
	switch ref.Kind {
	case RefByID:
		return lookup.GetStudentByID(ctx, ref.ID)
	case RefByEmail:
		s, err := lookup.GetStudentByEmail(ctx, ref.Email)
		if core.KindOf(err) == core.KindNotFound {
			return lookup.GetStudentByID(ctx, core.ID(ref.Raw))
		}
		return s, err
	default:
		return Student{}, ErrStudentNotFound
	}
}

// BuildSnapshot materializes an event roster from a project's enrollment references, in order.
// References that resolve to no student are dropped, as are repeated students;
// only storage failures abort the build.
func BuildSnapshot(ctx context.Context, lookup StudentLookup, refs []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(refs))
	seen := make(map[core.ID]bool, len(refs))

	for _, raw := range refs {
		ref, ok := ParseStudentRef(raw)
		if !ok {
			continue
		}
		s, err := Resolve(ctx, lookup, ref)
		if err != nil {
			if core.KindOf(err) == core.KindNotFound {
				continue
			}
			return nil, errors.Wrapf(err, "resolving student %q", ref.Raw)
		}
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		entries = append(entries, NewEntry(s))
	}
	return entries, nil
}
