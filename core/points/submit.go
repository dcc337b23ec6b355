package points

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/roster"
)

type (
	// NewSubmission is a rater's allocation as received from the outside world.
	// Points are kept as nullable floats so that absent or fractional values can be rejected with a proper message.
	NewSubmission struct {
		EventID string      `json:"eventId" validate:"required"`
		Ratings []NewRating `json:"ratings" validate:"required,dive"`
	}

	NewRating struct {
		RateeID string       `json:"rateeId" validate:"required"`
		Points  null.Float64 `json:"points"`
	}
)

// Submit validates and records the caller's allocation for an Open event.
// Checks run in a fixed order and the first failing one is reported.
func (svc *Service) Submit(ctx context.Context, caller core.Caller, courseNumber, rawProjectID string, ns NewSubmission) (Submission, error) {
	// 1. rater
	rater, err := svc.Rater(ctx, caller)
	if err != nil {
		return Submission{}, err
	}

	// 2. event, under the addressed project
	_, project, err := svc.roster.CourseProject(ctx, courseNumber, rawProjectID)
	if err != nil {
		return Submission{}, err
	}
	eventID, ok := core.ParseID(ns.EventID)
	if !ok {
		return Submission{}, ErrEventNotFound
	}
	ev, err := svc.store.GetEvent(ctx, eventID)
	if err != nil {
		return Submission{}, err
	}
	if ev.ProjectID != project.ID {
		return Submission{}, ErrEventProjectMismatch
	}

	// 3-4. lifecycle
	if !ev.IsOpen() {
		return Submission{}, ErrNotOpenForSubmission
	}
	t := now()
	if ev.PastDue(t) {
		return Submission{}, ErrDueDatePassed
	}

	// 5. advisory duplicate check
	if _, err = svc.store.GetSubmission(ctx, ev.ID, rater.ID); err == nil {
		return Submission{}, ErrDuplicateSubmission
	} else if !errors.Is(err, ErrSubmissionNotFound) {
		return Submission{}, err
	}

	// 6. roster membership
	if !ev.InRoster(rater.ID) {
		return Submission{}, ErrNotInRoster
	}

	ratings, total, err := validateRatings(ev, ns.Ratings)
	if err != nil {
		return Submission{}, err
	}

	return svc.store.CreateSubmission(ctx, Submission{
		ID:          core.NewID(),
		EventID:     ev.ID,
		RaterID:     rater.ID,
		Ratings:     ratings,
		TotalPoints: total,
		SubmittedAt: t,
	})
}

// Rater resolves the student record of the caller about to submit.
func (svc *Service) Rater(ctx context.Context, caller core.Caller) (roster.Student, error) {
	rater, err := svc.roster.Student(ctx, caller.ID)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return roster.Student{}, ErrRaterNotFound
		}
		return roster.Student{}, err
	}
	return rater, nil
}

// validateRatings checks that the ratings cover the event roster exactly and hand out exactly the expected total.
// Ratings are returned in roster order.
func validateRatings(ev Event, in []NewRating) ([]Rating, int, error) {
	teamSize := ev.TeamSize()

	// 7. cardinality
	if len(in) != teamSize {
		return nil, 0, core.BadRequest("expected %d ratings (one per team member), got %d", teamSize, len(in))
	}

	// 8. coverage
	byRatee := make(map[core.ID]null.Float64, len(in))
	for _, r := range in {
		if id, ok := core.ParseID(r.RateeID); ok {
			byRatee[id] = r.Points
		}
	}
	for _, e := range ev.Roster {
		if _, ok := byRatee[e.StudentID]; !ok {
			return nil, 0, core.BadRequest("missing rating for team member %s", memberName(e))
		}
	}

	// 9. non-negative integers
	ratings := make([]Rating, 0, teamSize)
	var total int
	for _, e := range ev.Roster {
		v := byRatee[e.StudentID]
		if !v.Valid {
			return nil, 0, core.BadRequest("points must be non-negative integers (missing for %s)", memberName(e))
		}
		p := v.Float64
		if p < 0 || p != math.Trunc(p) || p > math.MaxInt32 {
			return nil, 0, core.BadRequest("points must be non-negative integers (got %v for %s)", p, memberName(e))
		}
		ratings = append(ratings, Rating{RateeID: e.StudentID, Points: int(p)})
		total += int(p)
	}

	// 10. exact total
	if expected := ev.ExpectedTotal(); total != expected {
		return nil, 0, core.BadRequest("total points must equal %d (%d team members x %d), got %d", expected, teamSize, PointsPerMember, total)
	}
	return ratings, total, nil
}

func memberName(e roster.Entry) string {
	if e.StudentName != "" {
		return e.StudentName
	}
	return e.StudentID.String()
}
