package points

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/teampoints/core"
)

var (
	// errors
	ErrEventNotFound        = core.NotFound("event not found")
	ErrSubmissionNotFound   = core.NotFound("submission not found")
	ErrRaterNotFound        = core.NotFound("rater not found")
	ErrOpenEventExists      = core.Conflict("an open event already exists for this project; close the existing one first")
	ErrDuplicateSubmission  = core.Conflict("you have already submitted for this event")
	ErrEventClosed          = core.InvalidState("event is already closed")
	ErrEventNotClosed       = core.InvalidState("event is not closed")
	ErrNotOpenForSubmission = core.InvalidState("event is not open for submissions")
	ErrDueDatePassed        = core.InvalidState("the due date for this event has passed")
	ErrNoStudents           = core.InvalidState("a project has no students assigned")
	ErrEventProjectMismatch = core.BadRequest("event does not belong to this project")
	ErrNotInRoster          = core.Forbidden("you are not on this event's roster")
	ErrDueDateNotFuture     = core.NewValidationError(
		errors.New("invalid due date"),
		core.FieldError{Field: "dueDate", Error: "due date must be in the future"},
	)
)

// Store persists events, submissions and scaling factors.
//
// Implementations must enforce, at the storage level:
//   - at most one Open event per project (CreateEvent fails with ErrOpenEventExists);
//   - at most one submission per (event, rater) (CreateSubmission fails with ErrDuplicateSubmission).
type Store interface {
	// RunInTx runs fn against a transactional view of the store.
	// Everything fn writes becomes visible at once, or not at all if fn fails.
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	CreateEvent(ctx context.Context, ev Event) (Event, error)
	GetEvent(ctx context.Context, id core.ID) (Event, error)
	// GetOpenEvent returns ErrEventNotFound when the project has no Open event.
	GetOpenEvent(ctx context.Context, projectID core.ID) (Event, error)
	// ListEvents returns the project events, newest first.
	ListEvents(ctx context.Context, projectID core.ID) ([]Event, error)
	// CloseEvent moves an Open event to Closed; it fails with ErrEventClosed if the event is not Open.
	CloseEvent(ctx context.Context, id core.ID, closedAt time.Time) (Event, error)

	CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
	GetSubmission(ctx context.Context, eventID, raterID core.ID) (Submission, error)
	ListSubmissions(ctx context.Context, eventID core.ID) ([]Submission, error)
	CountSubmissions(ctx context.Context, eventIDs []core.ID) (map[core.ID]int, error)

	// ReplaceScalingFactors deletes the event's scaling factors and stores the given ones.
	ReplaceScalingFactors(ctx context.Context, eventID core.ID, factors []ScalingFactor) error
	ListScalingFactors(ctx context.Context, eventIDs []core.ID) ([]ScalingFactor, error)
}
