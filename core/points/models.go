package points

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/roster"
)

// PointsPerMember is what an average teammate receives from one rater.
const PointsPerMember = 10

type Status string

// Event statuses
const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"

	// DisplayPastDue is shown instead of Open once the due date has passed. It is never stored.
	DisplayPastDue = "Past Due"
)

// Event is one Team Points round for one project. Its roster is fixed at creation.
type Event struct {
	ID        core.ID        `json:"id"`
	CourseID  string         `json:"courseId"` // course number
	ProjectID core.ID        `json:"projectId"`
	Status    Status         `json:"status"`
	DueDate   null.Time      `json:"dueDate"`
	Roster    []roster.Entry `json:"roster"`
	CreatedAt time.Time      `json:"createdAt"` // UTC
	ClosedAt  null.Time      `json:"closedAt"`  // UTC
}

func (ev Event) IsOpen() bool { return ev.Status == StatusOpen }

func (ev Event) TeamSize() int { return len(ev.Roster) }

// ExpectedTotal is the exact number of points every submission must hand out.
func (ev Event) ExpectedTotal() int { return ev.TeamSize() * PointsPerMember }

func (ev Event) PastDue(now time.Time) bool {
	return ev.DueDate.Valid && now.After(ev.DueDate.Time)
}

// DisplayStatus is the status readers see: an Open event past its due date reads "Past Due".
func (ev Event) DisplayStatus(now time.Time) string {
	if ev.IsOpen() && ev.PastDue(now) {
		return DisplayPastDue
	}
	return string(ev.Status)
}

func (ev Event) InRoster(studentID core.ID) bool {
	_, ok := ev.RosterEntry(studentID)
	return ok
}

func (ev Event) RosterEntry(studentID core.ID) (roster.Entry, bool) {
	for _, e := range ev.Roster {
		if e.StudentID == studentID {
			return e, true
		}
	}
	return roster.Entry{}, false
}

type Rating struct {
	RateeID core.ID `json:"rateeId"`
	Points  int     `json:"points"`
}

// Submission is one rater's allocation for one event. It is never updated nor deleted.
type Submission struct {
	ID          core.ID   `json:"id"`
	EventID     core.ID   `json:"eventId"`
	RaterID     core.ID   `json:"raterId"`
	Ratings     []Rating  `json:"ratings"`
	TotalPoints int       `json:"totalPoints"`
	SubmittedAt time.Time `json:"submittedAt"` // UTC
}

// ScalingFactor is one student's settlement result for one closed event.
// (EventID, StudentID) is its natural key.
type ScalingFactor struct {
	ID            core.ID   `json:"id"`
	EventID       core.ID   `json:"eventId"`
	StudentID     core.ID   `json:"studentId"`
	TotalReceived int       `json:"totalReceived"`
	TeamSize      int       `json:"teamSize"`
	ScalingFactor float64   `json:"scalingFactor"`
	ComputedAt    time.Time `json:"computedAt"` // UTC
}
