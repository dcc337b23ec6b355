package points

import (
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/roster"
)

type (
	// EventView is an Event as shown to readers: Status carries the display status.
	EventView struct {
		ID        core.ID        `json:"id"`
		CourseID  string         `json:"courseId"`
		ProjectID core.ID        `json:"projectId"`
		Status    string         `json:"status"`
		DueDate   null.Time      `json:"dueDate"`
		Roster    []roster.Entry `json:"roster"`
		CreatedAt time.Time      `json:"createdAt"`
		ClosedAt  null.Time      `json:"closedAt"`
	}

	// OpenEvent is what a student sees of a project's current round. Event is nil when no round is open.
	OpenEvent struct {
		Event        *EventView `json:"event"`
		HasSubmitted bool       `json:"hasSubmitted"`
		SubmissionID *core.ID   `json:"submissionId"`
	}

	EventSummary struct {
		EventView
		RosterSize      int `json:"rosterSize"`
		SubmissionCount int `json:"submissionCount"`
		// TotalExpected is the number of points each submission hands out.
		TotalExpected int `json:"totalExpected"`
	}

	ScalingFactorView struct {
		StudentID     core.ID `json:"studentId"`
		StudentEmail  string  `json:"studentEmail"`
		StudentName   string  `json:"studentName"`
		TotalReceived int     `json:"totalReceived"`
		TeamSize      int     `json:"teamSize"`
		ScalingFactor float64 `json:"scalingFactor"`
	}

	EventScalingFactors struct {
		EventID        core.ID             `json:"eventId"`
		EventClosedAt  null.Time           `json:"eventClosedAt"`
		ScalingFactors []ScalingFactorView `json:"scalingFactors"`
	}

	StudentScalingFactor struct {
		EventID       core.ID   `json:"eventId"`
		EventClosedAt null.Time `json:"eventClosedAt"`
		TotalReceived int       `json:"totalReceived"`
		TeamSize      int       `json:"teamSize"`
		ScalingFactor float64   `json:"scalingFactor"`
	}

	StudentScalingFactors struct {
		Student        roster.Entry           `json:"student"`
		ScalingFactors []StudentScalingFactor `json:"scalingFactors"`
	}
)

func NewEventView(ev Event, now time.Time) EventView {
	return EventView{
		ID:        ev.ID,
		CourseID:  ev.CourseID,
		ProjectID: ev.ProjectID,
		Status:    ev.DisplayStatus(now),
		DueDate:   ev.DueDate,
		Roster:    ev.Roster,
		CreatedAt: ev.CreatedAt,
		ClosedAt:  ev.ClosedAt,
	}
}

func NewScalingFactorView(ev Event, sf ScalingFactor) ScalingFactorView {
	entry, _ := ev.RosterEntry(sf.StudentID)
	return ScalingFactorView{
		StudentID:     sf.StudentID,
		StudentEmail:  entry.StudentEmail,
		StudentName:   entry.StudentName,
		TotalReceived: sf.TotalReceived,
		TeamSize:      sf.TeamSize,
		ScalingFactor: sf.ScalingFactor,
	}
}

func sortByClosedAtDesc(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ClosedAt.Time.After(events[j].ClosedAt.Time)
	})
}
