package points

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/teampoints/core"
)

// scalingFactorNS namespaces the ids derived from a scaling factor's natural key.
var scalingFactorNS = uuid.MustParse("8e0f7a52-3c1d-4b7e-9a65-2f4d1c0b9e31")

// ScalingFactorID derives the row id from (eventID, studentID), so re-settling yields identical rows.
func ScalingFactorID(eventID, studentID core.ID) core.ID {
	return core.ID(uuid.NewSHA1(scalingFactorNS, []byte(eventID.String()+"/"+studentID.String())).String())
}

// Settle turns an event's submissions into one scaling factor per roster member, in roster order.
//
// Every roster member who did not submit is treated as having given each member,
// themselves included, PointsPerMember points. Ratings of students outside the roster
// and submissions of other events are ignored.
func Settle(ev Event, subs []Submission, computedAt time.Time) []ScalingFactor {
	totals := make(map[core.ID]int, len(ev.Roster))
	for _, e := range ev.Roster {
		totals[e.StudentID] = 0
	}

	submitted := make(map[core.ID]bool, len(subs))
	for _, sub := range subs {
		if sub.EventID != ev.ID {
			continue
		}
		submitted[sub.RaterID] = true
		for _, r := range sub.Ratings {
			if _, ok := totals[r.RateeID]; ok {
				totals[r.RateeID] += r.Points
			}
		}
	}

	var missing int
	for _, e := range ev.Roster {
		if !submitted[e.StudentID] {
			missing++
		}
	}
	fallback := missing * PointsPerMember

	teamSize := ev.TeamSize()
	expected := ev.ExpectedTotal()
	factors := make([]ScalingFactor, 0, teamSize)
	for _, e := range ev.Roster {
		received := totals[e.StudentID] + fallback
		var sf float64
		if expected > 0 {
			sf = float64(received) / float64(expected)
		}
		factors = append(factors, ScalingFactor{
			ID:            ScalingFactorID(ev.ID, e.StudentID),
			EventID:       ev.ID,
			StudentID:     e.StudentID,
			TotalReceived: received,
			TeamSize:      teamSize,
			ScalingFactor: sf,
			ComputedAt:    computedAt.UTC(),
		})
	}
	return factors
}
