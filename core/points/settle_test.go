package points_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/points"
	"github.com/trezcool/teampoints/core/roster"
)

func newEvent(size int) points.Event {
	ev := points.Event{ID: core.NewID(), ProjectID: core.NewID(), Status: points.StatusClosed}
	for i := 0; i < size; i++ {
		ev.Roster = append(ev.Roster, roster.Entry{StudentID: core.NewID()})
	}
	return ev
}

func submission(ev points.Event, rater int, pts ...int) points.Submission {
	sub := points.Submission{ID: core.NewID(), EventID: ev.ID, RaterID: ev.Roster[rater].StudentID}
	for i, p := range pts {
		sub.Ratings = append(sub.Ratings, points.Rating{RateeID: ev.Roster[i].StudentID, Points: p})
		sub.TotalPoints += p
	}
	return sub
}

func totalsOf(factors []points.ScalingFactor) []int {
	totals := make([]int, 0, len(factors))
	for _, sf := range factors {
		totals = append(totals, sf.TotalReceived)
	}
	return totals
}

func TestSettle_MissingRaterFallback(t *testing.T) {
	ev := newEvent(3)
	subs := []points.Submission{
		submission(ev, 0, 0, 15, 15),
		submission(ev, 1, 10, 10, 10),
	}
	at := time.Date(2021, time.March, 1, 9, 0, 0, 0, time.UTC)

	factors := points.Settle(ev, subs, at)

	if assert.Len(t, factors, 3) {
		assert.Equal(t, []int{20, 35, 35}, totalsOf(factors))
		assert.InDelta(t, 0.667, factors[0].ScalingFactor, 0.001)
		assert.InDelta(t, 1.167, factors[1].ScalingFactor, 0.001)
		assert.InDelta(t, 1.167, factors[2].ScalingFactor, 0.001)
		for i, sf := range factors {
			assert.Equal(t, ev.ID, sf.EventID)
			assert.Equal(t, ev.Roster[i].StudentID, sf.StudentID)
			assert.Equal(t, 3, sf.TeamSize)
			assert.True(t, sf.ComputedAt.Equal(at))
		}
	}
}

func TestSettle_FullParticipationConserves(t *testing.T) {
	ev := newEvent(4)
	subs := []points.Submission{
		submission(ev, 0, 10, 10, 10, 10),
		submission(ev, 1, 0, 20, 5, 15),
		submission(ev, 2, 40, 0, 0, 0),
		submission(ev, 3, 7, 8, 9, 16),
	}

	factors := points.Settle(ev, subs, time.Now())

	var received, given int
	var sum float64
	for _, sf := range factors {
		received += sf.TotalReceived
		sum += sf.ScalingFactor
	}
	for _, sub := range subs {
		given += sub.TotalPoints
	}
	assert.Equal(t, given, received)
	assert.Equal(t, ev.TeamSize()*ev.ExpectedTotal(), received)
	assert.InDelta(t, float64(ev.TeamSize()), sum, 1e-9)
}

func TestSettle_OneMissingRaterAddsTen(t *testing.T) {
	ev := newEvent(4)
	subs := []points.Submission{
		submission(ev, 0, 10, 20, 5, 5),
		submission(ev, 1, 0, 20, 10, 10),
		submission(ev, 2, 12, 8, 10, 10),
	}
	raw := []int{22, 48, 25, 25}

	factors := points.Settle(ev, subs, time.Now())

	for i, sf := range factors {
		assert.Equal(t, raw[i]+points.PointsPerMember, sf.TotalReceived, "member %d", i)
	}
}

func TestSettle_NobodySubmitted(t *testing.T) {
	ev := newEvent(3)

	factors := points.Settle(ev, nil, time.Now())

	for _, sf := range factors {
		assert.Equal(t, 30, sf.TotalReceived)
		assert.Equal(t, 1.0, sf.ScalingFactor)
	}
}

func TestSettle_IgnoresStrayRatings(t *testing.T) {
	ev := newEvent(2)
	stray := submission(ev, 0, 10, 10)
	stray.Ratings = append(stray.Ratings, points.Rating{RateeID: core.NewID(), Points: 50})
	other := newEvent(2)
	foreign := submission(other, 0, 20, 0)
	foreign.RaterID = ev.Roster[1].StudentID // same student, other event

	factors := points.Settle(ev, []points.Submission{stray, foreign}, time.Now())

	// member 1 did not submit for this event: +10 each
	assert.Equal(t, []int{20, 20}, totalsOf(factors))
}

func TestSettle_Deterministic(t *testing.T) {
	ev := newEvent(3)
	subs := []points.Submission{submission(ev, 2, 5, 5, 20)}
	at := time.Now()

	assert.Equal(t, points.Settle(ev, subs, at), points.Settle(ev, subs, at))
	assert.Equal(t,
		points.ScalingFactorID(ev.ID, ev.Roster[0].StudentID),
		points.Settle(ev, subs, at)[0].ID,
	)
}

func TestEvent_DisplayStatus(t *testing.T) {
	now := time.Date(2021, time.March, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		ev   points.Event
		want string
	}{
		{"open without due date", points.Event{Status: points.StatusOpen}, "Open"},
		{"open before due date", points.Event{Status: points.StatusOpen, DueDate: nullTime(now.Add(time.Hour))}, "Open"},
		{"open after due date", points.Event{Status: points.StatusOpen, DueDate: nullTime(now.Add(-time.Hour))}, "Past Due"},
		{"closed after due date", points.Event{Status: points.StatusClosed, DueDate: nullTime(now.Add(-time.Hour))}, "Closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.DisplayStatus(now))
		})
	}
}
