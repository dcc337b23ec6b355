package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/points"
	"github.com/trezcool/teampoints/core/roster"
)

// pointsStore holds the table lock for the whole of RunInTx; its transactional view (inTx) does not lock again.
type pointsStore struct {
	db   *pointsTables
	inTx bool
}

var _ points.Store = (*pointsStore)(nil) // interface compliance check

func NewPointsStore(db *DB) points.Store {
	return &pointsStore{db: db.points}
}

func (st *pointsStore) lock() func() {
	if st.inTx {
		return func() {}
	}
	st.db.mutex.Lock()
	return st.db.mutex.Unlock
}

func (st *pointsStore) rlock() func() {
	if st.inTx {
		return func() {}
	}
	st.db.mutex.RLock()
	return st.db.mutex.RUnlock
}

func (st *pointsStore) RunInTx(_ context.Context, fn func(tx points.Store) error) error {
	if st.inTx {
		return fn(st)
	}
	st.db.mutex.Lock()
	defer st.db.mutex.Unlock()

	saved := st.db.snapshot()
	if err := fn(&pointsStore{db: st.db, inTx: true}); err != nil {
		st.db.restore(saved)
		return err
	}
	return nil
}

func copyEvent(ev points.Event) points.Event {
	ev.Roster = append(make([]roster.Entry, 0, len(ev.Roster)), ev.Roster...)
	return ev
}

func copySubmission(sub points.Submission) points.Submission {
	sub.Ratings = append(make([]points.Rating, 0, len(sub.Ratings)), sub.Ratings...)
	return sub
}

func (st *pointsStore) openEvent(projectID core.ID) (points.Event, bool) {
	for _, ev := range st.db.events {
		if ev.ProjectID == projectID && ev.IsOpen() {
			return ev, true
		}
	}
	return points.Event{}, false
}

func (st *pointsStore) CreateEvent(_ context.Context, ev points.Event) (points.Event, error) {
	defer st.lock()()

	if ev.IsOpen() {
		if _, exists := st.openEvent(ev.ProjectID); exists {
			return points.Event{}, points.ErrOpenEventExists
		}
	}
	ev = copyEvent(ev)
	st.db.events[ev.ID] = ev
	return copyEvent(ev), nil
}

func (st *pointsStore) GetEvent(_ context.Context, id core.ID) (points.Event, error) {
	defer st.rlock()()

	if ev, ok := st.db.events[id]; ok {
		return copyEvent(ev), nil
	}
	return points.Event{}, points.ErrEventNotFound
}

func (st *pointsStore) GetOpenEvent(_ context.Context, projectID core.ID) (points.Event, error) {
	defer st.rlock()()

	if ev, ok := st.openEvent(projectID); ok {
		return copyEvent(ev), nil
	}
	return points.Event{}, points.ErrEventNotFound
}

func (st *pointsStore) ListEvents(_ context.Context, projectID core.ID) ([]points.Event, error) {
	defer st.rlock()()

	events := make([]points.Event, 0)
	for _, ev := range st.db.events {
		if ev.ProjectID == projectID {
			events = append(events, copyEvent(ev))
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

func (st *pointsStore) CloseEvent(_ context.Context, id core.ID, closedAt time.Time) (points.Event, error) {
	defer st.lock()()

	ev, ok := st.db.events[id]
	if !ok {
		return points.Event{}, points.ErrEventNotFound
	}
	if !ev.IsOpen() {
		return points.Event{}, points.ErrEventClosed
	}
	ev.Status = points.StatusClosed
	ev.ClosedAt = null.TimeFrom(closedAt.UTC())
	st.db.events[id] = ev
	return copyEvent(ev), nil
}

func (st *pointsStore) CreateSubmission(_ context.Context, sub points.Submission) (points.Submission, error) {
	defer st.lock()()

	for _, other := range st.db.submissions {
		if other.EventID == sub.EventID && other.RaterID == sub.RaterID {
			return points.Submission{}, points.ErrDuplicateSubmission
		}
	}
	sub = copySubmission(sub)
	st.db.submissions[sub.ID] = sub
	return copySubmission(sub), nil
}

func (st *pointsStore) GetSubmission(_ context.Context, eventID, raterID core.ID) (points.Submission, error) {
	defer st.rlock()()

	for _, sub := range st.db.submissions {
		if sub.EventID == eventID && sub.RaterID == raterID {
			return copySubmission(sub), nil
		}
	}
	return points.Submission{}, points.ErrSubmissionNotFound
}

func (st *pointsStore) ListSubmissions(_ context.Context, eventID core.ID) ([]points.Submission, error) {
	defer st.rlock()()

	subs := make([]points.Submission, 0)
	for _, sub := range st.db.submissions {
		if sub.EventID == eventID {
			subs = append(subs, copySubmission(sub))
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.Before(subs[j].SubmittedAt) })
	return subs, nil
}

func (st *pointsStore) CountSubmissions(_ context.Context, eventIDs []core.ID) (map[core.ID]int, error) {
	defer st.rlock()()

	wanted := make(map[core.ID]bool, len(eventIDs))
	for _, id := range eventIDs {
		wanted[id] = true
	}
	counts := make(map[core.ID]int, len(eventIDs))
	for _, sub := range st.db.submissions {
		if wanted[sub.EventID] {
			counts[sub.EventID]++
		}
	}
	return counts, nil
}

func (st *pointsStore) ReplaceScalingFactors(_ context.Context, eventID core.ID, factors []points.ScalingFactor) error {
	defer st.lock()()

	for id, sf := range st.db.factors {
		if sf.EventID == eventID {
			delete(st.db.factors, id)
		}
	}
	for _, sf := range factors {
		sf.EventID = eventID
		st.db.factors[sf.ID] = sf
	}
	return nil
}

func (st *pointsStore) ListScalingFactors(_ context.Context, eventIDs []core.ID) ([]points.ScalingFactor, error) {
	defer st.rlock()()

	wanted := make(map[core.ID]bool, len(eventIDs))
	for _, id := range eventIDs {
		wanted[id] = true
	}
	factors := make([]points.ScalingFactor, 0)
	for _, sf := range st.db.factors {
		if wanted[sf.EventID] {
			factors = append(factors, sf)
		}
	}
	sort.Slice(factors, func(i, j int) bool {
		if factors[i].EventID == factors[j].EventID {
			return factors[i].StudentID < factors[j].StudentID
		}
		return factors[i].EventID < factors[j].EventID
	})
	return factors, nil
}
