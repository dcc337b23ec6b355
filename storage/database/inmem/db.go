// Package inmemdb is a process-local storage engine, used for development and tests.
// It enforces the same uniqueness rules as the SQL schema.
package inmemdb

import (
	"sync"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/points"
	"github.com/trezcool/teampoints/core/roster"
)

type (
	DB struct {
		roster *rosterTables
		points *pointsTables
	}

	rosterTables struct {
		mutex       sync.RWMutex
		instructors map[core.ID]roster.Instructor
		students    map[core.ID]roster.Student
		courses     map[core.ID]roster.Course
		projects    map[core.ID]roster.Project
	}

	pointsTables struct {
		mutex       sync.RWMutex
		events      map[core.ID]points.Event
		submissions map[core.ID]points.Submission
		factors     map[core.ID]points.ScalingFactor
	}
)

func Open() *DB {
	return &DB{
		roster: &rosterTables{
			instructors: make(map[core.ID]roster.Instructor),
			students:    make(map[core.ID]roster.Student),
			courses:     make(map[core.ID]roster.Course),
			projects:    make(map[core.ID]roster.Project),
		},
		points: newPointsTables(),
	}
}

func newPointsTables() *pointsTables {
	return &pointsTables{
		events:      make(map[core.ID]points.Event),
		submissions: make(map[core.ID]points.Submission),
		factors:     make(map[core.ID]points.ScalingFactor),
	}
}

// snapshot copies the rows, not the lock.
func (t *pointsTables) snapshot() *pointsTables {
	cp := newPointsTables()
	for k, v := range t.events {
		cp.events[k] = v
	}
	for k, v := range t.submissions {
		cp.submissions[k] = v
	}
	for k, v := range t.factors {
		cp.factors[k] = v
	}
	return cp
}

func (t *pointsTables) restore(from *pointsTables) {
	t.events = from.events
	t.submissions = from.submissions
	t.factors = from.factors
}
