package points_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/points"
	"github.com/trezcool/teampoints/core/roster"
	inmemdb "github.com/trezcool/teampoints/storage/database/inmem"
	testutil "github.com/trezcool/teampoints/tests"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (m *recordingMailer) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, messages...)
}

type env struct {
	svc    *points.Service
	store  points.Store
	repo   roster.Repository
	team   testutil.Team
	clock  *testutil.Clock
	mailer *recordingMailer
}

func setup(t *testing.T, teamSize int) *env {
	db := inmemdb.Open()
	return newEnv(t, inmemdb.NewPointsStore(db), inmemdb.NewRosterRepository(db), teamSize)
}

func newEnv(t *testing.T, store points.Store, repo roster.Repository, teamSize int) *env {
	e := &env{
		store:  store,
		repo:   repo,
		clock:  testutil.NewClock(),
		mailer: &recordingMailer{},
	}
	t.Cleanup(points.SetNowFunc(e.clock.Now))
	e.svc = points.NewService(e.store, roster.NewService(e.repo), e.mailer)
	e.team = testutil.CreateTeam(t, e.repo, "CS101", teamSize)
	return e
}

var ctx = context.Background()

func nullTime(t time.Time) null.Time { return null.TimeFrom(t) }

func (e *env) createEvent(t *testing.T, dueDate null.Time) points.Event {
	ev, err := e.svc.CreateEvent(ctx, e.team.InstructorCaller(), e.team.Course.Number, e.team.Project.ID.String(), dueDate)
	require.NoError(t, err)
	return ev
}

func (e *env) submit(student int, ev points.Event, pts ...float64) (points.Submission, error) {
	ns := points.NewSubmission{EventID: ev.ID.String()}
	for i, p := range pts {
		ns.Ratings = append(ns.Ratings, points.NewRating{RateeID: ev.Roster[i].StudentID.String(), Points: null.Float64From(p)})
	}
	return e.svc.Submit(ctx, e.team.StudentCaller(student), e.team.Course.Number, e.team.Project.ID.String(), ns)
}

func (e *env) close(ev points.Event) (points.Event, []points.ScalingFactor, error) {
	return e.svc.CloseEvent(ctx, e.team.InstructorCaller(), e.team.Course.Number, e.team.Project.ID.String(), ev.ID.String())
}

func assertKind(t *testing.T, want core.Kind, err error) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Equal(t, want, core.KindOf(err), "error: %v", err)
	}
}

func TestService_CreateEvent(t *testing.T) {
	e := setup(t, 3)

	ev := e.createEvent(t, null.Time{})

	assert.Equal(t, points.StatusOpen, ev.Status)
	assert.Equal(t, "CS101", ev.CourseID)
	assert.Equal(t, e.team.Project.ID, ev.ProjectID)
	assert.False(t, ev.DueDate.Valid)
	assert.False(t, ev.ClosedAt.Valid)
	assert.True(t, ev.CreatedAt.Equal(e.clock.T))
	if assert.Len(t, ev.Roster, 3) {
		for i, s := range e.team.Students {
			assert.Equal(t, roster.NewEntry(s), ev.Roster[i])
		}
	}

	// every roster member is told
	if assert.Len(t, e.mailer.sent, 3) {
		assert.Equal(t, "event_opened", e.mailer.sent[0].TemplateName)
		assert.Equal(t, e.team.Students[0].Email, e.mailer.sent[0].To[0].Address)
	}

	// a second one is refused while the first is open
	_, err := e.svc.CreateEvent(ctx, e.team.InstructorCaller(), "CS101", e.team.Project.ID.String(), null.Time{})
	assert.True(t, errors.Is(err, points.ErrOpenEventExists))
	assertKind(t, core.KindConflict, err)

	// ... but not once it is closed
	_, _, err = e.close(ev)
	require.NoError(t, err)
	next := e.createEvent(t, nullTime(e.clock.T.Add(24*time.Hour)))
	assert.NotEqual(t, ev.ID, next.ID)
	assert.True(t, next.DueDate.Valid)
}

func TestService_CreateEvent_Failures(t *testing.T) {
	e := setup(t, 2)
	other := testutil.CreateTeam(t, e.repo, "CS202", 2)
	empty := testutil.CreateProject(t, e.repo, e.team.Course, "Empty")
	ghosts := testutil.CreateProject(t, e.repo, e.team.Course, "Ghosts", core.NewID().String(), "nobody@school.test", "not a ref")

	tests := []struct {
		name      string
		caller    core.Caller
		course    string
		projectID string
		want      error
	}{
		{"unknown course", e.team.InstructorCaller(), "NOPE1", e.team.Project.ID.String(), roster.ErrCourseNotFound},
		{"unknown project", e.team.InstructorCaller(), "CS101", core.NewID().String(), roster.ErrProjectNotFound},
		{"malformed project id", e.team.InstructorCaller(), "CS101", "42", roster.ErrProjectNotFound},
		{"project of another course", e.team.InstructorCaller(), "CS101", other.Project.ID.String(), roster.ErrProjectNotFound},
		{"not the course instructor", other.InstructorCaller(), "CS101", e.team.Project.ID.String(), roster.ErrNotCourseOwner},
		{"student caller", e.team.StudentCaller(0), "CS101", e.team.Project.ID.String(), roster.ErrNotCourseOwner},
		{"no students", e.team.InstructorCaller(), "CS101", empty.ID.String(), points.ErrNoStudents},
		{"unresolvable students", e.team.InstructorCaller(), "CS101", ghosts.ID.String(), points.ErrNoStudents},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.CreateEvent(ctx, tt.caller, tt.course, tt.projectID, null.Time{})
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestService_CreateEvent_DueDate(t *testing.T) {
	e := setup(t, 2)

	for _, due := range []time.Time{e.clock.T.Add(-time.Minute), e.clock.T} {
		_, err := e.svc.CreateEvent(ctx, e.team.InstructorCaller(), "CS101", e.team.Project.ID.String(), nullTime(due))
		assert.True(t, errors.Is(err, points.ErrDueDateNotFuture), "due %v: got %v", due, err)
		var verr *core.ValidationError
		if assert.True(t, errors.As(err, &verr)) {
			assert.Equal(t, []core.FieldError{{Field: "dueDate", Error: "due date must be in the future"}}, verr.Fields)
		}
	}
	_, err := e.store.GetOpenEvent(ctx, e.team.Project.ID)
	assert.True(t, errors.Is(err, points.ErrEventNotFound))

	local := time.FixedZone("UTC+2", 2*60*60)
	ev := e.createEvent(t, nullTime(e.clock.T.Add(time.Hour).In(local)))
	assert.Equal(t, time.UTC, ev.DueDate.Time.Location())
	assert.True(t, ev.DueDate.Time.Equal(e.clock.T.Add(time.Hour)))
}

func TestService_CreateEvent_Concurrent(t *testing.T) {
	e := setup(t, 3)

	const n = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.CreateEvent(ctx, e.team.InstructorCaller(), "CS101", e.team.Project.ID.String(), null.Time{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, points.ErrOpenEventExists):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflict)
}

func TestService_Submit(t *testing.T) {
	e := setup(t, 3)
	ev := e.createEvent(t, null.Time{})

	sub, err := e.submit(0, ev, 10, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 30, sub.TotalPoints)
	assert.Equal(t, ev.ID, sub.EventID)
	assert.Equal(t, e.team.Students[0].ID, sub.RaterID)
	assert.True(t, sub.SubmittedAt.Equal(e.clock.T))

	_, err = e.submit(0, ev, 10, 10, 10)
	assert.True(t, errors.Is(err, points.ErrDuplicateSubmission))
	assertKind(t, core.KindConflict, err)

	stored, err := e.store.ListSubmissions(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestService_Submit_Validation(t *testing.T) {
	e := setup(t, 3)
	ev := e.createEvent(t, null.Time{})
	outsider := testutil.CreateTeam(t, e.repo, "CS303", 1)
	r := func(i int, p float64) points.NewRating {
		return points.NewRating{RateeID: ev.Roster[i].StudentID.String(), Points: null.Float64From(p)}
	}

	tests := []struct {
		name    string
		caller  core.Caller
		ns      points.NewSubmission
		kind    core.Kind
		message string
	}{
		{
			name:    "wrong count",
			caller:  e.team.StudentCaller(0),
			ns:      points.NewSubmission{Ratings: []points.NewRating{r(0, 15), r(1, 15)}},
			kind:    core.KindBadRequest,
			message: "expected 3 ratings (one per team member), got 2",
		},
		{
			name:   "missing member",
			caller: e.team.StudentCaller(0),
			ns: points.NewSubmission{Ratings: []points.NewRating{
				r(0, 10), r(1, 10), {RateeID: core.NewID().String(), Points: null.Float64From(10)},
			}},
			kind:    core.KindBadRequest,
			message: "missing rating for team member Student 3",
		},
		{
			name:    "repeated member",
			caller:  e.team.StudentCaller(0),
			ns:      points.NewSubmission{Ratings: []points.NewRating{r(0, 10), r(1, 10), r(1, 10)}},
			kind:    core.KindBadRequest,
			message: "missing rating for team member Student 3",
		},
		{
			name:    "negative points",
			caller:  e.team.StudentCaller(0),
			ns:      points.NewSubmission{Ratings: []points.NewRating{r(0, -5), r(1, 20), r(2, 15)}},
			kind:    core.KindBadRequest,
			message: "points must be non-negative integers (got -5 for Student 1)",
		},
		{
			name:    "fractional points",
			caller:  e.team.StudentCaller(0),
			ns:      points.NewSubmission{Ratings: []points.NewRating{r(0, 10.5), r(1, 9.5), r(2, 10)}},
			kind:    core.KindBadRequest,
			message: "points must be non-negative integers (got 10.5 for Student 1)",
		},
		{
			name:    "points left out",
			caller:  e.team.StudentCaller(0),
			ns:      points.NewSubmission{Ratings: []points.NewRating{{RateeID: ev.Roster[0].StudentID.String()}, r(1, 15), r(2, 15)}},
			kind:    core.KindBadRequest,
			message: "points must be non-negative integers (missing for Student 1)",
		},
		{
			name:    "total mismatch",
			caller:  e.team.StudentCaller(0),
			ns:      points.NewSubmission{Ratings: []points.NewRating{r(0, 10), r(1, 10), r(2, 9)}},
			kind:    core.KindBadRequest,
			message: "total points must equal 30 (3 team members x 10), got 29",
		},
		{
			name:    "not in roster",
			caller:  outsider.StudentCaller(0),
			ns:      points.NewSubmission{Ratings: []points.NewRating{r(0, 10), r(1, 10), r(2, 10)}},
			kind:    core.KindForbidden,
			message: points.ErrNotInRoster.Error(),
		},
		{
			name:    "unknown rater",
			caller:  core.Caller{ID: core.NewID(), Role: core.RoleStudent},
			ns:      points.NewSubmission{Ratings: []points.NewRating{r(0, 10), r(1, 10), r(2, 10)}},
			kind:    core.KindNotFound,
			message: points.ErrRaterNotFound.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ns.EventID = ev.ID.String()
			_, err := e.svc.Submit(ctx, tt.caller, "CS101", e.team.Project.ID.String(), tt.ns)
			assertKind(t, tt.kind, err)
			if err != nil {
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}

	stored, err := e.store.ListSubmissions(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestService_Submit_DecodedPoints(t *testing.T) {
	e := setup(t, 3)
	ev := e.createEvent(t, null.Time{})
	ids := make([]string, 0, len(ev.Roster))
	for _, m := range ev.Roster {
		ids = append(ids, m.StudentID.String())
	}

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "missing",
			body:    `{"eventId": %q, "ratings": [{"rateeId": %q}, {"rateeId": %q, "points": 15}, {"rateeId": %q, "points": 15}]}`,
			message: "points must be non-negative integers (missing for Student 1)",
		},
		{
			name:    "null",
			body:    `{"eventId": %q, "ratings": [{"rateeId": %q, "points": 15}, {"rateeId": %q, "points": null}, {"rateeId": %q, "points": 15}]}`,
			message: "points must be non-negative integers (missing for Student 2)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ns points.NewSubmission
			require.NoError(t, json.Unmarshal([]byte(fmt.Sprintf(tt.body, ev.ID.String(), ids[0], ids[1], ids[2])), &ns))
			_, err := e.svc.Submit(ctx, e.team.StudentCaller(0), "CS101", e.team.Project.ID.String(), ns)
			assertKind(t, core.KindBadRequest, err)
			if err != nil {
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}

	stored, err := e.store.ListSubmissions(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestService_Submit_EventChecks(t *testing.T) {
	e := setup(t, 2)
	other := testutil.CreateTeam(t, e.repo, "CS404", 2)
	foreign, err := e.svc.CreateEvent(ctx, other.InstructorCaller(), "CS404", other.Project.ID.String(), null.Time{})
	require.NoError(t, err)
	ev := e.createEvent(t, nullTime(e.clock.T.Add(time.Hour)))

	submitTo := func(eventID string) error {
		ns := points.NewSubmission{EventID: eventID, Ratings: []points.NewRating{
			{RateeID: ev.Roster[0].StudentID.String(), Points: null.Float64From(10)},
			{RateeID: ev.Roster[1].StudentID.String(), Points: null.Float64From(10)},
		}}
		_, err := e.svc.Submit(ctx, e.team.StudentCaller(0), "CS101", e.team.Project.ID.String(), ns)
		return err
	}

	assert.True(t, errors.Is(submitTo(core.NewID().String()), points.ErrEventNotFound))
	assert.True(t, errors.Is(submitTo("not-an-id"), points.ErrEventNotFound))
	assert.True(t, errors.Is(submitTo(foreign.ID.String()), points.ErrEventProjectMismatch))
	assertKind(t, core.KindBadRequest, submitTo(foreign.ID.String()))

	// past the due date
	e.clock.Advance(2 * time.Hour)
	err = submitTo(ev.ID.String())
	assert.True(t, errors.Is(err, points.ErrDueDatePassed))
	assertKind(t, core.KindInvalidState, err)

	// closed
	_, _, err = e.close(ev)
	require.NoError(t, err)
	err = submitTo(ev.ID.String())
	assert.True(t, errors.Is(err, points.ErrNotOpenForSubmission))
	assertKind(t, core.KindInvalidState, err)
}

func TestService_Submit_Concurrent(t *testing.T) {
	e := setup(t, 3)
	ev := e.createEvent(t, null.Time{})

	const n = 20
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		accepted   int
		duplicates int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.submit(1, ev, 5, 20, 5)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, points.ErrDuplicateSubmission):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, n-1, duplicates)
}

func TestService_CloseEvent(t *testing.T) {
	e := setup(t, 3)
	ev := e.createEvent(t, null.Time{})
	_, err := e.submit(0, ev, 0, 15, 15)
	require.NoError(t, err)
	_, err = e.submit(1, ev, 10, 10, 10)
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	closed, factors, err := e.close(ev)
	require.NoError(t, err)

	assert.Equal(t, points.StatusClosed, closed.Status)
	assert.True(t, closed.ClosedAt.Valid)
	assert.True(t, closed.ClosedAt.Time.Equal(e.clock.T))
	if assert.Len(t, factors, 3) {
		assert.Equal(t, []int{20, 35, 35}, totalsOf(factors))
		assert.InDelta(t, 0.667, factors[0].ScalingFactor, 0.001)
		assert.InDelta(t, 1.167, factors[1].ScalingFactor, 0.001)
		assert.InDelta(t, 1.167, factors[2].ScalingFactor, 0.001)
	}
	stored, err := e.store.ListScalingFactors(ctx, []core.ID{ev.ID})
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	// closing twice is an error and leaves the settlement alone
	e.clock.Advance(time.Hour)
	_, _, err = e.close(ev)
	assert.True(t, errors.Is(err, points.ErrEventClosed))
	assertKind(t, core.KindInvalidState, err)
	again, err := e.store.ListScalingFactors(ctx, []core.ID{ev.ID})
	require.NoError(t, err)
	assert.Equal(t, stored, again)
}

func TestService_CloseEvent_Failures(t *testing.T) {
	e := setup(t, 2)
	other := testutil.CreateTeam(t, e.repo, "CS505", 2)
	foreign, err := e.svc.CreateEvent(ctx, other.InstructorCaller(), "CS505", other.Project.ID.String(), null.Time{})
	require.NoError(t, err)
	ev := e.createEvent(t, null.Time{})

	_, _, err = e.svc.CloseEvent(ctx, other.InstructorCaller(), "CS101", e.team.Project.ID.String(), ev.ID.String())
	assert.True(t, errors.Is(err, roster.ErrNotCourseOwner))

	_, _, err = e.svc.CloseEvent(ctx, e.team.InstructorCaller(), "CS101", e.team.Project.ID.String(), foreign.ID.String())
	assert.True(t, errors.Is(err, points.ErrEventNotFound))

	_, _, err = e.svc.CloseEvent(ctx, e.team.InstructorCaller(), "CS101", e.team.Project.ID.String(), "nope")
	assert.True(t, errors.Is(err, points.ErrEventNotFound))

	open, err := e.store.GetOpenEvent(ctx, e.team.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, open.ID)
}

// failingStore fails to store scaling factors, inside transactions too.
type failingStore struct {
	points.Store
}

func (st failingStore) RunInTx(ctx context.Context, fn func(tx points.Store) error) error {
	return st.Store.RunInTx(ctx, func(tx points.Store) error { return fn(failingStore{tx}) })
}

func (st failingStore) ReplaceScalingFactors(context.Context, core.ID, []points.ScalingFactor) error {
	return errors.New("disk full")
}

func TestService_CloseEvent_SettlementFailureKeepsEventOpen(t *testing.T) {
	e := setup(t, 2)
	ev := e.createEvent(t, null.Time{})
	svc := points.NewService(failingStore{e.store}, roster.NewService(e.repo), nil)

	_, _, err := svc.CloseEvent(ctx, e.team.InstructorCaller(), "CS101", e.team.Project.ID.String(), ev.ID.String())
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "disk full")
		assert.Equal(t, core.KindUnknown, core.KindOf(err))
	}

	stored, err := e.store.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, points.StatusOpen, stored.Status)
	assert.False(t, stored.ClosedAt.Valid)
}

func TestService_Resettle(t *testing.T) {
	e := setup(t, 3)
	ev := e.createEvent(t, null.Time{})

	_, err := e.svc.Resettle(ctx, ev.ID)
	assert.True(t, errors.Is(err, points.ErrEventNotClosed))

	_, err = e.submit(2, ev, 5, 5, 20)
	require.NoError(t, err)
	_, first, err := e.close(ev)
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	second, err := e.svc.Resettle(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := e.store.ListScalingFactors(ctx, []core.ID{ev.ID})
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	_, err = e.svc.Resettle(ctx, core.NewID())
	assert.True(t, errors.Is(err, points.ErrEventNotFound))
}

func TestService_GetOpenEvent(t *testing.T) {
	e := setup(t, 2)
	student := e.team.StudentCaller(1)

	res, err := e.svc.GetOpenEvent(ctx, student, "CS101", e.team.Project.ID.String())
	require.NoError(t, err)
	assert.Nil(t, res.Event)
	assert.False(t, res.HasSubmitted)

	ev := e.createEvent(t, nullTime(e.clock.T.Add(time.Hour)))
	res, err = e.svc.GetOpenEvent(ctx, student, "CS101", e.team.Project.ID.String())
	require.NoError(t, err)
	if assert.NotNil(t, res.Event) {
		assert.Equal(t, ev.ID, res.Event.ID)
		assert.Equal(t, "Open", res.Event.Status)
		assert.Len(t, res.Event.Roster, 2)
	}
	assert.False(t, res.HasSubmitted)
	assert.Nil(t, res.SubmissionID)

	sub, err := e.submit(1, ev, 12, 8)
	require.NoError(t, err)
	e.clock.Advance(2 * time.Hour)
	res, err = e.svc.GetOpenEvent(ctx, student, "CS101", e.team.Project.ID.String())
	require.NoError(t, err)
	assert.Equal(t, points.DisplayPastDue, res.Event.Status)
	assert.True(t, res.HasSubmitted)
	if assert.NotNil(t, res.SubmissionID) {
		assert.Equal(t, sub.ID, *res.SubmissionID)
	}

	_, err = e.svc.GetOpenEvent(ctx, student, "CS101", core.NewID().String())
	assert.True(t, errors.Is(err, roster.ErrProjectNotFound))
}

func TestService_ListEvents(t *testing.T) {
	e := setup(t, 3)
	first := e.createEvent(t, null.Time{})
	_, err := e.submit(0, first, 10, 10, 10)
	require.NoError(t, err)
	_, err = e.submit(1, first, 10, 10, 10)
	require.NoError(t, err)
	_, _, err = e.close(first)
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	second := e.createEvent(t, nullTime(e.clock.T.Add(time.Minute)))
	e.clock.Advance(2 * time.Minute)

	summaries, err := e.svc.ListEvents(ctx, e.team.InstructorCaller(), "CS101", e.team.Project.ID.String())
	require.NoError(t, err)
	if assert.Len(t, summaries, 2) {
		assert.Equal(t, second.ID, summaries[0].ID)
		assert.Equal(t, points.DisplayPastDue, summaries[0].Status)
		assert.Equal(t, 0, summaries[0].SubmissionCount)

		assert.Equal(t, first.ID, summaries[1].ID)
		assert.Equal(t, "Closed", summaries[1].Status)
		assert.Equal(t, 2, summaries[1].SubmissionCount)
		assert.Equal(t, 3, summaries[1].RosterSize)
		assert.Equal(t, 30, summaries[1].TotalExpected)
	}

	_, err = e.svc.ListEvents(ctx, e.team.StudentCaller(0), "CS101", e.team.Project.ID.String())
	assertKind(t, core.KindForbidden, err)
}

func TestService_ScalingFactors(t *testing.T) {
	e := setup(t, 3)
	first := e.createEvent(t, null.Time{})
	_, err := e.submit(0, first, 0, 15, 15)
	require.NoError(t, err)
	_, err = e.submit(1, first, 10, 10, 10)
	require.NoError(t, err)
	_, _, err = e.close(first)
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	second := e.createEvent(t, null.Time{})
	_, _, err = e.close(second)
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	e.createEvent(t, null.Time{}) // open events are not settled yet

	byEvent, err := e.svc.GetScalingFactors(ctx, e.team.InstructorCaller(), "CS101", e.team.Project.ID.String())
	require.NoError(t, err)
	if assert.Len(t, byEvent, 2) {
		assert.Equal(t, second.ID, byEvent[0].EventID)
		assert.Equal(t, first.ID, byEvent[1].EventID)
		if assert.Len(t, byEvent[1].ScalingFactors, 3) {
			sf := byEvent[1].ScalingFactors[0]
			assert.Equal(t, e.team.Students[0].ID, sf.StudentID)
			assert.Equal(t, "Student 1", sf.StudentName)
			assert.Equal(t, 20, sf.TotalReceived)
		}
		for _, sf := range byEvent[0].ScalingFactors {
			assert.Equal(t, 1.0, sf.ScalingFactor)
		}
	}

	hist, err := e.svc.GetStudentScalingFactors(ctx, e.team.InstructorCaller(), "CS101", e.team.Project.ID.String(), e.team.Students[1].ID.String())
	require.NoError(t, err)
	assert.Equal(t, e.team.Students[1].Email, hist.Student.StudentEmail)
	if assert.Len(t, hist.ScalingFactors, 2) {
		assert.Equal(t, second.ID, hist.ScalingFactors[0].EventID)
		assert.Equal(t, first.ID, hist.ScalingFactors[1].EventID)
		assert.Equal(t, 35, hist.ScalingFactors[1].TotalReceived)
		assert.InDelta(t, 1.167, hist.ScalingFactors[1].ScalingFactor, 0.001)
	}

	_, err = e.svc.GetStudentScalingFactors(ctx, e.team.InstructorCaller(), "CS101", e.team.Project.ID.String(), core.NewID().String())
	assert.True(t, errors.Is(err, roster.ErrStudentNotFound))

	other := testutil.CreateTeam(t, e.repo, "CS606", 1)
	_, err = e.svc.GetScalingFactors(ctx, other.InstructorCaller(), "CS101", e.team.Project.ID.String())
	assert.True(t, errors.Is(err, roster.ErrNotCourseOwner))
}
