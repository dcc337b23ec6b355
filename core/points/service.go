package points

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/roster"
)

var nowFunc = time.Now

func now() time.Time { return nowFunc().UTC() }

// Now is the clock points operations read, in UTC.
func Now() time.Time { return now() }

type Service struct {
	store   Store
	roster  *roster.Service
	mailSvc core.EmailService
}

// NewService wires the points core. mailSvc may be nil, in which case nobody is notified of new events.
func NewService(store Store, rosterSvc *roster.Service, mailSvc core.EmailService) *Service {
	return &Service{store: store, roster: rosterSvc, mailSvc: mailSvc}
}

// CreateEvent opens a new Team Points round for a project, snapshotting its current roster.
func (svc *Service) CreateEvent(ctx context.Context, caller core.Caller, courseNumber, rawProjectID string, dueDate null.Time) (Event, error) {
	course, project, err := svc.roster.InstructorProject(ctx, caller, courseNumber, rawProjectID)
	if err != nil {
		return Event{}, err
	}

	// fast path only: the store's single-open-event constraint has the last word
	if _, err = svc.store.GetOpenEvent(ctx, project.ID); err == nil {
		return Event{}, ErrOpenEventExists
	} else if !errors.Is(err, ErrEventNotFound) {
		return Event{}, err
	}

	entries, err := svc.roster.Snapshot(ctx, project)
	if err != nil {
		return Event{}, err
	}
	if len(entries) == 0 {
		return Event{}, ErrNoStudents
	}

	t := now()
	if dueDate.Valid {
		if !dueDate.Time.After(t) {
			return Event{}, ErrDueDateNotFuture
		}
		dueDate = null.TimeFrom(dueDate.Time.UTC())
	}
	ev, err := svc.store.CreateEvent(ctx, Event{
		ID:        core.NewID(),
		CourseID:  course.Number,
		ProjectID: project.ID,
		Status:    StatusOpen,
		DueDate:   dueDate,
		Roster:    entries,
		CreatedAt: t,
	})
	if err != nil {
		return Event{}, err
	}

	svc.notifyEventOpened(course, project, ev)
	return ev, nil
}

// CloseEvent closes an Open event and settles it. Closing and settling commit together.
func (svc *Service) CloseEvent(ctx context.Context, caller core.Caller, courseNumber, rawProjectID, rawEventID string) (Event, []ScalingFactor, error) {
	_, project, err := svc.roster.InstructorProject(ctx, caller, courseNumber, rawProjectID)
	if err != nil {
		return Event{}, nil, err
	}
	eventID, ok := core.ParseID(rawEventID)
	if !ok {
		return Event{}, nil, ErrEventNotFound
	}

	var (
		closed  Event
		factors []ScalingFactor
	)
	err = svc.store.RunInTx(ctx, func(tx Store) error {
		ev, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if ev.ProjectID != project.ID {
			return ErrEventNotFound
		}
		if !ev.IsOpen() {
			return ErrEventClosed
		}
		if _, err = tx.CloseEvent(ctx, ev.ID, now()); err != nil {
			return err
		}
		closed, factors, err = settle(ctx, tx, ev.ID)
		return err
	})
	if err != nil {
		return Event{}, nil, err
	}
	return closed, factors, nil
}

// Resettle recomputes the scaling factors of a closed event, replacing the stored ones.
func (svc *Service) Resettle(ctx context.Context, eventID core.ID) ([]ScalingFactor, error) {
	var factors []ScalingFactor
	err := svc.store.RunInTx(ctx, func(tx Store) error {
		ev, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if ev.IsOpen() {
			return ErrEventNotClosed
		}
		_, factors, err = settle(ctx, tx, ev.ID)
		return err
	})
	return factors, err
}

func settle(ctx context.Context, st Store, eventID core.ID) (Event, []ScalingFactor, error) {
	ev, err := st.GetEvent(ctx, eventID)
	if err != nil {
		return Event{}, nil, errors.Wrap(err, "reloading event")
	}
	subs, err := st.ListSubmissions(ctx, ev.ID)
	if err != nil {
		return Event{}, nil, errors.Wrap(err, "listing submissions")
	}
	computedAt := ev.ClosedAt.Time
	if !ev.ClosedAt.Valid {
		computedAt = now()
	}
	factors := Settle(ev, subs, computedAt)
	if err = st.ReplaceScalingFactors(ctx, ev.ID, factors); err != nil {
		return Event{}, nil, errors.Wrap(err, "storing scaling factors")
	}
	return ev, factors, nil
}

// GetOpenEvent returns the project's Open event, if any, as seen by the caller.
func (svc *Service) GetOpenEvent(ctx context.Context, caller core.Caller, courseNumber, rawProjectID string) (OpenEvent, error) {
	_, project, err := svc.roster.CourseProject(ctx, courseNumber, rawProjectID)
	if err != nil {
		return OpenEvent{}, err
	}

	ev, err := svc.store.GetOpenEvent(ctx, project.ID)
	if errors.Is(err, ErrEventNotFound) {
		return OpenEvent{}, nil
	} else if err != nil {
		return OpenEvent{}, err
	}

	view := NewEventView(ev, now())
	res := OpenEvent{Event: &view}
	sub, err := svc.store.GetSubmission(ctx, ev.ID, caller.ID)
	switch {
	case err == nil:
		res.HasSubmitted = true
		res.SubmissionID = &sub.ID
	case !errors.Is(err, ErrSubmissionNotFound):
		return OpenEvent{}, err
	}
	return res, nil
}

// ListEvents returns every event of the project, newest first, with submission progress.
func (svc *Service) ListEvents(ctx context.Context, caller core.Caller, courseNumber, rawProjectID string) ([]EventSummary, error) {
	_, project, err := svc.roster.InstructorProject(ctx, caller, courseNumber, rawProjectID)
	if err != nil {
		return nil, err
	}
	events, err := svc.store.ListEvents(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]core.ID, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	counts, err := svc.store.CountSubmissions(ctx, ids)
	if err != nil {
		return nil, err
	}

	t := now()
	summaries := make([]EventSummary, 0, len(events))
	for _, ev := range events {
		summaries = append(summaries, EventSummary{
			EventView:       NewEventView(ev, t),
			RosterSize:      ev.TeamSize(),
			SubmissionCount: counts[ev.ID],
			TotalExpected:   ev.ExpectedTotal(),
		})
	}
	return summaries, nil
}

// GetScalingFactors returns the settlement of every closed event of the project, most recently closed first.
func (svc *Service) GetScalingFactors(ctx context.Context, caller core.Caller, courseNumber, rawProjectID string) ([]EventScalingFactors, error) {
	_, project, err := svc.roster.InstructorProject(ctx, caller, courseNumber, rawProjectID)
	if err != nil {
		return nil, err
	}
	closed, factors, err := svc.closedEventFactors(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	byEvent := make(map[core.ID]map[core.ID]ScalingFactor, len(closed))
	for _, sf := range factors {
		if byEvent[sf.EventID] == nil {
			byEvent[sf.EventID] = make(map[core.ID]ScalingFactor)
		}
		byEvent[sf.EventID][sf.StudentID] = sf
	}
	res := make([]EventScalingFactors, 0, len(closed))
	for _, ev := range closed {
		// roster order
		views := make([]ScalingFactorView, 0, len(byEvent[ev.ID]))
		for _, e := range ev.Roster {
			if sf, ok := byEvent[ev.ID][e.StudentID]; ok {
				views = append(views, NewScalingFactorView(ev, sf))
			}
		}
		res = append(res, EventScalingFactors{
			EventID:        ev.ID,
			EventClosedAt:  ev.ClosedAt,
			ScalingFactors: views,
		})
	}
	return res, nil
}

// GetStudentScalingFactors returns one student's scaling factor history in the project.
func (svc *Service) GetStudentScalingFactors(ctx context.Context, caller core.Caller, courseNumber, rawProjectID, rawStudentID string) (StudentScalingFactors, error) {
	_, project, err := svc.roster.InstructorProject(ctx, caller, courseNumber, rawProjectID)
	if err != nil {
		return StudentScalingFactors{}, err
	}
	studentID, ok := core.ParseID(rawStudentID)
	if !ok {
		return StudentScalingFactors{}, roster.ErrStudentNotFound
	}
	student, err := svc.roster.Student(ctx, studentID)
	if err != nil {
		return StudentScalingFactors{}, err
	}

	closed, factors, err := svc.closedEventFactors(ctx, project.ID)
	if err != nil {
		return StudentScalingFactors{}, err
	}
	byEvent := make(map[core.ID]ScalingFactor)
	for _, sf := range factors {
		if sf.StudentID == student.ID {
			byEvent[sf.EventID] = sf
		}
	}
	res := StudentScalingFactors{
		Student:        roster.NewEntry(student),
		ScalingFactors: make([]StudentScalingFactor, 0, len(byEvent)),
	}
	for _, ev := range closed {
		if sf, ok := byEvent[ev.ID]; ok {
			res.ScalingFactors = append(res.ScalingFactors, StudentScalingFactor{
				EventID:       ev.ID,
				EventClosedAt: ev.ClosedAt,
				TotalReceived: sf.TotalReceived,
				TeamSize:      sf.TeamSize,
				ScalingFactor: sf.ScalingFactor,
			})
		}
	}
	return res, nil
}

// closedEventFactors lists the closed events of a project, most recently closed first, with their scaling factors.
func (svc *Service) closedEventFactors(ctx context.Context, projectID core.ID) ([]Event, []ScalingFactor, error) {
	events, err := svc.store.ListEvents(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	closed := make([]Event, 0, len(events))
	ids := make([]core.ID, 0, len(events))
	for _, ev := range events {
		if ev.Status == StatusClosed {
			closed = append(closed, ev)
			ids = append(ids, ev.ID)
		}
	}
	sortByClosedAtDesc(closed)
	if len(ids) == 0 {
		return closed, nil, nil
	}
	factors, err := svc.store.ListScalingFactors(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return closed, factors, nil
}

func (svc *Service) notifyEventOpened(course roster.Course, project roster.Project, ev Event) {
	if svc.mailSvc == nil {
		return
	}
	var dueDate string
	if ev.DueDate.Valid {
		dueDate = ev.DueDate.Time.Format(time.RFC1123)
	}
	msgs := make([]*core.EmailMessage, 0, len(ev.Roster))
	for _, e := range ev.Roster {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: e.StudentName, Address: e.StudentEmail}},
			Subject:      fmt.Sprintf("Team Points are open for %s", project.Name),
			TemplateName: "event_opened",
			TemplateData: map[string]interface{}{
				"StudentName":  e.StudentName,
				"ProjectName":  project.Name,
				"ProjectID":    project.ID.String(),
				"CourseNumber": course.Number,
				"TotalPoints":  ev.ExpectedTotal(),
				"TeamSize":     ev.TeamSize(),
				"DueDate":      dueDate,
			},
		})
	}
	svc.mailSvc.SendMessages(msgs...)
}
