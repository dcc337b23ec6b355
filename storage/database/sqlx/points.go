package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/points"
	"github.com/trezcool/teampoints/storage/database"
)

type (
	eventRow struct {
		ID        string       `db:"id"`
		CourseID  string       `db:"course_id"`
		ProjectID string       `db:"project_id"`
		Status    string       `db:"status"`
		DueDate   null.Time    `db:"due_date"`
		Roster    rosterColumn `db:"roster"`
		CreatedAt time.Time    `db:"created_at"`
		ClosedAt  null.Time    `db:"closed_at"`
	}

	submissionRow struct {
		ID          string        `db:"id"`
		EventID     string        `db:"event_id"`
		RaterID     string        `db:"rater_id"`
		Ratings     ratingsColumn `db:"ratings"`
		TotalPoints int           `db:"total_points"`
		SubmittedAt time.Time     `db:"submitted_at"`
	}

	scalingFactorRow struct {
		ID            string    `db:"id"`
		EventID       string    `db:"event_id"`
		StudentID     string    `db:"student_id"`
		TotalReceived int       `db:"total_received"`
		TeamSize      int       `db:"team_size"`
		ScalingFactor float64   `db:"scaling_factor"`
		ComputedAt    time.Time `db:"computed_at"`
	}
)

func toEventRow(ev points.Event) eventRow {
	return eventRow{
		ID:        ev.ID.String(),
		CourseID:  ev.CourseID,
		ProjectID: ev.ProjectID.String(),
		Status:    string(ev.Status),
		DueDate:   utcNullTime(ev.DueDate),
		Roster:    ev.Roster,
		CreatedAt: ev.CreatedAt.UTC(),
		ClosedAt:  utcNullTime(ev.ClosedAt),
	}
}

func (r eventRow) event() points.Event {
	return points.Event{
		ID:        core.ID(r.ID),
		CourseID:  r.CourseID,
		ProjectID: core.ID(r.ProjectID),
		Status:    points.Status(r.Status),
		DueDate:   utcNullTime(r.DueDate),
		Roster:    r.Roster,
		CreatedAt: r.CreatedAt.UTC(),
		ClosedAt:  utcNullTime(r.ClosedAt),
	}
}

func (r submissionRow) submission() points.Submission {
	return points.Submission{
		ID:          core.ID(r.ID),
		EventID:     core.ID(r.EventID),
		RaterID:     core.ID(r.RaterID),
		Ratings:     r.Ratings,
		TotalPoints: r.TotalPoints,
		SubmittedAt: r.SubmittedAt.UTC(),
	}
}

func (r scalingFactorRow) scalingFactor() points.ScalingFactor {
	return points.ScalingFactor{
		ID:            core.ID(r.ID),
		EventID:       core.ID(r.EventID),
		StudentID:     core.ID(r.StudentID),
		TotalReceived: r.TotalReceived,
		TeamSize:      r.TeamSize,
		ScalingFactor: r.ScalingFactor,
		ComputedAt:    r.ComputedAt.UTC(),
	}
}

func utcNullTime(t null.Time) null.Time {
	if !t.Valid {
		return t
	}
	return null.TimeFrom(t.Time.UTC())
}

func idStrings(ids []core.ID) []string {
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, id.String())
	}
	return strs
}

// pointsStore is the SQL points.Store. Within RunInTx, exec is the transaction and db is nil.
type pointsStore struct {
	db   *sqlx.DB
	exec sqlx.ExtContext
}

var _ points.Store = (*pointsStore)(nil) // interface compliance check

func NewPointsStore(db *sqlx.DB) *pointsStore {
	return &pointsStore{db: db, exec: db}
}

func (st *pointsStore) RunInTx(ctx context.Context, fn func(tx points.Store) error) error {
	if st.db == nil {
		return fn(st)
	}
	return database.RunInTx(ctx, st.db, func(tx *sqlx.Tx) error {
		return fn(&pointsStore{exec: tx})
	})
}

func (st *pointsStore) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, st.exec, dest, st.exec.Rebind(query), args...)
}

func (st *pointsStore) selekt(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, st.exec, dest, st.exec.Rebind(query), args...)
}

// selectIn runs a query holding one `IN (?)` clause bound to ids.
func (st *pointsStore) selectIn(ctx context.Context, dest interface{}, query string, ids []core.ID) error {
	q, args, err := sqlx.In(query, idStrings(ids))
	if err != nil {
		return err
	}
	return st.selekt(ctx, dest, q, args...)
}

func (st *pointsStore) CreateEvent(ctx context.Context, ev points.Event) (points.Event, error) {
	q := `INSERT INTO team_point_events (id, course_id, project_id, status, due_date, roster, created_at, closed_at)
		VALUES (:id, :course_id, :project_id, :status, :due_date, :roster, :created_at, :closed_at)`
	row := toEventRow(ev)
	if _, err := sqlx.NamedExecContext(ctx, st.exec, q, row); err != nil {
		if database.IsUniqueViolation(err) {
			return points.Event{}, points.ErrOpenEventExists
		}
		return points.Event{}, errors.Wrap(err, "inserting event")
	}
	return row.event(), nil
}

func (st *pointsStore) GetEvent(ctx context.Context, id core.ID) (points.Event, error) {
	var row eventRow
	if err := st.get(ctx, &row, `SELECT * FROM team_point_events WHERE id = ?`, id.String()); err != nil {
		return points.Event{}, trapNoRowsErr(err, points.ErrEventNotFound, "getting event")
	}
	return row.event(), nil
}

func (st *pointsStore) GetOpenEvent(ctx context.Context, projectID core.ID) (points.Event, error) {
	var row eventRow
	q := `SELECT * FROM team_point_events WHERE project_id = ? AND status = ?`
	if err := st.get(ctx, &row, q, projectID.String(), string(points.StatusOpen)); err != nil {
		return points.Event{}, trapNoRowsErr(err, points.ErrEventNotFound, "getting open event")
	}
	return row.event(), nil
}

func (st *pointsStore) ListEvents(ctx context.Context, projectID core.ID) ([]points.Event, error) {
	var rows []eventRow
	q := `SELECT * FROM team_point_events WHERE project_id = ? ORDER BY created_at DESC, id`
	if err := st.selekt(ctx, &rows, q, projectID.String()); err != nil {
		return nil, errors.Wrap(err, "listing events")
	}
	events := make([]points.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.event())
	}
	return events, nil
}

func (st *pointsStore) CloseEvent(ctx context.Context, id core.ID, closedAt time.Time) (points.Event, error) {
	q := st.exec.Rebind(`UPDATE team_point_events SET status = ?, closed_at = ? WHERE id = ? AND status = ?`)
	res, err := st.exec.ExecContext(ctx, q, string(points.StatusClosed), closedAt.UTC(), id.String(), string(points.StatusOpen))
	if err != nil {
		return points.Event{}, errors.Wrap(err, "closing event")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return points.Event{}, errors.Wrap(err, "closing event")
	}
	if n == 0 {
		// either missing or not Open
		if _, err = st.GetEvent(ctx, id); err != nil {
			return points.Event{}, err
		}
		return points.Event{}, points.ErrEventClosed
	}
	return st.GetEvent(ctx, id)
}

func (st *pointsStore) CreateSubmission(ctx context.Context, sub points.Submission) (points.Submission, error) {
	row := submissionRow{
		ID:          sub.ID.String(),
		EventID:     sub.EventID.String(),
		RaterID:     sub.RaterID.String(),
		Ratings:     sub.Ratings,
		TotalPoints: sub.TotalPoints,
		SubmittedAt: sub.SubmittedAt.UTC(),
	}
	q := `INSERT INTO team_point_submissions (id, event_id, rater_id, ratings, total_points, submitted_at)
		VALUES (:id, :event_id, :rater_id, :ratings, :total_points, :submitted_at)`
	if _, err := sqlx.NamedExecContext(ctx, st.exec, q, row); err != nil {
		if database.IsUniqueViolation(err) {
			return points.Submission{}, points.ErrDuplicateSubmission
		}
		return points.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return row.submission(), nil
}

func (st *pointsStore) GetSubmission(ctx context.Context, eventID, raterID core.ID) (points.Submission, error) {
	var row submissionRow
	q := `SELECT * FROM team_point_submissions WHERE event_id = ? AND rater_id = ?`
	if err := st.get(ctx, &row, q, eventID.String(), raterID.String()); err != nil {
		return points.Submission{}, trapNoRowsErr(err, points.ErrSubmissionNotFound, "getting submission")
	}
	return row.submission(), nil
}

func (st *pointsStore) ListSubmissions(ctx context.Context, eventID core.ID) ([]points.Submission, error) {
	var rows []submissionRow
	q := `SELECT * FROM team_point_submissions WHERE event_id = ? ORDER BY submitted_at, id`
	if err := st.selekt(ctx, &rows, q, eventID.String()); err != nil {
		return nil, errors.Wrap(err, "listing submissions")
	}
	subs := make([]points.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.submission())
	}
	return subs, nil
}

func (st *pointsStore) CountSubmissions(ctx context.Context, eventIDs []core.ID) (map[core.ID]int, error) {
	counts := make(map[core.ID]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		EventID string `db:"event_id"`
		N       int    `db:"n"`
	}
	q := `SELECT event_id, COUNT(*) AS n FROM team_point_submissions WHERE event_id IN (?) GROUP BY event_id`
	if err := st.selectIn(ctx, &rows, q, eventIDs); err != nil {
		return nil, errors.Wrap(err, "counting submissions")
	}
	for _, r := range rows {
		counts[core.ID(r.EventID)] = r.N
	}
	return counts, nil
}

func (st *pointsStore) ReplaceScalingFactors(ctx context.Context, eventID core.ID, factors []points.ScalingFactor) error {
	return st.RunInTx(ctx, func(tx points.Store) error {
		exec := tx.(*pointsStore).exec
		q := exec.Rebind(`DELETE FROM scaling_factors WHERE event_id = ?`)
		if _, err := exec.ExecContext(ctx, q, eventID.String()); err != nil {
			return errors.Wrap(err, "deleting scaling factors")
		}
		if len(factors) == 0 {
			return nil
		}

		rows := make([]scalingFactorRow, 0, len(factors))
		for _, sf := range factors {
			rows = append(rows, scalingFactorRow{
				ID:            sf.ID.String(),
				EventID:       eventID.String(),
				StudentID:     sf.StudentID.String(),
				TotalReceived: sf.TotalReceived,
				TeamSize:      sf.TeamSize,
				ScalingFactor: sf.ScalingFactor,
				ComputedAt:    sf.ComputedAt.UTC(),
			})
		}
		ins := `INSERT INTO scaling_factors (id, event_id, student_id, total_received, team_size, scaling_factor, computed_at)
			VALUES (:id, :event_id, :student_id, :total_received, :team_size, :scaling_factor, :computed_at)`
		if _, err := sqlx.NamedExecContext(ctx, exec, ins, rows); err != nil {
			return errors.Wrap(err, "inserting scaling factors")
		}
		return nil
	})
}

func (st *pointsStore) ListScalingFactors(ctx context.Context, eventIDs []core.ID) ([]points.ScalingFactor, error) {
	if len(eventIDs) == 0 {
		return []points.ScalingFactor{}, nil
	}
	var rows []scalingFactorRow
	q := `SELECT * FROM scaling_factors WHERE event_id IN (?) ORDER BY event_id, student_id`
	if err := st.selectIn(ctx, &rows, q, eventIDs); err != nil {
		return nil, errors.Wrap(err, "listing scaling factors")
	}
	factors := make([]points.ScalingFactor, 0, len(rows))
	for _, r := range rows {
		factors = append(factors, r.scalingFactor())
	}
	return factors, nil
}
