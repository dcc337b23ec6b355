package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/roster"
	"github.com/trezcool/teampoints/storage/database"
)

type (
	instructorRow struct {
		ID        string    `db:"id"`
		Email     string    `db:"email"`
		Name      string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`
	}

	studentRow struct {
		ID        string    `db:"id"`
		Email     string    `db:"email"`
		FirstName string    `db:"first_name"`
		LastName  string    `db:"last_name"`
		CreatedAt time.Time `db:"created_at"`
	}

	courseRow struct {
		ID           string    `db:"id"`
		Number       string    `db:"number"`
		Name         string    `db:"name"`
		InstructorID string    `db:"instructor_id"`
		CreatedAt    time.Time `db:"created_at"`
	}

	projectRow struct {
		ID          string        `db:"id"`
		CourseID    string        `db:"course_id"`
		Name        string        `db:"name"`
		StudentRefs stringsColumn `db:"student_refs"`
		CreatedAt   time.Time     `db:"created_at"`
	}
)

func (r studentRow) student() roster.Student {
	return roster.Student{
		ID:        core.ID(r.ID),
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		CreatedAt: r.CreatedAt,
	}
}

func (r projectRow) project() roster.Project {
	refs := []string(r.StudentRefs)
	if refs == nil {
		refs = []string{}
	}
	return roster.Project{
		ID:          core.ID(r.ID),
		CourseID:    core.ID(r.CourseID),
		Name:        r.Name,
		StudentRefs: refs,
		CreatedAt:   r.CreatedAt,
	}
}

type rosterRepository struct {
	db sqlx.ExtContext
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db sqlx.ExtContext) *rosterRepository {
	return &rosterRepository{db: db}
}

// trapNoRowsErr maps "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo rosterRepository) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, repo.db, dest, repo.db.Rebind(query), args...)
}

func (repo rosterRepository) insert(ctx context.Context, query string, arg interface{}) error {
	_, err := sqlx.NamedExecContext(ctx, repo.db, query, arg)
	if database.IsUniqueViolation(err) {
		return roster.ErrAlreadyExists
	}
	return err
}

func (repo rosterRepository) GetStudentByID(ctx context.Context, id core.ID) (roster.Student, error) {
	var row studentRow
	if err := repo.get(ctx, &row, `SELECT * FROM students WHERE id = ?`, id.String()); err != nil {
		return roster.Student{}, trapNoRowsErr(err, roster.ErrStudentNotFound, "getting student")
	}
	return row.student(), nil
}

func (repo rosterRepository) GetStudentByEmail(ctx context.Context, email string) (roster.Student, error) {
	var row studentRow
	if err := repo.get(ctx, &row, `SELECT * FROM students WHERE email = ?`, core.CleanString(email, true)); err != nil {
		return roster.Student{}, trapNoRowsErr(err, roster.ErrStudentNotFound, "getting student")
	}
	return row.student(), nil
}

func (repo rosterRepository) GetCourseByNumber(ctx context.Context, number string) (roster.Course, error) {
	var row courseRow
	if err := repo.get(ctx, &row, `SELECT * FROM courses WHERE number = ?`, number); err != nil {
		return roster.Course{}, trapNoRowsErr(err, roster.ErrCourseNotFound, "getting course")
	}
	return roster.Course{
		ID:           core.ID(row.ID),
		Number:       row.Number,
		Name:         row.Name,
		InstructorID: core.ID(row.InstructorID),
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (repo rosterRepository) GetProject(ctx context.Context, courseID, projectID core.ID) (roster.Project, error) {
	var row projectRow
	q := `SELECT * FROM projects WHERE id = ? AND course_id = ?`
	if err := repo.get(ctx, &row, q, projectID.String(), courseID.String()); err != nil {
		return roster.Project{}, trapNoRowsErr(err, roster.ErrProjectNotFound, "getting project")
	}
	return row.project(), nil
}

func (repo rosterRepository) GetInstructorByID(ctx context.Context, id core.ID) (roster.Instructor, error) {
	var row instructorRow
	if err := repo.get(ctx, &row, `SELECT * FROM instructors WHERE id = ?`, id.String()); err != nil {
		return roster.Instructor{}, trapNoRowsErr(err, roster.ErrInstructorNotFound, "getting instructor")
	}
	return roster.Instructor{ID: core.ID(row.ID), Email: row.Email, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

func (repo rosterRepository) CreateInstructor(ctx context.Context, ins roster.Instructor) (roster.Instructor, error) {
	if ins.ID == "" {
		ins.ID = core.NewID()
	}
	ins.Email = core.CleanString(ins.Email, true)
	ins.CreatedAt = createdAt(ins.CreatedAt)
	row := instructorRow{ID: ins.ID.String(), Email: ins.Email, Name: ins.Name, CreatedAt: ins.CreatedAt}
	q := `INSERT INTO instructors (id, email, name, created_at) VALUES (:id, :email, :name, :created_at)`
	if err := repo.insert(ctx, q, row); err != nil {
		return roster.Instructor{}, errors.Wrap(err, "inserting instructor")
	}
	return ins, nil
}

func (repo rosterRepository) CreateStudent(ctx context.Context, s roster.Student) (roster.Student, error) {
	if s.ID == "" {
		s.ID = core.NewID()
	}
	s.Email = core.CleanString(s.Email, true)
	s.CreatedAt = createdAt(s.CreatedAt)
	row := studentRow{ID: s.ID.String(), Email: s.Email, FirstName: s.FirstName, LastName: s.LastName, CreatedAt: s.CreatedAt}
	q := `INSERT INTO students (id, email, first_name, last_name, created_at)
		VALUES (:id, :email, :first_name, :last_name, :created_at)`
	if err := repo.insert(ctx, q, row); err != nil {
		return roster.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo rosterRepository) CreateCourse(ctx context.Context, c roster.Course) (roster.Course, error) {
	if c.ID == "" {
		c.ID = core.NewID()
	}
	c.CreatedAt = createdAt(c.CreatedAt)
	row := courseRow{ID: c.ID.String(), Number: c.Number, Name: c.Name, InstructorID: c.InstructorID.String(), CreatedAt: c.CreatedAt}
	q := `INSERT INTO courses (id, number, name, instructor_id, created_at)
		VALUES (:id, :number, :name, :instructor_id, :created_at)`
	if err := repo.insert(ctx, q, row); err != nil {
		return roster.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo rosterRepository) CreateProject(ctx context.Context, p roster.Project) (roster.Project, error) {
	if p.ID == "" {
		p.ID = core.NewID()
	}
	if p.StudentRefs == nil {
		p.StudentRefs = []string{}
	}
	p.CreatedAt = createdAt(p.CreatedAt)
	row := projectRow{ID: p.ID.String(), CourseID: p.CourseID.String(), Name: p.Name, StudentRefs: p.StudentRefs, CreatedAt: p.CreatedAt}
	q := `INSERT INTO projects (id, course_id, name, student_refs, created_at)
		VALUES (:id, :course_id, :name, :student_refs, :created_at)`
	if err := repo.insert(ctx, q, row); err != nil {
		return roster.Project{}, errors.Wrap(err, "inserting project")
	}
	return p, nil
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
