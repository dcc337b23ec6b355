package inmemdb

import (
	"context"
	"strings"
	"time"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/roster"
)

type rosterRepository struct {
	db *rosterTables
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *DB) roster.Repository {
	return &rosterRepository{db: db.roster}
}

func copyProject(p roster.Project) roster.Project {
	p.StudentRefs = append(make([]string, 0, len(p.StudentRefs)), p.StudentRefs...)
	return p
}

func (repo *rosterRepository) GetStudentByID(_ context.Context, id core.ID) (roster.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return s, nil
	}
	return roster.Student{}, roster.ErrStudentNotFound
}

func (repo *rosterRepository) GetStudentByEmail(_ context.Context, email string) (roster.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	email = core.CleanString(email, true)
	for _, s := range repo.db.students {
		if s.Email == email {
			return s, nil
		}
	}
	return roster.Student{}, roster.ErrStudentNotFound
}

func (repo *rosterRepository) GetCourseByNumber(_ context.Context, number string) (roster.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.courses {
		if c.Number == number {
			return c, nil
		}
	}
	return roster.Course{}, roster.ErrCourseNotFound
}

func (repo *rosterRepository) GetProject(_ context.Context, courseID, projectID core.ID) (roster.Project, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.projects[projectID]; ok && p.CourseID == courseID {
		return copyProject(p), nil
	}
	return roster.Project{}, roster.ErrProjectNotFound
}

func (repo *rosterRepository) GetInstructorByID(_ context.Context, id core.ID) (roster.Instructor, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ins, ok := repo.db.instructors[id]; ok {
		return ins, nil
	}
	return roster.Instructor{}, roster.ErrInstructorNotFound
}

func (repo *rosterRepository) CreateInstructor(_ context.Context, ins roster.Instructor) (roster.Instructor, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if ins.ID == "" {
		ins.ID = core.NewID()
	}
	ins.Email = core.CleanString(ins.Email, true)
	if _, ok := repo.db.instructors[ins.ID]; ok {
		return roster.Instructor{}, roster.ErrAlreadyExists
	}
	for _, other := range repo.db.instructors {
		if strings.EqualFold(other.Email, ins.Email) {
			return roster.Instructor{}, roster.ErrAlreadyExists
		}
	}
	ins.CreatedAt = createdAt(ins.CreatedAt)
	repo.db.instructors[ins.ID] = ins
	return ins, nil
}

func (repo *rosterRepository) CreateStudent(_ context.Context, s roster.Student) (roster.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if s.ID == "" {
		s.ID = core.NewID()
	}
	s.Email = core.CleanString(s.Email, true)
	if _, ok := repo.db.students[s.ID]; ok {
		return roster.Student{}, roster.ErrAlreadyExists
	}
	for _, other := range repo.db.students {
		if other.Email == s.Email {
			return roster.Student{}, roster.ErrAlreadyExists
		}
	}
	s.CreatedAt = createdAt(s.CreatedAt)
	repo.db.students[s.ID] = s
	return s, nil
}

func (repo *rosterRepository) CreateCourse(_ context.Context, c roster.Course) (roster.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if c.ID == "" {
		c.ID = core.NewID()
	}
	if _, ok := repo.db.courses[c.ID]; ok {
		return roster.Course{}, roster.ErrAlreadyExists
	}
	for _, other := range repo.db.courses {
		if other.Number == c.Number {
			return roster.Course{}, roster.ErrAlreadyExists
		}
	}
	if _, ok := repo.db.instructors[c.InstructorID]; !ok {
		return roster.Course{}, roster.ErrInstructorNotFound
	}
	c.CreatedAt = createdAt(c.CreatedAt)
	repo.db.courses[c.ID] = c
	return c, nil
}

func (repo *rosterRepository) CreateProject(_ context.Context, p roster.Project) (roster.Project, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if p.ID == "" {
		p.ID = core.NewID()
	}
	if _, ok := repo.db.projects[p.ID]; ok {
		return roster.Project{}, roster.ErrAlreadyExists
	}
	if _, ok := repo.db.courses[p.CourseID]; !ok {
		return roster.Project{}, roster.ErrCourseNotFound
	}
	if p.StudentRefs == nil {
		p.StudentRefs = []string{}
	}
	p.CreatedAt = createdAt(p.CreatedAt)
	p = copyProject(p)
	repo.db.projects[p.ID] = p
	return copyProject(p), nil
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
