package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/roster"
)

func CreateInstructor(t *testing.T, repo roster.Repository, name, email string) roster.Instructor {
	ins, err := repo.CreateInstructor(context.Background(), roster.Instructor{Name: name, Email: email})
	if err != nil {
		t.Fatalf("createInstructor() failed: %v", err)
	}
	return ins
}

func CreateStudent(t *testing.T, repo roster.Repository, first, last, email string) roster.Student {
	s, err := repo.CreateStudent(context.Background(), roster.Student{FirstName: first, LastName: last, Email: email})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return s
}

func CreateCourse(t *testing.T, repo roster.Repository, number string, instructor roster.Instructor) roster.Course {
	c, err := repo.CreateCourse(context.Background(), roster.Course{
		Number:       number,
		Name:         "Course " + number,
		InstructorID: instructor.ID,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return c
}

func CreateProject(t *testing.T, repo roster.Repository, course roster.Course, name string, refs ...string) roster.Project {
	p, err := repo.CreateProject(context.Background(), roster.Project{CourseID: course.ID, Name: name, StudentRefs: refs})
	if err != nil {
		t.Fatalf("createProject() failed: %v", err)
	}
	return p
}

// Team is a course taught by Instructor with one project staffed by Students.
type Team struct {
	Instructor roster.Instructor
	Course     roster.Course
	Project    roster.Project
	Students   []roster.Student
}

func (tm Team) InstructorCaller() core.Caller {
	return core.Caller{ID: tm.Instructor.ID, Email: tm.Instructor.Email, Role: core.RoleInstructor}
}

func (tm Team) StudentCaller(i int) core.Caller {
	s := tm.Students[i]
	return core.Caller{ID: s.ID, Email: s.Email, Role: core.RoleStudent}
}

// CreateTeam seeds a course numbered courseNumber whose single project has size students,
// enrolled alternately by id and by email.
func CreateTeam(t *testing.T, repo roster.Repository, courseNumber string, size int) Team {
	tm := Team{Instructor: CreateInstructor(t, repo, "Prof "+courseNumber, "prof."+courseNumber+"@school.test")}
	tm.Course = CreateCourse(t, repo, courseNumber, tm.Instructor)

	refs := make([]string, 0, size)
	for i := 0; i < size; i++ {
		s := CreateStudent(t, repo, "Student", fmt.Sprint(i+1), fmt.Sprintf("s%d.%s@school.test", i+1, courseNumber))
		tm.Students = append(tm.Students, s)
		if i%2 == 0 {
			refs = append(refs, s.ID.String())
		} else {
			refs = append(refs, s.Email)
		}
	}
	tm.Project = CreateProject(t, repo, tm.Course, "Project "+courseNumber, refs...)
	return tm
}

// Clock is a settable time source.
type Clock struct {
	T time.Time
}

func NewClock() *Clock {
	return &Clock{T: time.Date(2021, time.March, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }
