package roster

import (
	"context"

	"github.com/trezcool/teampoints/core"
)

var (
	// errors
	ErrCourseNotFound     = core.NotFound("course not found")
	ErrProjectNotFound    = core.NotFound("project not found")
	ErrStudentNotFound    = core.NotFound("student not found")
	ErrInstructorNotFound = core.NotFound("instructor not found")
	ErrNotCourseOwner     = core.Forbidden("only the course instructor can do this")
	ErrAlreadyExists      = core.Conflict("a record with this key already exists")
)

type (
	// StudentLookup resolves students by either of their keys.
	StudentLookup interface {
		GetStudentByID(ctx context.Context, id core.ID) (Student, error)
		GetStudentByEmail(ctx context.Context, email string) (Student, error)
	}

	// Repository is the roster store. The points core only reads from it;
	// the Create methods exist for seeding.
	Repository interface {
		StudentLookup

		GetCourseByNumber(ctx context.Context, number string) (Course, error)
		// GetProject returns ErrProjectNotFound when the project exists but belongs to another course.
		GetProject(ctx context.Context, courseID, projectID core.ID) (Project, error)
		GetInstructorByID(ctx context.Context, id core.ID) (Instructor, error)

		CreateInstructor(ctx context.Context, ins Instructor) (Instructor, error)
		CreateStudent(ctx context.Context, s Student) (Student, error)
		CreateCourse(ctx context.Context, c Course) (Course, error)
		CreateProject(ctx context.Context, p Project) (Project, error)
	}
)
