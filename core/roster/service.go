package roster

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/teampoints/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Course finds a course by its number.
func (svc *Service) Course(ctx context.Context, number string) (Course, error) {
	number = core.CleanString(number)
	if number == "" {
		return Course{}, ErrCourseNotFound
	}
	return svc.repo.GetCourseByNumber(ctx, number)
}

// Project finds a project within the course; malformed project ids are simply not found.
func (svc *Service) Project(ctx context.Context, course Course, rawProjectID string) (Project, error) {
	pid, ok := core.ParseID(rawProjectID)
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	return svc.repo.GetProject(ctx, course.ID, pid)
}

// InstructorProject resolves the course and project addressed by an instructor request,
// checking that the caller teaches the course before looking at the project.
func (svc *Service) InstructorProject(ctx context.Context, caller core.Caller, courseNumber, rawProjectID string) (Course, Project, error) {
	course, err := svc.Course(ctx, courseNumber)
	if err != nil {
		return Course{}, Project{}, err
	}
	if err = AuthorizeInstructor(caller, course); err != nil {
		return Course{}, Project{}, err
	}
	project, err := svc.Project(ctx, course, rawProjectID)
	if err != nil {
		return Course{}, Project{}, err
	}
	return course, project, nil
}

// CourseProject resolves the course and project addressed by any request.
func (svc *Service) CourseProject(ctx context.Context, courseNumber, rawProjectID string) (Course, Project, error) {
	course, err := svc.Course(ctx, courseNumber)
	if err != nil {
		return Course{}, Project{}, err
	}
	project, err := svc.Project(ctx, course, rawProjectID)
	if err != nil {
		return Course{}, Project{}, err
	}
	return course, project, nil
}

func (svc *Service) Student(ctx context.Context, id core.ID) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

// Snapshot builds the roster of a project as of now.
func (svc *Service) Snapshot(ctx context.Context, project Project) ([]Entry, error) {
	entries, err := BuildSnapshot(ctx, svc.repo, project.StudentRefs)
	return entries, errors.Wrap(err, "building roster snapshot")
}

// AuthorizeInstructor checks that the caller is the instructor of the course.
func AuthorizeInstructor(caller core.Caller, course Course) error {
	if !caller.IsInstructor() || caller.ID != course.InstructorID {
		return ErrNotCourseOwner
	}
	return nil
}
