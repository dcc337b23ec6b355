package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/roster"
)

type (
	// seedFile is the roster YAML layout. Courses name their instructor by id or by email,
	// and own their projects.
	seedFile struct {
		Instructors []roster.Instructor `yaml:"instructors"`
		Students    []roster.Student    `yaml:"students"`
		Courses     []seedCourse        `yaml:"courses"`
	}

	seedCourse struct {
		roster.Course `yaml:",inline"`
		Instructor    string           `yaml:"instructor"`
		Projects      []roster.Project `yaml:"projects"`
	}

	seedStats struct {
		created, skipped int
	}
)

func (st seedStats) String() string {
	return fmt.Sprintf("%d created, %d already present", st.created, st.skipped)
}

func (st *seedStats) add(err error) error {
	switch {
	case err == nil:
		st.created++
	case errors.Is(err, roster.ErrAlreadyExists):
		st.skipped++
	default:
		return err
	}
	return nil
}

func loadSeedFile(path string) (seedFile, error) {
	var sf seedFile
	data, err := os.ReadFile(path)
	if err != nil {
		return sf, errors.Wrap(err, "reading seed file")
	}
	if err = yaml.Unmarshal(data, &sf); err != nil {
		return sf, errors.Wrap(err, "parsing seed file")
	}
	return sf, nil
}

// seed loads a roster file. Records that already exist are left untouched, so seeding twice is harmless.
func (cli *commandLine) seed(ctx context.Context, path string) error {
	sf, err := loadSeedFile(path)
	if err != nil {
		return err
	}
	repo := cli.store.Roster

	var instructors, students, courses, projects seedStats
	byEmail := make(map[string]core.ID, len(sf.Instructors))
	for _, ins := range sf.Instructors {
		ins.Email = core.CleanString(ins.Email, true)
		created, err := repo.CreateInstructor(ctx, ins)
		if err = instructors.add(err); err != nil {
			return errors.Wrapf(err, "creating instructor %s", ins.Email)
		}
		if created.ID != "" {
			byEmail[ins.Email] = created.ID
		} else if ins.ID != "" {
			byEmail[ins.Email] = ins.ID
		}
	}

	for _, s := range sf.Students {
		s.Email = core.CleanString(s.Email, true)
		_, err := repo.CreateStudent(ctx, s)
		if err = students.add(err); err != nil {
			return errors.Wrapf(err, "creating student %s", s.Email)
		}
	}

	for _, sc := range sf.Courses {
		course, err := repo.GetCourseByNumber(ctx, sc.Number)
		existed := err == nil
		switch {
		case existed:
			courses.skipped++
		case errors.Is(err, roster.ErrCourseNotFound):
			if course, err = cli.seedCourse(ctx, sc, byEmail); err != nil {
				return err
			}
			courses.created++
		default:
			return errors.Wrapf(err, "getting course %s", sc.Number)
		}

		for _, p := range sc.Projects {
			// without an id, a project cannot be told apart from one seeded earlier
			if existed && p.ID == "" {
				projects.skipped++
				continue
			}
			p.CourseID = course.ID
			_, err := repo.CreateProject(ctx, p)
			if err = projects.add(err); err != nil {
				return errors.Wrapf(err, "creating project %s", p.Name)
			}
		}
	}

	cli.printf("instructors: %v\nstudents: %v\ncourses: %v\nprojects: %v\n", instructors, students, courses, projects)
	return nil
}

func (cli *commandLine) seedCourse(ctx context.Context, sc seedCourse, instructors map[string]core.ID) (roster.Course, error) {
	course := sc.Course
	if course.InstructorID == "" {
		id, ok := instructors[core.CleanString(sc.Instructor, true)]
		if !ok {
			return roster.Course{}, errors.Errorf("course %s: unknown instructor %q", course.Number, sc.Instructor)
		}
		course.InstructorID = id
	}
	created, err := cli.store.Roster.CreateCourse(ctx, course)
	return created, errors.Wrapf(err, "creating course %s", course.Number)
}
