package roster

import (
	"strings"
	"time"

	"github.com/trezcool/teampoints/core"
)

type Instructor struct {
	ID        core.ID   `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"-"` // UTC
}

type Student struct {
	ID        core.ID   `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	FirstName string    `json:"first_name" yaml:"first_name"`
	LastName  string    `json:"last_name" yaml:"last_name"`
	CreatedAt time.Time `json:"created_at" yaml:"-"` // UTC
}

// DisplayName is "First Last", or the email when both names are blank.
func (s Student) DisplayName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return s.Email
	}
	return name
}

type Course struct {
	ID           core.ID   `json:"id" yaml:"id"`
	Number       string    `json:"number" yaml:"number"`
	Name         string    `json:"name" yaml:"name"`
	InstructorID core.ID   `json:"instructor_id" yaml:"instructor_id"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"` // UTC
}

// Project is a team of students within a Course.
// StudentRefs is the enrollment as stored: each entry is either a student id or an email.
type Project struct {
	ID          core.ID   `json:"id" yaml:"id"`
	CourseID    core.ID   `json:"course_id" yaml:"course_id"`
	Name        string    `json:"name" yaml:"name"`
	StudentRefs []string  `json:"students" yaml:"students"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"` // UTC
}

// Entry is one member of an event roster, copied from the Student record at snapshot time.
type Entry struct {
	StudentID    core.ID `json:"studentId"`
	StudentEmail string  `json:"studentEmail"`
	StudentName  string  `json:"studentName"`
}

func NewEntry(s Student) Entry {
	return Entry{
		StudentID:    s.ID,
		StudentEmail: s.Email,
		StudentName:  s.DisplayName(),
	}
}
