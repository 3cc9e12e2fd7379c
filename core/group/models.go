package group

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
)

// Group is an exam session for exactly one subject.
type Group struct {
	ID             int         `json:"id" db:"id"`
	SubjectID      int         `json:"subject_id" db:"subject_id"`
	SubjectName    string      `json:"subject_name" db:"subject_name"`
	ExamDate       time.Time   `json:"exam_date" db:"exam_date"`
	RoomNumber     null.String `json:"room_number" db:"room_number"`
	ApplicantCount int         `json:"applicant_count" db:"applicant_count"`
	TeacherCount   int         `json:"teacher_count" db:"teacher_count"`
}

type Teacher struct {
	ID        int    `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Email     string `json:"email" db:"email"`
}

// Member is an applicant enrolled in a group. Score is null until graded.
type Member struct {
	ID        int          `json:"id" db:"id"`
	FirstName string       `json:"first_name" db:"first_name"`
	LastName  string       `json:"last_name" db:"last_name"`
	Email     string       `json:"email" db:"email"`
	Score     null.Float64 `json:"score" db:"score"`
}

type Detail struct {
	Group
	Teachers   []Teacher `json:"teachers"`
	Applicants []Member  `json:"applicants"`
}

// StaffOption is a staff member listed for binding, flagged when already bound to the group.
type StaffOption struct {
	ID          int    `json:"id" db:"id"`
	FirstName   string `json:"first_name" db:"first_name"`
	LastName    string `json:"last_name" db:"last_name"`
	Email       string `json:"email" db:"email"`
	IsTeacher   bool   `json:"is_teacher" db:"is_teacher"`
	IsSecretary bool   `json:"is_secretary" db:"is_secretary"`
	InGroup     bool   `json:"in_group" db:"in_group"`
}

type NewGroup struct {
	SubjectID  int       `json:"subject_id" validate:"required,gt=0"`
	ExamDate   time.Time `json:"exam_date" validate:"required"`
	RoomNumber string    `json:"room_number" validate:"omitempty,max=32"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.RoomNumber = core.CleanString(ng.RoomNumber)
	return validate.Struct(ng)
}

type BindTeacher struct {
	TeacherID int `json:"teacher_id" validate:"required,gt=0"`
}

func (bt *BindTeacher) Validate(validate *validator.Validate) error {
	return validate.Struct(bt)
}
