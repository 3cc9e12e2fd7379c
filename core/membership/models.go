package membership

import (
	"bytes"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
)

// Role selects the score recording policy.
type Role int

const (
	// RoleTeacher only writes the scores that are present and non-null.
	RoleTeacher Role = iota + 1
	// RoleSecretary writes every listed score; an absent or null score clears the grade.
	RoleSecretary
)

func (r Role) String() string {
	switch r {
	case RoleTeacher:
		return "teacher"
	case RoleSecretary:
		return "secretary"
	}
	return "unknown"
}

// EligibleApplicant is an applicant whose specialty requires the subject of a group.
type EligibleApplicant struct {
	ID            int    `json:"id" db:"id"`
	FirstName     string `json:"first_name" db:"first_name"`
	LastName      string `json:"last_name" db:"last_name"`
	Email         string `json:"email" db:"email"`
	SpecialtyID   int    `json:"specialty_id" db:"specialty_id"`
	SpecialtyName string `json:"specialty_name" db:"specialty_name"`
	Status        string `json:"status" db:"status"`
	// InGroup is set when the applicant is a member of this very group.
	InGroup bool `json:"in_group" db:"in_group"`
	// HasPassedExam is set when the applicant holds a score in any group of the subject.
	HasPassedExam bool `json:"has_passed_exam" db:"has_passed_exam"`
}

// Target is the group an operation applies to, with what is needed to notify applicants.
type Target struct {
	GroupID     int         `db:"id"`
	SubjectID   int         `db:"subject_id"`
	SubjectName string      `db:"subject_name"`
	ExamDate    time.Time   `db:"exam_date"`
	RoomNumber  null.String `db:"room_number"`
}

// Candidate is the applicant being moved into a group.
type Candidate struct {
	ID        int    `db:"id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Email     string `db:"email"`
}

// ScoreInput distinguishes an absent score (Set is false) from an explicit null.
type ScoreInput struct {
	Score null.Float64
	Set   bool
}

var nullBytes = []byte("null")

func (s *ScoreInput) UnmarshalJSON(data []byte) error {
	s.Set = true
	if bytes.Equal(data, nullBytes) {
		s.Score = null.Float64{}
		return nil
	}
	return s.Score.UnmarshalJSON(data)
}

func (s ScoreInput) MarshalJSON() ([]byte, error) {
	return s.Score.MarshalJSON()
}

// Value returns the score to store for the role, and whether it must be written at all.
func (s ScoreInput) Value(role Role) (null.Float64, bool) {
	if role == RoleSecretary {
		return s.Score, true
	}
	if !s.Set || !s.Score.Valid {
		return null.Float64{}, false
	}
	return s.Score, true
}

type Result struct {
	ApplicantID int        `json:"applicant_id" validate:"required,gt=0"`
	Score       ScoreInput `json:"score"`
}

type RecordScores struct {
	Results []Result `json:"results" validate:"required,dive"`
}

func (rs *RecordScores) Validate(validate *validator.Validate) error {
	return validate.Struct(rs)
}

type TransferRequest struct {
	ApplicantID int `json:"applicant_id" validate:"required,gt=0"`
}

func (tr *TransferRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(tr)
}

// TransferResult is returned by a successful transfer.
type TransferResult struct {
	Message string `json:"message"`
	// Replaced is set when a membership in another group of the same subject was removed.
	Replaced bool `json:"replaced"`
}

// RecordResult counts what a score batch did.
type RecordResult struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// examNotice is the data of the exam_assigned email.
type examNotice struct {
	Name     string
	Subject  string
	ExamDate string
	Room     string
}
