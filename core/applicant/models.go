package applicant

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
)

// Statuses
const (
	StatusRegistered = "registered"
	StatusAdmitted   = "admitted"
	StatusRejected   = "rejected"
	StatusWithdrawn  = "withdrawn"
)

var (
	Statuses = []string{StatusRegistered, StatusAdmitted, StatusRejected, StatusWithdrawn}

	// OrderingFields are the columns applicants may be sorted on.
	OrderingFields = []string{"id", "first_name", "last_name", "birth_date", "application_date", "status"}

	birthDateLayout = "2006-01-02"
)

func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

type Applicant struct {
	ID              int         `json:"id" db:"id"`
	FirstName       string      `json:"first_name" db:"first_name"`
	LastName        string      `json:"last_name" db:"last_name"`
	MiddleName      null.String `json:"middle_name" db:"middle_name"`
	BirthDate       time.Time   `json:"birth_date" db:"birth_date"`
	PassportData    string      `json:"passport_data" db:"passport_data"`
	Address         string      `json:"address" db:"address"`
	Phone           null.String `json:"phone" db:"phone"`
	Email           string      `json:"email" db:"email"`
	PasswordHash    []byte      `json:"-" db:"password_hash"`
	ApplicationDate time.Time   `json:"application_date" db:"application_date"`
	SpecialtyID     int         `json:"specialty_id" db:"specialty_id"`
	SpecialtyName   string      `json:"specialty_name,omitempty" db:"specialty_name"`
	Status          string      `json:"status" db:"status"`
}

func (a *Applicant) SetPassword(pwd string) error {
	hash, err := core.HashPassword(pwd)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Applicant) CheckPassword(pwd string) error {
	return core.CheckPassword(a.PasswordHash, pwd)
}

func (a Applicant) FullName() string {
	return a.FirstName + " " + a.LastName
}

func (a Applicant) Principal() core.Principal {
	return core.Principal{ID: a.ID, Kind: core.KindApplicant, Name: a.FullName()}
}

// NewApplicant contains information needed to register a new Applicant.
// Status is only honoured when a secretary creates the applicant.
type NewApplicant struct {
	FirstName    string `json:"first_name" validate:"notblank"`
	LastName     string `json:"last_name" validate:"notblank"`
	MiddleName   string `json:"middle_name"`
	BirthDate    string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	PassportData string `json:"passport_data" validate:"notblank"`
	Address      string `json:"address" validate:"notblank"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	SpecialtyID  int    `json:"specialty_id" validate:"required,gt=0"`
	Status       string `json:"status" validate:"omitempty,applicant_status"`
}

func (na *NewApplicant) Validate(validate *validator.Validate) error {
	na.FirstName = core.CleanString(na.FirstName)
	na.LastName = core.CleanString(na.LastName)
	na.MiddleName = core.CleanString(na.MiddleName)
	na.BirthDate = core.CleanString(na.BirthDate)
	na.PassportData = core.CleanString(na.PassportData)
	na.Address = core.CleanString(na.Address)
	na.Phone = core.CleanString(na.Phone)
	na.Email = core.CleanString(na.Email, true /* lower */)
	return validate.Struct(na)
}

// UpdateApplicant defines what a secretary may modify on an existing Applicant. nil fields are left untouched.
type UpdateApplicant struct {
	FirstName    *string `json:"first_name" validate:"omitempty,notblank"`
	LastName     *string `json:"last_name" validate:"omitempty,notblank"`
	MiddleName   *string `json:"middle_name"`
	BirthDate    *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	PassportData *string `json:"passport_data" validate:"omitempty,notblank"`
	Address      *string `json:"address" validate:"omitempty,notblank"`
	Phone        *string `json:"phone" validate:"omitempty,max=32"`
	Email        *string `json:"email" validate:"omitempty,email"`
	SpecialtyID  *int    `json:"specialty_id" validate:"omitempty,gt=0"`
	Status       *string `json:"status" validate:"omitempty,applicant_status"`
}

func (ua *UpdateApplicant) Validate(validate *validator.Validate) error {
	clean := func(s *string, lower ...bool) *string {
		if s == nil {
			return nil
		}
		c := core.CleanString(*s, lower...)
		return &c
	}
	ua.FirstName = clean(ua.FirstName)
	ua.LastName = clean(ua.LastName)
	ua.MiddleName = clean(ua.MiddleName)
	ua.BirthDate = clean(ua.BirthDate)
	ua.PassportData = clean(ua.PassportData)
	ua.Address = clean(ua.Address)
	ua.Phone = clean(ua.Phone)
	ua.Email = clean(ua.Email, true /* lower */)
	ua.Status = clean(ua.Status, true /* lower */)
	return validate.Struct(ua)
}

type QueryFilter struct {
	Status      string `query:"status"`
	SpecialtyID int    `query:"specialty_id"`
	Search      string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.SpecialtyID == 0 && qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}

func parseBirthDate(s string) (time.Time, error) {
	return time.ParseInLocation(birthDateLayout, s, time.UTC)
}
