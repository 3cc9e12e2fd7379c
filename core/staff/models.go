package staff

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
)

// Staff is a non-applicant principal. Its capabilities are independent flags:
// a staff member may be a teacher, a secretary, both or (until granted) neither.
type Staff struct {
	ID           int         `json:"id" db:"id"`
	FirstName    string      `json:"first_name" db:"first_name"`
	LastName     string      `json:"last_name" db:"last_name"`
	MiddleName   null.String `json:"middle_name" db:"middle_name"`
	Phone        null.String `json:"phone" db:"phone"`
	Email        string      `json:"email" db:"email"`
	PasswordHash []byte      `json:"-" db:"password_hash"`
	IsTeacher    bool        `json:"is_teacher" db:"is_teacher"`
	IsSecretary  bool        `json:"is_secretary" db:"is_secretary"`
}

func (s *Staff) SetPassword(pwd string) error {
	hash, err := core.HashPassword(pwd)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Staff) CheckPassword(pwd string) error {
	return core.CheckPassword(s.PasswordHash, pwd)
}

func (s Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

func (s Staff) Capabilities() core.Capabilities {
	return core.NewCapabilities(s.IsTeacher, s.IsSecretary)
}

func (s Staff) Principal() core.Principal {
	return core.Principal{ID: s.ID, Kind: core.KindStaff, Name: s.FullName(), Caps: s.Capabilities()}
}

// NewStaff contains information needed to create a new Staff member.
// The capability flags are ignored on self-registration.
type NewStaff struct {
	FirstName   string `json:"first_name" validate:"notblank"`
	LastName    string `json:"last_name" validate:"notblank"`
	MiddleName  string `json:"middle_name"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	IsTeacher   bool   `json:"is_teacher"`
	IsSecretary bool   `json:"is_secretary"`
}

func (ns *NewStaff) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.MiddleName = core.CleanString(ns.MiddleName)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

// UpdateStaff defines what a secretary may modify on an existing Staff member.
type UpdateStaff struct {
	FirstName   *string `json:"first_name" validate:"omitempty,notblank"`
	LastName    *string `json:"last_name" validate:"omitempty,notblank"`
	MiddleName  *string `json:"middle_name"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Password    string  `json:"password"`
	IsTeacher   *bool   `json:"is_teacher"`
	IsSecretary *bool   `json:"is_secretary"`
}

func (us *UpdateStaff) Validate(validate *validator.Validate) error {
	clean := func(s *string, lower ...bool) *string {
		if s == nil {
			return nil
		}
		c := core.CleanString(*s, lower...)
		return &c
	}
	us.FirstName = clean(us.FirstName)
	us.LastName = clean(us.LastName)
	us.MiddleName = clean(us.MiddleName)
	us.Phone = clean(us.Phone)
	us.Email = clean(us.Email, true /* lower */)
	return validate.Struct(us)
}
