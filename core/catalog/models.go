package catalog

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
)

type Subject struct {
	ID          int         `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Description null.String `json:"description" db:"description"`
}

// Specialty is a program of study. SubjectIDs lists the subjects an applicant must be examined on.
type Specialty struct {
	ID         int    `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Code       string `json:"code" db:"code"`
	SeatsCount int    `json:"seats_count" db:"seats_count"`
	SubjectIDs []int  `json:"subject_ids" db:"-"`
}

type NewSubject struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Description = core.CleanString(ns.Description)
	return validate.Struct(ns)
}

// UpdateSubject holds the fields a secretary may change. nil fields are left untouched.
type UpdateSubject struct {
	Name        *string `json:"name" validate:"omitempty,notblank"`
	Description *string `json:"description"`
}

func (us *UpdateSubject) Validate(validate *validator.Validate) error {
	if us.Name != nil {
		name := core.CleanString(*us.Name)
		us.Name = &name
	}
	return validate.Struct(us)
}

type NewSpecialty struct {
	Name       string `json:"name" validate:"notblank"`
	Code       string `json:"code" validate:"notblank,alphanum_"`
	SeatsCount int    `json:"seats_count" validate:"required,gt=0"`
	SubjectIDs []int  `json:"subject_ids" validate:"omitempty,dive,gt=0"`
}

func (ns *NewSpecialty) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	return validate.Struct(ns)
}

// UpdateSpecialty holds the fields a secretary may change.
// A non-nil SubjectIDs replaces the whole subject mapping.
type UpdateSpecialty struct {
	Name       *string `json:"name" validate:"omitempty,notblank"`
	Code       *string `json:"code" validate:"omitempty,notblank,alphanum_"`
	SeatsCount *int    `json:"seats_count" validate:"omitempty,gt=0"`
	SubjectIDs []int   `json:"subject_ids" validate:"omitempty,dive,gt=0"`
}

func (us *UpdateSpecialty) Validate(validate *validator.Validate) error {
	if us.Name != nil {
		name := core.CleanString(*us.Name)
		us.Name = &name
	}
	if us.Code != nil {
		code := core.CleanString(*us.Code)
		us.Code = &code
	}
	return validate.Struct(us)
}

// dedupIDs drops duplicate ids while keeping the input order.
func dedupIDs(ids []int) []int {
	if ids == nil {
		return nil
	}
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
