package staff

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/admissions/core"
)

// InitValidators registers the staff struct validators. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, _ ut.Translator) {
	validate.RegisterStructValidation(staffStructValidation, NewStaff{}, UpdateStaff{})
}

// staffStructValidation applies the password policy on NewStaff and UpdateStaff structs.
func staffStructValidation(sl validator.StructLevel) {
	switch s := sl.Current().Interface().(type) {
	case NewStaff:
		core.ValidatePassword(sl, s.Password, s.FirstName, s.LastName, s.Email)
	case UpdateStaff:
		if s.Password != "" {
			var attrs []string
			for _, attr := range []*string{s.FirstName, s.LastName, s.Email} {
				if attr != nil {
					attrs = append(attrs, *attr)
				}
			}
			core.ValidatePassword(sl, s.Password, attrs...)
		}
	}
}
