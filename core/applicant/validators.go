package applicant

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/admissions/core"
)

var (
	statusTag  = "applicant_status"
	statusText = "invalid applicant status"
)

// InitValidators registers the applicant validators. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	validate.RegisterStructValidation(applicantStructValidation, NewApplicant{})
}

func statusValidation(fl validator.FieldLevel) bool {
	return IsValidStatus(fl.Field().String())
}

func applicantStructValidation(sl validator.StructLevel) {
	if na, ok := sl.Current().Interface().(NewApplicant); ok && na.Password != "" {
		core.ValidatePassword(sl, na.Password, na.FirstName, na.LastName, na.Email)
	}
}
