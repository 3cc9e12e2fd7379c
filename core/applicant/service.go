package applicant

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("applicant")
	ErrEmailExists = core.NewConflictError("email", "an applicant with this email already exists")

	errUnknownSpecialty = errors.New("specialty does not exist")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateApplicant(ctx context.Context, a Applicant) (Applicant, error)
		GetApplicant(ctx context.Context, id int) (Applicant, error)
		GetApplicantByEmail(ctx context.Context, email string) (Applicant, error)
		UpdateApplicant(ctx context.Context, a Applicant) (Applicant, error)
		DeleteApplicant(ctx context.Context, id int) error
		// FilterApplicants applies AND operation on the QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of first name, last name or email.
		FilterApplicants(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Applicant, error)
	}

	// SpecialtyChecker tells whether a specialty exists.
	SpecialtyChecker interface {
		Exists(ctx context.Context, id int) (bool, error)
	}

	Service struct {
		repo        Repository
		specialties SpecialtyChecker
	}
)

func NewService(repo Repository, specialties SpecialtyChecker) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(specialties, "specialties"),
	).CheckAndPanic()

	return &Service{repo: repo, specialties: specialties}
}

func (svc *Service) checkSpecialty(ctx context.Context, id int) error {
	ok, err := svc.specialties.Exists(ctx, id)
	if err != nil {
		return errors.Wrap(err, "checking specialty")
	}
	if !ok {
		return core.NewValidationError(errUnknownSpecialty, core.FieldError{Field: "specialty_id", Error: errUnknownSpecialty.Error()})
	}
	return nil
}

// Register creates a self-registered Applicant. The status is always StatusRegistered.
func (svc *Service) Register(ctx context.Context, na NewApplicant) (Applicant, error) {
	na.Status = StatusRegistered
	return svc.Create(ctx, na)
}

// Create creates an Applicant on behalf of a secretary.
func (svc *Service) Create(ctx context.Context, na NewApplicant) (Applicant, error) {
	if err := svc.checkSpecialty(ctx, na.SpecialtyID); err != nil {
		return Applicant{}, err
	}
	birthDate, err := parseBirthDate(na.BirthDate)
	if err != nil {
		return Applicant{}, core.NewValidationError(err, core.FieldError{Field: "birth_date", Error: "invalid date"})
	}
	status := na.Status
	if status == "" {
		status = StatusRegistered
	}

	now := NowFunc().UTC()
	a := Applicant{
		FirstName:       na.FirstName,
		LastName:        na.LastName,
		MiddleName:      null.NewString(na.MiddleName, na.MiddleName != ""),
		BirthDate:       birthDate,
		PassportData:    na.PassportData,
		Address:         na.Address,
		Phone:           null.NewString(na.Phone, na.Phone != ""),
		Email:           na.Email,
		ApplicationDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		SpecialtyID:     na.SpecialtyID,
		Status:          status,
	}
	if err := a.SetPassword(na.Password); err != nil {
		return Applicant{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateApplicant(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Applicant, error) {
	return svc.repo.GetApplicant(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Applicant, error) {
	filter.Clean()
	if filter.Status != "" && !IsValidStatus(filter.Status) {
		return []Applicant{}, nil
	}
	return svc.repo.FilterApplicants(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id int, ua UpdateApplicant) (Applicant, error) {
	a, err := svc.repo.GetApplicant(ctx, id)
	if err != nil {
		return Applicant{}, err
	}

	if ua.FirstName != nil {
		a.FirstName = *ua.FirstName
	}
	if ua.LastName != nil {
		a.LastName = *ua.LastName
	}
	if ua.MiddleName != nil {
		a.MiddleName = null.NewString(*ua.MiddleName, *ua.MiddleName != "")
	}
	if ua.BirthDate != nil {
		if a.BirthDate, err = parseBirthDate(*ua.BirthDate); err != nil {
			return Applicant{}, core.NewValidationError(err, core.FieldError{Field: "birth_date", Error: "invalid date"})
		}
	}
	if ua.PassportData != nil {
		a.PassportData = *ua.PassportData
	}
	if ua.Address != nil {
		a.Address = *ua.Address
	}
	if ua.Phone != nil {
		a.Phone = null.NewString(*ua.Phone, *ua.Phone != "")
	}
	if ua.Email != nil {
		a.Email = *ua.Email
	}
	if ua.SpecialtyID != nil && *ua.SpecialtyID != a.SpecialtyID {
		if err := svc.checkSpecialty(ctx, *ua.SpecialtyID); err != nil {
			return Applicant{}, err
		}
		a.SpecialtyID = *ua.SpecialtyID
	}
	if ua.Status != nil {
		a.Status = *ua.Status
	}
	return svc.repo.UpdateApplicant(ctx, a)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteApplicant(ctx, id)
}

// Authenticate returns the Applicant owning the credentials, or core.ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Applicant, error) {
	a, err := svc.repo.GetApplicantByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if core.IsNotFound(err) {
			return Applicant{}, core.ErrInvalidCredentials
		}
		return Applicant{}, errors.Wrap(err, "finding applicant by email")
	}
	if err = a.CheckPassword(pwd); err != nil {
		return Applicant{}, core.ErrInvalidCredentials
	}
	return a, nil
}
