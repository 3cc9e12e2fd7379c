package catalog

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
)

var (
	// errors
	ErrSubjectNotFound   = core.NewNotFoundError("subject")
	ErrSpecialtyNotFound = core.NewNotFoundError("specialty")
	ErrCodeExists        = core.NewConflictError("code", "a specialty with this code already exists")
	ErrSpecialtyInUse    = core.NewConflictError("id", "specialty still has applicants")

	errUnknownSubject = errors.New("unknown subject")
)

type (
	Repository interface {
		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, id int) (Subject, error)
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		DeleteSubject(ctx context.Context, id int) error

		QuerySpecialties(ctx context.Context) ([]Specialty, error)
		GetSpecialty(ctx context.Context, id int) (Specialty, error)
		// CreateSpecialty inserts the specialty and its subject mapping atomically.
		CreateSpecialty(ctx context.Context, sp Specialty) (Specialty, error)
		// UpdateSpecialty updates the specialty; when replaceSubjects is set the subject mapping is
		// replaced by sp.SubjectIDs in the same transaction.
		UpdateSpecialty(ctx context.Context, sp Specialty, replaceSubjects bool) (Specialty, error)
		DeleteSpecialty(ctx context.Context, id int) error
		QuerySpecialtySubjects(ctx context.Context, specialtyID int) ([]Subject, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()

	return &Service{repo: repo}
}

// Subjects

func (svc *Service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *Service) GetSubject(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	sub := Subject{Name: ns.Name}
	if ns.Description != "" {
		sub.Description.SetValid(ns.Description)
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *Service) UpdateSubject(ctx context.Context, id int, us UpdateSubject) (Subject, error) {
	sub, err := svc.repo.GetSubject(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	if us.Name != nil {
		sub.Name = *us.Name
	}
	if us.Description != nil {
		desc := core.CleanString(*us.Description)
		sub.Description.SetValid(desc)
		sub.Description.Valid = desc != ""
	}
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc *Service) DeleteSubject(ctx context.Context, id int) error {
	return svc.repo.DeleteSubject(ctx, id)
}

// Specialties

func (svc *Service) QuerySpecialties(ctx context.Context) ([]Specialty, error) {
	return svc.repo.QuerySpecialties(ctx)
}

func (svc *Service) GetSpecialty(ctx context.Context, id int) (Specialty, error) {
	return svc.repo.GetSpecialty(ctx, id)
}

func (svc *Service) SpecialtySubjects(ctx context.Context, specialtyID int) ([]Subject, error) {
	if _, err := svc.repo.GetSpecialty(ctx, specialtyID); err != nil {
		return nil, err
	}
	return svc.repo.QuerySpecialtySubjects(ctx, specialtyID)
}

func (svc *Service) CreateSpecialty(ctx context.Context, ns NewSpecialty) (Specialty, error) {
	ids := dedupIDs(ns.SubjectIDs)
	if err := svc.checkSubjects(ctx, ids); err != nil {
		return Specialty{}, err
	}
	sp := Specialty{
		Name:       ns.Name,
		Code:       ns.Code,
		SeatsCount: ns.SeatsCount,
		SubjectIDs: ids,
	}
	return svc.repo.CreateSpecialty(ctx, sp)
}

func (svc *Service) UpdateSpecialty(ctx context.Context, id int, us UpdateSpecialty) (Specialty, error) {
	sp, err := svc.repo.GetSpecialty(ctx, id)
	if err != nil {
		return Specialty{}, err
	}
	if us.Name != nil {
		sp.Name = *us.Name
	}
	if us.Code != nil {
		sp.Code = *us.Code
	}
	if us.SeatsCount != nil {
		sp.SeatsCount = *us.SeatsCount
	}
	replace := us.SubjectIDs != nil
	if replace {
		sp.SubjectIDs = dedupIDs(us.SubjectIDs)
		if err := svc.checkSubjects(ctx, sp.SubjectIDs); err != nil {
			return Specialty{}, err
		}
	}
	return svc.repo.UpdateSpecialty(ctx, sp, replace)
}

func (svc *Service) DeleteSpecialty(ctx context.Context, id int) error {
	return svc.repo.DeleteSpecialty(ctx, id)
}

// Exists reports whether the specialty exists. Used to validate applicant registrations.
func (svc *Service) Exists(ctx context.Context, id int) (bool, error) {
	if _, err := svc.repo.GetSpecialty(ctx, id); err != nil {
		if core.IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "getting specialty")
	}
	return true, nil
}

func (svc *Service) checkSubjects(ctx context.Context, ids []int) error {
	for _, sid := range ids {
		if _, err := svc.repo.GetSubject(ctx, sid); err != nil {
			if core.IsNotFound(err) {
				return core.NewValidationError(errUnknownSubject, core.FieldError{Field: "subject_ids", Error: errUnknownSubject.Error()})
			}
			return errors.Wrap(err, "getting subject")
		}
	}
	return nil
}
