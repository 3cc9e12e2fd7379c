package staff

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("staff")
	ErrEmailExists      = core.NewConflictError("email", "a staff member with this email already exists")
	ErrNoCapabilities   = core.NewForbiddenError("no role has been granted to this account yet")
	ErrCannotDeleteSelf = core.NewForbiddenError("you cannot delete your own account")
)

type (
	Repository interface {
		CreateStaff(ctx context.Context, s Staff) (Staff, error)
		GetStaff(ctx context.Context, id int) (Staff, error)
		GetStaffByEmail(ctx context.Context, email string) (Staff, error)
		// QueryStaff returns all staff ordered by last name, first name.
		QueryStaff(ctx context.Context) ([]Staff, error)
		UpdateStaff(ctx context.Context, s Staff) (Staff, error)
		DeleteStaff(ctx context.Context, id int) error
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

// Register creates a self-registered Staff member without any capability.
// A secretary must grant one before the account can log in.
func (svc *Service) Register(ctx context.Context, ns NewStaff) (Staff, error) {
	ns.IsTeacher = false
	ns.IsSecretary = false
	return svc.Create(ctx, ns)
}

func (svc *Service) Create(ctx context.Context, ns NewStaff) (Staff, error) {
	s := Staff{
		FirstName:   ns.FirstName,
		LastName:    ns.LastName,
		MiddleName:  null.NewString(ns.MiddleName, ns.MiddleName != ""),
		Phone:       null.NewString(ns.Phone, ns.Phone != ""),
		Email:       ns.Email,
		IsTeacher:   ns.IsTeacher,
		IsSecretary: ns.IsSecretary,
	}
	if err := s.SetPassword(ns.Password); err != nil {
		return Staff{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateStaff(ctx, s)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Staff, error) {
	return svc.repo.QueryStaff(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Staff, error) {
	return svc.repo.GetStaff(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Staff, error) {
	return svc.repo.GetStaffByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateStaff) (Staff, error) {
	s, err := svc.repo.GetStaff(ctx, id)
	if err != nil {
		return Staff{}, err
	}
	if us.FirstName != nil {
		s.FirstName = *us.FirstName
	}
	if us.LastName != nil {
		s.LastName = *us.LastName
	}
	if us.MiddleName != nil {
		s.MiddleName = null.NewString(*us.MiddleName, *us.MiddleName != "")
	}
	if us.Phone != nil {
		s.Phone = null.NewString(*us.Phone, *us.Phone != "")
	}
	if us.Email != nil {
		s.Email = *us.Email
	}
	if us.IsTeacher != nil {
		s.IsTeacher = *us.IsTeacher
	}
	if us.IsSecretary != nil {
		s.IsSecretary = *us.IsSecretary
	}
	if us.Password != "" {
		if err := s.SetPassword(us.Password); err != nil {
			return Staff{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateStaff(ctx, s)
}

// Delete removes a Staff member. by is the principal performing the deletion.
func (svc *Service) Delete(ctx context.Context, id int, by core.Principal) error {
	if by.Kind == core.KindStaff && by.ID == id {
		return ErrCannotDeleteSelf
	}
	return svc.repo.DeleteStaff(ctx, id)
}

// Authenticate returns the Staff member owning the credentials.
// Staff without any capability are refused with ErrNoCapabilities.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Staff, error) {
	s, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			return Staff{}, core.ErrInvalidCredentials
		}
		return Staff{}, errors.Wrap(err, "finding staff by email")
	}
	if err = s.CheckPassword(pwd); err != nil {
		return Staff{}, core.ErrInvalidCredentials
	}
	if s.Capabilities().IsEmpty() {
		return Staff{}, ErrNoCapabilities
	}
	return s, nil
}

// UpdateOrCreate sets the password and grants the given capabilities to the Staff member with this email,
// creating it first when needed. Capabilities are only ever added.
func (svc *Service) UpdateOrCreate(ctx context.Context, email, pwd string, isTeacher, isSecretary bool) (Staff, error) {
	email = core.CleanString(email, true /* lower */)
	s, err := svc.repo.GetStaffByEmail(ctx, email)
	if err != nil && !core.IsNotFound(err) {
		return Staff{}, errors.Wrap(err, "finding staff by email")
	}
	exists := err == nil

	if !exists {
		s = Staff{Email: email, FirstName: email, LastName: ""}
	}
	s.IsTeacher = s.IsTeacher || isTeacher
	s.IsSecretary = s.IsSecretary || isSecretary
	if err = s.SetPassword(pwd); err != nil {
		return Staff{}, errors.Wrap(err, "hashing password")
	}
	if exists {
		return svc.repo.UpdateStaff(ctx, s)
	}
	return svc.repo.CreateStaff(ctx, s)
}

// ResetPassword sets a new password for the Staff member with this email.
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	s, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = s.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = svc.repo.UpdateStaff(ctx, s)
	return err
}
