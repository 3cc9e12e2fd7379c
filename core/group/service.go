package group

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/staff"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("group")
	ErrTeacherNotFound = core.NewNotFoundError("teacher")
	ErrNotBound        = core.NewForbiddenError("you are not assigned to this group")

	errNotATeacher    = errors.New("staff member is not a teacher")
	errUnknownSubject = errors.New("subject does not exist")
)

type (
	Repository interface {
		// QueryGroups returns all groups, newest exam first.
		QueryGroups(ctx context.Context) ([]Group, error)
		GetGroup(ctx context.Context, id int) (Group, error)
		CreateGroup(ctx context.Context, g Group) (Group, error)
		DeleteGroup(ctx context.Context, id int) error
		QueryGroupTeachers(ctx context.Context, groupID int) ([]Teacher, error)
		QueryGroupMembers(ctx context.Context, groupID int) ([]Member, error)
		// BindTeacher is idempotent.
		BindTeacher(ctx context.Context, groupID, teacherID int) error
		// UnbindTeacher is idempotent.
		UnbindTeacher(ctx context.Context, groupID, teacherID int) error
		QueryStaffOptions(ctx context.Context, groupID int) ([]StaffOption, error)
		// QueryTeacherGroups returns the groups a teacher is bound to, newest exam first.
		QueryTeacherGroups(ctx context.Context, teacherID int) ([]Group, error)
		IsTeacherBound(ctx context.Context, groupID, teacherID int) (bool, error)
	}

	SubjectGetter interface {
		GetSubject(ctx context.Context, id int) (catalog.Subject, error)
	}

	StaffGetter interface {
		GetByID(ctx context.Context, id int) (staff.Staff, error)
	}

	Service struct {
		repo     Repository
		subjects SubjectGetter
		staff    StaffGetter
	}
)

func NewService(repo Repository, subjects SubjectGetter, staff StaffGetter) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(subjects, "subjects"),
		vala.IsNotNil(staff, "staff"),
	).CheckAndPanic()

	return &Service{repo: repo, subjects: subjects, staff: staff}
}

func (svc *Service) QueryAll(ctx context.Context) ([]Group, error) {
	return svc.repo.QueryGroups(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Group, error) {
	return svc.repo.GetGroup(ctx, id)
}

func (svc *Service) Detail(ctx context.Context, id int) (Detail, error) {
	g, err := svc.repo.GetGroup(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	teachers, err := svc.repo.QueryGroupTeachers(ctx, id)
	if err != nil {
		return Detail{}, errors.Wrap(err, "querying group teachers")
	}
	members, err := svc.repo.QueryGroupMembers(ctx, id)
	if err != nil {
		return Detail{}, errors.Wrap(err, "querying group members")
	}
	if teachers == nil {
		teachers = []Teacher{}
	}
	if members == nil {
		members = []Member{}
	}
	return Detail{Group: g, Teachers: teachers, Applicants: members}, nil
}

// TeacherDetail returns the group detail for a teacher bound to it, ErrNotBound otherwise.
func (svc *Service) TeacherDetail(ctx context.Context, id int, teacher core.Principal) (Detail, error) {
	if _, err := svc.repo.GetGroup(ctx, id); err != nil {
		return Detail{}, err
	}
	bound, err := svc.repo.IsTeacherBound(ctx, id, teacher.ID)
	if err != nil {
		return Detail{}, errors.Wrap(err, "checking teacher binding")
	}
	if !bound {
		return Detail{}, ErrNotBound
	}
	return svc.Detail(ctx, id)
}

func (svc *Service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	sub, err := svc.subjects.GetSubject(ctx, ng.SubjectID)
	if err != nil {
		if core.IsNotFound(err) {
			return Group{}, core.NewValidationError(errUnknownSubject, core.FieldError{Field: "subject_id", Error: errUnknownSubject.Error()})
		}
		return Group{}, errors.Wrap(err, "getting subject")
	}
	g := Group{
		SubjectID:   sub.ID,
		SubjectName: sub.Name,
		ExamDate:    ng.ExamDate.UTC(),
		RoomNumber:  null.NewString(ng.RoomNumber, ng.RoomNumber != ""),
	}
	return svc.repo.CreateGroup(ctx, g)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteGroup(ctx, id)
}

// BindTeacher assigns a teacher to a group. Binding twice is a no-op.
func (svc *Service) BindTeacher(ctx context.Context, groupID, teacherID int) error {
	if _, err := svc.repo.GetGroup(ctx, groupID); err != nil {
		return err
	}
	s, err := svc.staff.GetByID(ctx, teacherID)
	if err != nil {
		if core.IsNotFound(err) {
			return ErrTeacherNotFound
		}
		return errors.Wrap(err, "getting staff")
	}
	if !s.IsTeacher {
		return core.NewValidationError(errNotATeacher, core.FieldError{Field: "teacher_id", Error: errNotATeacher.Error()})
	}
	return svc.repo.BindTeacher(ctx, groupID, teacherID)
}

func (svc *Service) UnbindTeacher(ctx context.Context, groupID, teacherID int) error {
	if _, err := svc.repo.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return svc.repo.UnbindTeacher(ctx, groupID, teacherID)
}

// StaffOptions lists every staff member flagged with whether they are bound to the group.
func (svc *Service) StaffOptions(ctx context.Context, groupID int) ([]StaffOption, error) {
	if _, err := svc.repo.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return svc.repo.QueryStaffOptions(ctx, groupID)
}

func (svc *Service) TeacherGroups(ctx context.Context, teacherID int) ([]Group, error) {
	return svc.repo.QueryTeacherGroups(ctx, teacherID)
}

func (svc *Service) IsTeacherBound(ctx context.Context, groupID, teacherID int) (bool, error) {
	return svc.repo.IsTeacherBound(ctx, groupID, teacherID)
}
