package membership

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
)

var (
	// errors
	ErrGroupNotFound     = core.NewNotFoundError("group")
	ErrApplicantNotFound = core.NewNotFoundError("applicant")
	ErrNotBound          = core.NewForbiddenError("you are not assigned to this group")

	errNegativeScore = errors.New("score cannot be negative")

	transferMessage = "applicant added to the group; any previous group for this subject was replaced"
	examDateLayout  = "Monday, 02 January 2006 15:04 MST"
)

type (
	// Repository holds the membership rows of the groups.
	// Inside RunInTx every call goes through the same transaction.
	Repository interface {
		RunInTx(ctx context.Context, fn func(tx Repository) error) error
		GetTarget(ctx context.Context, groupID int) (Target, error)
		// LockApplicant returns the applicant and, in a transaction, locks its row until commit
		// so that concurrent transfers of the same applicant are serialised.
		LockApplicant(ctx context.Context, applicantID int) (Candidate, error)
		QueryEligible(ctx context.Context, groupID, subjectID int) ([]EligibleApplicant, error)
		// DeleteSubjectMemberships removes the applicant from every group of the subject except keepGroupID.
		DeleteSubjectMemberships(ctx context.Context, applicantID, subjectID, keepGroupID int) (int64, error)
		// InsertMembership is a no-op when the membership already exists; inserted reports whether a row was added.
		InsertMembership(ctx context.Context, groupID, subjectID, applicantID int) (inserted bool, err error)
		// DeleteMembership is a no-op when the membership does not exist.
		DeleteMembership(ctx context.Context, groupID, applicantID int) error
		QueryMemberIDs(ctx context.Context, groupID int) ([]int, error)
		SetScore(ctx context.Context, groupID, applicantID int, score null.Float64) error
	}

	// BindingChecker tells whether a teacher is assigned to a group.
	BindingChecker interface {
		IsTeacherBound(ctx context.Context, groupID, teacherID int) (bool, error)
	}

	Service struct {
		repo     Repository
		bindings BindingChecker
		mailSvc  core.EmailService
		logger   core.Logger
	}
)

func NewService(repo Repository, bindings BindingChecker, mailSvc core.EmailService, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(bindings, "bindings"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		repo:     repo,
		bindings: bindings,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

// Eligible lists the applicants whose specialty requires the subject of the group.
func (svc *Service) Eligible(ctx context.Context, groupID int) ([]EligibleApplicant, error) {
	target, err := svc.repo.GetTarget(ctx, groupID)
	if err != nil {
		return nil, err
	}
	apps, err := svc.repo.QueryEligible(ctx, target.GroupID, target.SubjectID)
	if err != nil {
		return nil, errors.Wrap(err, "querying eligible applicants")
	}
	if apps == nil {
		apps = []EligibleApplicant{}
	}
	return apps, nil
}

// Available lists the eligible applicants that are not members of the group yet.
func (svc *Service) Available(ctx context.Context, groupID int) ([]EligibleApplicant, error) {
	eligible, err := svc.Eligible(ctx, groupID)
	if err != nil {
		return nil, err
	}
	apps := make([]EligibleApplicant, 0, len(eligible))
	for _, a := range eligible {
		if !a.InGroup {
			apps = append(apps, a)
		}
	}
	return apps, nil
}

// Transfer makes the applicant a member of the group, removing any membership it holds in another group
// of the same subject. Both steps commit or roll back together. Transferring twice is a no-op.
func (svc *Service) Transfer(ctx context.Context, groupID, applicantID int) (TransferResult, error) {
	var (
		target    Target
		candidate Candidate
		replaced  int64
		inserted  bool
	)

	err := svc.repo.RunInTx(ctx, func(tx Repository) error {
		var err error
		if target, err = tx.GetTarget(ctx, groupID); err != nil {
			return err
		}
		if candidate, err = tx.LockApplicant(ctx, applicantID); err != nil {
			return err
		}
		if replaced, err = tx.DeleteSubjectMemberships(ctx, applicantID, target.SubjectID, groupID); err != nil {
			return errors.Wrap(err, "deleting subject memberships")
		}
		if inserted, err = tx.InsertMembership(ctx, groupID, target.SubjectID, applicantID); err != nil {
			return errors.Wrap(err, "inserting membership")
		}
		return nil
	})
	if err != nil {
		return TransferResult{}, txError("membership.Transfer", err)
	}

	if inserted {
		svc.notifyExam(target, candidate)
	}
	return TransferResult{Message: transferMessage, Replaced: replaced > 0}, nil
}

// Remove deletes the membership of the applicant in the group, if any.
func (svc *Service) Remove(ctx context.Context, groupID, applicantID int) error {
	if err := svc.repo.DeleteMembership(ctx, groupID, applicantID); err != nil {
		return errors.Wrap(err, "deleting membership")
	}
	return nil
}

// RecordScores writes a batch of scores for the members of a group, atomically.
// Results for applicants that are not members of the group are skipped.
// A teacher must be bound to the group; the check happens before anything is written.
func (svc *Service) RecordScores(ctx context.Context, groupID int, results []Result, role Role, by core.Principal) (RecordResult, error) {
	for _, r := range results {
		if r.Score.Score.Valid && r.Score.Score.Float64 < 0 {
			return RecordResult{}, core.NewValidationError(errNegativeScore, core.FieldError{Field: "score", Error: errNegativeScore.Error()})
		}
	}

	if _, err := svc.repo.GetTarget(ctx, groupID); err != nil {
		return RecordResult{}, err
	}
	if role == RoleTeacher {
		bound, err := svc.bindings.IsTeacherBound(ctx, groupID, by.ID)
		if err != nil {
			return RecordResult{}, errors.Wrap(err, "checking teacher binding")
		}
		if !bound {
			return RecordResult{}, ErrNotBound
		}
	}

	var res RecordResult
	err := svc.repo.RunInTx(ctx, func(tx Repository) error {
		res = RecordResult{}
		ids, err := tx.QueryMemberIDs(ctx, groupID)
		if err != nil {
			return errors.Wrap(err, "querying members")
		}
		members := make(map[int]struct{}, len(ids))
		for _, id := range ids {
			members[id] = struct{}{}
		}

		for _, r := range results {
			if _, ok := members[r.ApplicantID]; !ok {
				res.Skipped++
				continue
			}
			score, write := r.Score.Value(role)
			if !write {
				res.Skipped++
				continue
			}
			if err = tx.SetScore(ctx, groupID, r.ApplicantID, score); err != nil {
				return errors.Wrap(err, "setting score")
			}
			res.Updated++
		}
		return nil
	})
	if err != nil {
		return RecordResult{}, txError("membership.RecordScores", err)
	}
	return res, nil
}

func (svc *Service) notifyExam(target Target, candidate Candidate) {
	if candidate.Email == "" {
		return
	}
	name := candidate.FirstName + " " + candidate.LastName
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: name, Address: candidate.Email}},
		Subject:      fmt.Sprintf("%s exam scheduled", target.SubjectName),
		TemplateName: "exam_assigned",
		TemplateData: examNotice{
			Name:     name,
			Subject:  target.SubjectName,
			ExamDate: target.ExamDate.UTC().Format(examDateLayout),
			Room:     target.RoomNumber.String,
		},
	})
}

// txError passes domain errors through and turns storage faults into a core.TransactionError.
func txError(op string, err error) error {
	switch errors.Cause(err).(type) {
	case *core.NotFoundError, *core.ForbiddenError, *core.ValidationError, *core.ConflictError:
		return err
	}
	return core.NewTransactionError(op, err)
}
