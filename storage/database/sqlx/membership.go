package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/membership"
)

var errDuplicateSubjectMembership = core.NewConflictError("applicant_id", "applicant is already in a group of this subject")

type membershipRepository struct {
	db   *sqlx.DB
	exec sqlx.ExtContext
	inTx bool
}

var _ membership.Repository = (*membershipRepository)(nil)

func NewMembershipRepository(db *sqlx.DB) membership.Repository {
	return &membershipRepository{db: db, exec: db}
}

func (repo *membershipRepository) RunInTx(ctx context.Context, fn func(tx membership.Repository) error) error {
	if repo.inTx {
		return fn(repo)
	}
	return runInTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		return fn(&membershipRepository{db: repo.db, exec: tx, inTx: true})
	})
}

func (repo *membershipRepository) GetTarget(ctx context.Context, groupID int) (membership.Target, error) {
	var t membership.Target
	q := `
		SELECT g.id, g.subject_id, s.name AS subject_name, g.exam_date, g.room_number
		FROM exam_groups g
		JOIN subjects s ON s.id = g.subject_id
		WHERE g.id = $1`
	if err := sqlx.GetContext(ctx, repo.exec, &t, q, groupID); err != nil {
		if isNoRows(err) {
			return membership.Target{}, membership.ErrGroupNotFound
		}
		return membership.Target{}, errors.Wrap(err, "selecting group")
	}
	return t, nil
}

func (repo *membershipRepository) LockApplicant(ctx context.Context, applicantID int) (membership.Candidate, error) {
	var c membership.Candidate
	q := `SELECT id, first_name, last_name, email FROM applicants WHERE id = $1`
	if repo.inTx {
		q += " FOR UPDATE"
	}
	if err := sqlx.GetContext(ctx, repo.exec, &c, q, applicantID); err != nil {
		if isNoRows(err) {
			return membership.Candidate{}, membership.ErrApplicantNotFound
		}
		return membership.Candidate{}, errors.Wrap(err, "selecting applicant")
	}
	return c, nil
}

func (repo *membershipRepository) QueryEligible(ctx context.Context, groupID, subjectID int) ([]membership.EligibleApplicant, error) {
	apps := make([]membership.EligibleApplicant, 0)
	q := `
		SELECT a.id, a.first_name, a.last_name, a.email, a.specialty_id, sp.name AS specialty_name, a.status,
		       EXISTS (
		           SELECT 1 FROM group_applicants ga WHERE ga.group_id = $1 AND ga.applicant_id = a.id
		       ) AS in_group,
		       EXISTS (
		           SELECT 1 FROM group_applicants ga
		           WHERE ga.subject_id = $2 AND ga.applicant_id = a.id AND ga.score IS NOT NULL
		       ) AS has_passed_exam
		FROM applicants a
		JOIN specialties sp ON sp.id = a.specialty_id
		JOIN specialty_subjects ss ON ss.specialty_id = a.specialty_id AND ss.subject_id = $2
		ORDER BY a.last_name, a.first_name, a.id`
	err := sqlx.SelectContext(ctx, repo.exec, &apps, q, groupID, subjectID)
	return apps, errors.Wrap(err, "selecting eligible applicants")
}

func (repo *membershipRepository) DeleteSubjectMemberships(ctx context.Context, applicantID, subjectID, keepGroupID int) (int64, error) {
	q := `DELETE FROM group_applicants WHERE applicant_id = $1 AND subject_id = $2 AND group_id <> $3`
	res, err := repo.exec.ExecContext(ctx, q, applicantID, subjectID, keepGroupID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting subject memberships")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "getting affected rows")
}

func (repo *membershipRepository) InsertMembership(ctx context.Context, groupID, subjectID, applicantID int) (bool, error) {
	q := `
		INSERT INTO group_applicants (group_id, subject_id, applicant_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, applicant_id) DO NOTHING`
	res, err := repo.exec.ExecContext(ctx, q, groupID, subjectID, applicantID)
	if err != nil {
		switch {
		case isCode(err, uniqueViolation):
			return false, errDuplicateSubjectMembership
		case violates(err, foreignKeyViolation, "applicant_id_fkey"):
			return false, membership.ErrApplicantNotFound
		case isCode(err, foreignKeyViolation):
			return false, membership.ErrGroupNotFound
		}
		return false, errors.Wrap(err, "inserting membership")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "getting affected rows")
	}
	return n > 0, nil
}

func (repo *membershipRepository) DeleteMembership(ctx context.Context, groupID, applicantID int) error {
	q := `DELETE FROM group_applicants WHERE group_id = $1 AND applicant_id = $2`
	_, err := repo.exec.ExecContext(ctx, q, groupID, applicantID)
	return errors.Wrap(err, "deleting membership")
}

func (repo *membershipRepository) QueryMemberIDs(ctx context.Context, groupID int) ([]int, error) {
	ids := make([]int, 0)
	q := `SELECT applicant_id FROM group_applicants WHERE group_id = $1 ORDER BY applicant_id`
	err := sqlx.SelectContext(ctx, repo.exec, &ids, q, groupID)
	return ids, errors.Wrap(err, "selecting member ids")
}

func (repo *membershipRepository) SetScore(ctx context.Context, groupID, applicantID int, score null.Float64) error {
	q := `UPDATE group_applicants SET score = $1 WHERE group_id = $2 AND applicant_id = $3`
	_, err := repo.exec.ExecContext(ctx, q, score, groupID, applicantID)
	return errors.Wrap(err, "updating score")
}
