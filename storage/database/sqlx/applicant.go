package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/applicant"
	"github.com/trezcool/admissions/core/catalog"
)

const applicantSelect = `
	SELECT a.id, a.first_name, a.last_name, a.middle_name, a.birth_date, a.passport_data, a.address,
	       a.phone, a.email, a.password_hash, a.application_date, a.specialty_id, sp.name AS specialty_name, a.status
	FROM applicants a
	JOIN specialties sp ON sp.id = a.specialty_id`

type applicantRepository struct {
	db *sqlx.DB
}

var _ applicant.Repository = (*applicantRepository)(nil)

func NewApplicantRepository(db *sqlx.DB) applicant.Repository {
	return &applicantRepository{db: db}
}

func (repo *applicantRepository) get(ctx context.Context, where string, arg interface{}) (applicant.Applicant, error) {
	var a applicant.Applicant
	if err := sqlx.GetContext(ctx, repo.db, &a, applicantSelect+" WHERE "+where, arg); err != nil {
		if isNoRows(err) {
			return applicant.Applicant{}, applicant.ErrNotFound
		}
		return applicant.Applicant{}, errors.Wrap(err, "selecting applicant")
	}
	return a, nil
}

func (repo *applicantRepository) CreateApplicant(ctx context.Context, a applicant.Applicant) (applicant.Applicant, error) {
	q := `
		INSERT INTO applicants (first_name, last_name, middle_name, birth_date, passport_data, address, phone,
		                        email, password_hash, application_date, specialty_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := repo.db.QueryRowxContext(
		ctx, q,
		a.FirstName, a.LastName, a.MiddleName, a.BirthDate, a.PassportData, a.Address, a.Phone,
		a.Email, a.PasswordHash, a.ApplicationDate, a.SpecialtyID, a.Status,
	).Scan(&a.ID)
	if err != nil {
		switch {
		case isCode(err, uniqueViolation):
			return applicant.Applicant{}, applicant.ErrEmailExists
		case isCode(err, foreignKeyViolation):
			return applicant.Applicant{}, catalog.ErrSpecialtyNotFound
		}
		return applicant.Applicant{}, errors.Wrap(err, "inserting applicant")
	}
	return repo.GetApplicant(ctx, a.ID)
}

func (repo *applicantRepository) GetApplicant(ctx context.Context, id int) (applicant.Applicant, error) {
	return repo.get(ctx, "a.id = $1", id)
}

func (repo *applicantRepository) GetApplicantByEmail(ctx context.Context, email string) (applicant.Applicant, error) {
	return repo.get(ctx, "a.email = $1", email)
}

func (repo *applicantRepository) UpdateApplicant(ctx context.Context, a applicant.Applicant) (applicant.Applicant, error) {
	q := `
		UPDATE applicants
		SET first_name = $1, last_name = $2, middle_name = $3, birth_date = $4, passport_data = $5, address = $6,
		    phone = $7, email = $8, password_hash = $9, specialty_id = $10, status = $11
		WHERE id = $12`
	res, err := repo.db.ExecContext(
		ctx, q,
		a.FirstName, a.LastName, a.MiddleName, a.BirthDate, a.PassportData, a.Address,
		a.Phone, a.Email, a.PasswordHash, a.SpecialtyID, a.Status, a.ID,
	)
	if err != nil {
		switch {
		case isCode(err, uniqueViolation):
			return applicant.Applicant{}, applicant.ErrEmailExists
		case isCode(err, foreignKeyViolation):
			return applicant.Applicant{}, catalog.ErrSpecialtyNotFound
		}
		return applicant.Applicant{}, errors.Wrap(err, "updating applicant")
	}
	if err = checkAffected(res, applicant.ErrNotFound); err != nil {
		return applicant.Applicant{}, err
	}
	return repo.GetApplicant(ctx, a.ID)
}

func (repo *applicantRepository) DeleteApplicant(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM applicants WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting applicant")
	}
	return checkAffected(res, applicant.ErrNotFound)
}

func (repo *applicantRepository) FilterApplicants(
	ctx context.Context,
	filter applicant.QueryFilter,
	ordering []core.DBOrdering,
) ([]applicant.Applicant, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != "" {
		conds = append(conds, "a.status = "+arg(filter.Status))
	}
	if filter.SpecialtyID != 0 {
		conds = append(conds, "a.specialty_id = "+arg(filter.SpecialtyID))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, "(a.first_name ILIKE "+p+" OR a.last_name ILIKE "+p+" OR a.email ILIKE "+p+")")
	}

	var q strings.Builder
	q.WriteString(applicantSelect)
	if len(conds) > 0 {
		q.WriteString(" WHERE ")
		q.WriteString(strings.Join(conds, " AND "))
	}
	q.WriteString(" ORDER BY ")
	q.WriteString(orderByClause("a.", ordering, applicant.OrderingFields, "a.id ASC"))

	apps := make([]applicant.Applicant, 0)
	err := sqlx.SelectContext(ctx, repo.db, &apps, q.String(), args...)
	return apps, errors.Wrap(err, "selecting applicants")
}

// orderByClause renders the whitelisted orderings, always ending with the id so that pages are stable.
func orderByClause(prefix string, ordering []core.DBOrdering, allowed []string, dflt string) string {
	parts := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		for _, a := range allowed {
			if a == ord.Field {
				parts = append(parts, prefix+ord.String())
				break
			}
		}
	}
	if len(parts) == 0 {
		return dflt
	}
	return strings.Join(append(parts, prefix+"id ASC"), ", ")
}
