package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core/staff"
)

const staffSelect = `
	SELECT id, first_name, last_name, middle_name, phone, email, password_hash, is_teacher, is_secretary
	FROM staff`

type staffRepository struct {
	db *sqlx.DB
}

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(db *sqlx.DB) staff.Repository {
	return &staffRepository{db: db}
}

func (repo *staffRepository) CreateStaff(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	q := `
		INSERT INTO staff (first_name, last_name, middle_name, phone, email, password_hash, is_teacher, is_secretary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := repo.db.QueryRowxContext(
		ctx, q,
		s.FirstName, s.LastName, s.MiddleName, s.Phone, s.Email, s.PasswordHash, s.IsTeacher, s.IsSecretary,
	).Scan(&s.ID)
	if err != nil {
		if isCode(err, uniqueViolation) {
			return staff.Staff{}, staff.ErrEmailExists
		}
		return staff.Staff{}, errors.Wrap(err, "inserting staff")
	}
	return s, nil
}

func (repo *staffRepository) get(ctx context.Context, where string, arg interface{}) (staff.Staff, error) {
	var s staff.Staff
	if err := sqlx.GetContext(ctx, repo.db, &s, staffSelect+" WHERE "+where, arg); err != nil {
		if isNoRows(err) {
			return staff.Staff{}, staff.ErrNotFound
		}
		return staff.Staff{}, errors.Wrap(err, "selecting staff")
	}
	return s, nil
}

func (repo *staffRepository) GetStaff(ctx context.Context, id int) (staff.Staff, error) {
	return repo.get(ctx, "id = $1", id)
}

func (repo *staffRepository) GetStaffByEmail(ctx context.Context, email string) (staff.Staff, error) {
	return repo.get(ctx, "email = $1", email)
}

func (repo *staffRepository) QueryStaff(ctx context.Context) ([]staff.Staff, error) {
	all := make([]staff.Staff, 0)
	err := sqlx.SelectContext(ctx, repo.db, &all, staffSelect+" ORDER BY last_name, first_name, id")
	return all, errors.Wrap(err, "selecting staff")
}

func (repo *staffRepository) UpdateStaff(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	q := `
		UPDATE staff
		SET first_name = $1, last_name = $2, middle_name = $3, phone = $4, email = $5, password_hash = $6,
		    is_teacher = $7, is_secretary = $8
		WHERE id = $9`
	res, err := repo.db.ExecContext(
		ctx, q,
		s.FirstName, s.LastName, s.MiddleName, s.Phone, s.Email, s.PasswordHash, s.IsTeacher, s.IsSecretary, s.ID,
	)
	if err != nil {
		if isCode(err, uniqueViolation) {
			return staff.Staff{}, staff.ErrEmailExists
		}
		return staff.Staff{}, errors.Wrap(err, "updating staff")
	}
	if err = checkAffected(res, staff.ErrNotFound); err != nil {
		return staff.Staff{}, err
	}
	return s, nil
}

func (repo *staffRepository) DeleteStaff(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting staff")
	}
	return checkAffected(res, staff.ErrNotFound)
}
