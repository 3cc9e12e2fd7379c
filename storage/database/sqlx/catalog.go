package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core/catalog"
)

type catalogRepository struct {
	db *sqlx.DB
}

var _ catalog.Repository = (*catalogRepository)(nil)

func NewCatalogRepository(db *sqlx.DB) catalog.Repository {
	return &catalogRepository{db: db}
}

func (repo *catalogRepository) QuerySubjects(ctx context.Context) ([]catalog.Subject, error) {
	subs := make([]catalog.Subject, 0)
	err := sqlx.SelectContext(ctx, repo.db, &subs, `SELECT id, name, description FROM subjects ORDER BY name, id`)
	return subs, errors.Wrap(err, "selecting subjects")
}

func (repo *catalogRepository) GetSubject(ctx context.Context, id int) (catalog.Subject, error) {
	var sub catalog.Subject
	err := sqlx.GetContext(ctx, repo.db, &sub, `SELECT id, name, description FROM subjects WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return catalog.Subject{}, catalog.ErrSubjectNotFound
		}
		return catalog.Subject{}, errors.Wrap(err, "selecting subject")
	}
	return sub, nil
}

func (repo *catalogRepository) CreateSubject(ctx context.Context, sub catalog.Subject) (catalog.Subject, error) {
	q := `INSERT INTO subjects (name, description) VALUES ($1, $2) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, sub.Name, sub.Description).Scan(&sub.ID); err != nil {
		return catalog.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo *catalogRepository) UpdateSubject(ctx context.Context, sub catalog.Subject) (catalog.Subject, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE subjects SET name = $1, description = $2 WHERE id = $3`, sub.Name, sub.Description, sub.ID)
	if err != nil {
		return catalog.Subject{}, errors.Wrap(err, "updating subject")
	}
	if err = checkAffected(res, catalog.ErrSubjectNotFound); err != nil {
		return catalog.Subject{}, err
	}
	return sub, nil
}

func (repo *catalogRepository) DeleteSubject(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return checkAffected(res, catalog.ErrSubjectNotFound)
}

func (repo *catalogRepository) QuerySpecialties(ctx context.Context) ([]catalog.Specialty, error) {
	sps := make([]catalog.Specialty, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &sps, `SELECT id, name, code, seats_count FROM specialties ORDER BY name, id`); err != nil {
		return nil, errors.Wrap(err, "selecting specialties")
	}

	var links []struct {
		SpecialtyID int `db:"specialty_id"`
		SubjectID   int `db:"subject_id"`
	}
	q := `SELECT specialty_id, subject_id FROM specialty_subjects ORDER BY specialty_id, subject_id`
	if err := sqlx.SelectContext(ctx, repo.db, &links, q); err != nil {
		return nil, errors.Wrap(err, "selecting specialty subjects")
	}
	bySpecialty := make(map[int][]int, len(sps))
	for _, l := range links {
		bySpecialty[l.SpecialtyID] = append(bySpecialty[l.SpecialtyID], l.SubjectID)
	}
	for i := range sps {
		sps[i].SubjectIDs = bySpecialty[sps[i].ID]
		if sps[i].SubjectIDs == nil {
			sps[i].SubjectIDs = []int{}
		}
	}
	return sps, nil
}

func (repo *catalogRepository) getSpecialty(ctx context.Context, q sqlx.QueryerContext, id int) (catalog.Specialty, error) {
	var sp catalog.Specialty
	err := sqlx.GetContext(ctx, q, &sp, `SELECT id, name, code, seats_count FROM specialties WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return catalog.Specialty{}, catalog.ErrSpecialtyNotFound
		}
		return catalog.Specialty{}, errors.Wrap(err, "selecting specialty")
	}
	sp.SubjectIDs = make([]int, 0)
	err = sqlx.SelectContext(ctx, q, &sp.SubjectIDs, `SELECT subject_id FROM specialty_subjects WHERE specialty_id = $1 ORDER BY subject_id`, id)
	return sp, errors.Wrap(err, "selecting specialty subjects")
}

func (repo *catalogRepository) GetSpecialty(ctx context.Context, id int) (catalog.Specialty, error) {
	return repo.getSpecialty(ctx, repo.db, id)
}

func insertSpecialtySubjects(ctx context.Context, tx *sqlx.Tx, specialtyID int, subjectIDs []int) error {
	for _, sid := range subjectIDs {
		q := `INSERT INTO specialty_subjects (specialty_id, subject_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, q, specialtyID, sid); err != nil {
			if isCode(err, foreignKeyViolation) {
				return catalog.ErrSubjectNotFound
			}
			return errors.Wrap(err, "inserting specialty subject")
		}
	}
	return nil
}

func (repo *catalogRepository) CreateSpecialty(ctx context.Context, sp catalog.Specialty) (catalog.Specialty, error) {
	err := runInTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO specialties (name, code, seats_count) VALUES ($1, $2, $3) RETURNING id`
		if err := tx.QueryRowxContext(ctx, q, sp.Name, sp.Code, sp.SeatsCount).Scan(&sp.ID); err != nil {
			if isCode(err, uniqueViolation) {
				return catalog.ErrCodeExists
			}
			return errors.Wrap(err, "inserting specialty")
		}
		if err := insertSpecialtySubjects(ctx, tx, sp.ID, sp.SubjectIDs); err != nil {
			return err
		}
		var err error
		sp, err = repo.getSpecialty(ctx, tx, sp.ID)
		return err
	})
	return sp, err
}

func (repo *catalogRepository) UpdateSpecialty(ctx context.Context, sp catalog.Specialty, replaceSubjects bool) (catalog.Specialty, error) {
	err := runInTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `UPDATE specialties SET name = $1, code = $2, seats_count = $3 WHERE id = $4`
		res, err := tx.ExecContext(ctx, q, sp.Name, sp.Code, sp.SeatsCount, sp.ID)
		if err != nil {
			if isCode(err, uniqueViolation) {
				return catalog.ErrCodeExists
			}
			return errors.Wrap(err, "updating specialty")
		}
		if err = checkAffected(res, catalog.ErrSpecialtyNotFound); err != nil {
			return err
		}
		if replaceSubjects {
			if _, err = tx.ExecContext(ctx, `DELETE FROM specialty_subjects WHERE specialty_id = $1`, sp.ID); err != nil {
				return errors.Wrap(err, "deleting specialty subjects")
			}
			if err = insertSpecialtySubjects(ctx, tx, sp.ID, sp.SubjectIDs); err != nil {
				return err
			}
		}
		sp, err = repo.getSpecialty(ctx, tx, sp.ID)
		return err
	})
	return sp, err
}

func (repo *catalogRepository) DeleteSpecialty(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM specialties WHERE id = $1`, id)
	if err != nil {
		if isCode(err, foreignKeyViolation) {
			return catalog.ErrSpecialtyInUse
		}
		return errors.Wrap(err, "deleting specialty")
	}
	return checkAffected(res, catalog.ErrSpecialtyNotFound)
}

func (repo *catalogRepository) QuerySpecialtySubjects(ctx context.Context, specialtyID int) ([]catalog.Subject, error) {
	subs := make([]catalog.Subject, 0)
	q := `
		SELECT s.id, s.name, s.description
		FROM subjects s
		JOIN specialty_subjects ss ON ss.subject_id = s.id
		WHERE ss.specialty_id = $1
		ORDER BY s.name, s.id`
	err := sqlx.SelectContext(ctx, repo.db, &subs, q, specialtyID)
	return subs, errors.Wrap(err, "selecting specialty subjects")
}
