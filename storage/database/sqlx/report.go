package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core/report"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *sqlx.DB) report.Repository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) QueryApplicantExams(ctx context.Context, applicantID int) ([]report.Exam, error) {
	exams := make([]report.Exam, 0)
	q := `
		SELECT g.id AS group_id, g.subject_id, s.name AS subject_name, g.exam_date, g.room_number, ga.score
		FROM group_applicants ga
		JOIN exam_groups g ON g.id = ga.group_id
		JOIN subjects s ON s.id = g.subject_id
		WHERE ga.applicant_id = $1
		ORDER BY g.exam_date, g.id`
	err := sqlx.SelectContext(ctx, repo.db, &exams, q, applicantID)
	return exams, errors.Wrap(err, "selecting applicant exams")
}

func (repo *reportRepository) CountApplicantsByStatus(ctx context.Context) ([]report.StatusCount, error) {
	counts := make([]report.StatusCount, 0)
	q := `SELECT status, COUNT(*) AS count FROM applicants GROUP BY status ORDER BY status`
	err := sqlx.SelectContext(ctx, repo.db, &counts, q)
	return counts, errors.Wrap(err, "counting applicants")
}

func (repo *reportRepository) QueryUpcomingGroups(ctx context.Context, from time.Time, limit int) ([]report.UpcomingGroup, error) {
	groups := make([]report.UpcomingGroup, 0)
	q := `
		SELECT g.id, s.name AS subject_name, g.exam_date, g.room_number,
		       (SELECT COUNT(*) FROM group_applicants ga WHERE ga.group_id = g.id) AS applicant_count
		FROM exam_groups g
		JOIN subjects s ON s.id = g.subject_id
		WHERE g.exam_date >= $1
		ORDER BY g.exam_date, g.id
		LIMIT $2`
	err := sqlx.SelectContext(ctx, repo.db, &groups, q, from, limit)
	return groups, errors.Wrap(err, "selecting upcoming groups")
}
