package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/group"
)

const groupSelect = `
	SELECT g.id, g.subject_id, s.name AS subject_name, g.exam_date, g.room_number,
	       (SELECT COUNT(*) FROM group_applicants ga WHERE ga.group_id = g.id) AS applicant_count,
	       (SELECT COUNT(*) FROM group_teachers gt WHERE gt.group_id = g.id) AS teacher_count
	FROM exam_groups g
	JOIN subjects s ON s.id = g.subject_id`

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *sqlx.DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) QueryGroups(ctx context.Context) ([]group.Group, error) {
	groups := make([]group.Group, 0)
	err := sqlx.SelectContext(ctx, repo.db, &groups, groupSelect+" ORDER BY g.exam_date DESC, g.id DESC")
	return groups, errors.Wrap(err, "selecting groups")
}

func (repo *groupRepository) GetGroup(ctx context.Context, id int) (group.Group, error) {
	var g group.Group
	if err := sqlx.GetContext(ctx, repo.db, &g, groupSelect+" WHERE g.id = $1", id); err != nil {
		if isNoRows(err) {
			return group.Group{}, group.ErrNotFound
		}
		return group.Group{}, errors.Wrap(err, "selecting group")
	}
	return g, nil
}

func (repo *groupRepository) CreateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	q := `INSERT INTO exam_groups (subject_id, exam_date, room_number) VALUES ($1, $2, $3) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, g.SubjectID, g.ExamDate, g.RoomNumber).Scan(&g.ID); err != nil {
		if isCode(err, foreignKeyViolation) {
			return group.Group{}, catalog.ErrSubjectNotFound
		}
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	return repo.GetGroup(ctx, g.ID)
}

func (repo *groupRepository) DeleteGroup(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM exam_groups WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return checkAffected(res, group.ErrNotFound)
}

func (repo *groupRepository) QueryGroupTeachers(ctx context.Context, groupID int) ([]group.Teacher, error) {
	teachers := make([]group.Teacher, 0)
	q := `
		SELECT t.id, t.first_name, t.last_name, t.email
		FROM staff t
		JOIN group_teachers gt ON gt.teacher_id = t.id
		WHERE gt.group_id = $1
		ORDER BY t.last_name, t.first_name, t.id`
	err := sqlx.SelectContext(ctx, repo.db, &teachers, q, groupID)
	return teachers, errors.Wrap(err, "selecting group teachers")
}

func (repo *groupRepository) QueryGroupMembers(ctx context.Context, groupID int) ([]group.Member, error) {
	members := make([]group.Member, 0)
	q := `
		SELECT a.id, a.first_name, a.last_name, a.email, ga.score
		FROM group_applicants ga
		JOIN applicants a ON a.id = ga.applicant_id
		WHERE ga.group_id = $1
		ORDER BY a.last_name, a.first_name, a.id`
	err := sqlx.SelectContext(ctx, repo.db, &members, q, groupID)
	return members, errors.Wrap(err, "selecting group members")
}

func (repo *groupRepository) BindTeacher(ctx context.Context, groupID, teacherID int) error {
	q := `INSERT INTO group_teachers (group_id, teacher_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, q, groupID, teacherID); err != nil {
		switch {
		case violates(err, foreignKeyViolation, "teacher_id_fkey"):
			return group.ErrTeacherNotFound
		case isCode(err, foreignKeyViolation):
			return group.ErrNotFound
		}
		return errors.Wrap(err, "inserting group teacher")
	}
	return nil
}

func (repo *groupRepository) UnbindTeacher(ctx context.Context, groupID, teacherID int) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM group_teachers WHERE group_id = $1 AND teacher_id = $2`, groupID, teacherID)
	return errors.Wrap(err, "deleting group teacher")
}

func (repo *groupRepository) QueryStaffOptions(ctx context.Context, groupID int) ([]group.StaffOption, error) {
	opts := make([]group.StaffOption, 0)
	q := `
		SELECT t.id, t.first_name, t.last_name, t.email, t.is_teacher, t.is_secretary,
		       EXISTS (SELECT 1 FROM group_teachers gt WHERE gt.group_id = $1 AND gt.teacher_id = t.id) AS in_group
		FROM staff t
		ORDER BY t.last_name, t.first_name, t.id`
	err := sqlx.SelectContext(ctx, repo.db, &opts, q, groupID)
	return opts, errors.Wrap(err, "selecting staff options")
}

func (repo *groupRepository) QueryTeacherGroups(ctx context.Context, teacherID int) ([]group.Group, error) {
	groups := make([]group.Group, 0)
	q := groupSelect + `
		JOIN group_teachers bound ON bound.group_id = g.id
		WHERE bound.teacher_id = $1
		ORDER BY g.exam_date DESC, g.id DESC`
	err := sqlx.SelectContext(ctx, repo.db, &groups, q, teacherID)
	return groups, errors.Wrap(err, "selecting teacher groups")
}

func (repo *groupRepository) IsTeacherBound(ctx context.Context, groupID, teacherID int) (bool, error) {
	var bound bool
	q := `SELECT EXISTS (SELECT 1 FROM group_teachers WHERE group_id = $1 AND teacher_id = $2)`
	err := sqlx.GetContext(ctx, repo.db, &bound, q, groupID, teacherID)
	return bound, errors.Wrap(err, "selecting group teacher")
}
