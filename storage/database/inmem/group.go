package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/group"
	"github.com/trezcool/admissions/core/staff"
)

type groupRepository struct {
	conn
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{conn{db: db}}
}

func toGroup(st *state, row groupRow) group.Group {
	g := group.Group{
		ID:          row.ID,
		SubjectID:   row.SubjectID,
		SubjectName: st.subjects[row.SubjectID].Name,
		ExamDate:    row.ExamDate,
		RoomNumber:  row.RoomNumber,
	}
	for key := range st.members {
		if key.groupID == row.ID {
			g.ApplicantCount++
		}
	}
	g.TeacherCount = len(st.groupTeachers[row.ID])
	return g
}

// deleteGroup removes the group with its memberships and teacher bindings.
func deleteGroup(st *state, id int) {
	delete(st.groups, id)
	delete(st.groupTeachers, id)
	for key := range st.members {
		if key.groupID == id {
			delete(st.members, key)
		}
	}
}

func sortGroupsByExamDesc(groups []group.Group) {
	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].ExamDate.Equal(groups[j].ExamDate) {
			return groups[i].ExamDate.After(groups[j].ExamDate)
		}
		return groups[i].ID > groups[j].ID
	})
}

func (repo *groupRepository) QueryGroups(_ context.Context) ([]group.Group, error) {
	var groups []group.Group
	err := repo.view(func(st *state) error {
		groups = make([]group.Group, 0, len(st.groups))
		for _, row := range st.groups {
			groups = append(groups, toGroup(st, row))
		}
		return nil
	})
	sortGroupsByExamDesc(groups)
	return groups, err
}

func (repo *groupRepository) GetGroup(_ context.Context, id int) (group.Group, error) {
	var g group.Group
	err := repo.view(func(st *state) error {
		row, ok := st.groups[id]
		if !ok {
			return group.ErrNotFound
		}
		g = toGroup(st, row)
		return nil
	})
	return g, err
}

func (repo *groupRepository) CreateGroup(_ context.Context, g group.Group) (group.Group, error) {
	err := repo.update(func(st *state) error {
		if _, ok := st.subjects[g.SubjectID]; !ok {
			return catalog.ErrSubjectNotFound
		}
		row := groupRow{
			ID:         st.nextID("groups"),
			SubjectID:  g.SubjectID,
			ExamDate:   g.ExamDate,
			RoomNumber: g.RoomNumber,
		}
		st.groups[row.ID] = row
		g = toGroup(st, row)
		return nil
	})
	return g, err
}

func (repo *groupRepository) DeleteGroup(_ context.Context, id int) error {
	return repo.update(func(st *state) error {
		if _, ok := st.groups[id]; !ok {
			return group.ErrNotFound
		}
		deleteGroup(st, id)
		return nil
	})
}

func (repo *groupRepository) QueryGroupTeachers(_ context.Context, groupID int) ([]group.Teacher, error) {
	var teachers []staff.Staff
	err := repo.view(func(st *state) error {
		for id := range st.groupTeachers[groupID] {
			if s, ok := st.staff[id]; ok {
				teachers = append(teachers, s)
			}
		}
		return nil
	})
	sortStaff(teachers)

	out := make([]group.Teacher, 0, len(teachers))
	for _, s := range teachers {
		out = append(out, group.Teacher{ID: s.ID, FirstName: s.FirstName, LastName: s.LastName, Email: s.Email})
	}
	return out, err
}

func (repo *groupRepository) QueryGroupMembers(_ context.Context, groupID int) ([]group.Member, error) {
	var members []group.Member
	err := repo.view(func(st *state) error {
		for key, row := range st.members {
			if key.groupID != groupID {
				continue
			}
			a := st.applicants[key.applicantID]
			members = append(members, group.Member{
				ID:        a.ID,
				FirstName: a.FirstName,
				LastName:  a.LastName,
				Email:     a.Email,
				Score:     row.score,
			})
		}
		return nil
	})
	sort.Slice(members, func(i, j int) bool {
		if members[i].LastName != members[j].LastName {
			return members[i].LastName < members[j].LastName
		}
		if members[i].FirstName != members[j].FirstName {
			return members[i].FirstName < members[j].FirstName
		}
		return members[i].ID < members[j].ID
	})
	if members == nil {
		members = []group.Member{}
	}
	return members, err
}

func (repo *groupRepository) BindTeacher(_ context.Context, groupID, teacherID int) error {
	return repo.update(func(st *state) error {
		if _, ok := st.groups[groupID]; !ok {
			return group.ErrNotFound
		}
		if _, ok := st.staff[teacherID]; !ok {
			return group.ErrTeacherNotFound
		}
		teachers, ok := st.groupTeachers[groupID]
		if !ok {
			teachers = make(intSet)
			st.groupTeachers[groupID] = teachers
		}
		teachers[teacherID] = struct{}{}
		return nil
	})
}

func (repo *groupRepository) UnbindTeacher(_ context.Context, groupID, teacherID int) error {
	return repo.update(func(st *state) error {
		delete(st.groupTeachers[groupID], teacherID)
		return nil
	})
}

func (repo *groupRepository) QueryStaffOptions(_ context.Context, groupID int) ([]group.StaffOption, error) {
	var (
		all   []staff.Staff
		bound intSet
	)
	err := repo.view(func(st *state) error {
		for _, s := range st.staff {
			all = append(all, s)
		}
		bound = st.groupTeachers[groupID].clone()
		return nil
	})
	sortStaff(all)

	opts := make([]group.StaffOption, 0, len(all))
	for _, s := range all {
		_, inGroup := bound[s.ID]
		opts = append(opts, group.StaffOption{
			ID:          s.ID,
			FirstName:   s.FirstName,
			LastName:    s.LastName,
			Email:       s.Email,
			IsTeacher:   s.IsTeacher,
			IsSecretary: s.IsSecretary,
			InGroup:     inGroup,
		})
	}
	return opts, err
}

func (repo *groupRepository) QueryTeacherGroups(_ context.Context, teacherID int) ([]group.Group, error) {
	var groups []group.Group
	err := repo.view(func(st *state) error {
		groups = make([]group.Group, 0)
		for gid, teachers := range st.groupTeachers {
			if _, ok := teachers[teacherID]; !ok {
				continue
			}
			if row, ok := st.groups[gid]; ok {
				groups = append(groups, toGroup(st, row))
			}
		}
		return nil
	})
	sortGroupsByExamDesc(groups)
	return groups, err
}

func (repo *groupRepository) IsTeacherBound(_ context.Context, groupID, teacherID int) (bool, error) {
	var bound bool
	err := repo.view(func(st *state) error {
		_, bound = st.groupTeachers[groupID][teacherID]
		return nil
	})
	return bound, err
}
