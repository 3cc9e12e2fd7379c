package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/admissions/core/catalog"
)

type catalogRepository struct {
	conn
}

var _ catalog.Repository = (*catalogRepository)(nil)

func NewCatalogRepository(db *DB) catalog.Repository {
	return &catalogRepository{conn{db: db}}
}

func (repo *catalogRepository) QuerySubjects(_ context.Context) ([]catalog.Subject, error) {
	var subs []catalog.Subject
	err := repo.view(func(st *state) error {
		subs = make([]catalog.Subject, 0, len(st.subjects))
		for _, sub := range st.subjects {
			subs = append(subs, sub)
		}
		return nil
	})
	sortSubjects(subs)
	return subs, err
}

func (repo *catalogRepository) GetSubject(_ context.Context, id int) (catalog.Subject, error) {
	var sub catalog.Subject
	err := repo.view(func(st *state) error {
		var ok bool
		if sub, ok = st.subjects[id]; !ok {
			return catalog.ErrSubjectNotFound
		}
		return nil
	})
	return sub, err
}

func (repo *catalogRepository) CreateSubject(_ context.Context, sub catalog.Subject) (catalog.Subject, error) {
	err := repo.update(func(st *state) error {
		sub.ID = st.nextID("subjects")
		st.subjects[sub.ID] = sub
		return nil
	})
	return sub, err
}

func (repo *catalogRepository) UpdateSubject(_ context.Context, sub catalog.Subject) (catalog.Subject, error) {
	err := repo.update(func(st *state) error {
		if _, ok := st.subjects[sub.ID]; !ok {
			return catalog.ErrSubjectNotFound
		}
		st.subjects[sub.ID] = sub
		return nil
	})
	return sub, err
}

// DeleteSubject cascades to the specialty mappings and the groups of the subject.
func (repo *catalogRepository) DeleteSubject(_ context.Context, id int) error {
	return repo.update(func(st *state) error {
		if _, ok := st.subjects[id]; !ok {
			return catalog.ErrSubjectNotFound
		}
		delete(st.subjects, id)
		for _, subs := range st.specialtySubjects {
			delete(subs, id)
		}
		for gid, g := range st.groups {
			if g.SubjectID == id {
				deleteGroup(st, gid)
			}
		}
		return nil
	})
}

func (repo *catalogRepository) QuerySpecialties(_ context.Context) ([]catalog.Specialty, error) {
	var sps []catalog.Specialty
	err := repo.view(func(st *state) error {
		sps = make([]catalog.Specialty, 0, len(st.specialties))
		for _, sp := range st.specialties {
			sps = append(sps, withSubjectIDs(st, sp))
		}
		return nil
	})
	sort.Slice(sps, func(i, j int) bool {
		if sps[i].Name != sps[j].Name {
			return sps[i].Name < sps[j].Name
		}
		return sps[i].ID < sps[j].ID
	})
	return sps, err
}

func (repo *catalogRepository) GetSpecialty(_ context.Context, id int) (catalog.Specialty, error) {
	var sp catalog.Specialty
	err := repo.view(func(st *state) error {
		found, ok := st.specialties[id]
		if !ok {
			return catalog.ErrSpecialtyNotFound
		}
		sp = withSubjectIDs(st, found)
		return nil
	})
	return sp, err
}

func (repo *catalogRepository) CreateSpecialty(_ context.Context, sp catalog.Specialty) (catalog.Specialty, error) {
	err := repo.update(func(st *state) error {
		if codeTaken(st, sp.Code, 0) {
			return catalog.ErrCodeExists
		}
		sp.ID = st.nextID("specialties")
		if err := setSpecialtySubjects(repo.db, st, sp.ID, sp.SubjectIDs); err != nil {
			return err
		}
		st.specialties[sp.ID] = stripSubjectIDs(sp)
		sp = withSubjectIDs(st, sp)
		return nil
	})
	return sp, err
}

func (repo *catalogRepository) UpdateSpecialty(_ context.Context, sp catalog.Specialty, replaceSubjects bool) (catalog.Specialty, error) {
	err := repo.update(func(st *state) error {
		if _, ok := st.specialties[sp.ID]; !ok {
			return catalog.ErrSpecialtyNotFound
		}
		if codeTaken(st, sp.Code, sp.ID) {
			return catalog.ErrCodeExists
		}
		if replaceSubjects {
			if err := setSpecialtySubjects(repo.db, st, sp.ID, sp.SubjectIDs); err != nil {
				return err
			}
		}
		st.specialties[sp.ID] = stripSubjectIDs(sp)
		sp = withSubjectIDs(st, sp)
		return nil
	})
	return sp, err
}

func (repo *catalogRepository) DeleteSpecialty(_ context.Context, id int) error {
	return repo.update(func(st *state) error {
		if _, ok := st.specialties[id]; !ok {
			return catalog.ErrSpecialtyNotFound
		}
		for _, a := range st.applicants {
			if a.SpecialtyID == id {
				return catalog.ErrSpecialtyInUse
			}
		}
		delete(st.specialties, id)
		delete(st.specialtySubjects, id)
		return nil
	})
}

func (repo *catalogRepository) QuerySpecialtySubjects(_ context.Context, specialtyID int) ([]catalog.Subject, error) {
	var subs []catalog.Subject
	err := repo.view(func(st *state) error {
		ids := st.specialtySubjects[specialtyID]
		subs = make([]catalog.Subject, 0, len(ids))
		for id := range ids {
			if sub, ok := st.subjects[id]; ok {
				subs = append(subs, sub)
			}
		}
		return nil
	})
	sortSubjects(subs)
	return subs, err
}

func sortSubjects(subs []catalog.Subject) {
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Name != subs[j].Name {
			return subs[i].Name < subs[j].Name
		}
		return subs[i].ID < subs[j].ID
	})
}

func codeTaken(st *state, code string, exceptID int) bool {
	for _, sp := range st.specialties {
		if sp.ID != exceptID && strings.EqualFold(sp.Code, code) {
			return true
		}
	}
	return false
}

// setSpecialtySubjects replaces the subject mapping, one row at a time like the SQL store does.
func setSpecialtySubjects(db *DB, st *state, specialtyID int, subjectIDs []int) error {
	subs := make(intSet, len(subjectIDs))
	for _, sid := range subjectIDs {
		if err := db.fault("catalog.subjects"); err != nil {
			return err
		}
		if _, ok := st.subjects[sid]; !ok {
			return catalog.ErrSubjectNotFound
		}
		subs[sid] = struct{}{}
	}
	st.specialtySubjects[specialtyID] = subs
	return nil
}

func stripSubjectIDs(sp catalog.Specialty) catalog.Specialty {
	sp.SubjectIDs = nil
	return sp
}

func withSubjectIDs(st *state, sp catalog.Specialty) catalog.Specialty {
	ids := make([]int, 0, len(st.specialtySubjects[sp.ID]))
	for id := range st.specialtySubjects[sp.ID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	sp.SubjectIDs = ids
	return sp
}
