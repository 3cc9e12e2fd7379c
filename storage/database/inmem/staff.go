package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/admissions/core/staff"
)

type staffRepository struct {
	conn
}

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(db *DB) staff.Repository {
	return &staffRepository{conn{db: db}}
}

func staffEmailTaken(st *state, email string, exceptID int) bool {
	for _, s := range st.staff {
		if s.ID != exceptID && s.Email == email {
			return true
		}
	}
	return false
}

func (repo *staffRepository) CreateStaff(_ context.Context, s staff.Staff) (staff.Staff, error) {
	err := repo.update(func(st *state) error {
		if staffEmailTaken(st, s.Email, 0) {
			return staff.ErrEmailExists
		}
		s.ID = st.nextID("staff")
		st.staff[s.ID] = s
		return nil
	})
	return s, err
}

func (repo *staffRepository) GetStaff(_ context.Context, id int) (staff.Staff, error) {
	var s staff.Staff
	err := repo.view(func(st *state) error {
		var ok bool
		if s, ok = st.staff[id]; !ok {
			return staff.ErrNotFound
		}
		return nil
	})
	return s, err
}

func (repo *staffRepository) GetStaffByEmail(_ context.Context, email string) (staff.Staff, error) {
	var s staff.Staff
	err := repo.view(func(st *state) error {
		for _, found := range st.staff {
			if found.Email == email {
				s = found
				return nil
			}
		}
		return staff.ErrNotFound
	})
	return s, err
}

func (repo *staffRepository) QueryStaff(_ context.Context) ([]staff.Staff, error) {
	var all []staff.Staff
	err := repo.view(func(st *state) error {
		all = make([]staff.Staff, 0, len(st.staff))
		for _, s := range st.staff {
			all = append(all, s)
		}
		return nil
	})
	sortStaff(all)
	return all, err
}

func (repo *staffRepository) UpdateStaff(_ context.Context, s staff.Staff) (staff.Staff, error) {
	err := repo.update(func(st *state) error {
		if _, ok := st.staff[s.ID]; !ok {
			return staff.ErrNotFound
		}
		if staffEmailTaken(st, s.Email, s.ID) {
			return staff.ErrEmailExists
		}
		st.staff[s.ID] = s
		return nil
	})
	return s, err
}

func (repo *staffRepository) DeleteStaff(_ context.Context, id int) error {
	return repo.update(func(st *state) error {
		if _, ok := st.staff[id]; !ok {
			return staff.ErrNotFound
		}
		delete(st.staff, id)
		for _, teachers := range st.groupTeachers {
			delete(teachers, id)
		}
		return nil
	})
}

func sortStaff(all []staff.Staff) {
	sort.Slice(all, func(i, j int) bool {
		if all[i].LastName != all[j].LastName {
			return all[i].LastName < all[j].LastName
		}
		if all[i].FirstName != all[j].FirstName {
			return all[i].FirstName < all[j].FirstName
		}
		return all[i].ID < all[j].ID
	})
}
