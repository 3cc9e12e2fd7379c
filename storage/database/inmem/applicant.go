package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/applicant"
	"github.com/trezcool/admissions/core/catalog"
)

type applicantRepository struct {
	conn
}

var _ applicant.Repository = (*applicantRepository)(nil)

func NewApplicantRepository(db *DB) applicant.Repository {
	return &applicantRepository{conn{db: db}}
}

func withSpecialtyName(st *state, a applicant.Applicant) applicant.Applicant {
	a.SpecialtyName = st.specialties[a.SpecialtyID].Name
	return a
}

func applicantEmailTaken(st *state, email string, exceptID int) bool {
	for _, a := range st.applicants {
		if a.ID != exceptID && a.Email == email {
			return true
		}
	}
	return false
}

func (repo *applicantRepository) CreateApplicant(_ context.Context, a applicant.Applicant) (applicant.Applicant, error) {
	err := repo.update(func(st *state) error {
		if applicantEmailTaken(st, a.Email, 0) {
			return applicant.ErrEmailExists
		}
		if _, ok := st.specialties[a.SpecialtyID]; !ok {
			return catalog.ErrSpecialtyNotFound
		}
		a.ID = st.nextID("applicants")
		a.SpecialtyName = ""
		st.applicants[a.ID] = a
		a = withSpecialtyName(st, a)
		return nil
	})
	return a, err
}

func (repo *applicantRepository) GetApplicant(_ context.Context, id int) (applicant.Applicant, error) {
	var a applicant.Applicant
	err := repo.view(func(st *state) error {
		found, ok := st.applicants[id]
		if !ok {
			return applicant.ErrNotFound
		}
		a = withSpecialtyName(st, found)
		return nil
	})
	return a, err
}

func (repo *applicantRepository) GetApplicantByEmail(_ context.Context, email string) (applicant.Applicant, error) {
	var a applicant.Applicant
	err := repo.view(func(st *state) error {
		for _, found := range st.applicants {
			if found.Email == email {
				a = withSpecialtyName(st, found)
				return nil
			}
		}
		return applicant.ErrNotFound
	})
	return a, err
}

func (repo *applicantRepository) UpdateApplicant(_ context.Context, a applicant.Applicant) (applicant.Applicant, error) {
	err := repo.update(func(st *state) error {
		if _, ok := st.applicants[a.ID]; !ok {
			return applicant.ErrNotFound
		}
		if applicantEmailTaken(st, a.Email, a.ID) {
			return applicant.ErrEmailExists
		}
		a.SpecialtyName = ""
		st.applicants[a.ID] = a
		a = withSpecialtyName(st, a)
		return nil
	})
	return a, err
}

func (repo *applicantRepository) DeleteApplicant(_ context.Context, id int) error {
	return repo.update(func(st *state) error {
		if _, ok := st.applicants[id]; !ok {
			return applicant.ErrNotFound
		}
		delete(st.applicants, id)
		for key := range st.members {
			if key.applicantID == id {
				delete(st.members, key)
			}
		}
		return nil
	})
}

func (repo *applicantRepository) FilterApplicants(
	_ context.Context,
	filter applicant.QueryFilter,
	ordering []core.DBOrdering,
) ([]applicant.Applicant, error) {
	search := strings.ToLower(filter.Search)

	var apps []applicant.Applicant
	err := repo.view(func(st *state) error {
		apps = make([]applicant.Applicant, 0, len(st.applicants))
		for _, a := range st.applicants {
			if filter.Status != "" && a.Status != filter.Status {
				continue
			}
			if filter.SpecialtyID != 0 && a.SpecialtyID != filter.SpecialtyID {
				continue
			}
			if search != "" &&
				!(strings.Contains(strings.ToLower(a.FirstName), search) ||
					strings.Contains(strings.ToLower(a.LastName), search) ||
					strings.Contains(strings.ToLower(a.Email), search)) {
				continue
			}
			apps = append(apps, withSpecialtyName(st, a))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "id", Ascending: true}}
	}
	sort.SliceStable(apps, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareApplicants(apps[i], apps[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return apps[i].ID < apps[j].ID
	})
	return apps, nil
}

func compareApplicants(a, b applicant.Applicant, field string) int {
	switch field {
	case "id":
		return a.ID - b.ID
	case "first_name":
		return strings.Compare(a.FirstName, b.FirstName)
	case "last_name":
		return strings.Compare(a.LastName, b.LastName)
	case "birth_date":
		return a.BirthDate.Compare(b.BirthDate)
	case "application_date":
		return a.ApplicationDate.Compare(b.ApplicationDate)
	case "status":
		return strings.Compare(a.Status, b.Status)
	}
	return 0
}
