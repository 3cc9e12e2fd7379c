package inmemdb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/membership"
)

var errDuplicateSubjectMembership = core.NewConflictError("applicant_id", "applicant is already in a group of this subject")

type membershipRepository struct {
	conn
}

var _ membership.Repository = (*membershipRepository)(nil)

func NewMembershipRepository(db *DB) membership.Repository {
	return &membershipRepository{conn{db: db}}
}

// RunInTx runs fn on a private copy of the data, holding the write lock.
// The copy replaces the data only when fn succeeds.
func (repo *membershipRepository) RunInTx(_ context.Context, fn func(tx membership.Repository) error) error {
	if repo.tx != nil {
		return fn(repo)
	}
	return repo.db.runInTx(func(st *state) error {
		return fn(&membershipRepository{conn{db: repo.db, tx: st}})
	})
}

func (repo *membershipRepository) GetTarget(_ context.Context, groupID int) (membership.Target, error) {
	var t membership.Target
	err := repo.view(func(st *state) error {
		row, ok := st.groups[groupID]
		if !ok {
			return membership.ErrGroupNotFound
		}
		t = membership.Target{
			GroupID:     row.ID,
			SubjectID:   row.SubjectID,
			SubjectName: st.subjects[row.SubjectID].Name,
			ExamDate:    row.ExamDate,
			RoomNumber:  row.RoomNumber,
		}
		return nil
	})
	return t, err
}

// LockApplicant needs no explicit lock: a transaction already holds the write lock of the DB.
func (repo *membershipRepository) LockApplicant(_ context.Context, applicantID int) (membership.Candidate, error) {
	var c membership.Candidate
	err := repo.view(func(st *state) error {
		a, ok := st.applicants[applicantID]
		if !ok {
			return membership.ErrApplicantNotFound
		}
		c = membership.Candidate{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, Email: a.Email}
		return nil
	})
	return c, err
}

func (repo *membershipRepository) QueryEligible(_ context.Context, groupID, subjectID int) ([]membership.EligibleApplicant, error) {
	var apps []membership.EligibleApplicant
	err := repo.view(func(st *state) error {
		// applicants with a score in any group of the subject
		passed := make(intSet)
		for key, row := range st.members {
			if row.subjectID == subjectID && row.score.Valid {
				passed[key.applicantID] = struct{}{}
			}
		}

		for _, a := range st.applicants {
			if _, ok := st.specialtySubjects[a.SpecialtyID][subjectID]; !ok {
				continue
			}
			_, inGroup := st.members[memberKey{groupID: groupID, applicantID: a.ID}]
			_, hasPassed := passed[a.ID]
			apps = append(apps, membership.EligibleApplicant{
				ID:            a.ID,
				FirstName:     a.FirstName,
				LastName:      a.LastName,
				Email:         a.Email,
				SpecialtyID:   a.SpecialtyID,
				SpecialtyName: st.specialties[a.SpecialtyID].Name,
				Status:        a.Status,
				InGroup:       inGroup,
				HasPassedExam: hasPassed,
			})
		}
		return nil
	})
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].LastName != apps[j].LastName {
			return apps[i].LastName < apps[j].LastName
		}
		if apps[i].FirstName != apps[j].FirstName {
			return apps[i].FirstName < apps[j].FirstName
		}
		return apps[i].ID < apps[j].ID
	})
	return apps, err
}

func (repo *membershipRepository) DeleteSubjectMemberships(_ context.Context, applicantID, subjectID, keepGroupID int) (int64, error) {
	var n int64
	err := repo.update(func(st *state) error {
		if err := repo.db.fault("membership.delete"); err != nil {
			return err
		}
		for key, row := range st.members {
			if key.applicantID == applicantID && row.subjectID == subjectID && key.groupID != keepGroupID {
				delete(st.members, key)
				n++
			}
		}
		return nil
	})
	return n, err
}

// InsertMembership enforces the same constraints as the SQL schema:
// the group must exist with this subject and the applicant may hold one membership per subject.
func (repo *membershipRepository) InsertMembership(_ context.Context, groupID, subjectID, applicantID int) (bool, error) {
	var inserted bool
	err := repo.update(func(st *state) error {
		if err := repo.db.fault("membership.insert"); err != nil {
			return err
		}
		row, ok := st.groups[groupID]
		if !ok || row.SubjectID != subjectID {
			return membership.ErrGroupNotFound
		}
		if _, ok := st.applicants[applicantID]; !ok {
			return membership.ErrApplicantNotFound
		}
		key := memberKey{groupID: groupID, applicantID: applicantID}
		if _, ok := st.members[key]; ok {
			return nil
		}
		for k, m := range st.members {
			if k.applicantID == applicantID && m.subjectID == subjectID {
				return errDuplicateSubjectMembership
			}
		}
		st.members[key] = memberRow{subjectID: subjectID}
		inserted = true
		return nil
	})
	return inserted, err
}

func (repo *membershipRepository) DeleteMembership(_ context.Context, groupID, applicantID int) error {
	return repo.update(func(st *state) error {
		if err := repo.db.fault("membership.delete"); err != nil {
			return err
		}
		delete(st.members, memberKey{groupID: groupID, applicantID: applicantID})
		return nil
	})
}

func (repo *membershipRepository) QueryMemberIDs(_ context.Context, groupID int) ([]int, error) {
	var ids []int
	err := repo.view(func(st *state) error {
		for key := range st.members {
			if key.groupID == groupID {
				ids = append(ids, key.applicantID)
			}
		}
		return nil
	})
	sort.Ints(ids)
	return ids, err
}

func (repo *membershipRepository) SetScore(_ context.Context, groupID, applicantID int, score null.Float64) error {
	return repo.update(func(st *state) error {
		if err := repo.db.fault("membership.score"); err != nil {
			return err
		}
		key := memberKey{groupID: groupID, applicantID: applicantID}
		row, ok := st.members[key]
		if !ok {
			return nil
		}
		row.score = score
		st.members[key] = row
		return nil
	})
}
