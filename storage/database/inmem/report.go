package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/admissions/core/report"
)

type reportRepository struct {
	conn
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{conn{db: db}}
}

func (repo *reportRepository) QueryApplicantExams(_ context.Context, applicantID int) ([]report.Exam, error) {
	var exams []report.Exam
	err := repo.view(func(st *state) error {
		for key, row := range st.members {
			if key.applicantID != applicantID {
				continue
			}
			g := st.groups[key.groupID]
			exams = append(exams, report.Exam{
				GroupID:     g.ID,
				SubjectID:   g.SubjectID,
				SubjectName: st.subjects[g.SubjectID].Name,
				ExamDate:    g.ExamDate,
				RoomNumber:  g.RoomNumber,
				Score:       row.score,
			})
		}
		return nil
	})
	sort.Slice(exams, func(i, j int) bool {
		if !exams[i].ExamDate.Equal(exams[j].ExamDate) {
			return exams[i].ExamDate.Before(exams[j].ExamDate)
		}
		return exams[i].GroupID < exams[j].GroupID
	})
	return exams, err
}

func (repo *reportRepository) CountApplicantsByStatus(_ context.Context) ([]report.StatusCount, error) {
	counts := make(map[string]int)
	err := repo.view(func(st *state) error {
		for _, a := range st.applicants {
			counts[a.Status]++
		}
		return nil
	})

	out := make([]report.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, report.StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, err
}

func (repo *reportRepository) QueryUpcomingGroups(_ context.Context, from time.Time, limit int) ([]report.UpcomingGroup, error) {
	var groups []report.UpcomingGroup
	err := repo.view(func(st *state) error {
		for _, row := range st.groups {
			if row.ExamDate.Before(from) {
				continue
			}
			g := toGroup(st, row)
			groups = append(groups, report.UpcomingGroup{
				ID:             g.ID,
				SubjectName:    g.SubjectName,
				ExamDate:       g.ExamDate,
				RoomNumber:     g.RoomNumber,
				ApplicantCount: g.ApplicantCount,
			})
		}
		return nil
	})
	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].ExamDate.Equal(groups[j].ExamDate) {
			return groups[i].ExamDate.Before(groups[j].ExamDate)
		}
		return groups[i].ID < groups[j].ID
	})
	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, err
}
