package report

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admissions/core/applicant"
)

var NowFunc = time.Now // mockable

type (
	Exam struct {
		GroupID     int          `json:"group_id" db:"group_id"`
		SubjectID   int          `json:"subject_id" db:"subject_id"`
		SubjectName string       `json:"subject_name" db:"subject_name"`
		ExamDate    time.Time    `json:"exam_date" db:"exam_date"`
		RoomNumber  null.String  `json:"room_number" db:"room_number"`
		Score       null.Float64 `json:"score" db:"score"`
	}

	// Application is what an applicant sees of their own file.
	Application struct {
		Applicant  applicant.Applicant `json:"applicant"`
		Exams      []Exam              `json:"exams"`
		TotalScore float64             `json:"total_score"`
	}

	StatusCount struct {
		Status string `json:"status" db:"status"`
		Count  int    `json:"count" db:"count"`
	}

	UpcomingGroup struct {
		ID             int         `json:"id" db:"id"`
		SubjectName    string      `json:"subject_name" db:"subject_name"`
		ExamDate       time.Time   `json:"exam_date" db:"exam_date"`
		RoomNumber     null.String `json:"room_number" db:"room_number"`
		ApplicantCount int         `json:"applicant_count" db:"applicant_count"`
	}

	Dashboard struct {
		TotalApplicants int             `json:"total_applicants"`
		AdmittedCount   int             `json:"admitted_count"`
		StatusCounts    []StatusCount   `json:"status_counts"`
		UpcomingGroups  []UpcomingGroup `json:"upcoming_groups"`
	}

	Repository interface {
		// QueryApplicantExams returns the groups the applicant is a member of, soonest exam first.
		QueryApplicantExams(ctx context.Context, applicantID int) ([]Exam, error)
		CountApplicantsByStatus(ctx context.Context) ([]StatusCount, error)
		// QueryUpcomingGroups returns at most limit groups with an exam at or after from, soonest first.
		QueryUpcomingGroups(ctx context.Context, from time.Time, limit int) ([]UpcomingGroup, error)
	}

	ApplicantGetter interface {
		GetByID(ctx context.Context, id int) (applicant.Applicant, error)
	}

	Service struct {
		repo          Repository
		applicants    ApplicantGetter
		upcomingLimit int
	}
)

func NewService(repo Repository, applicants ApplicantGetter, upcomingLimit int) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(applicants, "applicants"),
	).CheckAndPanic()

	if upcomingLimit <= 0 {
		upcomingLimit = 10
	}
	return &Service{repo: repo, applicants: applicants, upcomingLimit: upcomingLimit}
}

// ApplicantExams returns the applicant with their exams and total score. Ungraded exams count as 0.
func (svc *Service) ApplicantExams(ctx context.Context, applicantID int) (Application, error) {
	a, err := svc.applicants.GetByID(ctx, applicantID)
	if err != nil {
		return Application{}, err
	}
	exams, err := svc.repo.QueryApplicantExams(ctx, applicantID)
	if err != nil {
		return Application{}, errors.Wrap(err, "querying applicant exams")
	}
	if exams == nil {
		exams = []Exam{}
	}
	return Application{Applicant: a, Exams: exams, TotalScore: TotalScore(exams)}, nil
}

func TotalScore(exams []Exam) float64 {
	var total float64
	for _, e := range exams {
		if e.Score.Valid {
			total += e.Score.Float64
		}
	}
	return total
}

func (svc *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	counts, err := svc.repo.CountApplicantsByStatus(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "counting applicants")
	}
	upcoming, err := svc.repo.QueryUpcomingGroups(ctx, NowFunc().UTC(), svc.upcomingLimit)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying upcoming groups")
	}
	if upcoming == nil {
		upcoming = []UpcomingGroup{}
	}

	byStatus := make(map[string]int, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}

	dash := Dashboard{
		StatusCounts:   make([]StatusCount, 0, len(applicant.Statuses)),
		UpcomingGroups: upcoming,
	}
	for _, c := range counts {
		dash.TotalApplicants += c.Count
	}
	for _, status := range applicant.Statuses {
		dash.StatusCounts = append(dash.StatusCounts, StatusCount{Status: status, Count: byStatus[status]})
	}
	dash.AdmittedCount = byStatus[applicant.StatusAdmitted]
	return dash, nil
}
