package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"net/mail"
	"testing"
	"time"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/applicant"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/group"
	"github.com/trezcool/admissions/core/membership"
	"github.com/trezcool/admissions/core/report"
	"github.com/trezcool/admissions/core/staff"
	"github.com/trezcool/admissions/services/email"
	"github.com/trezcool/admissions/services/logger"
	"github.com/trezcool/admissions/storage/database/inmem"
)

// Password satisfies the password policy.
const Password = "Adm1ss!on-Pa55"

// Env is a fully wired application backed by the in-memory database.
type Env struct {
	Conf   *core.Config
	DB     *inmemdb.DB
	Logger core.Logger
	Mailer core.EmailService

	Catalog    *catalog.Service
	Applicants *applicant.Service
	Staff      *staff.Service
	Groups     *group.Service
	Membership *membership.Service
	Reports    *report.Service
}

func NewConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Admissions",
		SecretKey:        "test-secret-key",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Admissions", Address: "noreply@localhost"},
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
			JWTRefreshDelta:    24 * time.Hour,
		},
		Database:  core.DatabaseConfig{Engine: "memory"},
		Dashboard: core.DashboardConfig{UpcomingLimit: 10},
	}
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	core.ParseEmailTemplates(conf, logger)
	emailsvc.ClearSentMessages()

	db := inmemdb.NewDB()
	catalogSvc := catalog.NewService(inmemdb.NewCatalogRepository(db))
	applicantSvc := applicant.NewService(inmemdb.NewApplicantRepository(db), catalogSvc)
	staffSvc := staff.NewService(inmemdb.NewStaffRepository(db))
	groupSvc := group.NewService(inmemdb.NewGroupRepository(db), catalogSvc, staffSvc)
	mailer := emailsvc.NewConsoleServiceMock(conf, logger)

	return &Env{
		Conf:       conf,
		DB:         db,
		Logger:     logger,
		Mailer:     mailer,
		Catalog:    catalogSvc,
		Applicants: applicantSvc,
		Staff:      staffSvc,
		Groups:     groupSvc,
		Membership: membership.NewService(inmemdb.NewMembershipRepository(db), groupSvc, mailer, logger),
		Reports:    report.NewService(inmemdb.NewReportRepository(db), applicantSvc, conf.Dashboard.UpcomingLimit),
	}
}

func (env *Env) CreateSubject(t *testing.T, name string) catalog.Subject {
	t.Helper()
	sub, err := env.Catalog.CreateSubject(context.Background(), catalog.NewSubject{Name: name})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func (env *Env) CreateSpecialty(t *testing.T, code string, subjectIDs ...int) catalog.Specialty {
	t.Helper()
	sp, err := env.Catalog.CreateSpecialty(context.Background(), catalog.NewSpecialty{
		Name:       "Specialty " + code,
		Code:       code,
		SeatsCount: 30,
		SubjectIDs: subjectIDs,
	})
	if err != nil {
		t.Fatalf("CreateSpecialty() failed: %v", err)
	}
	return sp
}

func (env *Env) CreateApplicant(t *testing.T, first, last, email string, specialtyID int) applicant.Applicant {
	t.Helper()
	a, err := env.Applicants.Create(context.Background(), applicant.NewApplicant{
		FirstName:    first,
		LastName:     last,
		BirthDate:    "2006-05-17",
		PassportData: "AB 123456",
		Address:      "1 Main street",
		Email:        email,
		Password:     Password,
		SpecialtyID:  specialtyID,
	})
	if err != nil {
		t.Fatalf("CreateApplicant() failed: %v", err)
	}
	return a
}

func (env *Env) CreateStaff(t *testing.T, first, last, email string, isTeacher, isSecretary bool) staff.Staff {
	t.Helper()
	s, err := env.Staff.Create(context.Background(), staff.NewStaff{
		FirstName:   first,
		LastName:    last,
		Email:       email,
		Password:    Password,
		IsTeacher:   isTeacher,
		IsSecretary: isSecretary,
	})
	if err != nil {
		t.Fatalf("CreateStaff() failed: %v", err)
	}
	return s
}

func (env *Env) CreateGroup(t *testing.T, subjectID int, examDate time.Time, room string) group.Group {
	t.Helper()
	g, err := env.Groups.Create(context.Background(), group.NewGroup{SubjectID: subjectID, ExamDate: examDate, RoomNumber: room})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return g
}

func (env *Env) BindTeacher(t *testing.T, groupID, teacherID int) {
	t.Helper()
	if err := env.Groups.BindTeacher(context.Background(), groupID, teacherID); err != nil {
		t.Fatalf("BindTeacher() failed: %v", err)
	}
}

func (env *Env) Transfer(t *testing.T, groupID, applicantID int) {
	t.Helper()
	if _, err := env.Membership.Transfer(context.Background(), groupID, applicantID); err != nil {
		t.Fatalf("Transfer() failed: %v", err)
	}
}
