package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/admissions/apps/api/echo"
	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/applicant"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/group"
	"github.com/trezcool/admissions/core/membership"
	"github.com/trezcool/admissions/core/report"
	"github.com/trezcool/admissions/core/staff"
	"github.com/trezcool/admissions/services/email"
	"github.com/trezcool/admissions/services/logger"
	"github.com/trezcool/admissions/storage/database"
	"github.com/trezcool/admissions/storage/database/inmem"
	"github.com/trezcool/admissions/storage/database/sqlx"
)

type repositories struct {
	catalog    catalog.Repository
	applicant  applicant.Repository
	staff      staff.Repository
	group      group.Repository
	membership membership.Repository
	report     report.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	var repos repositories
	if conf.Database.InMemory() {
		logger.Warn("using the in-memory database: data will be lost on shutdown")
		repos = inmemRepositories()
	} else {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		repos = sqlxRepositories(db)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.SendgridApiKey != "" {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	} else {
		mailSvc = emailsvc.NewConsoleService(conf, logger, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	}

	catalogSvc := catalog.NewService(repos.catalog)
	applicantSvc := applicant.NewService(repos.applicant, catalogSvc)
	staffSvc := staff.NewService(repos.staff)
	groupSvc := group.NewService(repos.group, catalogSvc, staffSvc)
	membershipSvc := membership.NewService(repos.membership, groupSvc, mailSvc, logger)
	reportSvc := report.NewService(repos.report, applicantSvc, conf.Dashboard.UpcomingLimit)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	applicant.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("db_engine").Set(conf.Database.Engine)

	if conf.Server.DebugAddress != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Catalog:    catalogSvc,
			Applicants: applicantSvc,
			Staff:      staffSvc,
			Groups:     groupSvc,
			Membership: membershipSvc,
			Reports:    reportSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func sqlxRepositories(raw *sql.DB) repositories {
	db := sqlxrepos.NewDB(raw)
	return repositories{
		catalog:    sqlxrepos.NewCatalogRepository(db),
		applicant:  sqlxrepos.NewApplicantRepository(db),
		staff:      sqlxrepos.NewStaffRepository(db),
		group:      sqlxrepos.NewGroupRepository(db),
		membership: sqlxrepos.NewMembershipRepository(db),
		report:     sqlxrepos.NewReportRepository(db),
	}
}

func inmemRepositories() repositories {
	db := inmemdb.NewDB()
	return repositories{
		catalog:    inmemdb.NewCatalogRepository(db),
		applicant:  inmemdb.NewApplicantRepository(db),
		staff:      inmemdb.NewStaffRepository(db),
		group:      inmemdb.NewGroupRepository(db),
		membership: inmemdb.NewMembershipRepository(db),
		report:     inmemdb.NewReportRepository(db),
	}
}
