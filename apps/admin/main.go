package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/applicant"
	"github.com/trezcool/admissions/core/staff"
	"github.com/trezcool/admissions/services/logger"
	"github.com/trezcool/admissions/storage/database"
	"github.com/trezcool/admissions/storage/database/inmem"
	"github.com/trezcool/admissions/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	rollbarLogger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	rollbarLogger.Enable(!conf.Debug)
	logger = rollbarLogger

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	applicant.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)

	cli := commandLine{validate: validate, translator: translator}
	if conf.Database.InMemory() {
		cli.staffSvc = staff.NewService(inmemdb.NewStaffRepository(inmemdb.NewDB()))
	} else {
		db, err := setUpDB(conf)
		errAndDie(err)
		defer func() { _ = db.Close() }()
		cli.db = db
		cli.staffSvc = staff.NewService(sqlxrepos.NewStaffRepository(sqlxrepos.NewDB(db)))
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	return database.Open(conf)
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal("admin setup failed", err)
	}
}
