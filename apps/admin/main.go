package main

import (
	"log"
	"os"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/core/course"
	"github.com/kusoma/backend/core/enroll"
	logsvc "github.com/kusoma/backend/services/logger"
	"github.com/kusoma/backend/storage/database"
	sqlxrepos "github.com/kusoma/backend/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	catalog := course.NewDefaultCatalog(core.Conf)
	usrRepo := sqlxrepos.NewUserRepository(db)
	courseRepo := sqlxrepos.NewCourseRepository(db)
	enrollRepo := sqlxrepos.NewEnrollRepository(db)

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: usrRepo,
		enrollSvc: enroll.NewService(
			db, enrollRepo, usrRepo, courseRepo, catalog,
			logsvc.NewStdLogger(logger),
		),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
