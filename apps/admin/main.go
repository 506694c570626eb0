package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lessonplan/core"
	"github.com/trezcool/lessonplan/core/curriculum"
	"github.com/trezcool/lessonplan/core/schedule"
	"github.com/trezcool/lessonplan/core/user"
	logsvc "github.com/trezcool/lessonplan/services/logger"
	"github.com/trezcool/lessonplan/storage/database"
	sqlxdb "github.com/trezcool/lessonplan/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		"ADMIN",
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:            db.DB,
		usrRepo:       sqlxdb.NewUserRepository(db),
		curriculumSvc: curriculum.NewService(sqlxdb.NewCurriculumRepository(db), validate),
		scheduleSvc:   schedule.NewService(sqlxdb.NewScheduleRepository(db), validate),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	logger.Close()
	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
