package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/lessonplan/core/curriculum"
	"github.com/trezcool/lessonplan/core/schedule"
	"github.com/trezcool/lessonplan/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db            *sql.DB
	usrRepo       user.Repository
	curriculumSvc *curriculum.Service
	scheduleSvc   *schedule.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-name NAME] [-admin] - create or update a user")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [ARGS...] - run a database migration command (up, down, status, ...)")
	fmt.Println("  importcurriculum -username USERNAME|EMAIL -file FILE - import a course from a YAML file")
	fmt.Println("  importholidays -username USERNAME|EMAIL -config ID -file FILE - add holidays from a YAML file to a schedule configuration")
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Give the user every role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	importCurriculumCmd := flag.NewFlagSet("importcurriculum", flag.ContinueOnError)
	importCurriculumUname := importCurriculumCmd.String("username", "", "The owner's username or email.")
	importCurriculumFile := importCurriculumCmd.String("file", "", "Path to the course YAML file.")

	importHolidaysCmd := flag.NewFlagSet("importholidays", flag.ContinueOnError)
	importHolidaysUname := importHolidaysCmd.String("username", "", "The owner's username or email.")
	importHolidaysConf := importHolidaysCmd.Int64("config", 0, "The schedule configuration id.")
	importHolidaysFile := importHolidaysCmd.String("file", "", "Path to the holidays YAML file.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "importcurriculum":
		if err := importCurriculumCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importCurriculumUname == "" || *importCurriculumFile == "" {
			importCurriculumCmd.Usage()
			return errHelp
		}
		course, err := cli.importCurriculum(*importCurriculumUname, *importCurriculumFile)
		if err != nil {
			return err
		}
		fmt.Printf("course %q imported (id %d)\n", course.Name, course.ID)
		return nil

	case "importholidays":
		if err := importHolidaysCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importHolidaysUname == "" || *importHolidaysConf <= 0 || *importHolidaysFile == "" {
			importHolidaysCmd.Usage()
			return errHelp
		}
		conf, err := cli.importHolidays(*importHolidaysUname, *importHolidaysConf, *importHolidaysFile)
		if err != nil {
			return err
		}
		fmt.Printf("configuration %q now has %d holidays\n", conf.Name, len(conf.Holidays))
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}
