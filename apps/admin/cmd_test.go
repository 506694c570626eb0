package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lessonplan/core/calendar"
	"github.com/trezcool/lessonplan/core/schedule"
	"github.com/trezcool/lessonplan/core/user"
	"github.com/trezcool/lessonplan/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.Services) {
	t.Helper()

	s := testutil.NewServices(t)
	return &commandLine{
		usrRepo:       s.UserRepo,
		curriculumSvc: s.Curriculum,
		scheduleSvc:   s.Schedule,
	}, s
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0o600))
	return path
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func (tt cliTest) run(t *testing.T, cli *commandLine) error {
	t.Helper()
	mockPassword(tt.pwd)
	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
	return err
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "holidays", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, cli)
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, s := setup(t)
	ctx := context.Background()

	existing := testutil.CreateUser(t, s.UserRepo, "Old Name", "awe", "awe@test.cd", "mdr", user.TeacherRoles, false)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-username", "lol"}, pwd: "lol", wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "lol", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "new teacher", args: []string{"adduser", "-username", "Teacher", "-email", "Teacher@test.cd", "-name", "Mr T"}, pwd: "lol"},
		{name: "new admin", args: []string{"adduser", "-username", "boss", "-email", "boss@test.cd", "-admin"}, pwd: "lol"},
		{name: "existing user", args: []string{"adduser", "-username", "awe", "-email", "awe@test.cd", "-admin"}, pwd: "lmao"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, cli)
		})
	}

	teacher, err := s.UserRepo.GetUserByUsernameOrEmail(ctx, "teacher")
	require.NoError(t, err)
	assert.Equal(t, "Mr T", teacher.Name)
	assert.Equal(t, "teacher@test.cd", teacher.Email)
	assert.True(t, teacher.IsActive)
	assert.True(t, teacher.IsTeacher())
	assert.False(t, teacher.IsAdmin())
	assert.NoError(t, teacher.CheckPassword("lol"))

	boss, err := s.UserRepo.GetUserByUsernameOrEmail(ctx, "boss")
	require.NoError(t, err)
	assert.True(t, boss.IsAdmin())

	updated, err := s.UserRepo.GetUserByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old Name", updated.Name)
	assert.True(t, updated.IsActive)
	assert.True(t, updated.IsAdmin())
	assert.NoError(t, updated.CheckPassword("lmao"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, s := setup(t)

	usr := testutil.CreateUser(t, s.UserRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, pwd: "lmao"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(t, cli); err != nil {
				return
			}
			refreshed, err := s.UserRepo.GetUserByID(context.Background(), usr.ID)
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "password was not updated")
			assert.NoError(t, refreshed.CheckPassword(tt.pwd))
		})
	}
}

const courseYAML = `
name: World History
description: Survey course
standards:
  - code: HIST.1
    description: Chronology
topics:
  - title: Antiquity
    lessons:
      - title: Greece
        standards: [HIST.1]
      - title: Rome
  - title: Middle Ages
    subtopics:
      - title: Feudalism
        lessons:
          - title: Vassals
    lessons:
      - title: Overview
`

func Test_commandLine_importCurriculum(t *testing.T) {
	cli, s := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateTeacher(t, s.UserRepo, "teacher1")
	path := writeFile(t, "course.yaml", courseYAML)
	badRef := writeFile(t, "bad.yaml", "name: Broken\ntopics:\n  - title: T\n    lessons:\n      - title: L\n        standards: [NOPE]\n")

	tests := []cliTest{
		{name: "no args", args: []string{"importcurriculum"}, wantErr: errHelp},
		{name: "no file", args: []string{"importcurriculum", "-username", "teacher1"}, wantErr: errHelp},
		{name: "unknown user", args: []string{"importcurriculum", "-username", "lol", "-file", path}, wantErr: user.ErrNotFound},
		{name: "unknown standard", args: []string{"importcurriculum", "-username", "teacher1", "-file", badRef}, wantErrStr: `lesson "L": unknown standard "NOPE"`},
		{name: "import", args: []string{"importcurriculum", "-username", "teacher1", "-file", path}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, cli)
		})
	}

	courses, err := s.Curriculum.QueryCourses(ctx, teacher.ID)
	require.NoError(t, err)
	var imported int64
	for _, c := range courses {
		if c.Name == "World History" {
			imported = c.ID
		}
	}
	require.NotZero(t, imported)

	tree, err := s.Curriculum.GetCourseTree(ctx, teacher.ID, imported)
	require.NoError(t, err)
	require.Len(t, tree.Topics, 2)
	assert.Equal(t, "Antiquity", tree.Topics[0].Title)
	require.Len(t, tree.Topics[0].Lessons, 2)
	assert.Len(t, tree.Topics[0].Lessons[0].StandardIDs, 1)
	require.Len(t, tree.Topics[1].SubTopics, 1)
	assert.Equal(t, "Vassals", tree.Topics[1].SubTopics[0].Lessons[0].Title)

	lessons, err := s.Curriculum.OrderedLessons(ctx, teacher.ID, imported)
	require.NoError(t, err)
	assert.Len(t, lessons, 4)

	// a second import reuses the standard
	require.NoError(t, cli.run([]string{"admin", "importcurriculum", "-username", "teacher1", "-file", path}))
	standards, err := s.Curriculum.QueryStandards(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Len(t, standards, 1)
}

func Test_commandLine_importHolidays(t *testing.T) {
	cli, s := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateTeacher(t, s.UserRepo, "teacher1")
	course, _ := testutil.CreateCourseWithLessons(t, s.Curriculum, teacher.ID, "Algebra", 2)
	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	conf, err := s.Schedule.Create(ctx, teacher.ID, schedule.NewConfiguration{
		Name:          "Fall",
		PeriodsPerDay: 1,
		StartDate:     "2024-09-02",
		EndDate:       "2024-12-20",
		TeachingDays:  days,
		Assignments:   []schedule.NewAssignment{{Period: 1, Target: schedule.CourseTarget(course.ID), TeachingDays: days}},
		Holidays:      []schedule.NewHoliday{{Date: "2024-11-28", Name: "Thanksgiving"}},
	})
	require.NoError(t, err)

	path := writeFile(t, "holidays.yaml", `
holidays:
  - date: "2024-11-28"
    name: Turkey day
  - date: "2024-11-29"
    name: Day after Thanksgiving
  - date: "2024-10-14"
    name: Indigenous Peoples' Day
`)
	badDate := writeFile(t, "bad.yaml", "holidays:\n  - date: \"2024-13-01\"\n    name: Someday\n")
	confID := strconv.FormatInt(conf.ID, 10)

	tests := []cliTest{
		{name: "no args", args: []string{"importholidays"}, wantErr: errHelp},
		{name: "no config", args: []string{"importholidays", "-username", "teacher1", "-file", path}, wantErr: errHelp},
		{name: "unknown config", args: []string{"importholidays", "-username", "teacher1", "-config", "999", "-file", path}, wantErr: schedule.ErrNotFound},
		{name: "bad date", args: []string{"importholidays", "-username", "teacher1", "-config", confID, "-file", badDate}, wantErrStr: `holiday "Someday": parsing date "2024-13-01": parsing time "2024-13-01": month out of range`},
		{name: "import", args: []string{"importholidays", "-username", "teacher1", "-config", confID, "-file", path}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, cli)
		})
	}

	conf, err = s.Schedule.Get(ctx, teacher.ID, conf.ID)
	require.NoError(t, err)
	assert.Equal(t, []schedule.Holiday{
		{Date: calendar.Date(2024, time.October, 14), Name: "Indigenous Peoples' Day"},
		{Date: calendar.Date(2024, time.November, 28), Name: "Thanksgiving"},
		{Date: calendar.Date(2024, time.November, 29), Name: "Day after Thanksgiving"},
	}, conf.Holidays)
	assert.Len(t, conf.Assignments, 1)
	assert.Equal(t, course.ID, func() int64 { id, _ := conf.Assignments[0].Target.CourseID(); return id }())
}
