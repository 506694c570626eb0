// Package testutil wires in-memory services for tests.
package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"net/mail"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/lessonplan/core"
	"github.com/trezcool/lessonplan/core/curriculum"
	"github.com/trezcool/lessonplan/core/planner"
	"github.com/trezcool/lessonplan/core/schedule"
	"github.com/trezcool/lessonplan/core/user"
	emailsvc "github.com/trezcool/lessonplan/services/email"
	logsvc "github.com/trezcool/lessonplan/services/logger"
	inmemdb "github.com/trezcool/lessonplan/storage/database/inmem"
)

// Services is the whole app backed by inmemdb.
type Services struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	MailSvc    core.EmailService

	UserRepo       user.Repository
	CurriculumRepo curriculum.Repository
	ScheduleRepo   schedule.Repository
	EventRepo      planner.EventRepository

	Users      *user.Service
	Curriculum *curriculum.Service
	Schedule   *schedule.Service
	Planner    *planner.Service
}

func NewConfig() *core.Config {
	return &core.Config{
		Debug:                     false,
		TestMode:                  true,
		AppName:                   "Lesson Planner",
		Env:                       "TEST",
		Build:                     "test",
		SecretKey:                 "test-secret-key",
		DefaultFromEmail:          mail.Address{Name: "Lesson Planner", Address: "noreply@lessonplan.test"},
		FrontendBaseURL:           "http://localhost:8080",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Host:                      "localhost",
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 30 * time.Minute,
		},
		Planner: core.PlannerConfig{MaxGenerationDays: 731},
	}
}

func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// NewValidator returns a validator with every app validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), "tests", NewConfig())
}

func NewServices(t *testing.T) *Services {
	t.Helper()

	conf := NewConfig()
	logger := NewLogger()
	validate, translator := NewValidator()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	emailsvc.ResetSentMessages()

	db := inmemdb.Open()
	s := &Services{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		MailSvc:        mailSvc,
		UserRepo:       inmemdb.NewUserRepository(db),
		CurriculumRepo: inmemdb.NewCurriculumRepository(db),
		ScheduleRepo:   inmemdb.NewScheduleRepository(db),
		EventRepo:      inmemdb.NewEventRepository(db),
	}
	s.Users = user.NewService(s.UserRepo, mailSvc, validate, conf)
	s.Curriculum = curriculum.NewService(s.CurriculumRepo, validate)
	s.Schedule = schedule.NewService(s.ScheduleRepo, validate)
	s.Planner = planner.NewService(planner.Deps{
		Conf:     conf,
		Logger:   logger,
		Validate: validate,
		Configs:  s.ScheduleRepo,
		Lessons:  s.Curriculum,
		Events:   s.EventRepo,
		Users:    s.Users,
		MailSvc:  mailSvc,
	})
	return s
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateTeacher(t *testing.T, repo user.Repository, uname string) user.User {
	return CreateUser(t, repo, "Teacher "+uname, uname, uname+"@lessonplan.test", "", user.TeacherRoles, true)
}

// CreateCourseWithLessons creates a course holding n lessons under a single topic, returning the lesson ids in order.
func CreateCourseWithLessons(t *testing.T, svc *curriculum.Service, userID, name string, n int) (curriculum.Course, []int64) {
	t.Helper()
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, userID, curriculum.NewCourse{Name: name})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	topic, err := svc.CreateTopic(ctx, userID, course.ID, curriculum.NewTopic{Title: name + " basics"})
	if err != nil {
		t.Fatalf("CreateTopic() failed: %v", err)
	}
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		l, err := svc.CreateLesson(ctx, userID, course.ID, curriculum.NewLesson{
			TopicID:   topic.ID,
			Title:     name + " lesson",
			SortOrder: i,
		})
		if err != nil {
			t.Fatalf("CreateLesson() failed: %v", err)
		}
		ids = append(ids, l.ID)
	}
	return course, ids
}
