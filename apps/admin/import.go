package main

import (
	"context"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/lessonplan/core/calendar"
	"github.com/trezcool/lessonplan/core/curriculum"
	"github.com/trezcool/lessonplan/core/schedule"
)

type (
	lessonDoc struct {
		Title     string   `yaml:"title"`
		Notes     string   `yaml:"notes"`
		Standards []string `yaml:"standards"`
	}

	subTopicDoc struct {
		Title   string      `yaml:"title"`
		Lessons []lessonDoc `yaml:"lessons"`
	}

	topicDoc struct {
		Title     string        `yaml:"title"`
		Lessons   []lessonDoc   `yaml:"lessons"`
		SubTopics []subTopicDoc `yaml:"subtopics"`
	}

	standardDoc struct {
		Code        string `yaml:"code"`
		Description string `yaml:"description"`
	}

	// courseDoc is the YAML layout of an imported course. Lessons refer to standards by code.
	courseDoc struct {
		Name        string        `yaml:"name"`
		Description string        `yaml:"description"`
		Notes       string        `yaml:"notes"`
		Standards   []standardDoc `yaml:"standards"`
		Topics      []topicDoc    `yaml:"topics"`
	}

	holidaysDoc struct {
		Holidays []struct {
			Date string `yaml:"date"`
			Name string `yaml:"name"`
		} `yaml:"holidays"`
	}
)

func readYAML(path string, dest interface{}) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return errors.Wrapf(yaml.Unmarshal(data, dest), "parsing %s", path)
}

// importCurriculum creates a course, its topics, sub-topics and lessons from a YAML file.
// Topics, sub-topics and lessons keep the file order. Standards are reused when the user already has their code.
func (cli *commandLine) importCurriculum(uname, path string) (curriculum.Course, error) {
	var doc courseDoc
	if err := readYAML(path, &doc); err != nil {
		return curriculum.Course{}, err
	}

	ctx := context.Background()
	owner, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		return curriculum.Course{}, err
	}
	svc := cli.curriculumSvc

	standards, err := cli.importStandards(ctx, owner.ID, doc.Standards)
	if err != nil {
		return curriculum.Course{}, err
	}

	course, err := svc.CreateCourse(ctx, owner.ID, curriculum.NewCourse{Name: doc.Name, Description: doc.Description, Notes: doc.Notes})
	if err != nil {
		return curriculum.Course{}, errors.Wrap(err, "creating course")
	}

	createLessons := func(topicID, subTopicID int64, lessons []lessonDoc) error {
		for i, ld := range lessons {
			nl := curriculum.NewLesson{TopicID: topicID, SubTopicID: subTopicID, Title: ld.Title, Notes: ld.Notes, SortOrder: i + 1}
			for _, code := range ld.Standards {
				id, ok := standards[code]
				if !ok {
					return errors.Errorf("lesson %q: unknown standard %q", ld.Title, code)
				}
				nl.StandardIDs = append(nl.StandardIDs, id)
			}
			if _, err := svc.CreateLesson(ctx, owner.ID, course.ID, nl); err != nil {
				return errors.Wrapf(err, "creating lesson %q", ld.Title)
			}
		}
		return nil
	}

	for i, td := range doc.Topics {
		topic, err := svc.CreateTopic(ctx, owner.ID, course.ID, curriculum.NewTopic{Title: td.Title, SortOrder: i + 1})
		if err != nil {
			return curriculum.Course{}, errors.Wrapf(err, "creating topic %q", td.Title)
		}
		if err = createLessons(topic.ID, 0, td.Lessons); err != nil {
			return curriculum.Course{}, err
		}
		for j, sd := range td.SubTopics {
			sub, err := svc.CreateSubTopic(ctx, owner.ID, course.ID, curriculum.NewSubTopic{TopicID: topic.ID, Title: sd.Title, SortOrder: j + 1})
			if err != nil {
				return curriculum.Course{}, errors.Wrapf(err, "creating sub-topic %q", sd.Title)
			}
			if err = createLessons(topic.ID, sub.ID, sd.Lessons); err != nil {
				return curriculum.Course{}, err
			}
		}
	}
	return course, nil
}

// importStandards returns the standard ids of the user by code, creating the missing ones.
func (cli *commandLine) importStandards(ctx context.Context, userID string, docs []standardDoc) (map[string]int64, error) {
	existing, err := cli.curriculumSvc.QueryStandards(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(existing)+len(docs))
	for _, std := range existing {
		ids[std.Code] = std.ID
	}
	for _, sd := range docs {
		if _, ok := ids[sd.Code]; ok {
			continue
		}
		std, err := cli.curriculumSvc.CreateStandard(ctx, userID, curriculum.NewStandard{Code: sd.Code, Description: sd.Description})
		if err != nil {
			return nil, errors.Wrapf(err, "creating standard %q", sd.Code)
		}
		ids[std.Code] = std.ID
	}
	return ids, nil
}

// importHolidays merges the holidays of a YAML file into a configuration, saved in date order.
// A date already listed keeps its name.
func (cli *commandLine) importHolidays(uname string, configID int64, path string) (schedule.Configuration, error) {
	var doc holidaysDoc
	if err := readYAML(path, &doc); err != nil {
		return schedule.Configuration{}, err
	}

	ctx := context.Background()
	owner, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		return schedule.Configuration{}, err
	}
	conf, err := cli.scheduleSvc.Get(ctx, owner.ID, configID)
	if err != nil {
		return schedule.Configuration{}, err
	}

	merged := conf.HolidaySet()
	for _, h := range doc.Holidays {
		date, err := calendar.ParseDate(h.Date)
		if err != nil {
			return schedule.Configuration{}, errors.Wrapf(err, "holiday %q", h.Name)
		}
		if !merged.Contains(date) {
			merged.Add(date, h.Name)
		}
	}

	uc := configurationPayload(conf)
	uc.Holidays = uc.Holidays[:0]
	for _, date := range merged.Dates() {
		uc.Holidays = append(uc.Holidays, schedule.NewHoliday{Date: calendar.FormatDate(date), Name: merged[date]})
	}

	updated, err := cli.scheduleSvc.Update(ctx, owner.ID, conf.ID, uc)
	if err != nil {
		return schedule.Configuration{}, errors.Wrap(err, "saving holidays")
	}
	return updated, nil
}

// configurationPayload turns a stored configuration back into the payload that would recreate it.
func configurationPayload(conf schedule.Configuration) schedule.UpdateConfiguration {
	uc := schedule.UpdateConfiguration{
		Name:          conf.Name,
		PeriodsPerDay: conf.PeriodsPerDay,
		StartDate:     calendar.FormatDate(conf.StartDate),
		EndDate:       calendar.FormatDate(conf.EndDate),
		TeachingDays:  conf.TeachingDays.Strings(),
		IsActive:      conf.IsActive,
		IsTemplate:    conf.IsTemplate,
	}
	for _, pa := range conf.Assignments {
		uc.Assignments = append(uc.Assignments, schedule.NewAssignment{
			Period:          pa.Period,
			Target:          pa.Target,
			TeachingDays:    pa.TeachingDays.Strings(),
			Room:            pa.Room,
			Notes:           pa.Notes,
			BackgroundColor: pa.BackgroundColor,
			ForegroundColor: pa.ForegroundColor,
		})
	}
	for _, h := range conf.Holidays {
		uc.Holidays = append(uc.Holidays, schedule.NewHoliday{Date: calendar.FormatDate(h.Date), Name: h.Name})
	}
	return uc
}
