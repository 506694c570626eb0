package schedule

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/lessonplan/core"
	"github.com/trezcool/lessonplan/core/calendar"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("schedule configuration")
	ErrNoActive           = core.NewNotFoundError("active schedule configuration")
	ErrInvalidDateRange   = errors.New("end_date must be after start_date")
	ErrInvalidAssignments = errors.New("invalid period assignments")
	ErrActiveTemplate     = errors.New("a template cannot be the active configuration")
	ErrNotTemplate        = errors.New("only templates can be copied")
)

type (
	// Repository persists configurations together with their assignments and holidays.
	// Getters return ErrNotFound (never a zero Configuration) when nothing matches the owner and id.
	Repository interface {
		CreateConfiguration(ctx context.Context, conf Configuration) (Configuration, error)
		GetConfiguration(ctx context.Context, userID string, id int64) (Configuration, error)
		GetActiveConfiguration(ctx context.Context, userID string) (Configuration, error)
		QueryConfigurations(ctx context.Context, userID string, filter QueryFilter) ([]Configuration, error)
		// SaveReplacingAssignments updates the configuration row and replaces its assignment and holiday lists.
		SaveReplacingAssignments(ctx context.Context, conf Configuration) (Configuration, error)
		// SetActiveExclusive activates one configuration and deactivates every other configuration of the user,
		// as a single transaction.
		SetActiveExclusive(ctx context.Context, userID string, id int64) error
		// DeleteConfiguration removes the configuration with its assignments, holidays and generated events.
		DeleteConfiguration(ctx context.Context, userID string, id int64) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) validateInput(nc *NewConfiguration) error {
	if err := nc.Validate(svc.validate); err != nil {
		return err
	}
	if nc.IsTemplate && nc.IsActive {
		return core.NewValidationError(
			ErrActiveTemplate,
			core.FieldError{Field: "is_active", Error: ErrActiveTemplate.Error()},
		)
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, userID string, nc NewConfiguration) (Configuration, error) {
	if err := svc.validateInput(&nc); err != nil {
		return Configuration{}, err
	}

	now := time.Now().UTC()
	conf := nc.configuration()
	conf.UserID = userID
	conf.IsActive = false // activation only goes through SetActiveExclusive
	conf.CreatedAt = now
	conf.UpdatedAt = now

	created, err := svc.repo.CreateConfiguration(ctx, conf)
	if err != nil {
		return Configuration{}, errors.Wrap(err, "creating configuration")
	}
	if nc.IsActive {
		if err = svc.repo.SetActiveExclusive(ctx, userID, created.ID); err != nil {
			// a failed create leaves nothing behind, so the caller can retry
			if delErr := svc.repo.DeleteConfiguration(ctx, userID, created.ID); delErr != nil {
				return Configuration{}, errors.Wrapf(err, "activating configuration (cleanup: %v)", delErr)
			}
			return Configuration{}, errors.Wrap(err, "activating configuration")
		}
		created.IsActive = true
	}
	return created, nil
}

// Update replaces the configuration's fields, assignments and holidays with uc.
func (svc *Service) Update(ctx context.Context, userID string, id int64, uc UpdateConfiguration) (Configuration, error) {
	orig, err := svc.Get(ctx, userID, id)
	if err != nil {
		return Configuration{}, err
	}
	if err = svc.validateInput(&uc); err != nil {
		return Configuration{}, err
	}

	conf := uc.configuration()
	conf.ID = orig.ID
	conf.UserID = orig.UserID
	conf.IsActive = orig.IsActive && uc.IsActive
	conf.CreatedAt = orig.CreatedAt
	conf.UpdatedAt = time.Now().UTC()

	saved, err := svc.repo.SaveReplacingAssignments(ctx, conf)
	if err != nil {
		return Configuration{}, errors.Wrap(err, "saving configuration")
	}
	if uc.IsActive && !orig.IsActive {
		if err = svc.repo.SetActiveExclusive(ctx, userID, saved.ID); err != nil {
			return Configuration{}, errors.Wrap(err, "activating configuration")
		}
		saved.IsActive = true
	}
	return saved, nil
}

func (svc *Service) Get(ctx context.Context, userID string, id int64) (Configuration, error) {
	conf, err := svc.repo.GetConfiguration(ctx, userID, id)
	if err != nil {
		return Configuration{}, errors.Wrapf(err, "loading configuration %d", id)
	}
	return conf, nil
}

func (svc *Service) GetActive(ctx context.Context, userID string) (Configuration, error) {
	conf, err := svc.repo.GetActiveConfiguration(ctx, userID)
	if err != nil {
		return Configuration{}, errors.Wrap(err, "loading active configuration")
	}
	return conf, nil
}

func (svc *Service) Query(ctx context.Context, userID string, filter QueryFilter) ([]Configuration, error) {
	return svc.repo.QueryConfigurations(ctx, userID, filter)
}

func (svc *Service) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := svc.Get(ctx, userID, id); err != nil {
		return err
	}
	return svc.repo.DeleteConfiguration(ctx, userID, id)
}

// Activate makes id the user's only active configuration.
func (svc *Service) Activate(ctx context.Context, userID string, id int64) (Configuration, error) {
	conf, err := svc.Get(ctx, userID, id)
	if err != nil {
		return Configuration{}, err
	}
	if conf.IsTemplate {
		return Configuration{}, core.NewValidationError(
			ErrActiveTemplate,
			core.FieldError{Field: "is_active", Error: ErrActiveTemplate.Error()},
		)
	}
	if err = svc.repo.SetActiveExclusive(ctx, userID, id); err != nil {
		return Configuration{}, errors.Wrap(err, "activating configuration")
	}
	conf.IsActive = true
	return conf, nil
}

// CopyTemplate clones a template into a new, inactive, non-template configuration.
func (svc *Service) CopyTemplate(ctx context.Context, userID string, id int64, name string) (Configuration, error) {
	tmpl, err := svc.Get(ctx, userID, id)
	if err != nil {
		return Configuration{}, err
	}
	if !tmpl.IsTemplate {
		return Configuration{}, core.NewValidationError(ErrNotTemplate, core.FieldError{Field: "id", Error: ErrNotTemplate.Error()})
	}

	now := time.Now().UTC()
	conf := tmpl
	conf.ID = 0
	conf.Name = core.CleanString(name)
	if conf.Name == "" {
		conf.Name = tmpl.Name + " (copy)"
	}
	conf.IsTemplate = false
	conf.IsActive = false
	conf.CreatedAt = now
	conf.UpdatedAt = now
	conf.Assignments = make([]PeriodAssignment, len(tmpl.Assignments))
	for i, pa := range tmpl.Assignments {
		pa.ID = 0
		conf.Assignments[i] = pa
	}
	conf.Holidays = append([]Holiday(nil), tmpl.Holidays...)

	created, err := svc.repo.CreateConfiguration(ctx, conf)
	if err != nil {
		return Configuration{}, errors.Wrap(err, "copying template")
	}
	return created, nil
}

// Check runs the assignment validator without saving anything. When teaching days are given, assignments are also
// checked against them.
func (svc *Service) Check(req CheckRequest) (ValidationResult, error) {
	if err := svc.validate.Struct(req); err != nil {
		return ValidationResult{}, err
	}

	cands := make([]Candidate, 0, len(req.Assignments))
	for _, na := range req.Assignments {
		cands = append(cands, na.Candidate())
	}
	if len(req.TeachingDays) == 0 {
		return Validate(cands, req.PeriodsPerDay), nil
	}

	days, err := calendar.ParseDaySet(req.TeachingDays)
	if err != nil {
		return ValidationResult{}, core.NewValidationError(err, core.FieldError{Field: "teaching_days", Error: err.Error()})
	}
	return ValidateConfiguration(cands, req.PeriodsPerDay, days), nil
}
