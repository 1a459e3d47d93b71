package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
)

// Service manages reminders shown to users.
type Service interface {
	Create(ctx context.Context, p policy.Principal, input CreateInput) (*ReminderDTO, error)
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, input UpdateInput) (*ReminderDTO, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
	List(ctx context.Context, p policy.Principal) ([]ReminderDTO, error)
	Post(ctx context.Context, kind enums.ReminderType, title, content string) (bool, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reminders repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, p policy.Principal, input CreateInput) (*ReminderDTO, error) {
	if err := policy.Check(p, policy.ActionManageReminders, policy.Resource{}); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and content are required")
	}
	kind := input.Type
	if kind == "" {
		kind = enums.ReminderTypeGeneral
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reminder type")
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	reminder := &models.Reminder{Title: title, Content: content, Type: kind, IsActive: active}
	if err := s.repo.Create(ctx, reminder); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reminder")
	}
	return FromModel(reminder), nil
}

func (s *service) Update(ctx context.Context, p policy.Principal, id uuid.UUID, input UpdateInput) (*ReminderDTO, error) {
	if err := policy.Check(p, policy.ActionManageReminders, policy.Resource{}); err != nil {
		return nil, err
	}
	reminder, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reminder not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reminder")
	}

	if input.Title != nil {
		if reminder.Title = strings.TrimSpace(*input.Title); reminder.Title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
	}
	if input.Content != nil {
		if reminder.Content = strings.TrimSpace(*input.Content); reminder.Content == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "content cannot be empty")
		}
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reminder type")
		}
		reminder.Type = *input.Type
	}
	if input.IsActive != nil {
		reminder.IsActive = *input.IsActive
	}

	if err := s.repo.Save(ctx, reminder); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reminder")
	}
	return FromModel(reminder), nil
}

func (s *service) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	if err := policy.Check(p, policy.ActionManageReminders, policy.Resource{}); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reminder")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "reminder not found")
	}
	return nil
}

// List shows users only active reminders; admins see all of them.
func (s *service) List(ctx context.Context, p policy.Principal) ([]ReminderDTO, error) {
	rows, err := s.repo.List(ctx, !p.IsAdmin())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reminders")
	}
	out := make([]ReminderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Post publishes a system reminder unless an identical active one exists.
// It reports whether a new row was written.
func (s *service) Post(ctx context.Context, kind enums.ReminderType, title, content string) (bool, error) {
	exists, err := s.repo.ExistsActive(ctx, kind, title)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check reminder")
	}
	if exists {
		return false, nil
	}
	reminder := &models.Reminder{Title: title, Content: content, Type: kind, IsActive: true}
	if err := s.repo.Create(ctx, reminder); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reminder")
	}
	s.logg.Info(s.logg.WithField(ctx, "reminder_id", reminder.ID.String()), "reminder.posted")
	return true, nil
}
