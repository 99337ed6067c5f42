package service

import (
	"context"
	"log/slog"

	"saggita/internal/config"
	"saggita/internal/logger"
	"saggita/internal/models"
	"saggita/internal/repository"
)

func logFrom(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx)
}

// Publisher is the notification bus. Publishing is always fire-and-forget
// from the caller's perspective; a down bus never fails a request.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// Searcher is the full-text index over roster entries
type Searcher interface {
	SearchStudentIDs(ctx context.Context, query string, limit int) ([]int64, error)
	IndexStudent(ctx context.Context, s *models.Student) error
}

// CatalogCache holds the rendered public catalog
type CatalogCache interface {
	GetCatalogRaw(ctx context.Context) ([]byte, error)
	SetCatalog(ctx context.Context, payload interface{}) error
	InvalidateCatalog(ctx context.Context) error
}

type Services struct {
	Capacity  *CapacityService
	Catalog   *CatalogService
	Intake    *IntakeService
	Lifecycle *LifecycleService
	Sessions  *SessionService
	Roster    *RosterService
}

// New wires the service layer. publisher, searcher and catalogCache may be
// nil; the affected features degrade instead of failing.
func New(cfg *config.Config, repos *repository.Repositories, publisher Publisher, searcher Searcher, catalogCache CatalogCache) *Services {
	return &Services{
		Capacity: NewCapacityService(repos.Groups),
		Catalog:  NewCatalogService(repos.Locations, repos.Groups, repos.Plans, catalogCache),
		Intake: NewIntakeService(repos.Registrations, repos.Groups, repos.Locations, repos.Plans, publisher, BankDetails{
			Account: cfg.Mailer.BankAccount,
			Name:    cfg.Mailer.BankName,
		}),
		Lifecycle: NewLifecycleService(repos.Registrations, publisher),
		Sessions:  NewSessionService(repos.Sessions, repos.Staff),
		Roster: NewRosterService(repos.Students, repos.Registrations, repos.Payments, searcher, RosterConfig{
			SeasonStart:        cfg.SeasonStart,
			TrainingWindowDays: cfg.OverdueTrainingWindowDays,
			OverduePaymentDays: cfg.OverduePaymentDays,
		}),
	}
}
