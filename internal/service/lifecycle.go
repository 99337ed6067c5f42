package service

import (
	"context"
	"time"

	"saggita/internal/apperrors"
	"saggita/internal/models"
)

type registrationLifecycleStore interface {
	GetByID(ctx context.Context, id int64) (*models.Registration, error)
	GetByPaymentRef(ctx context.Context, ref string) (*models.Registration, error)
	List(ctx context.Context, groupID int64, status string, limit, offset int) ([]models.Registration, error)
	UpdateStatus(ctx context.Context, id int64, status, paymentStatus, adminNotes *string) error
	Promote(ctx context.Context, id int64) (*models.Registration, error)
	RecordAction(ctx context.Context, id int64, action string) error
	SetPaymentStatus(ctx context.Context, id int64, status string) error
}

// LifecycleService covers everything after intake: the registrant's
// finalize action, the public status lookup and the admin surface over
// registrations.
type LifecycleService struct {
	regs      registrationLifecycleStore
	publisher Publisher
}

func NewLifecycleService(regs registrationLifecycleStore, publisher Publisher) *LifecycleService {
	return &LifecycleService{regs: regs, publisher: publisher}
}

const paymentDueBusinessDays = 3

// addBusinessDays counts forward skipping Saturdays and Sundays
func addBusinessDays(from time.Time, days int) time.Time {
	t := from
	for added := 0; added < days; {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return t
}

var finalizeActions = map[string]bool{
	models.ActionPayOnline:        true,
	models.ActionDownloadDoc:      true,
	models.ActionPaymentConfirmed: true,
}

// FinalizeAction records the registrant's choice from the confirmation page.
// Resubmitting the same action is harmless; payment_confirmed also settles
// the registration's payment status.
func (s *LifecycleService) FinalizeAction(ctx context.Context, req *models.FinalizeActionRequest) (*models.FinalizeActionResponse, error) {
	if req.PaymentRef == "" {
		return nil, apperrors.Validation("payment_ref", "required")
	}
	if !finalizeActions[req.Action] {
		return nil, apperrors.Validation("action", "unknown action")
	}

	reg, err := s.regs.GetByPaymentRef(ctx, req.PaymentRef)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, apperrors.ErrNotFound
	}

	if err := s.regs.RecordAction(ctx, reg.ID, req.Action); err != nil {
		return nil, err
	}

	if req.Action == models.ActionPaymentConfirmed && reg.PaymentStatus != models.PaymentPaid {
		if err := s.regs.SetPaymentStatus(ctx, reg.ID, models.PaymentPaid); err != nil {
			return nil, err
		}
	}

	var dueDate *string
	if req.Action == models.ActionDownloadDoc {
		due := addBusinessDays(time.Now(), paymentDueBusinessDays).Format("2006-01-02")
		dueDate = &due
	}

	logFrom(ctx).Info("Finalize action recorded",
		"registration_id", reg.ID, "action", req.Action)

	s.publishAction(ctx, reg, req.Action, dueDate)

	return &models.FinalizeActionResponse{OK: true, DueDate: dueDate}, nil
}

// Status is the public lookup by payment reference
func (s *LifecycleService) Status(ctx context.Context, ref string) (*models.RegistrationStatusResponse, error) {
	reg, err := s.regs.GetByPaymentRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, apperrors.ErrNotFound
	}

	return &models.RegistrationStatusResponse{
		PaymentRef:    reg.PaymentRef,
		FirstName:     reg.FirstName,
		Status:        reg.Status,
		PaymentStatus: reg.PaymentStatus,
		IsWaitlist:    reg.IsWaitlist,
		TotalAmount:   reg.TotalAmount,
	}, nil
}

func (s *LifecycleService) List(ctx context.Context, groupID int64, status string, limit, offset int) ([]models.Registration, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.regs.List(ctx, groupID, status, limit, offset)
}

func (s *LifecycleService) Get(ctx context.Context, id int64) (*models.Registration, error) {
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, apperrors.ErrNotFound
	}
	return reg, nil
}

// AdminUpdate applies an administrative patch. Clearing the waitlist flag is
// a promotion and goes through the capacity re-check; it fails with
// ErrCapacityExceeded when the seat is already taken.
func (s *LifecycleService) AdminUpdate(ctx context.Context, id int64, req *models.UpdateRegistrationRequest) (*models.Registration, error) {
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, apperrors.ErrNotFound
	}

	if req.IsWaitlist != nil && !*req.IsWaitlist && reg.IsWaitlist {
		if _, err := s.regs.Promote(ctx, id); err != nil {
			return nil, err
		}
		logFrom(ctx).Info("Registration promoted from waitlist", "registration_id", id)
	}

	if req.Status != nil || req.PaymentStatus != nil || req.AdminNotes != nil {
		if err := s.regs.UpdateStatus(ctx, id, req.Status, req.PaymentStatus, req.AdminNotes); err != nil {
			return nil, err
		}
	}

	updated, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PaymentStatus != nil && s.publisher != nil {
		event := models.PaymentStatusSetEvent{
			RegistrationID: id,
			PaymentRef:     reg.PaymentRef,
			PaymentStatus:  *req.PaymentStatus,
			Timestamp:      time.Now().UTC(),
		}
		if err := s.publisher.Publish(models.EventPaymentStatusSet, event); err != nil {
			logFrom(ctx).Warn("Failed to publish payment status event",
				"registration_id", id, "error", err)
		}
	}

	return updated, nil
}

func (s *LifecycleService) publishAction(ctx context.Context, reg *models.Registration, action string, dueDate *string) {
	if s.publisher == nil {
		return
	}
	event := models.ActionSubmittedEvent{
		RegistrationID: reg.ID,
		PaymentRef:     reg.PaymentRef,
		Action:         action,
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		Email:          reg.Email,
		TotalAmount:    reg.TotalAmount,
		DueDate:        dueDate,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.publisher.Publish(models.EventActionSubmitted, event); err != nil {
		logFrom(ctx).Warn("Failed to publish action event",
			"registration_id", reg.ID, "error", err)
	}
}
