package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"saggita/internal/apperrors"
	"saggita/internal/metrics"
	"saggita/internal/models"
)

type registrationIntakeStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	PaymentRefExists(ctx context.Context, ref string) (bool, error)
}

type locationReader interface {
	GetByID(ctx context.Context, id int64) (*models.Location, error)
}

type planReader interface {
	GetByID(ctx context.Context, id int64) (*models.PricePlan, error)
	ListActive(ctx context.Context) ([]models.PricePlan, error)
}

// BankDetails are the transfer coordinates echoed to the registrant
type BankDetails struct {
	Account string
	Name    string
}

// IntakeService handles public registrations. The admit/waitlist decision
// itself happens inside the store transaction; this layer validates, prices
// the registration, assigns the payment reference and emits the notification
// event.
type IntakeService struct {
	regs      registrationIntakeStore
	groups    groupReader
	locations locationReader
	plans     planReader
	publisher Publisher
	bank      BankDetails
}

func NewIntakeService(regs registrationIntakeStore, groups groupReader, locations locationReader, plans planReader, publisher Publisher, bank BankDetails) *IntakeService {
	return &IntakeService{
		regs:      regs,
		groups:    groups,
		locations: locations,
		plans:     plans,
		publisher: publisher,
		bank:      bank,
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const maxRefAttempts = 10

func (s *IntakeService) validate(req *models.RegisterRequest) error {
	if strings.TrimSpace(req.FirstName) == "" {
		return apperrors.Validation("first_name", "required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		return apperrors.Validation("last_name", "required")
	}
	if !emailPattern.MatchString(req.Email) {
		return apperrors.Validation("email", "invalid email address")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return apperrors.Validation("phone", "required")
	}
	if req.GroupID <= 0 {
		return apperrors.Validation("group_id", "required")
	}
	if !req.ConsentData || !req.ConsentRules {
		return apperrors.Validation("consent", "data and rules consents are required")
	}
	return nil
}

// Register validates and persists a public registration. The returned
// response carries the payment reference and bank transfer details; whether
// the registrant was admitted or waitlisted is decided atomically in the
// store.
func (s *IntakeService) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	log := logFrom(ctx)

	if err := s.validate(req); err != nil {
		return nil, err
	}

	group, err := s.groups.GetByID(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, apperrors.ErrNotFound
	}

	isNew := true
	if req.IsNew != nil {
		isNew = *req.IsNew
	}

	var total float64
	paymentStatus := models.PaymentUnpaid
	if req.HasMembership {
		// Membership card holders pay through their card provider
		paymentStatus = models.PaymentWaived
	} else {
		if req.PricePlanID == nil {
			return nil, apperrors.Validation("price_plan_id", "required")
		}
		plan, err := s.plans.GetByID(ctx, *req.PricePlanID)
		if err != nil {
			return nil, err
		}
		if plan == nil || !plan.Active {
			return nil, apperrors.Validation("price_plan_id", "unknown or inactive price plan")
		}
		total = plan.Price
		if isNew {
			total += plan.SignupFee
		}
	}

	var startDate *time.Time
	if req.StartDate != nil && *req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, apperrors.Validation("start_date", "expected YYYY-MM-DD")
		}
		startDate = &parsed
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "transfer"
	}

	reg := &models.Registration{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         strings.TrimSpace(req.Phone),
		BirthYear:     req.BirthYear,
		IsNew:         isNew,
		GroupID:       req.GroupID,
		ScheduleID:    req.ScheduleID,
		PricePlanID:   req.PricePlanID,
		StartDate:     startDate,
		PreferredTime: req.PreferredTime,
		PaymentStatus: paymentStatus,
		PaymentMethod: paymentMethod,
		TotalAmount:   total,
		Source:        models.SourceWeb,
		ConsentData:   req.ConsentData,
		ConsentRules:  req.ConsentRules,
		HasMembership: req.HasMembership,
	}

	// Reference codes are short, so collisions happen; regenerate and retry
	created := false
	for attempt := 0; attempt < maxRefAttempts; attempt++ {
		ref, err := newPaymentRef()
		if err != nil {
			return nil, err
		}
		exists, err := s.regs.PaymentRefExists(ctx, ref)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		reg.PaymentRef = ref
		err = s.regs.Create(ctx, reg)
		if errors.Is(err, apperrors.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		created = true
		break
	}
	if !created {
		return nil, fmt.Errorf("could not assign a unique payment reference: %w", apperrors.ErrConflict)
	}

	result := "admitted"
	if reg.IsWaitlist {
		result = "waitlist"
	}
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()

	log.Info("Registration created",
		"registration_id", reg.ID,
		"payment_ref", reg.PaymentRef,
		"group_id", reg.GroupID,
		"waitlist", reg.IsWaitlist)

	s.publishCreated(ctx, reg, group)

	return &models.RegisterResponse{
		ID:            reg.ID,
		PaymentRef:    reg.PaymentRef,
		TotalAmount:   reg.TotalAmount,
		IsWaitlist:    reg.IsWaitlist,
		Email:         reg.Email,
		BankAccount:   s.bank.Account,
		BankName:      s.bank.Name,
		TransferTitle: fmt.Sprintf("%s %s %s", reg.PaymentRef, reg.FirstName, reg.LastName),
	}, nil
}

func (s *IntakeService) publishCreated(ctx context.Context, reg *models.Registration, group *models.Group) {
	if s.publisher == nil {
		return
	}

	city := ""
	if group.LocationID != nil {
		if loc, err := s.locations.GetByID(ctx, *group.LocationID); err == nil && loc != nil {
			city = loc.City
		}
	}

	event := models.RegistrationCreatedEvent{
		RegistrationID: reg.ID,
		PaymentRef:     reg.PaymentRef,
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		Email:          reg.Email,
		Phone:          reg.Phone,
		GroupName:      group.Name,
		City:           city,
		TotalAmount:    reg.TotalAmount,
		IsWaitlist:     reg.IsWaitlist,
		BankAccount:    s.bank.Account,
		BankName:       s.bank.Name,
		Timestamp:      time.Now().UTC(),
	}

	if err := s.publisher.Publish(models.EventRegistrationCreated, event); err != nil {
		slog.Warn("Failed to publish registration event",
			"registration_id", reg.ID, "error", err)
	}
}
