package service

import (
	"context"
	"strings"
	"time"

	"saggita/internal/apperrors"
	"saggita/internal/models"
	"saggita/internal/repository"
)

type studentStore interface {
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, s *models.Student, groupID *int64) error
	Update(ctx context.Context, id int64, req *models.UpdateStudentRequest) error
	HistoryCounts(ctx context.Context, id int64) (int, int, error)
	Deactivate(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
	ListRoster(ctx context.Context, f models.RosterFilters, seasonStart time.Time, trainingWindowDays, overduePaymentDays int, searchIDs []int64) (*models.RosterPage, error)
	GetRosterDetail(ctx context.Context, id int64, seasonStart time.Time, trainingWindowDays int) (*models.StudentDetail, error)
	LegacyHistory(ctx context.Context, search string, groupID int64, limit, offset int) ([]repository.LegacyHistoryRow, int, error)
	AttendanceHistory(ctx context.Context, studentID int64, limit int) ([]models.AttendanceHistoryRow, error)
	SetAttendancePresent(ctx context.Context, attendanceID int64, present bool) error
}

type registrationReader interface {
	GetByID(ctx context.Context, id int64) (*models.Registration, error)
}

type paymentStore interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.LegacyPayment, error)
	Create(ctx context.Context, studentID int64, amount float64, paidAt *time.Time, note *string) (*models.LegacyPayment, error)
	Update(ctx context.Context, id int64, req *models.UpdatePaymentRequest, paidAt *time.Time) error
	Delete(ctx context.Context, id int64) error
	RegistrationCharges(ctx context.Context, studentID int64) ([]models.RegistrationCharge, error)
}

// RosterConfig carries the season boundary and the overdue thresholds. They
// are configuration, not constants baked into queries.
type RosterConfig struct {
	SeasonStart        time.Time
	TrainingWindowDays int
	OverduePaymentDays int
}

// RosterService is the unified read and admin surface over both roster
// sources: legacy/manual students with direct attendance and cash payments,
// and web students linked to a registration.
type RosterService struct {
	students studentStore
	regs     registrationReader
	payments paymentStore
	search   Searcher
	cfg      RosterConfig
}

func NewRosterService(students studentStore, regs registrationReader, payments paymentStore, search Searcher, cfg RosterConfig) *RosterService {
	return &RosterService{
		students: students,
		regs:     regs,
		payments: payments,
		search:   search,
		cfg:      cfg,
	}
}

// overdue marks an active student who keeps showing up but whose payments
// lag behind. Legacy students are judged by the age of their last recorded
// payment, web students by their registration's payment status.
func (s *RosterService) overdue(row *models.RosterRow) bool {
	if !row.IsActive || row.PresentRecent == 0 {
		return false
	}
	if row.RegistrationID != nil {
		return row.PaymentStatus != nil && *row.PaymentStatus != models.PaymentPaid
	}
	if row.DaysSincePayment == nil {
		return true
	}
	return *row.DaysSincePayment > s.cfg.OverduePaymentDays
}

// List returns one roster page. A free-text search goes through the
// full-text index when available and falls back to a plain pattern match
// against the store when it is not.
func (s *RosterService) List(ctx context.Context, f models.RosterFilters) (*models.RosterPage, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}

	var searchIDs []int64
	if f.Search != "" && s.search != nil {
		ids, err := s.search.SearchStudentIDs(ctx, f.Search, 500)
		if err != nil {
			logFrom(ctx).Warn("Search index unavailable, falling back to store",
				"error", err)
		} else {
			searchIDs = ids
			if searchIDs == nil {
				searchIDs = []int64{}
			}
		}
	}

	page, err := s.students.ListRoster(ctx, f, s.cfg.SeasonStart, s.cfg.TrainingWindowDays, s.cfg.OverduePaymentDays, searchIDs)
	if err != nil {
		return nil, err
	}
	for i := range page.Rows {
		page.Rows[i].Overdue = s.overdue(&page.Rows[i])
	}
	return page, nil
}

// Get returns one student's roster detail with the linked registration
// attached for web students
func (s *RosterService) Get(ctx context.Context, id int64) (*models.StudentDetail, error) {
	detail, err := s.students.GetRosterDetail(ctx, id, s.cfg.SeasonStart, s.cfg.TrainingWindowDays)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, apperrors.ErrNotFound
	}
	detail.Overdue = s.overdue(&detail.RosterRow)

	if detail.RegistrationID != nil {
		reg, err := s.regs.GetByID(ctx, *detail.RegistrationID)
		if err != nil {
			return nil, err
		}
		detail.Registration = reg
	}

	return detail, nil
}

// Create adds a manual roster entry, optionally with an initial group
// membership
func (s *RosterService) Create(ctx context.Context, req *models.CreateStudentRequest) (*models.Student, error) {
	if strings.TrimSpace(req.FirstName) == "" {
		return nil, apperrors.Validation("first_name", "required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		return nil, apperrors.Validation("last_name", "required")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	student := &models.Student{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Phone:     req.Phone,
		BirthYear: req.BirthYear,
		IsActive:  active,
		Source:    models.SourceManual,
	}
	if err := s.students.Create(ctx, student, req.GroupID); err != nil {
		return nil, err
	}

	s.index(ctx, student)
	return student, nil
}

func (s *RosterService) Update(ctx context.Context, id int64, req *models.UpdateStudentRequest) (*models.Student, error) {
	if err := s.students.Update(ctx, id, req); err != nil {
		return nil, err
	}
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if student != nil {
		s.index(ctx, student)
	}
	return student, nil
}

// Delete removes a roster entry. A student with any attendance or payment
// history is deactivated instead so the history stays consistent.
func (s *RosterService) Delete(ctx context.Context, id int64) (*models.DeleteStudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, apperrors.ErrNotFound
	}

	attendances, payments, err := s.students.HistoryCounts(ctx, id)
	if err != nil {
		return nil, err
	}

	if attendances > 0 || payments > 0 {
		if err := s.students.Deactivate(ctx, id); err != nil {
			return nil, err
		}
		student.IsActive = false
		s.index(ctx, student)
		logFrom(ctx).Info("Student deactivated instead of deleted",
			"student_id", id, "attendances", attendances, "payments", payments)
		return &models.DeleteStudentResponse{
			Success: true,
			Soft:    true,
			Message: "student has history; deactivated instead of deleted",
		}, nil
	}

	if err := s.students.HardDelete(ctx, id); err != nil {
		return nil, err
	}
	return &models.DeleteStudentResponse{Success: true}, nil
}

func (s *RosterService) index(ctx context.Context, student *models.Student) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexStudent(ctx, student); err != nil {
		logFrom(ctx).Warn("Failed to index student",
			"student_id", student.ID, "error", err)
	}
}

// LegacyHistory lists legacy students with lifetime aggregates
func (s *RosterService) LegacyHistory(ctx context.Context, search string, groupID int64, limit, offset int) ([]repository.LegacyHistoryRow, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.students.LegacyHistory(ctx, search, groupID, limit, offset)
}

// AttendanceHistory returns a student's recent attendance rows
func (s *RosterService) AttendanceHistory(ctx context.Context, studentID int64, limit int) ([]models.AttendanceHistoryRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, apperrors.ErrNotFound
	}
	return s.students.AttendanceHistory(ctx, studentID, limit)
}

// CorrectAttendance is the administrative fix of a single historical mark
func (s *RosterService) CorrectAttendance(ctx context.Context, attendanceID int64, present bool) error {
	return s.students.SetAttendancePresent(ctx, attendanceID, present)
}

// Payments returns a student's payment history from both sources
func (s *RosterService) Payments(ctx context.Context, studentID int64) (*models.StudentPayments, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, apperrors.ErrNotFound
	}

	legacy, err := s.payments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	charges, err := s.payments.RegistrationCharges(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if legacy == nil {
		legacy = []models.LegacyPayment{}
	}
	if charges == nil {
		charges = []models.RegistrationCharge{}
	}
	return &models.StudentPayments{Legacy: legacy, Registrations: charges}, nil
}

// AddPayment records a manual payment for a legacy/manual student
func (s *RosterService) AddPayment(ctx context.Context, studentID int64, req *models.CreatePaymentRequest) (*models.LegacyPayment, error) {
	if req.Amount <= 0 {
		return nil, apperrors.Validation("amount", "must be positive")
	}
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, apperrors.ErrNotFound
	}

	paidAt, err := parseOptionalDate(req.Date)
	if err != nil {
		return nil, apperrors.Validation("date", "expected YYYY-MM-DD")
	}
	return s.payments.Create(ctx, studentID, req.Amount, paidAt, req.Note)
}

func (s *RosterService) UpdatePayment(ctx context.Context, id int64, req *models.UpdatePaymentRequest) error {
	if req.Amount != nil && *req.Amount <= 0 {
		return apperrors.Validation("amount", "must be positive")
	}
	paidAt, err := parseOptionalDate(req.PaidAt)
	if err != nil {
		return apperrors.Validation("paid_at", "expected YYYY-MM-DD")
	}
	return s.payments.Update(ctx, id, req, paidAt)
}

func (s *RosterService) DeletePayment(ctx context.Context, id int64) error {
	return s.payments.Delete(ctx, id)
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
