package models

import "time"

// RegisterRequest is the public intake payload
type RegisterRequest struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	BirthYear     *int    `json:"birth_year"`
	IsNew         *bool   `json:"is_new"`
	GroupID       int64   `json:"group_id"`
	ScheduleID    *int64  `json:"schedule_id"`
	PricePlanID   *int64  `json:"price_plan_id"`
	StartDate     *string `json:"start_date"`
	PreferredTime *string `json:"preferred_time"`
	PaymentMethod string  `json:"payment_method"`
	ConsentData   bool    `json:"consent_data"`
	ConsentRules  bool    `json:"consent_rules"`
	HasMembership bool    `json:"has_membership"`
}

// RegisterResponse carries the bank transfer details the registrant needs
type RegisterResponse struct {
	ID            int64   `json:"id"`
	PaymentRef    string  `json:"payment_ref"`
	TotalAmount   float64 `json:"total_amount"`
	IsWaitlist    bool    `json:"is_waitlist"`
	Email         string  `json:"email"`
	BankAccount   string  `json:"bank_account"`
	BankName      string  `json:"bank_name"`
	TransferTitle string  `json:"transfer_title"`
}

// CapacityResult is the capacity evaluator output. Capacity nil means
// unlimited.
type CapacityResult struct {
	Occupied int  `json:"occupied"`
	Capacity *int `json:"capacity"`
	HasRoom  bool `json:"has_room"`
}

// FinalizeActionRequest is submitted by the registrant from the confirmation
// page
type FinalizeActionRequest struct {
	PaymentRef string `json:"payment_ref"`
	Action     string `json:"action"`
}

type FinalizeActionResponse struct {
	OK      bool    `json:"ok"`
	DueDate *string `json:"due_date,omitempty"`
}

// RegistrationStatusResponse is the public lookup by payment_ref
type RegistrationStatusResponse struct {
	PaymentRef    string  `json:"payment_ref"`
	FirstName     string  `json:"first_name"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	IsWaitlist    bool    `json:"is_waitlist"`
	TotalAmount   float64 `json:"total_amount"`
}

// UpdateRegistrationRequest is the admin PATCH payload. Nil fields are left
// untouched.
type UpdateRegistrationRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
	IsWaitlist    *bool   `json:"is_waitlist"`
	AdminNotes    *string `json:"admin_notes"`
}

// CreateSessionRequest creates (or resolves) the canonical session of a
// group on a date
type CreateSessionRequest struct {
	GroupID     int64   `json:"group_id"`
	SessionDate string  `json:"session_date"`
	Notes       *string `json:"notes"`
}

// RegisteredStudent is a web-roster member shown alongside a session for
// display only; attendance rows track the legacy roster
type RegisteredStudent struct {
	RegistrationID int64  `json:"registration_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PaymentStatus  string `json:"payment_status"`
}

type CreateSessionResponse struct {
	Session            TrainingSession     `json:"session"`
	StudentsSeeded     int                 `json:"students_added"`
	RegisteredStudents []RegisteredStudent `json:"registered_students"`
}

// AttendanceEntry is one row of a bulk attendance submission
type AttendanceEntry struct {
	StudentID int64 `json:"student_id"`
	Present   bool  `json:"present"`
	DiffGroup bool  `json:"diff_group"`
}

type RecordAttendanceRequest struct {
	Attendances  []AttendanceEntry `json:"attendances"`
	SessionNotes *string           `json:"session_notes"`
}

type RecordAttendanceResponse struct {
	Updated int `json:"updated"`
}

// SessionSummary is one row of the per-group session listing
type SessionSummary struct {
	ID              int64      `json:"id"`
	SessionDate     time.Time  `json:"session_date"`
	Notes           *string    `json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
	InstructorFirst *string    `json:"instructor_first"`
	InstructorLast  *string    `json:"instructor_last"`
	TotalStudents   int        `json:"total_students"`
	PresentCount    int        `json:"present_count"`
	AttendancePct   int        `json:"attendance_pct"`
}

// LegacyAttendanceRow is a legacy student's attendance state within a session
type LegacyAttendanceRow struct {
	AttendanceID int64  `json:"attendance_id"`
	StudentID    int64  `json:"student_id"`
	Present      bool   `json:"present"`
	DiffGroup    bool   `json:"diff_group"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LegacyID     *int   `json:"legacy_id"`
}

type SessionAttendanceResponse struct {
	Session    SessionDetail         `json:"session"`
	Legacy     []LegacyAttendanceRow `json:"legacy"`
	Registered []RegisteredStudent   `json:"registered"`
}

type SessionDetail struct {
	TrainingSession
	GroupName *string `json:"group_name"`
	City      *string `json:"city"`
}

// GroupRef is a compact group reference inside roster rows
type GroupRef struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active *bool  `json:"active,omitempty"`
}

// RosterFilters narrows the unified roster listing
type RosterFilters struct {
	Search        string
	Source        string
	GroupID       int64
	City          string
	PaymentStatus string
	IsActive      *bool
	Overdue       bool
	SeasonOnly    bool
	Sort          string
	Page          int
	Limit         int
}

// RosterRow is the common read projection over both roster sources. Season
// counts are bounded by the configured season start.
type RosterRow struct {
	ID             int64      `json:"id"`
	LegacyID       *int       `json:"legacy_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          *string    `json:"email"`
	Phone          *string    `json:"phone"`
	BirthYear      *int       `json:"birth_year"`
	IsActive       bool       `json:"is_active"`
	Source         string     `json:"source"`
	RegistrationID *int64     `json:"registration_id"`
	CreatedAt      time.Time  `json:"created_at"`

	City   *string    `json:"city"`
	Groups []GroupRef `json:"groups"`

	TotalSessions    int        `json:"total_sessions"`
	TotalPresent     int        `json:"total_present"`
	PresentRecent    int        `json:"present_recent"`
	LastTraining     *time.Time `json:"last_training"`

	LastPaymentDate   *time.Time `json:"last_payment_date"`
	LastPaymentAmount *float64   `json:"last_payment_amount"`
	DaysSincePayment  *int       `json:"days_since_payment"`

	// Only set for web-sourced students (linked registration)
	PaymentStatus *string  `json:"payment_status"`
	TotalAmount   *float64 `json:"total_amount"`
	PlanName      *string  `json:"plan_name"`

	Overdue bool `json:"overdue"`
}

// StudentDetail extends a roster row with all-time totals and the linked
// registration
type StudentDetail struct {
	RosterRow
	AttendancePctSeason int           `json:"attendance_pct_season"`
	TotalLegacyPaid     float64       `json:"total_legacy_paid"`
	Registration        *Registration `json:"registration"`
}

type RosterPage struct {
	Rows  []RosterRow `json:"rows"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// CreateStudentRequest adds a manual roster entry
type CreateStudentRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	BirthYear *int    `json:"birth_year"`
	IsActive  *bool   `json:"is_active"`
	GroupID   *int64  `json:"group_id"`
}

// UpdateStudentRequest patches a roster entry; nil fields are untouched
type UpdateStudentRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	BirthYear *int    `json:"birth_year"`
	IsActive  *bool   `json:"is_active"`
}

// DeleteStudentResponse reports whether history forced a soft delete
type DeleteStudentResponse struct {
	Success bool   `json:"success"`
	Soft    bool   `json:"soft"`
	Message string `json:"message,omitempty"`
}

type CreatePaymentRequest struct {
	Amount float64 `json:"amount"`
	Date   *string `json:"date"`
	Note   *string `json:"note"`
}

type UpdatePaymentRequest struct {
	Amount *float64 `json:"amount"`
	PaidAt *string  `json:"paid_at"`
	Note   *string  `json:"note"`
}

// StudentPayments splits payment history by source
type StudentPayments struct {
	Legacy        []LegacyPayment      `json:"legacy"`
	Registrations []RegistrationCharge `json:"registrations"`
}

// RegistrationCharge is the computed fee of a linked web registration shown
// in payment history
type RegistrationCharge struct {
	ID            int64     `json:"id"`
	Amount        float64   `json:"amount"`
	Date          time.Time `json:"date"`
	Note          *string   `json:"note"`
	PaymentRef    string    `json:"payment_ref"`
	PaymentStatus string    `json:"payment_status"`
	PlanName      *string   `json:"plan_name"`
}

// AttendanceHistoryRow is one row of a student's attendance history
type AttendanceHistoryRow struct {
	ID          int64     `json:"id"`
	Present     bool      `json:"present"`
	DiffGroup   bool      `json:"diff_group"`
	SessionID   int64     `json:"session_id"`
	SessionDate time.Time `json:"session_date"`
	GroupName   *string   `json:"group_name"`
}

// CatalogGroup is a group in the public catalog with live availability.
// Available is nil for groups without a numeric capacity.
type CatalogGroup struct {
	Group
	Registered int        `json:"registered"`
	Available  *int       `json:"available"`
	Schedules  []Schedule `json:"schedules"`
}

type CatalogLocation struct {
	Location
	Groups []CatalogGroup `json:"groups"`
}

// CatalogResponse is the public offer: locations with their groups, weekly
// slots, live availability and the active price plans
type CatalogResponse struct {
	Locations []CatalogLocation `json:"locations"`
	Plans     []PricePlan       `json:"plans"`
}

// GroupOccupancy is the admin group listing row
type GroupOccupancy struct {
	Group
	Registered int `json:"registered"`
}
