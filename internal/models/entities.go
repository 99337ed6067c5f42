package models

import (
	"time"
)

// Location represents a training venue owning zero or more groups
type Location struct {
	ID        int64   `json:"id" db:"id"`
	City      string  `json:"city" db:"city"`
	Name      *string `json:"name" db:"name"`
	Slug      *string `json:"slug" db:"slug"`
	Address   *string `json:"address" db:"address"`
	Active    bool    `json:"active" db:"active"`
	SortOrder int     `json:"sort_order" db:"sort_order"`
}

// Group represents a training group at a location. MaxCapacity nil means
// unlimited.
type Group struct {
	ID          int64   `json:"id" db:"id"`
	LocationID  *int64  `json:"location_id" db:"location_id"`
	Name        string  `json:"name" db:"name"`
	Category    *string `json:"category" db:"category"`
	AgeRange    *string `json:"age_range" db:"age_range"`
	MaxCapacity *int    `json:"max_capacity" db:"max_capacity"`
	Notes       *string `json:"notes" db:"notes"`
	Active      bool    `json:"active" db:"active"`
}

// Schedule represents a weekly time slot of a group
type Schedule struct {
	ID        int64   `json:"id" db:"id"`
	GroupID   int64   `json:"group_id" db:"group_id"`
	DayOfWeek int     `json:"day_of_week" db:"day_of_week"`
	DayName   *string `json:"day_name" db:"day_name"`
	TimeLabel *string `json:"time_label" db:"time_label"`
	Address   *string `json:"address" db:"address"`
	Active    bool    `json:"active" db:"active"`
}

// PricePlan represents a published price with an optional one-time signup fee
type PricePlan struct {
	ID        int64   `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	Price     float64 `json:"price" db:"price"`
	SignupFee float64 `json:"signup_fee" db:"signup_fee"`
	Active    bool    `json:"active" db:"active"`
}

// Staff represents an admin or instructor account
type Staff struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Registration statuses
const (
	RegStatusNew       = "new"
	RegStatusConfirmed = "confirmed"
	RegStatusWaitlist  = "waitlist"
	RegStatusCancelled = "cancelled"
)

// Payment statuses of a registration
const (
	PaymentUnpaid = "unpaid"
	PaymentWaived = "waived"
	PaymentPaid   = "paid"
)

// Finalize actions submitted by the registrant
const (
	ActionPayOnline        = "pay_online"
	ActionDownloadDoc      = "download_doc"
	ActionPaymentConfirmed = "payment_confirmed"
)

// Roster entry sources
const (
	SourceLegacy = "legacy"
	SourceManual = "manual"
	SourceWeb    = "web"
)

// Staff roles
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
)

// Registration represents a web-originated seat request. Cancellation is a
// status transition, never a delete.
type Registration struct {
	ID            int64      `json:"id" db:"id"`
	FirstName     string     `json:"first_name" db:"first_name"`
	LastName      string     `json:"last_name" db:"last_name"`
	Email         string     `json:"email" db:"email"`
	Phone         string     `json:"phone" db:"phone"`
	BirthYear     *int       `json:"birth_year" db:"birth_year"`
	IsNew         bool       `json:"is_new" db:"is_new"`
	GroupID       int64      `json:"group_id" db:"group_id"`
	ScheduleID    *int64     `json:"schedule_id" db:"schedule_id"`
	PricePlanID   *int64     `json:"price_plan_id" db:"price_plan_id"`
	LocationID    *int64     `json:"location_id" db:"location_id"`
	StartDate     *time.Time `json:"start_date" db:"start_date"`
	PreferredTime *string    `json:"preferred_time" db:"preferred_time"`
	IsWaitlist    bool       `json:"is_waitlist" db:"is_waitlist"`
	Status        string     `json:"status" db:"status"`
	PaymentStatus string     `json:"payment_status" db:"payment_status"`
	PaymentMethod string     `json:"payment_method" db:"payment_method"`
	PaymentRef    string     `json:"payment_ref" db:"payment_ref"`
	TotalAmount   float64    `json:"total_amount" db:"total_amount"`
	Source        string     `json:"source" db:"source"`
	ConsentData   bool       `json:"consent_data" db:"consent_data"`
	ConsentRules  bool       `json:"consent_rules" db:"consent_rules"`
	HasMembership bool       `json:"has_membership" db:"has_membership"`
	Action        *string    `json:"action" db:"action"`
	ActionAt      *time.Time `json:"action_at" db:"action_at"`
	AdminNotes    *string    `json:"admin_notes" db:"admin_notes"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Student represents a roster entry. Legacy students carry attendance and
// cash payments directly; web students link to their registration.
type Student struct {
	ID             int64     `json:"id" db:"id"`
	LegacyID       *int      `json:"legacy_id" db:"legacy_id"`
	FirstName      string    `json:"first_name" db:"first_name"`
	LastName       string    `json:"last_name" db:"last_name"`
	Email          *string   `json:"email" db:"email"`
	Phone          *string   `json:"phone" db:"phone"`
	BirthYear      *int      `json:"birth_year" db:"birth_year"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	Source         string    `json:"source" db:"source"`
	RegistrationID *int64    `json:"registration_id" db:"registration_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TrainingSession is unique per (group, date)
type TrainingSession struct {
	ID          int64     `json:"id" db:"id"`
	GroupID     int64     `json:"group_id" db:"group_id"`
	SessionDate time.Time `json:"session_date" db:"session_date"`
	Notes       *string   `json:"notes" db:"notes"`
	CreatedBy   *int64    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Attendance records presence of a legacy-tracked student at a session.
// DiffGroup marks attendance taken while training with a different group
// than the student's home group.
type Attendance struct {
	ID        int64  `json:"id" db:"id"`
	SessionID int64  `json:"session_id" db:"session_id"`
	StudentID int64  `json:"student_id" db:"student_id"`
	Present   bool   `json:"present" db:"present"`
	DiffGroup bool   `json:"diff_group" db:"diff_group"`
	MarkedBy  *int64 `json:"marked_by" db:"marked_by"`
}

// LegacyPayment is a manually recorded cash/transfer payment of a legacy
// student
type LegacyPayment struct {
	ID        int64      `json:"id" db:"id"`
	LegacyID  *int       `json:"legacy_id" db:"legacy_id"`
	StudentID int64      `json:"student_id" db:"student_id"`
	Amount    float64    `json:"amount" db:"amount"`
	PaidAt    *time.Time `json:"paid_at" db:"paid_at"`
	Note      *string    `json:"note" db:"note"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
