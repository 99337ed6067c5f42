package models

import "time"

// Notification event subjects
const (
	EventRegistrationCreated = "registration.created"
	EventActionSubmitted     = "registration.action"
	EventPaymentStatusSet    = "registration.payment_status"
)

// RegistrationCreatedEvent carries everything the dispatcher needs to render
// the confirmation mail for the registrant and the admin copy
type RegistrationCreatedEvent struct {
	RegistrationID int64     `json:"registration_id"`
	PaymentRef     string    `json:"payment_ref"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	GroupName      string    `json:"group_name"`
	City           string    `json:"city"`
	TotalAmount    float64   `json:"total_amount"`
	IsWaitlist     bool      `json:"is_waitlist"`
	BankAccount    string    `json:"bank_account"`
	BankName       string    `json:"bank_name"`
	Timestamp      time.Time `json:"timestamp"`
}

// ActionSubmittedEvent is published when the registrant finalizes their
// registration from the confirmation page
type ActionSubmittedEvent struct {
	RegistrationID int64     `json:"registration_id"`
	PaymentRef     string    `json:"payment_ref"`
	Action         string    `json:"action"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	TotalAmount    float64   `json:"total_amount"`
	DueDate        *string   `json:"due_date"`
	Timestamp      time.Time `json:"timestamp"`
}

// PaymentStatusSetEvent is published on administrative payment overrides
type PaymentStatusSetEvent struct {
	RegistrationID int64     `json:"registration_id"`
	PaymentRef     string    `json:"payment_ref"`
	PaymentStatus  string    `json:"payment_status"`
	Timestamp      time.Time `json:"timestamp"`
}
