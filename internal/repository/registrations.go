package repository

import (
	"context"
	"database/sql"
	"fmt"

	"saggita/internal/apperrors"
	"saggita/internal/database"
	"saggita/internal/models"

	"github.com/lib/pq"
)

type RegistrationRepository struct {
	db *database.DB
}

func NewRegistrationRepository(db *database.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}

// Create inserts a registration, deciding admit vs. waitlist inside a single
// transaction that holds a row lock on the group. Two concurrent intakes
// against the last open seat serialize on the lock, so the second one reads
// the occupancy including the first and lands on the waitlist.
//
// On entry reg must carry person fields, group, fee and payment data; Status,
// IsWaitlist, ID and timestamps are set here. Returns apperrors.ErrNotFound
// for an unknown group and apperrors.ErrConflict on a payment_ref collision.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxCapacity *int
	var notes *string
	var locationID *int64
	lockQuery := `SELECT max_capacity, notes, location_id FROM groups WHERE id = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, lockQuery, reg.GroupID).Scan(&maxCapacity, &notes, &locationID)
	if err == sql.ErrNoRows {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock group: %w", err)
	}

	var occupied int
	if err := tx.QueryRowContext(ctx, occupancyQuery, reg.GroupID).Scan(&occupied); err != nil {
		return fmt.Errorf("failed to count occupancy: %w", err)
	}

	hasRoom := !GroupClosed(notes) && (maxCapacity == nil || occupied < *maxCapacity)
	reg.IsWaitlist = !hasRoom
	if reg.IsWaitlist {
		reg.Status = models.RegStatusWaitlist
	} else {
		reg.Status = models.RegStatusNew
	}
	if reg.LocationID == nil {
		reg.LocationID = locationID
	}

	insert := `
		INSERT INTO registrations (
			first_name, last_name, email, phone, birth_year, is_new,
			group_id, schedule_id, price_plan_id, location_id,
			start_date, preferred_time,
			is_waitlist, status, payment_status, payment_method,
			payment_ref, total_amount, source, consent_data, consent_rules, has_membership
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22
		) RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, insert,
		reg.FirstName, reg.LastName, reg.Email, reg.Phone, reg.BirthYear, reg.IsNew,
		reg.GroupID, reg.ScheduleID, reg.PricePlanID, reg.LocationID,
		reg.StartDate, reg.PreferredTime,
		reg.IsWaitlist, reg.Status, reg.PaymentStatus, reg.PaymentMethod,
		reg.PaymentRef, reg.TotalAmount, reg.Source, reg.ConsentData, reg.ConsentRules, reg.HasMembership,
	).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to insert registration: %w", err)
	}

	return tx.Commit()
}

const registrationColumns = `
	id, first_name, last_name, email, phone, birth_year, is_new,
	group_id, schedule_id, price_plan_id, location_id,
	start_date, preferred_time,
	is_waitlist, status, payment_status, payment_method,
	payment_ref, total_amount, source, consent_data, consent_rules, has_membership,
	action, action_at, admin_notes, created_at, updated_at`

func scanRegistration(row interface{ Scan(...any) error }) (*models.Registration, error) {
	reg := &models.Registration{}
	err := row.Scan(
		&reg.ID, &reg.FirstName, &reg.LastName, &reg.Email, &reg.Phone, &reg.BirthYear, &reg.IsNew,
		&reg.GroupID, &reg.ScheduleID, &reg.PricePlanID, &reg.LocationID,
		&reg.StartDate, &reg.PreferredTime,
		&reg.IsWaitlist, &reg.Status, &reg.PaymentStatus, &reg.PaymentMethod,
		&reg.PaymentRef, &reg.TotalAmount, &reg.Source, &reg.ConsentData, &reg.ConsentRules, &reg.HasMembership,
		&reg.Action, &reg.ActionAt, &reg.AdminNotes, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *RegistrationRepository) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	query := `SELECT` + registrationColumns + ` FROM registrations WHERE id = $1`
	return scanRegistration(r.db.QueryRowContext(ctx, query, id))
}

func (r *RegistrationRepository) GetByPaymentRef(ctx context.Context, ref string) (*models.Registration, error) {
	query := `SELECT` + registrationColumns + ` FROM registrations WHERE payment_ref = $1`
	return scanRegistration(r.db.QueryRowContext(ctx, query, ref))
}

// PaymentRefExists is used by intake to pre-check a generated code before
// attempting the insert
func (r *RegistrationRepository) PaymentRefExists(ctx context.Context, ref string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM registrations WHERE payment_ref = $1)`
	err := r.db.QueryRowContext(ctx, query, ref).Scan(&exists)
	return exists, err
}

// List returns registrations filtered by group and/or status, newest first
func (r *RegistrationRepository) List(ctx context.Context, groupID int64, status string, limit, offset int) ([]models.Registration, error) {
	query := `SELECT` + registrationColumns + ` FROM registrations WHERE 1=1`
	args := []any{}
	i := 1
	if groupID != 0 {
		query += fmt.Sprintf(" AND group_id = $%d", i)
		args = append(args, groupID)
		i++
	}
	if status != "" && status != "all" {
		query += fmt.Sprintf(" AND status = $%d", i)
		args = append(args, status)
		i++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}

	return regs, rows.Err()
}

// UpdateStatus applies an administrative patch to status, payment_status and
// admin notes. Waitlist promotion goes through Promote instead.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id int64, status, paymentStatus, adminNotes *string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE registrations
		SET status = COALESCE($1, status),
		    payment_status = COALESCE($2, payment_status),
		    admin_notes = COALESCE($3, admin_notes),
		    updated_at = NOW()
		WHERE id = $4`,
		status, paymentStatus, adminNotes, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Promote clears the waitlist flag of a registration after re-checking
// capacity under the same group row lock used by intake. Returns
// apperrors.ErrCapacityExceeded when the freed seat is already gone or the
// group has been closed since the original intake.
func (r *RegistrationRepository) Promote(ctx context.Context, id int64) (*models.Registration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var groupID int64
	var isWaitlist bool
	err = tx.QueryRowContext(ctx,
		`SELECT group_id, is_waitlist FROM registrations WHERE id = $1`, id,
	).Scan(&groupID, &isWaitlist)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var maxCapacity *int
	var notes *string
	err = tx.QueryRowContext(ctx,
		`SELECT max_capacity, notes FROM groups WHERE id = $1 FOR UPDATE`, groupID,
	).Scan(&maxCapacity, &notes)
	if err != nil {
		return nil, fmt.Errorf("failed to lock group: %w", err)
	}

	if isWaitlist {
		if GroupClosed(notes) {
			return nil, apperrors.ErrCapacityExceeded
		}
		var occupied int
		if err := tx.QueryRowContext(ctx, occupancyQuery, groupID).Scan(&occupied); err != nil {
			return nil, fmt.Errorf("failed to count occupancy: %w", err)
		}
		if maxCapacity != nil && occupied >= *maxCapacity {
			return nil, apperrors.ErrCapacityExceeded
		}
	}

	query := `
		UPDATE registrations
		SET is_waitlist = false, status = 'confirmed', updated_at = NOW()
		WHERE id = $1
		RETURNING` + registrationColumns
	reg, err := scanRegistration(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return reg, nil
}

// RecordAction stores the registrant's finalize action. Resubmitting the
// same action refreshes the timestamp; no duplicate rows are created.
func (r *RegistrationRepository) RecordAction(ctx context.Context, id int64, action string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET action = $1, action_at = NOW(), updated_at = NOW() WHERE id = $2`,
		action, id)
	return err
}

// SetPaymentStatus force-sets the payment status (payment_confirmed action,
// administrative override)
func (r *RegistrationRepository) SetPaymentStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET payment_status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}
