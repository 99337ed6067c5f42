package repository

import (
	"context"
	"time"

	"saggita/internal/apperrors"
	"saggita/internal/database"
	"saggita/internal/models"
)

type LegacyPaymentRepository struct {
	db *database.DB
}

func NewLegacyPaymentRepository(db *database.DB) *LegacyPaymentRepository {
	return &LegacyPaymentRepository{db: db}
}

func (r *LegacyPaymentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.LegacyPayment, error) {
	query := `
		SELECT id, legacy_id, student_id, amount, paid_at, note, created_at
		FROM legacy_payments
		WHERE student_id = $1
		ORDER BY paid_at DESC NULLS LAST, id DESC`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.LegacyPayment
	for rows.Next() {
		var p models.LegacyPayment
		err := rows.Scan(&p.ID, &p.LegacyID, &p.StudentID, &p.Amount, &p.PaidAt, &p.Note, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	return payments, rows.Err()
}

func (r *LegacyPaymentRepository) Create(ctx context.Context, studentID int64, amount float64, paidAt *time.Time, note *string) (*models.LegacyPayment, error) {
	p := &models.LegacyPayment{StudentID: studentID, Amount: amount, Note: note}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO legacy_payments (student_id, amount, paid_at, note)
		VALUES ($1, $2, COALESCE($3, NOW()), $4)
		RETURNING id, paid_at, created_at`,
		studentID, amount, paidAt, note,
	).Scan(&p.ID, &p.PaidAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *LegacyPaymentRepository) Update(ctx context.Context, id int64, req *models.UpdatePaymentRequest, paidAt *time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE legacy_payments
		SET amount = COALESCE($1, amount),
		    paid_at = COALESCE($2, paid_at),
		    note = COALESCE($3, note)
		WHERE id = $4`,
		req.Amount, paidAt, req.Note, id)
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

func (r *LegacyPaymentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM legacy_payments WHERE id = $1`, id)
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

// RegistrationCharges returns the computed fees of a student's linked web
// registration, shown next to legacy payments in payment history
func (r *LegacyPaymentRepository) RegistrationCharges(ctx context.Context, studentID int64) ([]models.RegistrationCharge, error) {
	query := `
		SELECT r.id, r.total_amount, r.created_at, r.admin_notes,
		       r.payment_ref, r.payment_status, pp.name
		FROM students s
		JOIN registrations r ON r.id = s.registration_id
		LEFT JOIN price_plans pp ON pp.id = r.price_plan_id
		WHERE s.id = $1`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []models.RegistrationCharge
	for rows.Next() {
		var c models.RegistrationCharge
		err := rows.Scan(&c.ID, &c.Amount, &c.Date, &c.Note, &c.PaymentRef, &c.PaymentStatus, &c.PlanName)
		if err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}

	return charges, rows.Err()
}
