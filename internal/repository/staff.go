package repository

import (
	"context"
	"database/sql"

	"saggita/internal/database"
	"saggita/internal/models"
)

type StaffRepository struct {
	db *database.DB
}

func NewStaffRepository(db *database.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*models.Staff, error) {
	s := &models.Staff{}
	query := `
		SELECT id, email, password_hash, first_name, last_name, role, is_active, created_at
		FROM staff
		WHERE email = $1 AND is_active = true`

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&s.ID, &s.Email, &s.PasswordHash, &s.FirstName, &s.LastName, &s.Role, &s.IsActive, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// InstructorHasGroup reports whether an instructor is assigned to a group.
// Admins bypass this check in the service layer.
func (r *StaffRepository) InstructorHasGroup(ctx context.Context, staffID, groupID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM instructor_groups WHERE instructor_id = $1 AND group_id = $2)`,
		staffID, groupID,
	).Scan(&ok)
	return ok, err
}

// SessionAccessGroup resolves a session to its group id so instructor access
// can be checked before attendance writes
func (r *StaffRepository) SessionAccessGroup(ctx context.Context, sessionID int64) (int64, error) {
	var groupID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT group_id FROM training_sessions WHERE id = $1`, sessionID,
	).Scan(&groupID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return groupID, err
}
