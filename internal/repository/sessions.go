package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"saggita/internal/apperrors"
	"saggita/internal/database"
	"saggita/internal/models"
)

type SessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateWithSeeding upserts the canonical session for (group, date) and seeds
// attendance placeholders for every active legacy member, all in one
// transaction, so a crash cannot leave a session without its seeded rows.
//
// The call is idempotent: an existing session is returned unchanged and
// seeding inserts nothing thanks to ON CONFLICT DO NOTHING. seeded is the
// number of attendance rows actually inserted, created reports whether the
// session row is new.
func (r *SessionRepository) CreateWithSeeding(ctx context.Context, groupID int64, date time.Time, notes *string, createdBy *int64) (session *models.TrainingSession, seeded int, created bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM groups WHERE id = $1)`, groupID,
	).Scan(&exists); err != nil {
		return nil, 0, false, err
	}
	if !exists {
		return nil, 0, false, apperrors.ErrNotFound
	}

	session = &models.TrainingSession{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO training_sessions (group_id, session_date, notes, created_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, session_date) DO NOTHING
		RETURNING id, group_id, session_date, notes, created_by, created_at`,
		groupID, date, notes, createdBy,
	).Scan(&session.ID, &session.GroupID, &session.SessionDate, &session.Notes, &session.CreatedBy, &session.CreatedAt)

	switch err {
	case nil:
		created = true
	case sql.ErrNoRows:
		// Session already exists for this group/date; resolve to it
		err = tx.QueryRowContext(ctx, `
			SELECT id, group_id, session_date, notes, created_by, created_at
			FROM training_sessions
			WHERE group_id = $1 AND session_date = $2`,
			groupID, date,
		).Scan(&session.ID, &session.GroupID, &session.SessionDate, &session.Notes, &session.CreatedBy, &session.CreatedAt)
		if err != nil {
			return nil, 0, false, fmt.Errorf("failed to resolve existing session: %w", err)
		}
	default:
		return nil, 0, false, fmt.Errorf("failed to upsert session: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO attendances (session_id, student_id, present, diff_group)
		SELECT $1, sg.student_id, false, false
		FROM student_groups sg
		JOIN students s ON s.id = sg.student_id
		WHERE sg.group_id = $2 AND sg.active = true AND s.is_active = true
		ON CONFLICT (session_id, student_id) DO NOTHING`,
		session.ID, groupID)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to seed attendance: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, 0, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, false, err
	}
	return session, int(inserted), created, nil
}

func (r *SessionRepository) GetDetail(ctx context.Context, id int64) (*models.SessionDetail, error) {
	detail := &models.SessionDetail{}
	query := `
		SELECT ts.id, ts.group_id, ts.session_date, ts.notes, ts.created_by, ts.created_at,
		       g.name, l.city
		FROM training_sessions ts
		LEFT JOIN groups g ON g.id = ts.group_id
		LEFT JOIN locations l ON l.id = g.location_id
		WHERE ts.id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&detail.ID, &detail.GroupID, &detail.SessionDate, &detail.Notes, &detail.CreatedBy, &detail.CreatedAt,
		&detail.GroupName, &detail.City,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return detail, err
}

// ListByGroup summarizes recent sessions of a group. Attendance counts come
// from a single grouped join on attendances only, so no fan-out is possible.
func (r *SessionRepository) ListByGroup(ctx context.Context, groupID int64, limit int) ([]models.SessionSummary, error) {
	query := `
		SELECT
			ts.id, ts.session_date, ts.notes, ts.created_at,
			st.first_name, st.last_name,
			COUNT(a.id)::int AS total_students,
			COUNT(a.id) FILTER (WHERE a.present = true)::int AS present_count,
			COALESCE(ROUND(
				COUNT(a.id) FILTER (WHERE a.present = true)::numeric /
				NULLIF(COUNT(a.id), 0) * 100, 0
			), 0)::int AS attendance_pct
		FROM training_sessions ts
		LEFT JOIN attendances a ON a.session_id = ts.id
		LEFT JOIN staff st ON st.id = ts.created_by
		WHERE ts.group_id = $1
		GROUP BY ts.id, st.id
		ORDER BY ts.session_date DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.SessionSummary
	for rows.Next() {
		var s models.SessionSummary
		err := rows.Scan(
			&s.ID, &s.SessionDate, &s.Notes, &s.CreatedAt,
			&s.InstructorFirst, &s.InstructorLast,
			&s.TotalStudents, &s.PresentCount, &s.AttendancePct,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// AttendanceRows returns the legacy roster's attendance state for a session
func (r *SessionRepository) AttendanceRows(ctx context.Context, sessionID int64) ([]models.LegacyAttendanceRow, error) {
	query := `
		SELECT a.id, a.student_id, a.present, a.diff_group,
		       s.first_name, s.last_name, s.legacy_id
		FROM attendances a
		JOIN students s ON s.id = a.student_id
		WHERE a.session_id = $1
		ORDER BY s.last_name, s.first_name`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.LegacyAttendanceRow
	for rows.Next() {
		var row models.LegacyAttendanceRow
		err := rows.Scan(
			&row.AttendanceID, &row.StudentID, &row.Present, &row.DiffGroup,
			&row.FirstName, &row.LastName, &row.LegacyID,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// ListRegisteredStudents returns a group's admitted web registrations. They
// are shown alongside a session for the instructor's display; attendance
// rows track the legacy roster only.
func (r *SessionRepository) ListRegisteredStudents(ctx context.Context, groupID int64) ([]models.RegisteredStudent, error) {
	query := `
		SELECT r.id, r.first_name, r.last_name, r.payment_status
		FROM registrations r
		WHERE r.group_id = $1 AND r.status <> 'cancelled' AND r.is_waitlist = false
		ORDER BY r.last_name, r.first_name`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.RegisteredStudent
	for rows.Next() {
		var s models.RegisteredStudent
		if err := rows.Scan(&s.RegistrationID, &s.FirstName, &s.LastName, &s.PaymentStatus); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	return result, rows.Err()
}

// UpsertAttendance inserts or overwrites one attendance mark. Repeated
// submissions converge to the last submitted state.
func (r *SessionRepository) UpsertAttendance(ctx context.Context, sessionID int64, entry models.AttendanceEntry, markedBy *int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendances (session_id, student_id, present, diff_group, marked_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, student_id) DO UPDATE SET
			present = EXCLUDED.present,
			diff_group = EXCLUDED.diff_group,
			marked_by = EXCLUDED.marked_by`,
		sessionID, entry.StudentID, entry.Present, entry.DiffGroup, markedBy)
	return err
}

func (r *SessionRepository) UpdateNotes(ctx context.Context, sessionID int64, notes *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE training_sessions SET notes = $1 WHERE id = $2`, notes, sessionID)
	return err
}
