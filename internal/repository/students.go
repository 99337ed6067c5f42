package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"saggita/internal/apperrors"
	"saggita/internal/database"
	"saggita/internal/models"

	"github.com/lib/pq"
)

type StudentRepository struct {
	db *database.DB
}

func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	s := &models.Student{}
	query := `
		SELECT id, legacy_id, first_name, last_name, email, phone, birth_year,
		       is_active, source, registration_id, created_at
		FROM students
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.LegacyID, &s.FirstName, &s.LastName, &s.Email, &s.Phone, &s.BirthYear,
		&s.IsActive, &s.Source, &s.RegistrationID, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// Create inserts a manual roster entry with an optional group membership
func (r *StudentRepository) Create(ctx context.Context, s *models.Student, groupID *int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO students (first_name, last_name, email, phone, birth_year, is_active, source, registration_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		s.FirstName, s.LastName, s.Email, s.Phone, s.BirthYear, s.IsActive, s.Source, s.RegistrationID,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert student: %w", err)
	}

	if groupID != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO student_groups (student_id, group_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			s.ID, *groupID)
		if err != nil {
			return fmt.Errorf("failed to insert membership: %w", err)
		}
	}

	return tx.Commit()
}

// Update patches a roster entry; nil fields keep their current value
func (r *StudentRepository) Update(ctx context.Context, id int64, req *models.UpdateStudentRequest) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET first_name = COALESCE($1, first_name),
		    last_name = COALESCE($2, last_name),
		    email = COALESCE($3, email),
		    phone = COALESCE($4, phone),
		    birth_year = COALESCE($5, birth_year),
		    is_active = COALESCE($6, is_active)
		WHERE id = $7`,
		req.FirstName, req.LastName, req.Email, req.Phone, req.BirthYear, req.IsActive, id)
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

// HistoryCounts returns how many attendance and payment rows a student has.
// Any history forbids hard deletion.
func (r *StudentRepository) HistoryCounts(ctx context.Context, id int64) (attendances, payments int, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM attendances WHERE student_id = $1)::int,
			(SELECT COUNT(*) FROM legacy_payments WHERE student_id = $1)::int`
	err = r.db.QueryRowContext(ctx, query, id).Scan(&attendances, &payments)
	return attendances, payments, err
}

func (r *StudentRepository) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE students SET is_active = false WHERE id = $1`, id)
	return err
}

// HardDelete removes a student and their memberships. Callers must check
// HistoryCounts first; students with history are deactivated instead.
func (r *StudentRepository) HardDelete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM student_groups WHERE student_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}

// ListAll streams the whole roster, used by the search reindexer
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, legacy_id, first_name, last_name, email, phone, birth_year,
		       is_active, source, registration_id, created_at
		FROM students
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var s models.Student
		err := rows.Scan(
			&s.ID, &s.LegacyID, &s.FirstName, &s.LastName, &s.Email, &s.Phone, &s.BirthYear,
			&s.IsActive, &s.Source, &s.RegistrationID, &s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}

	return students, rows.Err()
}

// rosterColumns builds the unified roster projection. Every metric is a
// correlated scalar sub-select collapsed to one value per student before the
// outer row is formed. Joining attendances, sessions, payments and
// memberships flat against the student row would multiply rows by every
// combination and inflate the counts (the historical bug: >685k phantom rows
// for one student), so it is never done here.
func rosterColumns(seasonIdx, recentIdx int) string {
	return fmt.Sprintf(`
		s.id, s.legacy_id, s.first_name, s.last_name, s.email, s.phone, s.birth_year,
		s.is_active, s.source, s.registration_id, s.created_at,

		(SELECT l.city
		 FROM student_groups sgx
		 JOIN groups gx ON gx.id = sgx.group_id
		 JOIN locations l ON l.id = gx.location_id
		 WHERE sgx.student_id = s.id AND sgx.active = true
		 LIMIT 1) AS city,

		COALESCE((
			SELECT json_agg(jsonb_build_object('id', g.id, 'name', g.name) ORDER BY g.name)
			FROM student_groups sg
			JOIN groups g ON g.id = sg.group_id
			WHERE sg.student_id = s.id AND sg.active = true
		), '[]'::json)::text AS groups,

		COALESCE((
			SELECT COUNT(*)::int
			FROM attendances a
			JOIN training_sessions ts ON ts.id = a.session_id
			WHERE a.student_id = s.id AND ts.session_date >= $%[1]d::date
		), 0) AS total_sessions,

		COALESCE((
			SELECT COUNT(*)::int
			FROM attendances a
			JOIN training_sessions ts ON ts.id = a.session_id
			WHERE a.student_id = s.id AND a.present = true AND ts.session_date >= $%[1]d::date
		), 0) AS total_present,

		COALESCE((
			SELECT COUNT(*)::int
			FROM attendances a
			JOIN training_sessions ts ON ts.id = a.session_id
			WHERE a.student_id = s.id AND a.present = true
			  AND ts.session_date >= CURRENT_DATE - make_interval(days => $%[2]d)
		), 0) AS present_recent,

		(SELECT MAX(ts.session_date)
		 FROM attendances a
		 JOIN training_sessions ts ON ts.id = a.session_id
		 WHERE a.student_id = s.id AND ts.session_date >= $%[1]d::date) AS last_training,

		(SELECT lp.paid_at FROM legacy_payments lp WHERE lp.student_id = s.id
		 ORDER BY lp.paid_at DESC NULLS LAST, lp.id DESC LIMIT 1) AS last_payment_date,
		(SELECT lp.amount FROM legacy_payments lp WHERE lp.student_id = s.id
		 ORDER BY lp.paid_at DESC NULLS LAST, lp.id DESC LIMIT 1) AS last_payment_amount,
		EXTRACT(DAY FROM (CURRENT_TIMESTAMP - (
			SELECT lp2.paid_at FROM legacy_payments lp2 WHERE lp2.student_id = s.id
			ORDER BY lp2.paid_at DESC NULLS LAST, lp2.id DESC LIMIT 1
		)))::int AS days_since_payment,

		r.payment_status,
		r.total_amount,
		pp.name AS plan_name`, seasonIdx, recentIdx)
}

func scanRosterRow(rows *sql.Rows) (*models.RosterRow, error) {
	var row models.RosterRow
	var groupsJSON string
	err := rows.Scan(
		&row.ID, &row.LegacyID, &row.FirstName, &row.LastName, &row.Email, &row.Phone, &row.BirthYear,
		&row.IsActive, &row.Source, &row.RegistrationID, &row.CreatedAt,
		&row.City,
		&groupsJSON,
		&row.TotalSessions,
		&row.TotalPresent,
		&row.PresentRecent,
		&row.LastTraining,
		&row.LastPaymentDate,
		&row.LastPaymentAmount,
		&row.DaysSincePayment,
		&row.PaymentStatus,
		&row.TotalAmount,
		&row.PlanName,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(groupsJSON), &row.Groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}
	return &row, nil
}

// ListRoster returns the unified, season-scoped roster page. searchIDs, when
// non-nil, restricts the result to ids matched by the full-text index.
func (r *StudentRepository) ListRoster(ctx context.Context, f models.RosterFilters, seasonStart time.Time, trainingWindowDays, overduePaymentDays int, searchIDs []int64) (*models.RosterPage, error) {
	conds := []string{}
	args := []any{}
	idx := 1

	addArg := func(v any) int {
		args = append(args, v)
		i := idx
		idx++
		return i
	}

	if searchIDs != nil {
		conds = append(conds, fmt.Sprintf("s.id = ANY($%d)", addArg(pq.Array(searchIDs))))
	} else if f.Search != "" {
		i := addArg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf(`(
			s.first_name ILIKE $%[1]d
			OR s.last_name ILIKE $%[1]d
			OR s.email ILIKE $%[1]d
			OR s.phone ILIKE $%[1]d
		)`, i))
	}

	if f.Source != "" && f.Source != "all" {
		conds = append(conds, fmt.Sprintf("s.source = $%d", addArg(f.Source)))
	}
	if f.IsActive != nil {
		conds = append(conds, fmt.Sprintf("s.is_active = $%d", addArg(*f.IsActive)))
	}
	if f.GroupID != 0 {
		conds = append(conds, fmt.Sprintf(`EXISTS(
			SELECT 1 FROM student_groups sg2
			WHERE sg2.student_id = s.id AND sg2.group_id = $%d
		)`, addArg(f.GroupID)))
	}
	if f.City != "" {
		conds = append(conds, fmt.Sprintf(`EXISTS(
			SELECT 1
			FROM student_groups sg3
			JOIN groups g3 ON g3.id = sg3.group_id
			JOIN locations l3 ON l3.id = g3.location_id
			WHERE sg3.student_id = s.id AND l3.city ILIKE $%d
		)`, addArg("%"+f.City+"%")))
	}
	if f.PaymentStatus != "" && f.PaymentStatus != "all" {
		conds = append(conds, fmt.Sprintf(`EXISTS(
			SELECT 1 FROM registrations r2
			WHERE r2.id = s.registration_id AND r2.payment_status = $%d
		)`, addArg(f.PaymentStatus)))
	}

	if f.Overdue {
		windowIdx := addArg(trainingWindowDays)
		paymentIdx := addArg(overduePaymentDays)
		conds = append(conds, "s.is_active = true")
		conds = append(conds, fmt.Sprintf(`EXISTS(
			SELECT 1
			FROM attendances a2
			JOIN training_sessions ts2 ON ts2.id = a2.session_id
			WHERE a2.student_id = s.id
			  AND a2.present = true
			  AND ts2.session_date >= CURRENT_DATE - make_interval(days => $%d)
		)`, windowIdx))
		conds = append(conds, fmt.Sprintf(`(
			(s.registration_id IS NULL AND (
				(SELECT MAX(lp2.paid_at) FROM legacy_payments lp2 WHERE lp2.student_id = s.id)
					< CURRENT_DATE - make_interval(days => $%d)
				OR NOT EXISTS(SELECT 1 FROM legacy_payments lp3 WHERE lp3.student_id = s.id)
			))
			OR (s.registration_id IS NOT NULL AND EXISTS(
				SELECT 1 FROM registrations r3
				WHERE r3.id = s.registration_id AND r3.payment_status <> 'paid'
			))
		)`, paymentIdx))
	}

	if f.SeasonOnly {
		i := addArg(seasonStart)
		conds = append(conds, fmt.Sprintf(`(
			EXISTS(
				SELECT 1 FROM attendances a3
				JOIN training_sessions ts3 ON ts3.id = a3.session_id
				WHERE a3.student_id = s.id AND ts3.session_date >= $%[1]d::date
			)
			OR EXISTS(
				SELECT 1 FROM legacy_payments lp4
				WHERE lp4.student_id = s.id AND lp4.paid_at >= $%[1]d::date
			)
			OR EXISTS(
				SELECT 1 FROM student_groups sg4
				WHERE sg4.student_id = s.id AND sg4.active = true
			)
		)`, i))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + conds[0]
		for _, c := range conds[1:] {
			where += " AND " + c
		}
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*)::int FROM students s %s`, where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count roster: %w", err)
	}

	seasonIdx := addArg(seasonStart)
	recentIdx := addArg(trainingWindowDays)

	var orderBy string
	switch f.Sort {
	case "alpha":
		orderBy = "s.last_name ASC, s.first_name ASC"
	case "payment":
		orderBy = "last_payment_date DESC NULLS LAST, s.last_name ASC, s.first_name ASC"
	default:
		orderBy = "last_training DESC NULLS LAST, s.last_name ASC, s.first_name ASC"
	}

	limitIdx := addArg(f.Limit)
	offsetIdx := addArg((f.Page - 1) * f.Limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM students s
		LEFT JOIN registrations r ON r.id = s.registration_id
		LEFT JOIN price_plans pp ON pp.id = r.price_plan_id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		rosterColumns(seasonIdx, recentIdx), where, orderBy, limitIdx, offsetIdx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	page := &models.RosterPage{
		Rows:  []models.RosterRow{},
		Total: total,
		Page:  f.Page,
		Limit: f.Limit,
	}
	for rows.Next() {
		row, err := scanRosterRow(rows)
		if err != nil {
			return nil, err
		}
		page.Rows = append(page.Rows, *row)
	}

	return page, rows.Err()
}

// GetRosterDetail returns one student's roster row plus all-time totals.
// The linked registration, if any, is attached by the caller.
func (r *StudentRepository) GetRosterDetail(ctx context.Context, id int64, seasonStart time.Time, trainingWindowDays int) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			(SELECT
				CASE
					WHEN COUNT(*) FILTER (WHERE ts.session_date >= $2::date) = 0 THEN 0
					ELSE ROUND(
						(COUNT(*) FILTER (WHERE a.present = true AND ts.session_date >= $2::date))::numeric
						/ NULLIF((COUNT(*) FILTER (WHERE ts.session_date >= $2::date))::numeric, 0)
						* 100, 0
					)::int
				END
			 FROM attendances a
			 JOIN training_sessions ts ON ts.id = a.session_id
			 WHERE a.student_id = s.id) AS attendance_pct_season,
			COALESCE((SELECT SUM(lp.amount) FROM legacy_payments lp WHERE lp.student_id = s.id), 0) AS total_legacy_paid
		FROM students s
		LEFT JOIN registrations r ON r.id = s.registration_id
		LEFT JOIN price_plans pp ON pp.id = r.price_plan_id
		WHERE s.id = $1`,
		rosterColumns(2, 3))

	rows, err := r.db.QueryContext(ctx, query, id, seasonStart, trainingWindowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query student detail: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	detail := &models.StudentDetail{}
	var groupsJSON string
	err = rows.Scan(
		&detail.ID, &detail.LegacyID, &detail.FirstName, &detail.LastName, &detail.Email, &detail.Phone, &detail.BirthYear,
		&detail.IsActive, &detail.Source, &detail.RegistrationID, &detail.CreatedAt,
		&detail.City,
		&groupsJSON,
		&detail.TotalSessions,
		&detail.TotalPresent,
		&detail.PresentRecent,
		&detail.LastTraining,
		&detail.LastPaymentDate,
		&detail.LastPaymentAmount,
		&detail.DaysSincePayment,
		&detail.PaymentStatus,
		&detail.TotalAmount,
		&detail.PlanName,
		&detail.AttendancePctSeason,
		&detail.TotalLegacyPaid,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(groupsJSON), &detail.Groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}

	return detail, nil
}

// LegacyHistoryRow is one row of the legacy history tab
type LegacyHistoryRow struct {
	models.Student
	Groups           json.RawMessage `json:"groups"`
	TotalAttendances int             `json:"total_attendances"`
	LastTraining     *time.Time      `json:"last_training"`
	TotalPaid        float64         `json:"total_paid"`
	LastPayment      *time.Time      `json:"last_payment"`
	PaymentCount     int             `json:"payment_count"`
}

// LegacyHistory lists legacy-source students with lifetime attendance and
// payment aggregates. Each aggregate is pre-collapsed to one row per student
// in its own CTE before the final join, so group memberships can never
// multiply attendance or payment rows.
func (r *StudentRepository) LegacyHistory(ctx context.Context, search string, groupID int64, limit, offset int) ([]LegacyHistoryRow, int, error) {
	conds := []string{`s.source = 'legacy'`}
	args := []any{}
	idx := 1

	if search != "" {
		conds = append(conds, fmt.Sprintf(
			`(s.first_name ILIKE $%[1]d OR s.last_name ILIKE $%[1]d OR s.email ILIKE $%[1]d)`, idx))
		args = append(args, "%"+search+"%")
		idx++
	}
	if groupID != 0 {
		conds = append(conds, fmt.Sprintf(
			`EXISTS(SELECT 1 FROM student_groups sg5 WHERE sg5.student_id = s.id AND sg5.group_id = $%d)`, idx))
		args = append(args, groupID)
		idx++
	}

	where := "WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(DISTINCT s.id)::int FROM students s %s`, where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count history: %w", err)
	}

	query := fmt.Sprintf(`
		WITH grp_agg AS (
			SELECT sg.student_id,
				COALESCE(json_agg(jsonb_build_object('group_id', sg.group_id, 'group_name', g.name))
					FILTER (WHERE sg.group_id IS NOT NULL), '[]') AS groups
			FROM (SELECT DISTINCT student_id, group_id FROM student_groups) sg
			LEFT JOIN groups g ON g.id = sg.group_id
			GROUP BY sg.student_id
		),
		att_agg AS (
			SELECT a.student_id,
				COUNT(a.id) FILTER (WHERE a.present = true)::int AS total_attendances,
				MAX(ts.session_date) AS last_training
			FROM attendances a
			JOIN training_sessions ts ON ts.id = a.session_id
			GROUP BY a.student_id
		),
		pay_agg AS (
			SELECT lp.student_id,
				COALESCE(SUM(lp.amount), 0) AS total_paid,
				MAX(lp.paid_at) AS last_payment,
				COUNT(lp.id)::int AS payment_count
			FROM legacy_payments lp
			GROUP BY lp.student_id
		)
		SELECT
			s.id, s.legacy_id, s.first_name, s.last_name, s.email, s.phone, s.birth_year,
			s.is_active, s.source, s.registration_id, s.created_at,
			COALESCE(ga.groups, '[]')::text,
			COALESCE(aa.total_attendances, 0),
			aa.last_training,
			COALESCE(pa.total_paid, 0),
			pa.last_payment,
			COALESCE(pa.payment_count, 0)
		FROM students s
		LEFT JOIN grp_agg ga ON ga.student_id = s.id
		LEFT JOIN att_agg aa ON aa.student_id = s.id
		LEFT JOIN pay_agg pa ON pa.student_id = s.id
		%s
		ORDER BY s.last_name, s.first_name
		LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var result []LegacyHistoryRow
	for rows.Next() {
		var row LegacyHistoryRow
		var groupsJSON string
		err := rows.Scan(
			&row.ID, &row.LegacyID, &row.FirstName, &row.LastName, &row.Email, &row.Phone, &row.BirthYear,
			&row.IsActive, &row.Source, &row.RegistrationID, &row.CreatedAt,
			&groupsJSON,
			&row.TotalAttendances,
			&row.LastTraining,
			&row.TotalPaid,
			&row.LastPayment,
			&row.PaymentCount,
		)
		if err != nil {
			return nil, 0, err
		}
		row.Groups = json.RawMessage(groupsJSON)
		result = append(result, row)
	}

	return result, total, rows.Err()
}

// AttendanceHistory returns a student's recent attendance rows, newest first
func (r *StudentRepository) AttendanceHistory(ctx context.Context, studentID int64, limit int) ([]models.AttendanceHistoryRow, error) {
	query := `
		SELECT a.id, a.present, a.diff_group,
		       ts.id, ts.session_date,
		       g.name
		FROM attendances a
		JOIN training_sessions ts ON ts.id = a.session_id
		LEFT JOIN groups g ON g.id = ts.group_id
		WHERE a.student_id = $1
		ORDER BY ts.session_date DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.AttendanceHistoryRow
	for rows.Next() {
		var row models.AttendanceHistoryRow
		err := rows.Scan(&row.ID, &row.Present, &row.DiffGroup, &row.SessionID, &row.SessionDate, &row.GroupName)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// SetAttendancePresent is the admin correction of a single attendance row
func (r *StudentRepository) SetAttendancePresent(ctx context.Context, attendanceID int64, present bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE attendances SET present = $1 WHERE id = $2`, present, attendanceID)
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
