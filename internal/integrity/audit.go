package integrity

import (
	"context"
	"fmt"

	"saggita/internal/config"
	"saggita/internal/database"
	"saggita/internal/logger"
)

// Finding is one data consistency violation found by the audit
type Finding struct {
	Check   string
	Detail  string
	Subject int64
}

// Auditor runs read-only consistency checks over the store. It looks for
// the classes of corruption the system is designed to prevent: duplicated
// attendance, sessions without their seeded roster, groups past capacity
// and colliding payment references.
type Auditor struct {
	db *database.DB
}

func NewAuditor(db *database.DB) *Auditor {
	return &Auditor{db: db}
}

// Run executes every check and returns all findings. An empty result means
// the store is consistent.
func (a *Auditor) Run(ctx context.Context) ([]Finding, error) {
	var findings []Finding

	checks := []func(context.Context) ([]Finding, error){
		a.duplicateAttendance,
		a.duplicateSessions,
		a.unseededSessions,
		a.overCapacityGroups,
		a.duplicatePaymentRefs,
		a.orphanedRegistrationLinks,
	}
	for _, check := range checks {
		found, err := check(ctx)
		if err != nil {
			return nil, err
		}
		findings = append(findings, found...)
	}

	return findings, nil
}

// duplicateAttendance finds students with more than one attendance row in
// the same session. The unique constraint forbids this going forward; rows
// predating it can still violate.
func (a *Auditor) duplicateAttendance(ctx context.Context) ([]Finding, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT a.session_id, a.student_id, COUNT(*)::int
		FROM attendances a
		GROUP BY a.session_id, a.student_id
		HAVING COUNT(*) > 1`)
	if err != nil {
		return nil, fmt.Errorf("duplicate attendance check: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var sessionID, studentID int64
		var count int
		if err := rows.Scan(&sessionID, &studentID, &count); err != nil {
			return nil, err
		}
		findings = append(findings, Finding{
			Check:   "duplicate_attendance",
			Detail:  fmt.Sprintf("student %d has %d attendance rows in session %d", studentID, count, sessionID),
			Subject: studentID,
		})
	}
	return findings, rows.Err()
}

// duplicateSessions finds groups with more than one session on the same date
func (a *Auditor) duplicateSessions(ctx context.Context) ([]Finding, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT group_id, session_date::text, COUNT(*)::int
		FROM training_sessions
		GROUP BY group_id, session_date
		HAVING COUNT(*) > 1`)
	if err != nil {
		return nil, fmt.Errorf("duplicate session check: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var groupID int64
		var date string
		var count int
		if err := rows.Scan(&groupID, &date, &count); err != nil {
			return nil, err
		}
		findings = append(findings, Finding{
			Check:   "duplicate_session",
			Detail:  fmt.Sprintf("group %d has %d sessions on %s", groupID, count, date),
			Subject: groupID,
		})
	}
	return findings, rows.Err()
}

// unseededSessions finds sessions with no attendance rows in groups that do
// have active legacy members. Creation seeds in the same transaction, so a
// hit here means the session predates that fix.
func (a *Auditor) unseededSessions(ctx context.Context) ([]Finding, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT ts.id, ts.group_id
		FROM training_sessions ts
		WHERE NOT EXISTS(SELECT 1 FROM attendances a WHERE a.session_id = ts.id)
		  AND EXISTS(SELECT 1 FROM student_groups sg
			JOIN students s ON s.id = sg.student_id
			WHERE sg.group_id = ts.group_id AND sg.active = true AND s.is_active = true)`)
	if err != nil {
		return nil, fmt.Errorf("unseeded session check: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var sessionID, groupID int64
		if err := rows.Scan(&sessionID, &groupID); err != nil {
			return nil, err
		}
		findings = append(findings, Finding{
			Check:   "unseeded_session",
			Detail:  fmt.Sprintf("session %d in group %d has no attendance rows", sessionID, groupID),
			Subject: sessionID,
		})
	}
	return findings, rows.Err()
}

// overCapacityGroups finds groups whose deduplicated occupancy exceeds their
// capacity. Admits hold a row lock, so anything here came from manual edits.
func (a *Auditor) overCapacityGroups(ctx context.Context) ([]Finding, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT g.id, g.max_capacity,
			(SELECT COUNT(DISTINCT sg.student_id)
			 FROM student_groups sg
			 WHERE sg.group_id = g.id AND sg.active = true)
			+
			(SELECT COUNT(DISTINCT r.id)
			 FROM registrations r
			 WHERE r.group_id = g.id
			   AND r.status <> 'cancelled'
			   AND r.is_waitlist = false) AS occupied
		FROM groups g
		WHERE g.max_capacity IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("capacity check: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var groupID int64
		var capacity, occupied int
		if err := rows.Scan(&groupID, &capacity, &occupied); err != nil {
			return nil, err
		}
		if occupied > capacity {
			findings = append(findings, Finding{
				Check:   "over_capacity",
				Detail:  fmt.Sprintf("group %d holds %d occupants over capacity %d", groupID, occupied, capacity),
				Subject: groupID,
			})
		}
	}
	return findings, rows.Err()
}

func (a *Auditor) duplicatePaymentRefs(ctx context.Context) ([]Finding, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT payment_ref, COUNT(*)::int
		FROM registrations
		GROUP BY payment_ref
		HAVING COUNT(*) > 1`)
	if err != nil {
		return nil, fmt.Errorf("payment ref check: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var ref string
		var count int
		if err := rows.Scan(&ref, &count); err != nil {
			return nil, err
		}
		findings = append(findings, Finding{
			Check:  "duplicate_payment_ref",
			Detail: fmt.Sprintf("payment reference %s used by %d registrations", ref, count),
		})
	}
	return findings, rows.Err()
}

// orphanedRegistrationLinks finds web students pointing at a registration
// that no longer exists
func (a *Auditor) orphanedRegistrationLinks(ctx context.Context) ([]Finding, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT s.id, s.registration_id
		FROM students s
		WHERE s.registration_id IS NOT NULL
		  AND NOT EXISTS(SELECT 1 FROM registrations r WHERE r.id = s.registration_id)`)
	if err != nil {
		return nil, fmt.Errorf("orphan link check: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var studentID, regID int64
		if err := rows.Scan(&studentID, &regID); err != nil {
			return nil, err
		}
		findings = append(findings, Finding{
			Check:   "orphaned_registration_link",
			Detail:  fmt.Sprintf("student %d links to missing registration %d", studentID, regID),
			Subject: studentID,
		})
	}
	return findings, rows.Err()
}

// RunAudit connects to the store, runs every check and logs the findings.
// It is wired to the api binary's validate mode.
func RunAudit(cfg *config.Config) {
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	findings, err := NewAuditor(db).Run(context.Background())
	if err != nil {
		logger.Fatal("Audit failed", "error", err)
	}

	if len(findings) == 0 {
		log.Info("Audit passed, store is consistent")
		return
	}
	for _, f := range findings {
		log.Warn("Audit finding", "check", f.Check, "detail", f.Detail)
	}
	log.Error("Audit found inconsistencies", "count", len(findings))
}
