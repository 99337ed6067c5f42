package service

import (
	"context"
	"time"

	"saggita/internal/apperrors"
	"saggita/internal/metrics"
	"saggita/internal/models"
)

type sessionStore interface {
	CreateWithSeeding(ctx context.Context, groupID int64, date time.Time, notes *string, createdBy *int64) (*models.TrainingSession, int, bool, error)
	GetDetail(ctx context.Context, id int64) (*models.SessionDetail, error)
	ListByGroup(ctx context.Context, groupID int64, limit int) ([]models.SessionSummary, error)
	AttendanceRows(ctx context.Context, sessionID int64) ([]models.LegacyAttendanceRow, error)
	ListRegisteredStudents(ctx context.Context, groupID int64) ([]models.RegisteredStudent, error)
	UpsertAttendance(ctx context.Context, sessionID int64, entry models.AttendanceEntry, markedBy *int64) error
	UpdateNotes(ctx context.Context, sessionID int64, notes *string) error
}

type accessStore interface {
	InstructorHasGroup(ctx context.Context, staffID, groupID int64) (bool, error)
}

// SessionService handles training sessions and attendance for instructors.
// Instructors only reach groups they are assigned to; admins reach all.
type SessionService struct {
	sessions sessionStore
	access   accessStore
}

func NewSessionService(sessions sessionStore, access accessStore) *SessionService {
	return &SessionService{sessions: sessions, access: access}
}

func (s *SessionService) requireGroupAccess(ctx context.Context, staff *models.Staff, groupID int64) error {
	if staff == nil {
		return apperrors.ErrForbidden
	}
	if staff.Role == models.RoleAdmin {
		return nil
	}
	ok, err := s.access.InstructorHasGroup(ctx, staff.ID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrForbidden
	}
	return nil
}

// CreateSession resolves the canonical session of a group on a date, creating
// and seeding it when it does not exist yet. Submitting the same group/date
// twice returns the same session and seeds nothing new.
func (s *SessionService) CreateSession(ctx context.Context, staff *models.Staff, req *models.CreateSessionRequest) (*models.CreateSessionResponse, error) {
	if req.GroupID <= 0 {
		return nil, apperrors.Validation("group_id", "required")
	}
	date, err := time.Parse("2006-01-02", req.SessionDate)
	if err != nil {
		return nil, apperrors.Validation("session_date", "expected YYYY-MM-DD")
	}
	if err := s.requireGroupAccess(ctx, staff, req.GroupID); err != nil {
		return nil, err
	}

	var createdBy *int64
	if staff != nil {
		createdBy = &staff.ID
	}

	session, seeded, created, err := s.sessions.CreateWithSeeding(ctx, req.GroupID, date, req.Notes, createdBy)
	if err != nil {
		return nil, err
	}
	if created {
		metrics.SessionsCreatedTotal.Inc()
		logFrom(ctx).Info("Training session created",
			"session_id", session.ID, "group_id", req.GroupID,
			"date", req.SessionDate, "students_seeded", seeded)
	}

	registered, err := s.sessions.ListRegisteredStudents(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}

	return &models.CreateSessionResponse{
		Session:            *session,
		StudentsSeeded:     seeded,
		RegisteredStudents: registered,
	}, nil
}

// SessionAttendance returns the full attendance view of a session: the
// seeded legacy roster with marks plus the group's admitted registrations.
func (s *SessionService) SessionAttendance(ctx context.Context, staff *models.Staff, sessionID int64) (*models.SessionAttendanceResponse, error) {
	detail, err := s.sessions.GetDetail(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, apperrors.ErrNotFound
	}
	if err := s.requireGroupAccess(ctx, staff, detail.GroupID); err != nil {
		return nil, err
	}

	legacy, err := s.sessions.AttendanceRows(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	registered, err := s.sessions.ListRegisteredStudents(ctx, detail.GroupID)
	if err != nil {
		return nil, err
	}

	return &models.SessionAttendanceResponse{
		Session:    *detail,
		Legacy:     legacy,
		Registered: registered,
	}, nil
}

// RecordAttendance applies a bulk attendance submission. Each entry
// overwrites the student's mark for the session; entries without a student id
// are skipped, not failed. Updated reports how many entries were applied.
func (s *SessionService) RecordAttendance(ctx context.Context, staff *models.Staff, sessionID int64, req *models.RecordAttendanceRequest) (*models.RecordAttendanceResponse, error) {
	detail, err := s.sessions.GetDetail(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, apperrors.ErrNotFound
	}
	if err := s.requireGroupAccess(ctx, staff, detail.GroupID); err != nil {
		return nil, err
	}

	var markedBy *int64
	if staff != nil {
		markedBy = &staff.ID
	}

	updated := 0
	for _, entry := range req.Attendances {
		if entry.StudentID == 0 {
			continue
		}
		if err := s.sessions.UpsertAttendance(ctx, sessionID, entry, markedBy); err != nil {
			return nil, err
		}
		updated++
	}

	if req.SessionNotes != nil {
		if err := s.sessions.UpdateNotes(ctx, sessionID, req.SessionNotes); err != nil {
			return nil, err
		}
	}

	if updated > 0 {
		metrics.AttendanceMarksTotal.Add(float64(updated))
	}
	logFrom(ctx).Info("Attendance recorded",
		"session_id", sessionID, "updated", updated)

	return &models.RecordAttendanceResponse{Updated: updated}, nil
}

// ListGroupSessions returns recent session summaries of a group
func (s *SessionService) ListGroupSessions(ctx context.Context, staff *models.Staff, groupID int64, limit int) ([]models.SessionSummary, error) {
	if err := s.requireGroupAccess(ctx, staff, groupID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.sessions.ListByGroup(ctx, groupID, limit)
}
