package service

import (
	"context"
	"testing"
	"time"

	"saggita/internal/apperrors"
	"saggita/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeSessionStore struct {
	sessions   map[int64]*models.SessionDetail
	registered []models.RegisteredStudent
	attendance []models.LegacyAttendanceRow

	nextID      int64
	seedCount   int
	createCalls int
	upserts     []models.AttendanceEntry
	notes       map[int64]*string
}

func (f *fakeSessionStore) CreateWithSeeding(_ context.Context, groupID int64, date time.Time, notes *string, createdBy *int64) (*models.TrainingSession, int, bool, error) {
	f.createCalls++
	for _, d := range f.sessions {
		if d.GroupID == groupID && d.SessionDate.Equal(date) {
			return &d.TrainingSession, 0, false, nil
		}
	}
	f.nextID++
	session := &models.TrainingSession{
		ID: f.nextID, GroupID: groupID, SessionDate: date, Notes: notes, CreatedBy: createdBy,
	}
	f.sessions[f.nextID] = &models.SessionDetail{TrainingSession: *session}
	return session, f.seedCount, true, nil
}

func (f *fakeSessionStore) GetDetail(_ context.Context, id int64) (*models.SessionDetail, error) {
	return f.sessions[id], nil
}

func (f *fakeSessionStore) ListByGroup(_ context.Context, _ int64, _ int) ([]models.SessionSummary, error) {
	return nil, nil
}

func (f *fakeSessionStore) AttendanceRows(_ context.Context, _ int64) ([]models.LegacyAttendanceRow, error) {
	return f.attendance, nil
}

func (f *fakeSessionStore) ListRegisteredStudents(_ context.Context, _ int64) ([]models.RegisteredStudent, error) {
	return f.registered, nil
}

func (f *fakeSessionStore) UpsertAttendance(_ context.Context, _ int64, entry models.AttendanceEntry, _ *int64) error {
	f.upserts = append(f.upserts, entry)
	return nil
}

func (f *fakeSessionStore) UpdateNotes(_ context.Context, sessionID int64, notes *string) error {
	if f.notes == nil {
		f.notes = map[int64]*string{}
	}
	f.notes[sessionID] = notes
	return nil
}

type fakeAccess struct {
	assignments map[int64][]int64 // staff -> groups
}

func (f *fakeAccess) InstructorHasGroup(_ context.Context, staffID, groupID int64) (bool, error) {
	for _, g := range f.assignments[staffID] {
		if g == groupID {
			return true, nil
		}
	}
	return false, nil
}

func admin() *models.Staff {
	return &models.Staff{ID: 1, Role: models.RoleAdmin}
}

func instructor(id int64) *models.Staff {
	return &models.Staff{ID: id, Role: models.RoleInstructor}
}

func newSessionFixture() (*SessionService, *fakeSessionStore) {
	store := &fakeSessionStore{sessions: map[int64]*models.SessionDetail{}, seedCount: 12}
	access := &fakeAccess{assignments: map[int64][]int64{5: {1}}}
	return NewSessionService(store, access), store
}

func TestCreateSession_SeedsAndIsIdempotent(t *testing.T) {
	svc, store := newSessionFixture()

	req := &models.CreateSessionRequest{GroupID: 1, SessionDate: "2026-03-02"}

	first, err := svc.CreateSession(context.Background(), admin(), req)
	assert.NoError(t, err)
	assert.Equal(t, 12, first.StudentsSeeded)

	// Same group and date resolves to the same session, nothing re-seeded
	second, err := svc.CreateSession(context.Background(), admin(), req)
	assert.NoError(t, err)
	assert.Equal(t, first.Session.ID, second.Session.ID)
	assert.Equal(t, 0, second.StudentsSeeded)
	assert.Equal(t, 2, store.createCalls)
}

func TestCreateSession_BadDate(t *testing.T) {
	svc, _ := newSessionFixture()

	_, err := svc.CreateSession(context.Background(), admin(), &models.CreateSessionRequest{
		GroupID: 1, SessionDate: "02.03.2026",
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateSession_InstructorAccess(t *testing.T) {
	svc, _ := newSessionFixture()

	// Instructor 5 is assigned to group 1 but not group 2
	_, err := svc.CreateSession(context.Background(), instructor(5), &models.CreateSessionRequest{
		GroupID: 1, SessionDate: "2026-03-02",
	})
	assert.NoError(t, err)

	_, err = svc.CreateSession(context.Background(), instructor(5), &models.CreateSessionRequest{
		GroupID: 2, SessionDate: "2026-03-02",
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRecordAttendance_SkipsEmptyEntries(t *testing.T) {
	svc, store := newSessionFixture()

	created, err := svc.CreateSession(context.Background(), admin(), &models.CreateSessionRequest{
		GroupID: 1, SessionDate: "2026-03-02",
	})
	assert.NoError(t, err)

	resp, err := svc.RecordAttendance(context.Background(), admin(), created.Session.ID, &models.RecordAttendanceRequest{
		Attendances: []models.AttendanceEntry{
			{StudentID: 11, Present: true},
			{StudentID: 0, Present: true}, // malformed row from the form
			{StudentID: 12, Present: false, DiffGroup: true},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, resp.Updated)
	assert.Len(t, store.upserts, 2)
}

func TestRecordAttendance_UpdatesNotes(t *testing.T) {
	svc, store := newSessionFixture()

	created, err := svc.CreateSession(context.Background(), admin(), &models.CreateSessionRequest{
		GroupID: 1, SessionDate: "2026-03-02",
	})
	assert.NoError(t, err)

	notes := "sparingi w parach"
	_, err = svc.RecordAttendance(context.Background(), admin(), created.Session.ID, &models.RecordAttendanceRequest{
		SessionNotes: &notes,
	})
	assert.NoError(t, err)
	assert.Equal(t, &notes, store.notes[created.Session.ID])
}

func TestRecordAttendance_UnknownSession(t *testing.T) {
	svc, _ := newSessionFixture()

	_, err := svc.RecordAttendance(context.Background(), admin(), 999, &models.RecordAttendanceRequest{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSessionAttendance_ReturnsBothRosters(t *testing.T) {
	svc, store := newSessionFixture()
	store.attendance = []models.LegacyAttendanceRow{{StudentID: 11, Present: true}}
	store.registered = []models.RegisteredStudent{{RegistrationID: 7, PaymentStatus: models.PaymentPaid}}

	created, err := svc.CreateSession(context.Background(), admin(), &models.CreateSessionRequest{
		GroupID: 1, SessionDate: "2026-03-02",
	})
	assert.NoError(t, err)

	resp, err := svc.SessionAttendance(context.Background(), admin(), created.Session.ID)
	assert.NoError(t, err)
	assert.Len(t, resp.Legacy, 1)
	assert.Len(t, resp.Registered, 1)
}
