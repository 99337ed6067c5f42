package service

import (
	"context"
	"testing"
	"time"

	"saggita/internal/apperrors"
	"saggita/internal/models"
	"saggita/internal/repository"

	"github.com/stretchr/testify/assert"
)

type fakeStudentStore struct {
	students map[int64]*models.Student
	page     *models.RosterPage
	detail   *models.StudentDetail

	attendances map[int64]int
	payments    map[int64]int

	lastFilters   models.RosterFilters
	lastSearchIDs []int64
	deactivated   []int64
	deleted       []int64
}

func (f *fakeStudentStore) GetByID(_ context.Context, id int64) (*models.Student, error) {
	return f.students[id], nil
}

func (f *fakeStudentStore) Create(_ context.Context, s *models.Student, _ *int64) error {
	s.ID = int64(len(f.students) + 1)
	f.students[s.ID] = s
	return nil
}

func (f *fakeStudentStore) Update(_ context.Context, id int64, req *models.UpdateStudentRequest) error {
	if f.students[id] == nil {
		return apperrors.ErrNotFound
	}
	if req.FirstName != nil {
		f.students[id].FirstName = *req.FirstName
	}
	return nil
}

func (f *fakeStudentStore) HistoryCounts(_ context.Context, id int64) (int, int, error) {
	return f.attendances[id], f.payments[id], nil
}

func (f *fakeStudentStore) Deactivate(_ context.Context, id int64) error {
	f.deactivated = append(f.deactivated, id)
	f.students[id].IsActive = false
	return nil
}

func (f *fakeStudentStore) HardDelete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	delete(f.students, id)
	return nil
}

func (f *fakeStudentStore) ListRoster(_ context.Context, filters models.RosterFilters, _ time.Time, _, _ int, searchIDs []int64) (*models.RosterPage, error) {
	f.lastFilters = filters
	f.lastSearchIDs = searchIDs
	return f.page, nil
}

func (f *fakeStudentStore) GetRosterDetail(_ context.Context, _ int64, _ time.Time, _ int) (*models.StudentDetail, error) {
	return f.detail, nil
}

func (f *fakeStudentStore) LegacyHistory(_ context.Context, _ string, _ int64, _, _ int) ([]repository.LegacyHistoryRow, int, error) {
	return nil, 0, nil
}

func (f *fakeStudentStore) AttendanceHistory(_ context.Context, _ int64, _ int) ([]models.AttendanceHistoryRow, error) {
	return nil, nil
}

func (f *fakeStudentStore) SetAttendancePresent(_ context.Context, _ int64, _ bool) error {
	return nil
}

type fakeRegReader struct {
	regs map[int64]*models.Registration
}

func (f *fakeRegReader) GetByID(_ context.Context, id int64) (*models.Registration, error) {
	return f.regs[id], nil
}

type fakePaymentStore struct {
	legacy  map[int64][]models.LegacyPayment
	charges map[int64][]models.RegistrationCharge
	created []models.LegacyPayment
}

func (f *fakePaymentStore) ListByStudent(_ context.Context, studentID int64) ([]models.LegacyPayment, error) {
	return f.legacy[studentID], nil
}

func (f *fakePaymentStore) Create(_ context.Context, studentID int64, amount float64, paidAt *time.Time, note *string) (*models.LegacyPayment, error) {
	p := models.LegacyPayment{ID: int64(len(f.created) + 1), StudentID: studentID, Amount: amount, PaidAt: paidAt, Note: note}
	f.created = append(f.created, p)
	return &p, nil
}

func (f *fakePaymentStore) Update(_ context.Context, _ int64, _ *models.UpdatePaymentRequest, _ *time.Time) error {
	return nil
}

func (f *fakePaymentStore) Delete(_ context.Context, _ int64) error {
	return nil
}

func (f *fakePaymentStore) RegistrationCharges(_ context.Context, studentID int64) ([]models.RegistrationCharge, error) {
	return f.charges[studentID], nil
}

type fakeSearcher struct {
	ids     []int64
	err     error
	indexed []int64
}

func (f *fakeSearcher) SearchStudentIDs(_ context.Context, _ string, _ int) ([]int64, error) {
	return f.ids, f.err
}

func (f *fakeSearcher) IndexStudent(_ context.Context, s *models.Student) error {
	f.indexed = append(f.indexed, s.ID)
	return nil
}

func rosterFixture(searcher Searcher) (*RosterService, *fakeStudentStore, *fakePaymentStore) {
	students := &fakeStudentStore{
		students:    map[int64]*models.Student{},
		attendances: map[int64]int{},
		payments:    map[int64]int{},
		page:        &models.RosterPage{Rows: []models.RosterRow{}},
	}
	payments := &fakePaymentStore{
		legacy:  map[int64][]models.LegacyPayment{},
		charges: map[int64][]models.RegistrationCharge{},
	}
	svc := NewRosterService(students, &fakeRegReader{regs: map[int64]*models.Registration{}}, payments, searcher, RosterConfig{
		SeasonStart:        time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		TrainingWindowDays: 60,
		OverduePaymentDays: 35,
	})
	return svc, students, payments
}

func TestOverdueDerivation(t *testing.T) {
	svc, _, _ := rosterFixture(nil)

	cases := []struct {
		name string
		row  models.RosterRow
		want bool
	}{
		{"inactive student", models.RosterRow{IsActive: false, PresentRecent: 3}, false},
		{"not training recently", models.RosterRow{IsActive: true, PresentRecent: 0, DaysSincePayment: intp(90)}, false},
		{"legacy never paid", models.RosterRow{IsActive: true, PresentRecent: 2}, true},
		{"legacy payment too old", models.RosterRow{IsActive: true, PresentRecent: 2, DaysSincePayment: intp(36)}, true},
		{"legacy payment current", models.RosterRow{IsActive: true, PresentRecent: 2, DaysSincePayment: intp(35)}, false},
		{"web unpaid", models.RosterRow{IsActive: true, PresentRecent: 1, RegistrationID: int64p(9), PaymentStatus: strp(models.PaymentUnpaid)}, true},
		{"web paid", models.RosterRow{IsActive: true, PresentRecent: 1, RegistrationID: int64p(9), PaymentStatus: strp(models.PaymentPaid)}, false},
		{"web waived", models.RosterRow{IsActive: true, PresentRecent: 1, RegistrationID: int64p(9), PaymentStatus: strp(models.PaymentWaived)}, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, svc.overdue(&tc.row), tc.name)
	}
}

func TestRosterList_MarksOverdueAndNormalizesPaging(t *testing.T) {
	svc, students, _ := rosterFixture(nil)
	students.page = &models.RosterPage{Rows: []models.RosterRow{
		{ID: 1, IsActive: true, PresentRecent: 2},                             // overdue: never paid
		{ID: 2, IsActive: true, PresentRecent: 2, DaysSincePayment: intp(10)}, // current
	}}

	page, err := svc.List(context.Background(), models.RosterFilters{Page: -3, Limit: 9999})
	assert.NoError(t, err)
	assert.True(t, page.Rows[0].Overdue)
	assert.False(t, page.Rows[1].Overdue)
	assert.Equal(t, 1, students.lastFilters.Page)
	assert.Equal(t, 200, students.lastFilters.Limit)
}

func TestRosterList_SearchUsesIndex(t *testing.T) {
	searcher := &fakeSearcher{ids: []int64{4, 8}}
	svc, students, _ := rosterFixture(searcher)

	_, err := svc.List(context.Background(), models.RosterFilters{Search: "kowal"})
	assert.NoError(t, err)
	assert.Equal(t, []int64{4, 8}, students.lastSearchIDs)
}

func TestRosterList_SearchFallsBackWhenIndexDown(t *testing.T) {
	searcher := &fakeSearcher{err: assert.AnError}
	svc, students, _ := rosterFixture(searcher)

	_, err := svc.List(context.Background(), models.RosterFilters{Search: "kowal"})
	assert.NoError(t, err)
	// nil means the store runs its own pattern match
	assert.Nil(t, students.lastSearchIDs)
	assert.Equal(t, "kowal", students.lastFilters.Search)
}

func TestDeleteStudent_SoftWhenHistoryExists(t *testing.T) {
	svc, students, _ := rosterFixture(nil)
	students.students[1] = &models.Student{ID: 1, IsActive: true, Source: models.SourceLegacy}
	students.attendances[1] = 14

	resp, err := svc.Delete(context.Background(), 1)
	assert.NoError(t, err)
	assert.True(t, resp.Soft)
	assert.Equal(t, []int64{1}, students.deactivated)
	assert.Empty(t, students.deleted)
	assert.NotNil(t, students.students[1], "soft delete keeps the row")
}

func TestDeleteStudent_HardWhenNoHistory(t *testing.T) {
	svc, students, _ := rosterFixture(nil)
	students.students[2] = &models.Student{ID: 2, Source: models.SourceManual}

	resp, err := svc.Delete(context.Background(), 2)
	assert.NoError(t, err)
	assert.False(t, resp.Soft)
	assert.Equal(t, []int64{2}, students.deleted)
}

func TestDeleteStudent_Unknown(t *testing.T) {
	svc, _, _ := rosterFixture(nil)

	_, err := svc.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateStudent_IndexesAndDefaults(t *testing.T) {
	searcher := &fakeSearcher{}
	svc, students, _ := rosterFixture(searcher)

	student, err := svc.Create(context.Background(), &models.CreateStudentRequest{
		FirstName: " Maria ", LastName: "Zielińska",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Maria", student.FirstName)
	assert.Equal(t, models.SourceManual, student.Source)
	assert.True(t, student.IsActive)
	assert.Equal(t, []int64{student.ID}, searcher.indexed)
	assert.NotNil(t, students.students[student.ID])
}

func TestAddPayment_Validation(t *testing.T) {
	svc, students, payments := rosterFixture(nil)
	students.students[1] = &models.Student{ID: 1}

	_, err := svc.AddPayment(context.Background(), 1, &models.CreatePaymentRequest{Amount: 0})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.AddPayment(context.Background(), 1, &models.CreatePaymentRequest{Amount: 150, Date: strp("bad")})
	assert.True(t, apperrors.IsValidation(err))

	payment, err := svc.AddPayment(context.Background(), 1, &models.CreatePaymentRequest{Amount: 150, Date: strp("2026-01-10")})
	assert.NoError(t, err)
	assert.Equal(t, 150.0, payment.Amount)
	assert.Len(t, payments.created, 1)
}

func TestStudentPayments_CombinesSources(t *testing.T) {
	svc, students, payments := rosterFixture(nil)
	students.students[1] = &models.Student{ID: 1}
	payments.legacy[1] = []models.LegacyPayment{{ID: 1, Amount: 150}}
	payments.charges[1] = []models.RegistrationCharge{{ID: 9, Amount: 269, PaymentStatus: models.PaymentUnpaid}}

	result, err := svc.Payments(context.Background(), 1)
	assert.NoError(t, err)
	assert.Len(t, result.Legacy, 1)
	assert.Len(t, result.Registrations, 1)
}
