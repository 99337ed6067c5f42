package service

import (
	"context"
	"testing"
	"time"

	"saggita/internal/apperrors"
	"saggita/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeLifecycleRegs struct {
	regs map[int64]*models.Registration

	actions       map[int64]string
	paymentStatus map[int64]string
	promoted      []int64
	promoteErr    error
	statusPatches int
}

func newFakeLifecycleRegs() *fakeLifecycleRegs {
	return &fakeLifecycleRegs{
		regs:          map[int64]*models.Registration{},
		actions:       map[int64]string{},
		paymentStatus: map[int64]string{},
	}
}

func (f *fakeLifecycleRegs) GetByID(_ context.Context, id int64) (*models.Registration, error) {
	return f.regs[id], nil
}

func (f *fakeLifecycleRegs) GetByPaymentRef(_ context.Context, ref string) (*models.Registration, error) {
	for _, reg := range f.regs {
		if reg.PaymentRef == ref {
			return reg, nil
		}
	}
	return nil, nil
}

func (f *fakeLifecycleRegs) List(_ context.Context, _ int64, _ string, _, _ int) ([]models.Registration, error) {
	return nil, nil
}

func (f *fakeLifecycleRegs) UpdateStatus(_ context.Context, id int64, status, paymentStatus, adminNotes *string) error {
	f.statusPatches++
	reg := f.regs[id]
	if reg == nil {
		return apperrors.ErrNotFound
	}
	if status != nil {
		reg.Status = *status
	}
	if paymentStatus != nil {
		reg.PaymentStatus = *paymentStatus
	}
	if adminNotes != nil {
		reg.AdminNotes = adminNotes
	}
	return nil
}

func (f *fakeLifecycleRegs) Promote(_ context.Context, id int64) (*models.Registration, error) {
	if f.promoteErr != nil {
		return nil, f.promoteErr
	}
	f.promoted = append(f.promoted, id)
	reg := f.regs[id]
	reg.IsWaitlist = false
	reg.Status = models.RegStatusConfirmed
	return reg, nil
}

func (f *fakeLifecycleRegs) RecordAction(_ context.Context, id int64, action string) error {
	f.actions[id] = action
	return nil
}

func (f *fakeLifecycleRegs) SetPaymentStatus(_ context.Context, id int64, status string) error {
	f.paymentStatus[id] = status
	f.regs[id].PaymentStatus = status
	return nil
}

func lifecycleFixture() (*LifecycleService, *fakeLifecycleRegs, *fakePublisher) {
	regs := newFakeLifecycleRegs()
	regs.regs[1] = &models.Registration{
		ID: 1, PaymentRef: "KM-ABCDEF", FirstName: "Jan", LastName: "Kowalski",
		Email: "jan@example.com", Status: models.RegStatusNew,
		PaymentStatus: models.PaymentUnpaid, TotalAmount: 269,
	}
	publisher := &fakePublisher{}
	return NewLifecycleService(regs, publisher), regs, publisher
}

func TestAddBusinessDays(t *testing.T) {
	// Friday 2026-03-06 + 3 business days = Wednesday 2026-03-11
	friday := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-11", addBusinessDays(friday, 3).Format("2006-01-02"))

	// Monday + 3 business days = Thursday
	monday := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-05", addBusinessDays(monday, 3).Format("2006-01-02"))

	// Saturday start still lands on a weekday
	saturday := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	due := addBusinessDays(saturday, 3)
	assert.NotEqual(t, time.Saturday, due.Weekday())
	assert.NotEqual(t, time.Sunday, due.Weekday())
}

func TestFinalizeAction_DownloadDocSetsDueDate(t *testing.T) {
	svc, regs, publisher := lifecycleFixture()

	resp, err := svc.FinalizeAction(context.Background(), &models.FinalizeActionRequest{
		PaymentRef: "KM-ABCDEF", Action: models.ActionDownloadDoc,
	})
	assert.NoError(t, err)
	assert.True(t, resp.OK)
	assert.NotNil(t, resp.DueDate)
	assert.Equal(t, models.ActionDownloadDoc, regs.actions[1])

	assert.Equal(t, []string{models.EventActionSubmitted}, publisher.subjects)
	event := publisher.payloads[0].(models.ActionSubmittedEvent)
	assert.Equal(t, resp.DueDate, event.DueDate)
}

func TestFinalizeAction_PaymentConfirmedSettles(t *testing.T) {
	svc, regs, _ := lifecycleFixture()

	resp, err := svc.FinalizeAction(context.Background(), &models.FinalizeActionRequest{
		PaymentRef: "KM-ABCDEF", Action: models.ActionPaymentConfirmed,
	})
	assert.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Nil(t, resp.DueDate)
	assert.Equal(t, models.PaymentPaid, regs.regs[1].PaymentStatus)

	// Resubmission is harmless and does not reset anything
	_, err = svc.FinalizeAction(context.Background(), &models.FinalizeActionRequest{
		PaymentRef: "KM-ABCDEF", Action: models.ActionPaymentConfirmed,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, regs.regs[1].PaymentStatus)
}

func TestFinalizeAction_Validation(t *testing.T) {
	svc, _, _ := lifecycleFixture()

	_, err := svc.FinalizeAction(context.Background(), &models.FinalizeActionRequest{
		PaymentRef: "", Action: models.ActionPayOnline,
	})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.FinalizeAction(context.Background(), &models.FinalizeActionRequest{
		PaymentRef: "KM-ABCDEF", Action: "delete_everything",
	})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.FinalizeAction(context.Background(), &models.FinalizeActionRequest{
		PaymentRef: "KM-MISSING", Action: models.ActionPayOnline,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStatus_Lookup(t *testing.T) {
	svc, _, _ := lifecycleFixture()

	resp, err := svc.Status(context.Background(), "KM-ABCDEF")
	assert.NoError(t, err)
	assert.Equal(t, "Jan", resp.FirstName)
	assert.Equal(t, models.RegStatusNew, resp.Status)
	assert.Equal(t, 269.0, resp.TotalAmount)

	_, err = svc.Status(context.Background(), "KM-NOPE")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAdminUpdate_PromotesThroughCapacityCheck(t *testing.T) {
	svc, regs, _ := lifecycleFixture()
	regs.regs[1].IsWaitlist = true
	regs.regs[1].Status = models.RegStatusWaitlist

	updated, err := svc.AdminUpdate(context.Background(), 1, &models.UpdateRegistrationRequest{
		IsWaitlist: boolp(false),
	})
	assert.NoError(t, err)
	assert.False(t, updated.IsWaitlist)
	assert.Equal(t, models.RegStatusConfirmed, updated.Status)
	assert.Equal(t, []int64{1}, regs.promoted)
}

func TestAdminUpdate_PromotionFailsWhenFull(t *testing.T) {
	svc, regs, _ := lifecycleFixture()
	regs.regs[1].IsWaitlist = true
	regs.promoteErr = apperrors.ErrCapacityExceeded

	_, err := svc.AdminUpdate(context.Background(), 1, &models.UpdateRegistrationRequest{
		IsWaitlist: boolp(false),
	})
	assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)
	assert.True(t, regs.regs[1].IsWaitlist, "failed promotion leaves the flag untouched")
}

func TestAdminUpdate_PublishesPaymentOverride(t *testing.T) {
	svc, regs, publisher := lifecycleFixture()

	_, err := svc.AdminUpdate(context.Background(), 1, &models.UpdateRegistrationRequest{
		PaymentStatus: strp(models.PaymentPaid),
	})
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, regs.regs[1].PaymentStatus)
	assert.Equal(t, []string{models.EventPaymentStatusSet}, publisher.subjects)
}

func TestAdminUpdate_UnknownRegistration(t *testing.T) {
	svc, _, _ := lifecycleFixture()

	_, err := svc.AdminUpdate(context.Background(), 99, &models.UpdateRegistrationRequest{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
