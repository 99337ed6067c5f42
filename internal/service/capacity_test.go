package service

import (
	"context"
	"testing"

	"saggita/internal/apperrors"
	"saggita/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeGroups struct {
	groups    map[int64]*models.Group
	occupancy map[int64]int
	schedules []models.Schedule
	listed    []models.GroupOccupancy
}

func (f *fakeGroups) GetByID(_ context.Context, id int64) (*models.Group, error) {
	return f.groups[id], nil
}

func (f *fakeGroups) Occupancy(_ context.Context, groupID int64) (int, error) {
	return f.occupancy[groupID], nil
}

func (f *fakeGroups) ListWithOccupancy(_ context.Context, _ bool) ([]models.GroupOccupancy, error) {
	return f.listed, nil
}

func (f *fakeGroups) ListActiveSchedules(_ context.Context) ([]models.Schedule, error) {
	return f.schedules, nil
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }
func int64p(v int64) *int64 { return &v }
func boolp(v bool) *bool    { return &v }

func TestCapacityEvaluate_UnknownGroup(t *testing.T) {
	svc := NewCapacityService(&fakeGroups{groups: map[int64]*models.Group{}})

	_, err := svc.Evaluate(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCapacityEvaluate_LastSeat(t *testing.T) {
	groups := &fakeGroups{
		groups:    map[int64]*models.Group{1: {ID: 1, MaxCapacity: intp(10)}},
		occupancy: map[int64]int{1: 9},
	}
	svc := NewCapacityService(groups)

	result, err := svc.Evaluate(context.Background(), 1)
	assert.NoError(t, err)
	assert.True(t, result.HasRoom)
	assert.Equal(t, 9, result.Occupied)

	// One more occupant and the group is full
	groups.occupancy[1] = 10
	result, err = svc.Evaluate(context.Background(), 1)
	assert.NoError(t, err)
	assert.False(t, result.HasRoom)
}

func TestCapacityEvaluate_NilCapacityIsUnlimited(t *testing.T) {
	svc := NewCapacityService(&fakeGroups{
		groups:    map[int64]*models.Group{1: {ID: 1}},
		occupancy: map[int64]int{1: 5000},
	})

	result, err := svc.Evaluate(context.Background(), 1)
	assert.NoError(t, err)
	assert.True(t, result.HasRoom)
	assert.Nil(t, result.Capacity)
}

func TestCapacityEvaluate_ClosedGroupHasNoRoom(t *testing.T) {
	svc := NewCapacityService(&fakeGroups{
		groups: map[int64]*models.Group{
			1: {ID: 1, MaxCapacity: intp(20), Notes: strp("CLOSED until September")},
			2: {ID: 2, MaxCapacity: intp(20), Notes: strp("grupa zamknięta")},
		},
		occupancy: map[int64]int{1: 0, 2: 0},
	})

	for _, id := range []int64{1, 2} {
		result, err := svc.Evaluate(context.Background(), id)
		assert.NoError(t, err)
		assert.False(t, result.HasRoom, "group %d should be closed", id)
	}
}
