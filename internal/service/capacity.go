package service

import (
	"context"

	"saggita/internal/apperrors"
	"saggita/internal/models"
	"saggita/internal/repository"
)

type groupReader interface {
	GetByID(ctx context.Context, id int64) (*models.Group, error)
	Occupancy(ctx context.Context, groupID int64) (int, error)
	ListWithOccupancy(ctx context.Context, activeOnly bool) ([]models.GroupOccupancy, error)
	ListActiveSchedules(ctx context.Context) ([]models.Schedule, error)
}

// CapacityService answers "does this group have room". Intake does not call
// it (admit vs. waitlist is decided inside the intake transaction under a
// row lock) but the admin panel and catalog use the same rule through it.
type CapacityService struct {
	groups groupReader
}

func NewCapacityService(groups groupReader) *CapacityService {
	return &CapacityService{groups: groups}
}

// Evaluate returns the current occupancy verdict for a group. A group closed
// via its notes has no room regardless of numbers; nil capacity means
// unlimited.
func (s *CapacityService) Evaluate(ctx context.Context, groupID int64) (*models.CapacityResult, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, apperrors.ErrNotFound
	}

	occupied, err := s.groups.Occupancy(ctx, groupID)
	if err != nil {
		return nil, err
	}

	hasRoom := !repository.GroupClosed(group.Notes) &&
		(group.MaxCapacity == nil || occupied < *group.MaxCapacity)

	return &models.CapacityResult{
		Occupied: occupied,
		Capacity: group.MaxCapacity,
		HasRoom:  hasRoom,
	}, nil
}

// ListGroups is the admin group listing with live occupant counts
func (s *CapacityService) ListGroups(ctx context.Context, activeOnly bool) ([]models.GroupOccupancy, error) {
	return s.groups.ListWithOccupancy(ctx, activeOnly)
}
