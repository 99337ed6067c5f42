package repository

import (
	"context"
	"database/sql"
	"strings"

	"saggita/internal/database"
	"saggita/internal/models"
)

type GroupRepository struct {
	db *database.DB
}

func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// occupancyQuery computes group occupancy as two isolated sub-aggregates:
// distinct legacy students with an active membership plus distinct admitted
// web registrations. The halves are never joined before counting: a flat
// join across memberships and registrations multiplies rows and corrupts
// the count.
const occupancyQuery = `
	SELECT
		(SELECT COUNT(DISTINCT sg.student_id)
		 FROM student_groups sg
		 WHERE sg.group_id = $1 AND sg.active = true)
		+
		(SELECT COUNT(DISTINCT r.id)
		 FROM registrations r
		 WHERE r.group_id = $1
		   AND r.status <> 'cancelled'
		   AND r.is_waitlist = false)`

// GroupClosed reports whether a group's notes flag it as closed for
// enrollment. A closed group has zero remaining room regardless of its
// numeric capacity.
func GroupClosed(notes *string) bool {
	if notes == nil {
		return false
	}
	lowered := strings.ToLower(*notes)
	return strings.Contains(lowered, "closed") || strings.Contains(lowered, "zamkni")
}

func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	group := &models.Group{}
	query := `
		SELECT id, location_id, name, category, age_range, max_capacity, notes, active
		FROM groups
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.LocationID,
		&group.Name,
		&group.Category,
		&group.AgeRange,
		&group.MaxCapacity,
		&group.Notes,
		&group.Active,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return group, err
}

// Occupancy returns the deduplicated two-source occupant count of a group
func (r *GroupRepository) Occupancy(ctx context.Context, groupID int64) (int, error) {
	var occupied int
	err := r.db.QueryRowContext(ctx, occupancyQuery, groupID).Scan(&occupied)
	return occupied, err
}

// ListWithOccupancy returns groups with their occupant counts. Each count is
// a correlated scalar sub-select, one row per group by construction.
func (r *GroupRepository) ListWithOccupancy(ctx context.Context, activeOnly bool) ([]models.GroupOccupancy, error) {
	query := `
		SELECT
			g.id, g.location_id, g.name, g.category, g.age_range,
			g.max_capacity, g.notes, g.active,
			(SELECT COUNT(DISTINCT sg.student_id)
			 FROM student_groups sg
			 WHERE sg.group_id = g.id AND sg.active = true)
			+
			(SELECT COUNT(DISTINCT r.id)
			 FROM registrations r
			 WHERE r.group_id = g.id
			   AND r.status <> 'cancelled'
			   AND r.is_waitlist = false) AS registered
		FROM groups g`
	if activeOnly {
		query += `
		WHERE g.active = true`
	}
	query += `
		ORDER BY g.name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.GroupOccupancy
	for rows.Next() {
		var g models.GroupOccupancy
		err := rows.Scan(
			&g.ID,
			&g.LocationID,
			&g.Name,
			&g.Category,
			&g.AgeRange,
			&g.MaxCapacity,
			&g.Notes,
			&g.Active,
			&g.Registered,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}

	return result, rows.Err()
}

// ListActiveSchedules returns active weekly slots for the public catalog
func (r *GroupRepository) ListActiveSchedules(ctx context.Context) ([]models.Schedule, error) {
	query := `
		SELECT id, group_id, day_of_week, day_name, time_label, address, active
		FROM schedules
		WHERE active = true
		ORDER BY day_of_week, time_start`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		var s models.Schedule
		err := rows.Scan(
			&s.ID,
			&s.GroupID,
			&s.DayOfWeek,
			&s.DayName,
			&s.TimeLabel,
			&s.Address,
			&s.Active,
		)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}

	return schedules, rows.Err()
}
