package repository

import (
	"context"
	"database/sql"

	"saggita/internal/database"
	"saggita/internal/models"
)

type LocationRepository struct {
	db *database.DB
}

func NewLocationRepository(db *database.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) GetByID(ctx context.Context, id int64) (*models.Location, error) {
	l := &models.Location{}
	query := `
		SELECT id, city, name, slug, address, active, sort_order
		FROM locations
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.City, &l.Name, &l.Slug, &l.Address, &l.Active, &l.SortOrder,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func (r *LocationRepository) ListActive(ctx context.Context) ([]models.Location, error) {
	query := `
		SELECT id, city, name, slug, address, active, sort_order
		FROM locations
		WHERE active = true
		ORDER BY sort_order, city`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var l models.Location
		err := rows.Scan(
			&l.ID,
			&l.City,
			&l.Name,
			&l.Slug,
			&l.Address,
			&l.Active,
			&l.SortOrder,
		)
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}

	return locations, rows.Err()
}
