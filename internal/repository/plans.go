package repository

import (
	"context"
	"database/sql"

	"saggita/internal/database"
	"saggita/internal/models"
)

type PlanRepository struct {
	db *database.DB
}

func NewPlanRepository(db *database.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*models.PricePlan, error) {
	p := &models.PricePlan{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, price, signup_fee, active FROM price_plans WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.SignupFee, &p.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *PlanRepository) ListActive(ctx context.Context) ([]models.PricePlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price, signup_fee, active FROM price_plans WHERE active = true ORDER BY price`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []models.PricePlan
	for rows.Next() {
		var p models.PricePlan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.SignupFee, &p.Active); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}

	return plans, rows.Err()
}
