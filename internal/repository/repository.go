package repository

import (
	"saggita/internal/database"
)

type Repositories struct {
	Locations     *LocationRepository
	Groups        *GroupRepository
	Students      *StudentRepository
	Registrations *RegistrationRepository
	Sessions      *SessionRepository
	Payments      *LegacyPaymentRepository
	Plans         *PlanRepository
	Staff         *StaffRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Locations:     NewLocationRepository(db),
		Groups:        NewGroupRepository(db),
		Students:      NewStudentRepository(db),
		Registrations: NewRegistrationRepository(db),
		Sessions:      NewSessionRepository(db),
		Payments:      NewLegacyPaymentRepository(db),
		Plans:         NewPlanRepository(db),
		Staff:         NewStaffRepository(db),
	}
}
