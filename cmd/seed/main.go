package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"saggita/internal/config"
	"saggita/internal/database"
	"saggita/internal/logger"
)

var (
	clearExisting = flag.Bool("clear", false, "Truncate roster tables before seeding")
	studentCount  = flag.Int("students", 60, "Number of legacy students to generate")
	sessionWeeks  = flag.Int("weeks", 8, "Weeks of training history to generate")
)

type seeder struct {
	db  *database.DB
	rnd *rand.Rand
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	s := &seeder{db: db, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}

	if *clearExisting {
		if err := s.clear(); err != nil {
			logger.Fatal("Failed to clear tables", "error", err)
		}
		log.Info("Existing data cleared")
	}

	if err := s.run(); err != nil {
		logger.Fatal("Seeding failed", "error", err)
	}
	log.Info("Seeding completed", "students", *studentCount, "weeks", *sessionWeeks)
}

func (s *seeder) clear() error {
	tables := []string{
		"attendances", "training_sessions", "legacy_payments", "student_groups",
		"students", "registrations", "instructor_groups", "schedules",
		"groups", "price_plans", "staff", "locations",
	}
	for _, t := range tables {
		if _, err := s.db.Exec("DELETE FROM " + t); err != nil {
			return fmt.Errorf("failed to clear %s: %w", t, err)
		}
	}
	return nil
}

func (s *seeder) run() error {
	locations, err := s.seedLocations()
	if err != nil {
		return err
	}
	groups, err := s.seedGroups(locations)
	if err != nil {
		return err
	}
	if err := s.seedSchedules(groups); err != nil {
		return err
	}
	if err := s.seedPlans(); err != nil {
		return err
	}
	if err := s.seedStaff(groups); err != nil {
		return err
	}
	students, err := s.seedStudents(groups)
	if err != nil {
		return err
	}
	if err := s.seedHistory(groups, students); err != nil {
		return err
	}
	return nil
}

func (s *seeder) seedLocations() ([]int64, error) {
	cities := []struct{ city, name string }{
		{"Warszawa", "Hala Torwar"},
		{"Kraków", "Centrum Sportu Kolna"},
	}

	var ids []int64
	for i, c := range cities {
		var id int64
		err := s.db.QueryRow(`
			INSERT INTO locations (city, name, slug, active, sort_order)
			VALUES ($1, $2, lower($1), true, $3)
			RETURNING id`, c.city, c.name, i).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to insert location: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *seeder) seedGroups(locations []int64) ([]int64, error) {
	specs := []struct {
		name     string
		capacity *int
		notes    *string
	}{
		{name: "Dorośli początkujący", capacity: intPtr(24)},
		{name: "Dorośli zaawansowani", capacity: intPtr(20)},
		{name: "Młodzież", capacity: intPtr(16)},
		{name: "Kobiety — samoobrona", capacity: nil},
		{name: "Grupa poranna", capacity: intPtr(12), notes: strPtr("closed — wraca we wrześniu")},
	}

	var ids []int64
	for i, spec := range specs {
		loc := locations[i%len(locations)]
		var id int64
		err := s.db.QueryRow(`
			INSERT INTO groups (location_id, name, category, max_capacity, notes, active)
			VALUES ($1, $2, 'krav-maga', $3, $4, true)
			RETURNING id`, loc, spec.name, spec.capacity, spec.notes).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to insert group: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *seeder) seedSchedules(groups []int64) error {
	days := []struct {
		dow  int
		name string
	}{
		{1, "poniedziałek"}, {3, "środa"}, {4, "czwartek"},
	}
	for i, groupID := range groups {
		d := days[i%len(days)]
		_, err := s.db.Exec(`
			INSERT INTO schedules (group_id, day_of_week, day_name, time_label, active)
			VALUES ($1, $2, $3, $4, true)`,
			groupID, d.dow, d.name, fmt.Sprintf("%d:00 - %d:30", 17+i%3, 18+i%3))
		if err != nil {
			return fmt.Errorf("failed to insert schedule: %w", err)
		}
	}
	return nil
}

func (s *seeder) seedPlans() error {
	plans := []struct {
		name      string
		price     float64
		signupFee float64
	}{
		{"Karnet miesięczny", 219, 50},
		{"Karnet semestralny", 990, 50},
		{"Wejście jednorazowe", 45, 0},
	}
	for _, p := range plans {
		_, err := s.db.Exec(`
			INSERT INTO price_plans (name, price, signup_fee, active)
			VALUES ($1, $2, $3, true)`, p.name, p.price, p.signupFee)
		if err != nil {
			return fmt.Errorf("failed to insert price plan: %w", err)
		}
	}
	return nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (s *seeder) seedStaff(groups []int64) error {
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	var adminID, instructorID int64
	err := s.db.QueryRow(`
		INSERT INTO staff (email, password_hash, first_name, last_name, role, is_active)
		VALUES ('admin@saggita.local', $1, 'Anna', 'Nowak', 'admin', true)
		RETURNING id`, hashPassword(adminPassword)).Scan(&adminID)
	if err != nil {
		return fmt.Errorf("failed to insert admin: %w", err)
	}

	err = s.db.QueryRow(`
		INSERT INTO staff (email, password_hash, first_name, last_name, role, is_active)
		VALUES ('trener@saggita.local', $1, 'Piotr', 'Wiśniewski', 'instructor', true)
		RETURNING id`, hashPassword("trener123")).Scan(&instructorID)
	if err != nil {
		return fmt.Errorf("failed to insert instructor: %w", err)
	}

	for _, groupID := range groups {
		_, err := s.db.Exec(`
			INSERT INTO instructor_groups (instructor_id, group_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, instructorID, groupID)
		if err != nil {
			return fmt.Errorf("failed to assign instructor: %w", err)
		}
	}
	return nil
}

var firstNames = []string{"Jan", "Piotr", "Anna", "Maria", "Tomasz", "Kasia", "Marek", "Ewa", "Adam", "Ola"}
var lastNames = []string{"Kowalski", "Nowak", "Wiśniewski", "Wójcik", "Kamiński", "Lewandowski", "Zielińska", "Szymański"}

func (s *seeder) seedStudents(groups []int64) ([]int64, error) {
	var ids []int64
	for i := 0; i < *studentCount; i++ {
		first := firstNames[s.rnd.Intn(len(firstNames))]
		last := lastNames[s.rnd.Intn(len(lastNames))]
		email := fmt.Sprintf("%s.%s.%d@example.com", first, last, i)
		legacyID := 1000 + i

		var id int64
		err := s.db.QueryRow(`
			INSERT INTO students (legacy_id, first_name, last_name, email, phone, birth_year, is_active, source)
			VALUES ($1, $2, $3, lower($4), $5, $6, $7, 'legacy')
			RETURNING id`,
			legacyID, first, last, email,
			fmt.Sprintf("+48 600 %03d %03d", s.rnd.Intn(1000), s.rnd.Intn(1000)),
			1980+s.rnd.Intn(30),
			s.rnd.Intn(10) > 0, // roughly one in ten inactive
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to insert student: %w", err)
		}

		groupID := groups[s.rnd.Intn(len(groups))]
		if _, err := s.db.Exec(`
			INSERT INTO student_groups (student_id, group_id, active)
			VALUES ($1, $2, true)
			ON CONFLICT DO NOTHING`, id, groupID); err != nil {
			return nil, fmt.Errorf("failed to insert membership: %w", err)
		}

		ids = append(ids, id)
	}
	return ids, nil
}

// seedHistory creates weekly sessions with seeded attendance and scatters
// cash payments over the students
func (s *seeder) seedHistory(groups []int64, students []int64) error {
	for _, groupID := range groups {
		for week := 0; week < *sessionWeeks; week++ {
			date := time.Now().AddDate(0, 0, -7*week)

			var sessionID int64
			err := s.db.QueryRow(`
				INSERT INTO training_sessions (group_id, session_date)
				VALUES ($1, $2)
				ON CONFLICT (group_id, session_date) DO NOTHING
				RETURNING id`, groupID, date.Format("2006-01-02")).Scan(&sessionID)
			if err != nil {
				continue // already seeded for this date
			}

			_, err = s.db.Exec(`
				INSERT INTO attendances (session_id, student_id, present, diff_group)
				SELECT $1, sg.student_id, random() < 0.75, false
				FROM student_groups sg
				WHERE sg.group_id = $2 AND sg.active = true
				ON CONFLICT DO NOTHING`, sessionID, groupID)
			if err != nil {
				return fmt.Errorf("failed to seed attendance: %w", err)
			}
		}
	}

	for _, studentID := range students {
		payments := s.rnd.Intn(4)
		for p := 0; p < payments; p++ {
			paidAt := time.Now().AddDate(0, 0, -s.rnd.Intn(120))
			_, err := s.db.Exec(`
				INSERT INTO legacy_payments (student_id, amount, paid_at, note)
				VALUES ($1, $2, $3, 'gotówka')`,
				studentID, float64(150+s.rnd.Intn(4)*25), paidAt)
			if err != nil {
				return fmt.Errorf("failed to insert payment: %w", err)
			}
		}
	}
	return nil
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
