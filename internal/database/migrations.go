package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createLocationsTable,
		createGroupsTable,
		createSchedulesTable,
		createPricePlansTable,
		createStaffTable,
		createInstructorGroupsTable,
		createRegistrationsTable,
		createStudentsTable,
		createStudentGroupsTable,
		createTrainingSessionsTable,
		createAttendancesTable,
		createLegacyPaymentsTable,
		createRosterIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createLocationsTable = `
CREATE TABLE IF NOT EXISTS locations (
    id SERIAL PRIMARY KEY,
    city VARCHAR(100) NOT NULL,
    name VARCHAR(200),
    slug VARCHAR(100) UNIQUE,
    address VARCHAR(300),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    sort_order INTEGER NOT NULL DEFAULT 0
);`

const createGroupsTable = `
CREATE TABLE IF NOT EXISTS groups (
    id SERIAL PRIMARY KEY,
    location_id INTEGER REFERENCES locations(id),
    name VARCHAR(200) NOT NULL,
    category VARCHAR(50),
    age_range VARCHAR(50),
    max_capacity INTEGER,
    notes TEXT,
    active BOOLEAN NOT NULL DEFAULT TRUE
);`

const createSchedulesTable = `
CREATE TABLE IF NOT EXISTS schedules (
    id SERIAL PRIMARY KEY,
    group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
    day_of_week INTEGER NOT NULL,
    day_name VARCHAR(20),
    time_start TIME,
    time_end TIME,
    time_label VARCHAR(50),
    address VARCHAR(300),
    active BOOLEAN NOT NULL DEFAULT TRUE
);`

const createPricePlansTable = `
CREATE TABLE IF NOT EXISTS price_plans (
    id SERIAL PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    price DECIMAL(10,2) NOT NULL,
    signup_fee DECIMAL(10,2) NOT NULL DEFAULT 0,
    active BOOLEAN NOT NULL DEFAULT TRUE
);`

const createStaffTable = `
CREATE TABLE IF NOT EXISTS staff (
    id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'instructor',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (role IN ('admin', 'instructor'))
);`

const createInstructorGroupsTable = `
CREATE TABLE IF NOT EXISTS instructor_groups (
    id SERIAL PRIMARY KEY,
    instructor_id INTEGER NOT NULL REFERENCES staff(id) ON DELETE CASCADE,
    group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,

    UNIQUE(instructor_id, group_id)
);`

const createRegistrationsTable = `
CREATE TABLE IF NOT EXISTS registrations (
    id SERIAL PRIMARY KEY,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL,
    phone VARCHAR(50) NOT NULL,
    birth_year INTEGER,
    is_new BOOLEAN NOT NULL DEFAULT TRUE,
    group_id INTEGER NOT NULL REFERENCES groups(id),
    schedule_id INTEGER REFERENCES schedules(id),
    price_plan_id INTEGER REFERENCES price_plans(id),
    location_id INTEGER REFERENCES locations(id),
    start_date DATE,
    preferred_time VARCHAR(50),
    is_waitlist BOOLEAN NOT NULL DEFAULT FALSE,
    status VARCHAR(20) NOT NULL DEFAULT 'new',
    payment_status VARCHAR(20) NOT NULL DEFAULT 'unpaid',
    payment_method VARCHAR(20) NOT NULL DEFAULT 'transfer',
    payment_ref VARCHAR(20) UNIQUE NOT NULL,
    total_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
    source VARCHAR(20) NOT NULL DEFAULT 'web',
    consent_data BOOLEAN NOT NULL DEFAULT FALSE,
    consent_rules BOOLEAN NOT NULL DEFAULT FALSE,
    has_membership BOOLEAN NOT NULL DEFAULT FALSE,
    action VARCHAR(30),
    action_at TIMESTAMP,
    admin_notes TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('new', 'confirmed', 'waitlist', 'cancelled')),
    CHECK (payment_status IN ('unpaid', 'waived', 'paid'))
);`

const createStudentsTable = `
CREATE TABLE IF NOT EXISTS students (
    id SERIAL PRIMARY KEY,
    legacy_id INTEGER,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    email VARCHAR(255),
    phone VARCHAR(50),
    birth_year INTEGER,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    source VARCHAR(20) NOT NULL DEFAULT 'manual',
    registration_id INTEGER REFERENCES registrations(id),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (source IN ('legacy', 'manual', 'web'))
);`

const createStudentGroupsTable = `
CREATE TABLE IF NOT EXISTS student_groups (
    id SERIAL PRIMARY KEY,
    student_id INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
    active BOOLEAN NOT NULL DEFAULT TRUE,

    UNIQUE(student_id, group_id)
);`

const createTrainingSessionsTable = `
CREATE TABLE IF NOT EXISTS training_sessions (
    id SERIAL PRIMARY KEY,
    group_id INTEGER NOT NULL REFERENCES groups(id),
    session_date DATE NOT NULL,
    notes TEXT,
    created_by INTEGER REFERENCES staff(id),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE(group_id, session_date)
);`

const createAttendancesTable = `
CREATE TABLE IF NOT EXISTS attendances (
    id SERIAL PRIMARY KEY,
    session_id INTEGER NOT NULL REFERENCES training_sessions(id) ON DELETE CASCADE,
    student_id INTEGER NOT NULL REFERENCES students(id),
    present BOOLEAN NOT NULL DEFAULT FALSE,
    diff_group BOOLEAN NOT NULL DEFAULT FALSE,
    marked_by INTEGER REFERENCES staff(id),

    UNIQUE(session_id, student_id)
);`

const createLegacyPaymentsTable = `
CREATE TABLE IF NOT EXISTS legacy_payments (
    id SERIAL PRIMARY KEY,
    legacy_id INTEGER,
    student_id INTEGER NOT NULL REFERENCES students(id),
    amount DECIMAL(10,2) NOT NULL,
    paid_at DATE,
    note TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createRosterIndexes = `
CREATE INDEX IF NOT EXISTS registrations_group_idx ON registrations (group_id);
CREATE INDEX IF NOT EXISTS registrations_payment_ref_idx ON registrations (payment_ref);
CREATE INDEX IF NOT EXISTS student_groups_group_idx ON student_groups (group_id);
CREATE INDEX IF NOT EXISTS attendances_student_idx ON attendances (student_id);
CREATE INDEX IF NOT EXISTS attendances_session_idx ON attendances (session_id);
CREATE INDEX IF NOT EXISTS training_sessions_group_date_idx ON training_sessions (group_id, session_date);
CREATE INDEX IF NOT EXISTS legacy_payments_student_idx ON legacy_payments (student_id);`
