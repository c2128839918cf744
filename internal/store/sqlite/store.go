// Package sqlite provides a SQLite-backed record store for students and scholarships.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/spigell/scholarship-matcher/internal/eligibility"
	"github.com/spigell/scholarship-matcher/internal/store"
	"github.com/spigell/scholarship-matcher/internal/store/sqlite/migrations"
)

const (
	studentColumns = `id, email, name, graduation_year, household_income, state, gpa,
	enrollment_status, major, gender, ethnicity, citizenship_status, financial_need,
	first_generation, military_affiliation, residency, community_service_hours, created_at`

	scholarshipColumns = `id, name, provider, amount, amount_type, deadline, description, url,
	renewable, renewable_conditions, tags, gpa_minimum, enrollment_status, citizenship,
	fields_of_study, requires_first_generation, requires_financial_need, required_gender,
	required_ethnicity, min_community_service_hours, allowed_military_affiliation, required_residency`
)

// Store persists student and scholarship records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Open opens a SQLite store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateStudent inserts one student. CreatedAt defaults to now.
func (s *Store) CreateStudent(ctx context.Context, st *eligibility.Student) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := insertStudent(ctx, s.sqlDB, st); err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetStudent returns one student by id.
func (s *Store) GetStudent(ctx context.Context, id string) (*eligibility.Student, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ?`, strings.TrimSpace(id))
	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return st, nil
}

// ListStudents returns all students ordered by name.
func (s *Store) ListStudents(ctx context.Context) ([]*eligibility.Student, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := make([]*eligibility.Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// PutScholarship inserts or replaces one scholarship.
func (s *Store) PutScholarship(ctx context.Context, sch *eligibility.Scholarship) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return upsertScholarship(ctx, s.sqlDB, sch)
}

// ListScholarships returns all scholarships in insertion order.
func (s *Store) ListScholarships(ctx context.Context) ([]*eligibility.Scholarship, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+scholarshipColumns+` FROM scholarships ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list scholarships: %w", err)
	}
	defer rows.Close()

	scholarships := make([]*eligibility.Scholarship, 0)
	for rows.Next() {
		sch, err := scanScholarship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scholarship: %w", err)
		}
		scholarships = append(scholarships, sch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scholarships: %w", err)
	}
	return scholarships, nil
}

// ReplaceAll clears both tables and inserts the given records in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, students []*eligibility.Student, scholarships []*eligibility.Scholarship) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"students", "scholarships"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, st := range students {
		if err := insertStudent(ctx, tx, st); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("student %s: %w", st.ID, store.ErrAlreadyExists)
			}
			return err
		}
	}
	for _, sch := range scholarships {
		if err := upsertScholarship(ctx, tx, sch); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func insertStudent(ctx context.Context, db execer, st *eligibility.Student) error {
	if st == nil {
		return fmt.Errorf("student is required")
	}
	id := strings.TrimSpace(st.ID)
	if id == "" {
		return fmt.Errorf("student id is required")
	}
	ethnicity, err := encodeSet(st.Ethnicity)
	if err != nil {
		return err
	}
	createdAt := st.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var income sql.NullFloat64
	if st.HouseholdIncome != nil {
		income = sql.NullFloat64{Float64: *st.HouseholdIncome, Valid: true}
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO students (`+studentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		st.Email,
		st.Name,
		st.GraduationYear,
		income,
		st.State,
		st.GPA,
		st.EnrollmentStatus,
		st.Major,
		st.Gender,
		ethnicity,
		st.CitizenshipStatus,
		st.FinancialNeed,
		st.FirstGeneration,
		st.MilitaryAffiliation,
		st.Residency,
		st.CommunityServiceHours,
		createdAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	st.ID = id
	st.CreatedAt = time.UnixMilli(createdAt.UnixMilli()).UTC()
	return nil
}

func scanStudent(row rowScanner) (*eligibility.Student, error) {
	var (
		st        eligibility.Student
		income    sql.NullFloat64
		ethnicity string
		createdAt int64
	)
	if err := row.Scan(
		&st.ID,
		&st.Email,
		&st.Name,
		&st.GraduationYear,
		&income,
		&st.State,
		&st.GPA,
		&st.EnrollmentStatus,
		&st.Major,
		&st.Gender,
		&ethnicity,
		&st.CitizenshipStatus,
		&st.FinancialNeed,
		&st.FirstGeneration,
		&st.MilitaryAffiliation,
		&st.Residency,
		&st.CommunityServiceHours,
		&createdAt,
	); err != nil {
		return nil, err
	}
	if income.Valid {
		st.HouseholdIncome = &income.Float64
	}
	set, err := decodeSet(ethnicity)
	if err != nil {
		return nil, err
	}
	st.Ethnicity = set
	st.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &st, nil
}

func upsertScholarship(ctx context.Context, db execer, sch *eligibility.Scholarship) error {
	if sch == nil {
		return fmt.Errorf("scholarship is required")
	}
	id := strings.TrimSpace(sch.ID)
	if id == "" {
		return fmt.Errorf("scholarship id is required")
	}

	sets := []eligibility.StringSet{
		sch.Tags,
		sch.EnrollmentStatus,
		sch.Citizenship,
		sch.FieldsOfStudy,
		sch.RequiredEthnicity,
		sch.AllowedMilitaryAffiliation,
	}
	encoded := make([]string, len(sets))
	for i, set := range sets {
		value, err := encodeSet(set)
		if err != nil {
			return err
		}
		encoded[i] = value
	}

	var deadline sql.NullInt64
	if !sch.Deadline.IsZero() {
		deadline = sql.NullInt64{Int64: sch.Deadline.UTC().UnixMilli(), Valid: true}
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO scholarships (`+scholarshipColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		sch.Name,
		sch.Provider,
		sch.Amount,
		sch.AmountType,
		deadline,
		sch.Description,
		sch.URL,
		sch.Renewable,
		sch.RenewableConditions,
		encoded[0],
		sch.GPAMinimum,
		encoded[1],
		encoded[2],
		encoded[3],
		encodeFlag(sch.RequiresFirstGeneration),
		encodeFlag(sch.RequiresFinancialNeed),
		sch.RequiredGender,
		encoded[4],
		sch.MinCommunityServiceHours,
		encoded[5],
		sch.RequiredResidency,
	)
	if err != nil {
		return fmt.Errorf("put scholarship %s: %w", id, err)
	}
	return nil
}

func scanScholarship(row rowScanner) (*eligibility.Scholarship, error) {
	var (
		sch                                                     eligibility.Scholarship
		deadline                                                sql.NullInt64
		firstGen, financialNeed                                 sql.NullBool
		tags, enrollment, citizenship, fields, ethnicity, mil string
	)
	if err := row.Scan(
		&sch.ID,
		&sch.Name,
		&sch.Provider,
		&sch.Amount,
		&sch.AmountType,
		&deadline,
		&sch.Description,
		&sch.URL,
		&sch.Renewable,
		&sch.RenewableConditions,
		&tags,
		&sch.GPAMinimum,
		&enrollment,
		&citizenship,
		&fields,
		&firstGen,
		&financialNeed,
		&sch.RequiredGender,
		&ethnicity,
		&sch.MinCommunityServiceHours,
		&mil,
		&sch.RequiredResidency,
	); err != nil {
		return nil, err
	}

	if deadline.Valid {
		sch.Deadline = time.UnixMilli(deadline.Int64).UTC()
	}
	sch.RequiresFirstGeneration = decodeFlag(firstGen)
	sch.RequiresFinancialNeed = decodeFlag(financialNeed)

	targets := []struct {
		raw string
		dst *eligibility.StringSet
	}{
		{tags, &sch.Tags},
		{enrollment, &sch.EnrollmentStatus},
		{citizenship, &sch.Citizenship},
		{fields, &sch.FieldsOfStudy},
		{ethnicity, &sch.RequiredEthnicity},
		{mil, &sch.AllowedMilitaryAffiliation},
	}
	for _, target := range targets {
		set, err := decodeSet(target.raw)
		if err != nil {
			return nil, err
		}
		*target.dst = set
	}

	return &sch, nil
}

func encodeSet(set eligibility.StringSet) (string, error) {
	data, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("encode string set: %w", err)
	}
	return string(data), nil
}

func decodeSet(raw string) (eligibility.StringSet, error) {
	if strings.TrimSpace(raw) == "" {
		return eligibility.StringSet{}, nil
	}
	var set eligibility.StringSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return nil, fmt.Errorf("decode string set: %w", err)
	}
	return set, nil
}

func encodeFlag(f eligibility.Flag) sql.NullBool {
	if !f.IsSet() {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: f.Required(), Valid: true}
}

func decodeFlag(v sql.NullBool) eligibility.Flag {
	if !v.Valid {
		return eligibility.FlagUnset
	}
	return eligibility.FlagOf(v.Bool)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
