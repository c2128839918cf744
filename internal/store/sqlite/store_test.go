package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spigell/scholarship-matcher/internal/eligibility"
	"github.com/spigell/scholarship-matcher/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")

	first, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	var count int
	if err := second.sqlDB.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 recorded migration, got %d", count)
	}
}

func TestStudentRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	income := 42000.0
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := &eligibility.Student{
		ID:                    "stu_001",
		Email:                 "maya@example.edu",
		Name:                  "Maya Chen",
		GraduationYear:        2027,
		HouseholdIncome:       &income,
		State:                 "CA",
		GPA:                   3.8,
		EnrollmentStatus:      "undergraduate",
		Major:                 "Biology",
		Gender:                "female",
		Ethnicity:             eligibility.StringSet{"Asian"},
		CitizenshipStatus:     "citizen",
		FinancialNeed:         true,
		FirstGeneration:       true,
		Residency:             "CA",
		CommunityServiceHours: 120,
		CreatedAt:             created,
	}
	if err := s.CreateStudent(ctx, in); err != nil {
		t.Fatalf("create student: %v", err)
	}

	got, err := s.GetStudent(ctx, "stu_001")
	if err != nil {
		t.Fatalf("get student: %v", err)
	}

	if got.Name != "Maya Chen" || got.GPA != 3.8 || got.Major != "Biology" {
		t.Fatalf("unexpected student: %+v", got)
	}
	if got.HouseholdIncome == nil || *got.HouseholdIncome != income {
		t.Fatalf("unexpected household income: %v", got.HouseholdIncome)
	}
	if !got.FinancialNeed || !got.FirstGeneration {
		t.Fatalf("expected boolean attributes to survive, got %+v", got)
	}
	if !got.Ethnicity.Contains("Asian") || got.Ethnicity.Len() != 1 {
		t.Fatalf("unexpected ethnicity: %v", got.Ethnicity)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created_at: %v", got.CreatedAt)
	}
}

func TestCreateStudentDefaultsCreatedAt(t *testing.T) {
	s := openTestStore(t)

	st := &eligibility.Student{ID: "stu_002", Name: "Jordan", GPA: 3.1, EnrollmentStatus: "graduate", Major: "History"}
	if err := s.CreateStudent(context.Background(), st); err != nil {
		t.Fatalf("create student: %v", err)
	}
	if st.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be assigned")
	}

	got, err := s.GetStudent(context.Background(), "stu_002")
	if err != nil {
		t.Fatalf("get student: %v", err)
	}
	if got.HouseholdIncome != nil {
		t.Fatalf("expected nil household income, got %v", *got.HouseholdIncome)
	}
	if got.Ethnicity == nil || !got.Ethnicity.IsEmpty() {
		t.Fatalf("expected empty ethnicity, got %#v", got.Ethnicity)
	}
}

func TestCreateStudentDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	st := &eligibility.Student{ID: "stu_001", GPA: 3.0, EnrollmentStatus: "undergraduate", Major: "Art"}
	if err := s.CreateStudent(ctx, st); err != nil {
		t.Fatalf("create student: %v", err)
	}

	err := s.CreateStudent(ctx, &eligibility.Student{ID: "stu_001", GPA: 2.0, EnrollmentStatus: "undergraduate", Major: "Art"})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetStudentNotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetStudent(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScholarshipRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	deadline := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	in := &eligibility.Scholarship{
		ID:                         "sch_001",
		Name:                       "STEM Leaders Award",
		Provider:                   "Future Scientists Foundation",
		Amount:                     5000,
		AmountType:                 "one-time",
		Deadline:                   deadline,
		Renewable:                  true,
		Tags:                       eligibility.StringSet{"stem"},
		GPAMinimum:                 3.5,
		EnrollmentStatus:           eligibility.StringSet{"undergraduate"},
		Citizenship:                eligibility.StringSet{"citizen", "permanent_resident"},
		FieldsOfStudy:              eligibility.StringSet{"Biology", "Chemistry"},
		RequiresFirstGeneration:    eligibility.FlagFalse,
		RequiresFinancialNeed:      eligibility.FlagTrue,
		MinCommunityServiceHours:   50,
		AllowedMilitaryAffiliation: eligibility.StringSet{},
	}
	if err := s.PutScholarship(ctx, in); err != nil {
		t.Fatalf("put scholarship: %v", err)
	}

	list, err := s.ListScholarships(ctx)
	if err != nil {
		t.Fatalf("list scholarships: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 scholarship, got %d", len(list))
	}

	got := list[0]
	if !got.Deadline.Equal(deadline) {
		t.Fatalf("unexpected deadline: %v", got.Deadline)
	}
	if got.RequiresFirstGeneration != eligibility.FlagFalse {
		t.Fatalf("expected explicit false flag, got %v", got.RequiresFirstGeneration)
	}
	if got.RequiresFinancialNeed != eligibility.FlagTrue {
		t.Fatalf("expected true flag, got %v", got.RequiresFinancialNeed)
	}
	if got.Citizenship.Len() != 2 || !got.FieldsOfStudy.Contains("Chemistry") {
		t.Fatalf("unexpected sets: %+v", got)
	}
	if !got.RequiredEthnicity.IsEmpty() {
		t.Fatalf("expected empty ethnicity set, got %v", got.RequiredEthnicity)
	}

	want := eligibility.ActiveChecks(in)
	have := eligibility.ActiveChecks(got)
	if len(want) != len(have) {
		t.Fatalf("active checks changed after storage: %v != %v", have, want)
	}
}

func TestUnsetFlagAndDeadlineStayUnset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutScholarship(ctx, &eligibility.Scholarship{ID: "sch_open", Name: "Open", Amount: 500}); err != nil {
		t.Fatalf("put scholarship: %v", err)
	}

	list, err := s.ListScholarships(ctx)
	if err != nil {
		t.Fatalf("list scholarships: %v", err)
	}
	got := list[0]
	if got.RequiresFinancialNeed.IsSet() || got.RequiresFirstGeneration.IsSet() {
		t.Fatalf("expected unset flags, got %v/%v", got.RequiresFinancialNeed, got.RequiresFirstGeneration)
	}
	if !got.Deadline.IsZero() {
		t.Fatalf("expected zero deadline, got %v", got.Deadline)
	}
}

func TestPutScholarshipReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutScholarship(ctx, &eligibility.Scholarship{ID: "sch_001", Name: "Old", Amount: 100}); err != nil {
		t.Fatalf("put scholarship: %v", err)
	}
	if err := s.PutScholarship(ctx, &eligibility.Scholarship{ID: "sch_001", Name: "New", Amount: 200}); err != nil {
		t.Fatalf("put scholarship: %v", err)
	}

	list, err := s.ListScholarships(ctx)
	if err != nil {
		t.Fatalf("list scholarships: %v", err)
	}
	if len(list) != 1 || list[0].Name != "New" || list[0].Amount != 200 {
		t.Fatalf("expected replaced scholarship, got %+v", list)
	}
}

func TestReplaceAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateStudent(ctx, &eligibility.Student{ID: "old", GPA: 2.0, EnrollmentStatus: "graduate", Major: "Law"}); err != nil {
		t.Fatalf("create student: %v", err)
	}

	students := []*eligibility.Student{
		{ID: "stu_b", Name: "Bea", GPA: 3.2, EnrollmentStatus: "undergraduate", Major: "Math"},
		{ID: "stu_a", Name: "Ari", GPA: 3.9, EnrollmentStatus: "undergraduate", Major: "Physics"},
	}
	scholarships := []*eligibility.Scholarship{
		{ID: "sch_2", Name: "Second", Amount: 2000},
		{ID: "sch_1", Name: "First", Amount: 1000},
	}
	if err := s.ReplaceAll(ctx, students, scholarships); err != nil {
		t.Fatalf("replace all: %v", err)
	}

	if _, err := s.GetStudent(ctx, "old"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected old student to be removed, got %v", err)
	}

	gotStudents, err := s.ListStudents(ctx)
	if err != nil {
		t.Fatalf("list students: %v", err)
	}
	if len(gotStudents) != 2 || gotStudents[0].Name != "Ari" {
		t.Fatalf("expected students ordered by name, got %+v", gotStudents)
	}

	gotScholarships, err := s.ListScholarships(ctx)
	if err != nil {
		t.Fatalf("list scholarships: %v", err)
	}
	if len(gotScholarships) != 2 || gotScholarships[0].ID != "sch_2" {
		t.Fatalf("expected insertion order, got %+v", gotScholarships)
	}
}

func TestReplaceAllRollsBackOnDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateStudent(ctx, &eligibility.Student{ID: "keep", GPA: 2.0, EnrollmentStatus: "graduate", Major: "Law"}); err != nil {
		t.Fatalf("create student: %v", err)
	}

	dup := []*eligibility.Student{
		{ID: "same", GPA: 3.0, EnrollmentStatus: "undergraduate", Major: "Art"},
		{ID: "same", GPA: 3.1, EnrollmentStatus: "undergraduate", Major: "Art"},
	}
	err := s.ReplaceAll(ctx, dup, nil)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	if _, err := s.GetStudent(ctx, "keep"); err != nil {
		t.Fatalf("expected previous data to survive rollback, got %v", err)
	}
}

func TestNilStoreIsNotConfigured(t *testing.T) {
	var s *Store
	if _, err := s.ListScholarships(context.Background()); err == nil {
		t.Fatal("expected error for nil store")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}
