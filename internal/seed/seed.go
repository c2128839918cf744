// Package seed loads student and scholarship records from JSON or YAML documents.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/spigell/scholarship-matcher/internal/eligibility"
)

// Data is the full content of a seed run.
type Data struct {
	Students     []*eligibility.Student
	Scholarships []*eligibility.Scholarship
}

type scholarshipRecord struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	Provider            string                `json:"provider"`
	Amount              float64               `json:"amount"`
	AmountType          string                `json:"amount_type"`
	Deadline            time.Time             `json:"deadline"`
	Description         string                `json:"description"`
	URL                 string                `json:"url"`
	Renewable           bool                  `json:"renewable"`
	RenewableConditions string                `json:"renewable_conditions"`
	Tags                eligibility.StringSet `json:"tags"`
	FieldsOfStudy       eligibility.StringSet `json:"fields_of_study"`
	Eligibility         *eligibilityRecord    `json:"eligibility"`
}

type eligibilityRecord struct {
	GPAMinimum            *float64              `json:"gpa_minimum"`
	Citizenship           eligibility.StringSet `json:"citizenship"`
	EnrollmentStatus      eligibility.StringSet `json:"enrollment_status"`
	FirstGeneration       eligibility.Flag      `json:"first_generation"`
	FinancialNeed         eligibility.Flag      `json:"financial_need"`
	Gender                string                `json:"gender"`
	Ethnicity             eligibility.StringSet `json:"ethnicity"`
	CommunityServiceHours float64               `json:"community_service_hours"`
	MilitaryAffiliation   eligibility.StringSet `json:"military_affiliation"`
	Residency             string                `json:"residency"`
}

var (
	stringSetType = reflect.TypeOf(eligibility.StringSet{})
	flagType      = reflect.TypeOf(eligibility.FlagUnset)
	timeType      = reflect.TypeOf(time.Time{})
)

// Load reads both seed documents.
func Load(studentsPath, scholarshipsPath string) (*Data, error) {
	students, err := LoadStudents(studentsPath)
	if err != nil {
		return nil, err
	}

	scholarships, err := LoadScholarships(scholarshipsPath)
	if err != nil {
		return nil, err
	}

	return &Data{Students: students, Scholarships: scholarships}, nil
}

// LoadStudents reads a document of the form {"students": [...]}.
func LoadStudents(path string) ([]*eligibility.Student, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	var students []*eligibility.Student
	if err := decode(doc["students"], &students); err != nil {
		return nil, fmt.Errorf("decode students from %s: %w", path, err)
	}

	for i, st := range students {
		if st == nil || strings.TrimSpace(st.ID) == "" {
			return nil, fmt.Errorf("student #%d in %s: id is required", i, path)
		}
		if st.Ethnicity == nil {
			st.Ethnicity = eligibility.StringSet{}
		}
	}

	return students, nil
}

// LoadScholarships reads a document of the form {"scholarships": [...]}, where every
// entry carries its constraints in a nested eligibility object.
func LoadScholarships(path string) ([]*eligibility.Scholarship, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	var records []*scholarshipRecord
	if err := decode(doc["scholarships"], &records); err != nil {
		return nil, fmt.Errorf("decode scholarships from %s: %w", path, err)
	}

	scholarships := make([]*eligibility.Scholarship, 0, len(records))
	for i, rec := range records {
		if rec == nil || strings.TrimSpace(rec.ID) == "" {
			return nil, fmt.Errorf("scholarship #%d in %s: id is required", i, path)
		}
		if rec.Eligibility == nil || rec.Eligibility.GPAMinimum == nil {
			return nil, fmt.Errorf("scholarship %s: eligibility.gpa_minimum is required", rec.ID)
		}
		scholarships = append(scholarships, rec.scholarship())
	}

	return scholarships, nil
}

func (r *scholarshipRecord) scholarship() *eligibility.Scholarship {
	el := r.Eligibility
	return &eligibility.Scholarship{
		ID:                         r.ID,
		Name:                       r.Name,
		Provider:                   r.Provider,
		Amount:                     r.Amount,
		AmountType:                 r.AmountType,
		Deadline:                   r.Deadline,
		Description:                r.Description,
		URL:                        r.URL,
		Renewable:                  r.Renewable,
		RenewableConditions:        r.RenewableConditions,
		Tags:                       eligibility.NormalizeStrings(r.Tags),
		GPAMinimum:                 *el.GPAMinimum,
		EnrollmentStatus:           eligibility.NormalizeStrings(el.EnrollmentStatus),
		Citizenship:                eligibility.NormalizeStrings(el.Citizenship),
		FieldsOfStudy:              eligibility.NormalizeStrings(r.FieldsOfStudy),
		RequiresFirstGeneration:    el.FirstGeneration,
		RequiresFinancialNeed:      el.FinancialNeed,
		RequiredGender:             el.Gender,
		RequiredEthnicity:          eligibility.NormalizeStrings(el.Ethnicity),
		MinCommunityServiceHours:   el.CommunityServiceHours,
		AllowedMilitaryAffiliation: eligibility.NormalizeStrings(el.MilitaryAffiliation),
		RequiredResidency:          el.Residency,
	}
}

func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	doc := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported seed file %q: expected .json, .yaml or .yml", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	return doc, nil
}

func decode(input any, result any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:  result,
		TagName: "json",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringSetHook,
			flagHook,
			timeHook,
		),
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func stringSetHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != stringSetType {
		return data, nil
	}
	return eligibility.NormalizeStrings(data), nil
}

func flagHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != flagType {
		return data, nil
	}
	switch v := data.(type) {
	case bool:
		return eligibility.FlagOf(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return eligibility.FlagUnset, nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid flag %q", v)
		}
		return eligibility.FlagOf(b), nil
	default:
		return nil, fmt.Errorf("invalid flag value %v", data)
	}
}

func timeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	return parseDate(data.(string))
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected RFC3339 or YYYY-MM-DD", value)
}
