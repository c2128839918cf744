package eligibility

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Flag is a tri-state requirement. Only FlagTrue activates the requirement;
// FlagFalse and FlagUnset are both inert.
type Flag uint8

const (
	FlagUnset Flag = iota
	FlagFalse
	FlagTrue
)

// FlagOf converts a plain boolean into an explicitly set Flag.
func FlagOf(v bool) Flag {
	if v {
		return FlagTrue
	}
	return FlagFalse
}

// Required reports whether the flag activates its requirement.
func (f Flag) Required() bool { return f == FlagTrue }

// IsSet reports whether the flag was explicitly provided.
func (f Flag) IsSet() bool { return f != FlagUnset }

func (f Flag) String() string {
	switch f {
	case FlagTrue:
		return "true"
	case FlagFalse:
		return "false"
	default:
		return "unset"
	}
}

// UnmarshalJSON maps true, false and null onto the three states.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var raw *bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode flag: %w", err)
	}
	if raw == nil {
		*f = FlagUnset
		return nil
	}
	*f = FlagOf(*raw)
	return nil
}

// MarshalJSON encodes an unset flag as null.
func (f Flag) MarshalJSON() ([]byte, error) {
	if !f.IsSet() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatBool(f.Required())), nil
}

// Student is a student record. Only the matching attributes are inspected by Evaluate;
// identity fields are carried for presentation.
type Student struct {
	ID              string   `json:"id"`
	Email           string   `json:"email,omitempty"`
	Name            string   `json:"name,omitempty"`
	GraduationYear  int      `json:"graduation_year,omitempty"`
	HouseholdIncome *float64 `json:"household_income,omitempty"`
	State           string   `json:"state,omitempty"`

	GPA                   float64   `json:"gpa"`
	EnrollmentStatus      string    `json:"enrollment_status"`
	Major                 string    `json:"major"`
	Gender                string    `json:"gender,omitempty"`
	Ethnicity             StringSet `json:"ethnicity"`
	CitizenshipStatus     string    `json:"citizenship_status,omitempty"`
	FinancialNeed         bool      `json:"financial_need"`
	FirstGeneration       bool      `json:"first_generation"`
	MilitaryAffiliation   string    `json:"military_affiliation,omitempty"`
	Residency             string    `json:"residency,omitempty"`
	CommunityServiceHours float64   `json:"community_service_hours"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Scholarship is a scholarship record with its eligibility constraints.
// Empty collections, unset flags, empty strings and non-positive hours are inert.
type Scholarship struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Provider            string    `json:"provider"`
	Amount              float64   `json:"amount"`
	AmountType          string    `json:"amount_type,omitempty"`
	Deadline            time.Time `json:"deadline,omitzero"`
	Description         string    `json:"description,omitempty"`
	URL                 string    `json:"url,omitempty"`
	Renewable           bool      `json:"renewable"`
	RenewableConditions string    `json:"renewable_conditions,omitempty"`
	Tags                StringSet `json:"tags"`

	GPAMinimum                 float64   `json:"gpa_minimum"`
	EnrollmentStatus           StringSet `json:"enrollment_status"`
	Citizenship                StringSet `json:"citizenship"`
	FieldsOfStudy              StringSet `json:"fields_of_study"`
	RequiresFirstGeneration    Flag      `json:"requires_first_generation"`
	RequiresFinancialNeed      Flag      `json:"requires_financial_need"`
	RequiredGender             string    `json:"required_gender,omitempty"`
	RequiredEthnicity          StringSet `json:"required_ethnicity"`
	MinCommunityServiceHours   float64   `json:"min_community_service_hours,omitempty"`
	AllowedMilitaryAffiliation StringSet `json:"allowed_military_affiliation"`
	RequiredResidency          string    `json:"required_residency,omitempty"`
}

// Summary is the presentation subset of a scholarship returned with a match.
type Summary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Amount   float64   `json:"amount"`
	Provider string    `json:"provider"`
	Deadline time.Time `json:"deadline,omitzero"`
	URL      string    `json:"url,omitempty"`
}

// Summary returns the presentation subset of s.
func (s *Scholarship) Summary() Summary {
	return Summary{
		ID:       s.ID,
		Name:     s.Name,
		Amount:   s.Amount,
		Provider: s.Provider,
		Deadline: s.Deadline,
		URL:      s.URL,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
