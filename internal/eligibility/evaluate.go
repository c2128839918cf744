// Package eligibility decides whether a student qualifies for a scholarship
// and explains the decision with one reason per satisfied constraint.
package eligibility

import "fmt"

// Result is the outcome of evaluating one student against one scholarship.
type Result struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons"`
	// Failed names the check that rejected the student. Empty when eligible.
	Failed string `json:"-"`
}

// Status describes one check as applied to a particular scholarship.
type Status struct {
	Name   string
	Active bool
}

type check struct {
	name string
	// active reports whether the scholarship constrains this attribute at all.
	active func(sch *Scholarship) bool
	// apply returns the reason on success.
	apply func(st *Student, sch *Scholarship) (string, bool)
}

// Check names, in evaluation order.
const (
	CheckGPA                 = "gpa"
	CheckEnrollmentStatus    = "enrollment_status"
	CheckCitizenship         = "citizenship"
	CheckFieldOfStudy        = "field_of_study"
	CheckFirstGeneration     = "first_generation"
	CheckFinancialNeed       = "financial_need"
	CheckGender              = "gender"
	CheckEthnicity           = "ethnicity"
	CheckCommunityService    = "community_service"
	CheckMilitaryAffiliation = "military_affiliation"
	CheckResidency           = "residency"
)

var checks = []check{
	{
		name:   CheckGPA,
		active: func(*Scholarship) bool { return true },
		apply: func(st *Student, sch *Scholarship) (string, bool) {
			if st.GPA < sch.GPAMinimum {
				return "", false
			}
			return fmt.Sprintf("GPA requirement met (%s >= %s)", formatNumber(st.GPA), formatNumber(sch.GPAMinimum)), true
		},
	},
	{
		name:   CheckEnrollmentStatus,
		active: func(sch *Scholarship) bool { return !sch.EnrollmentStatus.IsEmpty() },
		apply: func(st *Student, sch *Scholarship) (string, bool) {
			if !sch.EnrollmentStatus.Contains(st.EnrollmentStatus) {
				return "", false
			}
			return fmt.Sprintf("Enrollment status eligible (%s)", st.EnrollmentStatus), true
		},
	},
	{
		name:   CheckCitizenship,
		active: func(sch *Scholarship) bool { return !sch.Citizenship.IsEmpty() },
		apply: func(st *Student, sch *Scholarship) (string, bool) {
			if !sch.Citizenship.Contains(st.CitizenshipStatus) {
				return "", false
			}
			return fmt.Sprintf("Citizenship eligible (%s)", st.CitizenshipStatus), true
		},
	},
	{
		name:   CheckFieldOfStudy,
		active: func(sch *Scholarship) bool { return !sch.FieldsOfStudy.IsEmpty() },
		apply: func(st *Student, sch *Scholarship) (string, bool) {
			if !sch.FieldsOfStudy.Contains(st.Major) {
				return "", false
			}
			return fmt.Sprintf("Major eligible (%s)", st.Major), true
		},
	},
	{
		name:   CheckFirstGeneration,
		active: func(sch *Scholarship) bool { return sch.RequiresFirstGeneration.Required() },
		apply: func(st *Student, _ *Scholarship) (string, bool) {
			return "First-generation requirement met", st.FirstGeneration
		},
	},
	{
		name:   CheckFinancialNeed,
		active: func(sch *Scholarship) bool { return sch.RequiresFinancialNeed.Required() },
		apply: func(st *Student, _ *Scholarship) (string, bool) {
			return "Financial need requirement met", st.FinancialNeed
		},
	},
	{
		name:   CheckGender,
		active: func(sch *Scholarship) bool { return sch.RequiredGender != "" },
		apply: func(st *Student, sch *Scholarship) (string, bool) {
			if st.Gender != sch.RequiredGender {
				return "", false
			}
			return fmt.Sprintf("Gender requirement met (%s)", sch.RequiredGender), true
		},
	},
	{
		name:   CheckEthnicity,
		active: func(sch *Scholarship) bool { return !sch.RequiredEthnicity.IsEmpty() },
		apply: func(st *Student, sch *Scholarship) (string, bool) {
			if !sch.RequiredEthnicity.Intersects(st.Ethnicity) {
				return "", false
			}
			return fmt.Sprintf("Ethnicity requirement met (%s)", sch.RequiredEthnicity.Join(", ")), true
		},
	},
	{
		name:   CheckCommunityService,
		active: func(sch *Scholarship) bool { return sch.MinCommunityServiceHours > 0 },
		apply: func(st *Student, sch *Scholarship) (string, bool) {
			if st.CommunityServiceHours < sch.MinCommunityServiceHours {
				return "", false
			}
			return fmt.Sprintf("Community service requirement met (%s >= %s)",
				formatNumber(st.CommunityServiceHours), formatNumber(sch.MinCommunityServiceHours)), true
		},
	},
	{
		name:   CheckMilitaryAffiliation,
		active: func(sch *Scholarship) bool { return !sch.AllowedMilitaryAffiliation.IsEmpty() },
		apply: func(st *Student, sch *Scholarship) (string, bool) {
			if !sch.AllowedMilitaryAffiliation.Contains(st.MilitaryAffiliation) {
				return "", false
			}
			return fmt.Sprintf("Military affiliation eligible (%s)", st.MilitaryAffiliation), true
		},
	},
	{
		name:   CheckResidency,
		active: func(sch *Scholarship) bool { return sch.RequiredResidency != "" },
		apply: func(st *Student, sch *Scholarship) (string, bool) {
			if st.Residency != sch.RequiredResidency {
				return "", false
			}
			return fmt.Sprintf("Residency requirement met (%s)", sch.RequiredResidency), true
		},
	},
}

// Evaluate runs every active check in order. The first failing check ends the
// evaluation with no reasons at all, including those of checks that passed before it.
func Evaluate(st *Student, sch *Scholarship) Result {
	if st == nil || sch == nil {
		return Result{Reasons: []string{}}
	}

	reasons := make([]string, 0, len(checks))
	for _, c := range checks {
		if !c.active(sch) {
			continue
		}
		reason, ok := c.apply(st, sch)
		if !ok {
			return Result{Reasons: []string{}, Failed: c.name}
		}
		reasons = append(reasons, reason)
	}

	return Result{Eligible: true, Reasons: reasons}
}

// ActiveChecks returns the names of the checks sch applies, in evaluation order.
func ActiveChecks(sch *Scholarship) []string {
	names := make([]string, 0, len(checks))
	for _, c := range checks {
		if c.active(sch) {
			names = append(names, c.name)
		}
	}
	return names
}

// Describe reports every check and whether sch activates it.
func Describe(sch *Scholarship) []Status {
	statuses := make([]Status, 0, len(checks))
	for _, c := range checks {
		statuses = append(statuses, Status{Name: c.name, Active: c.active(sch)})
	}
	return statuses
}
