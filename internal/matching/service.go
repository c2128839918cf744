// Package matching builds match reports for stored students.
package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/scholarship-matcher/internal/ai"
	"github.com/spigell/scholarship-matcher/internal/eligibility"
	"github.com/spigell/scholarship-matcher/internal/logger"
)

// DefaultFallbackExplanation is attached to the top match when the explainer fails.
const DefaultFallbackExplanation = "Explanation temporarily unavailable (AI service error)."

// Store is the read side of the record store used for matching.
type Store interface {
	GetStudent(ctx context.Context, id string) (*eligibility.Student, error)
	ListScholarships(ctx context.Context) ([]*eligibility.Scholarship, error)
}

// Report is the match result for one student.
type Report struct {
	StudentID         string              `json:"student_id"`
	StudentName       string              `json:"student_name"`
	TotalMatches      int                 `json:"total_matches"`
	TotalPotentialAid float64             `json:"total_potential_aid"`
	Matches           []eligibility.Match `json:"matches"`
}

// Step summarizes how many scholarships were evaluated and kept.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Service matches students against every stored scholarship.
type Service struct {
	store     Store
	explainer ai.Explainer
	fallback  string
	logger    *zap.Logger
}

// New creates a match service. explainer may be nil, in which case no explanation is attached.
// An empty fallback selects DefaultFallbackExplanation.
func New(store Store, explainer ai.Explainer, fallback string, log *zap.Logger) *Service {
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultFallbackExplanation
	}

	return &Service{
		store:     store,
		explainer: explainer,
		fallback:  fallback,
		logger:    logger.OrNop(log),
	}
}

// Match ranks every scholarship for the student and explains the best one.
// Store errors, including store.ErrNotFound, are returned unchanged in the chain.
func (s *Service) Match(ctx context.Context, studentID string) (*Report, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("match service is not configured")
	}

	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student %s: %w", studentID, err)
	}

	scholarships, err := s.store.ListScholarships(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scholarships: %w", err)
	}

	log := s.logger.With(logger.MatchFields(student.ID, "")...)

	ranking := eligibility.Rank(student, scholarships)
	step := Step{
		Initial: len(scholarships),
		Dropped: len(ranking.Rejected),
		Left:    ranking.Len(),
	}

	for id, check := range ranking.Rejected {
		log.Debug("scholarship rejected",
			zap.String(logger.FieldScholarshipID, id),
			zap.String("failed_check", check),
		)
	}
	log.Info("eligibility evaluated",
		zap.Int("initial", step.Initial),
		zap.Int("dropped", step.Dropped),
		zap.Int("left", step.Left),
		zap.Float64("total_potential_aid", ranking.TotalPotentialAid),
	)

	if top := ranking.Top(); top != nil && s.explainer != nil {
		top.Explanation = s.explain(ctx, student, findScholarship(scholarships, top.Scholarship.ID), top.Reasons)
	}

	return &Report{
		StudentID:         student.ID,
		StudentName:       student.Name,
		TotalMatches:      ranking.Len(),
		TotalPotentialAid: ranking.TotalPotentialAid,
		Matches:           ranking.Matches,
	}, nil
}

func (s *Service) explain(ctx context.Context, student *eligibility.Student, sch *eligibility.Scholarship, reasons []string) string {
	text, err := s.explainer.Explain(ctx, &ai.ExplanationRequest{
		Student:     student,
		Scholarship: sch,
		Reasons:     reasons,
	})
	if err != nil {
		scholarshipID := ""
		if sch != nil {
			scholarshipID = sch.ID
		}
		s.logger.Warn("explanation failed, using fallback",
			append(logger.MatchFields(student.ID, scholarshipID), zap.Error(err))...,
		)
		return s.fallback
	}
	return text
}

func findScholarship(scholarships []*eligibility.Scholarship, id string) *eligibility.Scholarship {
	for _, sch := range scholarships {
		if sch != nil && sch.ID == id {
			return sch
		}
	}
	return nil
}
