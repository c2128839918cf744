package ai

import (
	"context"

	"github.com/spigell/scholarship-matcher/internal/eligibility"
)

// ExplanationRequest carries the top match handed to an Explainer.
type ExplanationRequest struct {
	Student     *eligibility.Student
	Scholarship *eligibility.Scholarship
	Reasons     []string
}

// Explainer writes a short human explanation of why a scholarship matches a student.
type Explainer interface {
	Explain(ctx context.Context, req *ExplanationRequest) (string, error)
}
