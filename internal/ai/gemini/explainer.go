package gemini

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/scholarship-matcher/internal/ai"
	"github.com/spigell/scholarship-matcher/internal/logger"
	"github.com/spigell/scholarship-matcher/internal/utils"
)

const (
	systemInstruction   = "You are a helpful scholarship advisor."
	defaultMaxLogLength = 200
)

//go:embed prompt.md
var promptTemplate string

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// Explainer produces match explanations with Gemini.
type Explainer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Explainer = (*Explainer)(nil)

func NewExplainer(generator contentGenerator, maxLogLength int, log *zap.Logger) *Explainer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Explainer{
		generator: generator,
		logger:    logger.OrNop(log),
		maxLogLen: maxLogLength,
	}
}

func (e *Explainer) Explain(ctx context.Context, req *ai.ExplanationRequest) (string, error) {
	if req == nil || req.Student == nil {
		return "", errors.New("student is required")
	}
	if req.Scholarship == nil {
		return "", errors.New("scholarship is required")
	}

	prompt := buildPrompt(req)
	fields := slices.Clip(logger.MatchFields(req.Student.ID, req.Scholarship.ID))

	e.logger.Debug("gemini explanation request", append(fields,
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)...)

	raw, err := e.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return "", err
	}

	e.logger.Debug("gemini explanation response", append(fields,
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)...)

	explanation := strings.TrimSpace(raw)
	if explanation == "" {
		return "", errors.New("gemini returned an empty explanation")
	}

	return explanation, nil
}

func buildPrompt(req *ai.ExplanationRequest) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Scholarship: {{SCHOLARSHIP_NAME}}\nStudent: {{STUDENT_NAME}}\nMatch reasons:\n{{MATCH_REASONS}}"
	}

	reasons := make([]string, 0, len(req.Reasons))
	for _, r := range req.Reasons {
		reasons = append(reasons, "- "+r)
	}

	st, sch := req.Student, req.Scholarship
	replacer := strings.NewReplacer(
		"{{SCHOLARSHIP_NAME}}", sch.Name,
		"{{SCHOLARSHIP_PROVIDER}}", sch.Provider,
		"{{SCHOLARSHIP_AMOUNT}}", utils.FormatAmount(sch.Amount),
		"{{STUDENT_NAME}}", st.Name,
		"{{STUDENT_GPA}}", strconv.FormatFloat(st.GPA, 'f', -1, 64),
		"{{STUDENT_MAJOR}}", st.Major,
		"{{STUDENT_ENROLLMENT}}", st.EnrollmentStatus,
		"{{MATCH_REASONS}}", strings.Join(reasons, "\n"),
	)

	return strings.TrimSpace(replacer.Replace(template))
}
