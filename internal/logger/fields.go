package logger

import (
	"strings"

	"go.uber.org/zap"
)

// AppName is the root logger name.
const AppName = "scholarship-matcher"

const (
	FieldStudentID     = "student_id"
	FieldScholarshipID = "scholarship_id"
	FieldProvider      = "ai_provider"
	FieldModel         = "ai_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	logger = OrNop(logger)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// MatchFields identifies a student/scholarship pair. Empty ids are skipped.
func MatchFields(studentID, scholarshipID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldStudentID, Value: studentID},
		StringField{Key: FieldScholarshipID, Value: scholarshipID},
	)
}

// WithAI attaches the explanation provider and model to logger.
func WithAI(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)...)
}
