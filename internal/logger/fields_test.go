package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  student_id  ", Value: "  stu_001  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "student_id" || fields[0].String != "stu_001" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestMatchFields(t *testing.T) {
	fields := MatchFields("stu_001", "sch_010")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != FieldStudentID || fields[1].Key != FieldScholarshipID {
		t.Fatalf("unexpected keys: %s, %s", fields[0].Key, fields[1].Key)
	}

	if partial := MatchFields("stu_001", ""); len(partial) != 1 {
		t.Fatalf("expected empty scholarship id to be dropped, got %d fields", len(partial))
	}
}

func TestWithAI(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithAI(zap.New(core), "gemini", "gemini-2.5-flash").Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("expected provider gemini, got %q", ctx[FieldProvider])
	}
	if ctx[FieldModel] != "gemini-2.5-flash" {
		t.Fatalf("expected model gemini-2.5-flash, got %q", ctx[FieldModel])
	}

	// nil falls back to a no-op logger.
	WithAI(nil, "gemini", "").Info("another log")
}

func TestNew(t *testing.T) {
	for _, tc := range []struct{ json, debug bool }{{false, false}, {true, true}} {
		cfg := config(tc.json, tc.debug)
		if tc.json && cfg.Encoding != "json" {
			t.Fatalf("expected json encoding, got %s", cfg.Encoding)
		}
		if !tc.json && cfg.Encoding != "console" {
			t.Fatalf("expected console encoding, got %s", cfg.Encoding)
		}
		if tc.debug != cfg.Level.Enabled(zapcore.DebugLevel) {
			t.Fatalf("debug level mismatch for %+v", tc)
		}
	}

	logger, err := New(false, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}
}
