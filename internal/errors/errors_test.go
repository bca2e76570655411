package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("open .archgraph: no such file or directory")
	err := New(StoreMissing, "no store for project", cause)

	if err.Code != StoreMissing {
		t.Errorf("Code = %v, want %v", err.Code, StoreMissing)
	}
	if len(err.SuggestedFixes) != 1 || err.SuggestedFixes[0].Command != "archgraph scan" {
		t.Errorf("SuggestedFixes = %+v", err.SuggestedFixes)
	}
}

func TestArchError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      StoreCorrupt,
			message:   "component record unreadable",
			cause:     errors.New("unexpected end of JSON input"),
			wantParts: []string{"STORE_CORRUPT", "component record unreadable", "unexpected end of JSON input"},
		},
		{
			name:      "without cause",
			code:      ComponentNotFound,
			message:   "no component named 'billing'",
			wantParts: []string{"COMPONENT_NOT_FOUND", "no component named 'billing'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestArchError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if Newf(Timeout, "scan took %s", "5m").Unwrap() != nil {
		t.Error("Unwrap() on error without cause should return nil")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("loading rules: %w", New(InvalidRuleFile, "bad severity", nil))
	if got := CodeOf(wrapped); got != InvalidRuleFile {
		t.Errorf("CodeOf = %v, want %v", got, InvalidRuleFile)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
	if !Is(wrapped, InvalidRuleFile) || Is(wrapped, StoreMissing) {
		t.Error("Is matched the wrong code")
	}
}

func TestWithDetailsAndFix(t *testing.T) {
	err := Newf(InvalidConfig, "invalid config").
		WithDetails(map[string]string{"query.maxPaths": "must be positive"}).
		WithFix(FixAction{Type: OpenDocs, Description: "See configuration keys"})

	if err.Details == nil {
		t.Error("Details not set")
	}
	if len(err.SuggestedFixes) != 2 {
		t.Errorf("len(SuggestedFixes) = %d, want 2", len(err.SuggestedFixes))
	}
	if len(ErrorActions[InvalidConfig]) != 1 {
		t.Error("WithFix must not modify the shared defaults")
	}
}

func TestGetSuggestedFixes_Unknown(t *testing.T) {
	if fixes := GetSuggestedFixes(SnapshotNotFound); fixes != nil {
		t.Errorf("expected no fixes, got %+v", fixes)
	}
}
