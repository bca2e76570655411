package main

import (
	"bytes"
	"strings"
	"testing"

	"archgraph/internal/envelope"
	"archgraph/internal/errors"
)

func TestFormatResponse_JSON(t *testing.T) {
	resp := envelope.Operational(map[string]interface{}{"key": "value", "num": 42})

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, `"key": "value"`) {
		t.Error("JSON output missing expected key")
	}
	if !strings.Contains(result, `"success": true`) {
		t.Error("JSON output missing success flag")
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	_, err := FormatResponse(envelope.Operational(nil), "xml")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestFormatHuman_WarningsAndSuggestions(t *testing.T) {
	resp := envelope.New().
		Data(summaryPayload{Markdown: "# Architecture\n"}).
		WarningWithCode("STORE_CORRUPT", "bad.json: unexpected EOF").
		SuggestCalls(envelope.ParseSuggestion("trace api --direction backward", "who calls it")).
		Build()

	out, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"# Architecture",
		"Warning [STORE_CORRUPT]: bad.json: unexpected EOF",
		"archgraph trace api --direction backward  # who calls it",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSuggestionLine(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"coverage", "coverage"},
		{"subgraph abc123", "subgraph abc123"},
		{"trace api --depth=3 --direction backward", "trace api --depth 3 --direction backward"},
		{"scan --full", "scan --full"},
	}
	for _, tt := range tests {
		if got := suggestionLine(envelope.ParseSuggestion(tt.line, "")); got != tt.want {
			t.Errorf("suggestionLine(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestWriteResponse_Failure(t *testing.T) {
	var out, errOut bytes.Buffer
	err := writeResponse(&out, &errOut, envelope.Failure(errors.New(errors.StoreMissing, "no store", nil)), FormatHuman)

	rep, ok := err.(*reportedError)
	if !ok {
		t.Fatalf("expected *reportedError, got %T", err)
	}
	if rep.code != errors.StoreMissing {
		t.Errorf("code = %s, want %s", rep.code, errors.StoreMissing)
	}
	if !strings.Contains(errOut.String(), "Error: [STORE_MISSING] no store") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestByteSize(t *testing.T) {
	tests := map[int64]string{
		512:         "512 B",
		2048:        "2.0 KB",
		3 * 1 << 20: "3.0 MB",
	}
	for n, want := range tests {
		if got := byteSize(n); got != want {
			t.Errorf("byteSize(%d) = %q, want %q", n, got, want)
		}
	}
}
