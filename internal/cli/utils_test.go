package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/docqa/internal/models"
)

func sampleAnswer() *models.AskResponse {
	return &models.AskResponse{
		Question:  "How many vacation days?",
		Answer:    "Twenty days per year.",
		Thinking:  "leave.txt states 20",
		Strategy:  "direct",
		LatencyMS: 42,
		Sources: []models.Source{
			{Root: "default", Folder: "policies", Filename: "leave.txt", Score: 0.91, Snippet: "Employees receive..."},
		},
	}
}

func TestWriteAnswer_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleAnswer(), OutputJSON, false); err != nil {
		t.Fatalf("WriteAnswer(json): %v", err)
	}
	var decoded models.AskResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Answer != "Twenty days per year." || len(decoded.Sources) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteAnswer_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleAnswer(), OutputText, false); err != nil {
		t.Fatalf("WriteAnswer(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Twenty days per year.", "Sources (direct, 42ms)", "1. policies/leave.txt [default] score 0.9100"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if strings.Contains(out, "leave.txt states 20") {
		t.Errorf("thinking shown without showThinking:\n%s", out)
	}

	buf.Reset()
	_ = WriteAnswer(&buf, sampleAnswer(), OutputText, true)
	if !strings.Contains(buf.String(), "Thinking:\nleave.txt states 20") {
		t.Errorf("expected thinking block:\n%s", buf.String())
	}
}

func TestWriteAnswer_noSources(t *testing.T) {
	var buf bytes.Buffer
	resp := &models.AskResponse{Answer: "No relevant documents found. Please upload documents first."}
	_ = WriteAnswer(&buf, resp, OutputText, false)
	if strings.Contains(buf.String(), "Sources") {
		t.Errorf("no sources section expected:\n%s", buf.String())
	}
}

func TestWriteRetrieval_text(t *testing.T) {
	resp := &models.RetrieveResponse{
		Query:     "tokens",
		Total:     1,
		QueryTime: 3,
		Results: []models.Chunk{
			{Root: "uploaded", Folder: "tech", Filename: "api.txt", Score: 0.75, Text: strings.Repeat("bearer ", 100)},
		},
	}
	var buf bytes.Buffer
	if err := WriteRetrieval(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Found 1 chunks in 3ms", "1. tech/api.txt [uploaded] | Score: 0.7500", "..."} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteRetrieval_JSON_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRetrieval(&buf, &models.RetrieveResponse{Query: "q", Results: []models.Chunk{}}, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.RetrieveResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("empty response JSON decode: %v", err)
	}
	if decoded.Total != 0 || len(decoded.Results) != 0 {
		t.Errorf("expected empty results, got %+v", decoded)
	}
}

func TestWriteStatus_text(t *testing.T) {
	built := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := &models.IndexStatus{
		Ready:        true,
		Embedder:     "hash",
		TotalChunks:  12,
		TotalFiles:   4,
		TotalFolders: 2,
		BuiltAt:      &built,
		Builds:       3,
		Folders: map[string]models.FolderStats{
			"uploaded/tech":    {Chunks: 5, Files: 1},
			"default/policies": {Chunks: 7, Files: 3},
		},
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Index:      ready", "Embedder:   hash", "Chunks:     12", "Builds:     3"} {
		if !strings.Contains(out, sub) {
			t.Errorf("status output missing %q:\n%s", sub, out)
		}
	}
	if strings.Index(out, "default/policies") > strings.Index(out, "uploaded/tech") {
		t.Errorf("folders should be sorted:\n%s", out)
	}

	buf.Reset()
	_ = WriteStatus(&buf, &models.IndexStatus{}, OutputText)
	if !strings.Contains(buf.String(), "Index:      empty") {
		t.Errorf("empty index status:\n%s", buf.String())
	}
}

func TestWriteFunctions_text(t *testing.T) {
	list := &models.FunctionList{Total: 2, Functions: []models.FunctionInfo{
		{Name: "math/add", Signature: "math/add(a, b)", Doc: "Add two numbers."},
		{Name: "utils/format", Signature: "utils/format(text, style=upper)"},
	}}
	var buf bytes.Buffer
	if err := WriteFunctions(&buf, list, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Functions (2):", "  math/add(a, b)\n      Add two numbers.", "  utils/format(text, style=upper)"} {
		if !strings.Contains(out, sub) {
			t.Errorf("functions output missing %q:\n%s", sub, out)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
