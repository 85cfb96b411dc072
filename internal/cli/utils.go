// Package cli provides output formatting and an API client for the docqa CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const rule = "─────────────────────────────────────────────────────────"

// ParseFormat maps a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes an answer and its sources. The model's reasoning is
// shown only when showThinking is set.
func WriteAnswer(w io.Writer, resp *models.AskResponse, format OutputFormat, showThinking bool) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if showThinking && resp.Thinking != "" {
		fmt.Fprintf(w, "\nThinking:\n%s\n", resp.Thinking)
	}
	fmt.Fprintf(w, "\n%s\n", resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Fprintf(w, "\nSources (%s, %dms):\n", resp.Strategy, resp.LatencyMS)
		for i, src := range resp.Sources {
			fmt.Fprintf(w, "  %d. %s/%s [%s] score %.4f\n", i+1, src.Folder, src.Filename, src.Root, src.Score)
		}
	}
	fmt.Fprintln(w)
	return nil
}

// WriteRetrieval writes retrieved chunks, best folder first.
func WriteRetrieval(w io.Writer, resp *models.RetrieveResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nFound %d chunks in %dms\n\n", resp.Total, resp.QueryTime)
	for i, c := range resp.Results {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%d. %s/%s [%s] | Score: %.4f\n", i+1, c.Folder, c.Filename, c.Root, c.Score)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(c.Text, 300))
	}
	return nil
}

// WriteStatus writes index statistics.
func WriteStatus(w io.Writer, st *models.IndexStatus, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	state := "empty"
	if st.Ready {
		state = "ready"
	}
	fmt.Fprintf(w, "Index:      %s\n", state)
	if st.Embedder != "" {
		fmt.Fprintf(w, "Embedder:   %s\n", st.Embedder)
	}
	if st.BuiltAt != nil {
		fmt.Fprintf(w, "Built at:   %s\n", st.BuiltAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Chunks:     %d\n", st.TotalChunks)
	fmt.Fprintf(w, "Files:      %d\n", st.TotalFiles)
	fmt.Fprintf(w, "Folders:    %d\n", st.TotalFolders)
	fmt.Fprintf(w, "Builds:     %d\n", st.Builds)
	fmt.Fprintf(w, "Questions:  %d\n", st.Questions)
	fmt.Fprintf(w, "Corpus:     %d bytes\n", st.CorpusBytes)

	keys := make([]string, 0, len(st.Folders))
	for k := range st.Folders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f := st.Folders[k]
		fmt.Fprintf(w, "  %-30s %5d chunks %4d files\n", k, f.Chunks, f.Files)
	}
	return nil
}

// WriteFunctions lists helper functions with their signatures.
func WriteFunctions(w io.Writer, list *models.FunctionList, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, list)
	}
	fmt.Fprintf(w, "Functions (%d):\n", list.Total)
	for _, fn := range list.Functions {
		fmt.Fprintf(w, "  %s\n", fn.Signature)
		if fn.Doc != "" {
			fmt.Fprintf(w, "      %s\n", fn.Doc)
		}
	}
	return nil
}
