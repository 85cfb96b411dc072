package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RegisterBuiltins adds the math, text and formatting functions to r.
func RegisterBuiltins(r *Registry) error {
	builtins := []struct {
		info Info
		fn   Func
	}{
		{Info{Name: "math/add", Params: []Param{{Name: "a"}, {Name: "b"}}, Doc: "Add two numbers."}, binary(func(a, b float64) float64 { return a + b })},
		{Info{Name: "math/subtract", Params: []Param{{Name: "a"}, {Name: "b"}}, Doc: "Subtract b from a."}, binary(func(a, b float64) float64 { return a - b })},
		{Info{Name: "math/multiply", Params: []Param{{Name: "a"}, {Name: "b"}}, Doc: "Multiply two numbers."}, binary(func(a, b float64) float64 { return a * b })},
		{Info{Name: "text/summarize", Params: []Param{{Name: "text"}, {Name: "max_length", Default: 100}}, Doc: "Shorten text to at most max_length characters at a word boundary."}, summarize},
		{Info{Name: "text/summarize/word_count", Params: []Param{{Name: "text"}}, Doc: "Count words in text."}, wordCount},
		{Info{Name: "utils/format", Params: []Param{{Name: "text"}, {Name: "style", Default: "upper"}}, Doc: "Format text as upper, lower, title or capitalize."}, format},
		{Info{Name: "utils/format/json_prettify", Params: []Param{{Name: "data"}}, Doc: "Indent a JSON document."}, jsonPrettify},
	}
	for _, b := range builtins {
		if err := r.Register(b.info, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func binary(op func(a, b float64) float64) Func {
	return func(_ context.Context, args Args) (interface{}, error) {
		a, err := args.Number("a")
		if err != nil {
			return nil, err
		}
		b, err := args.Number("b")
		if err != nil {
			return nil, err
		}
		return op(a, b), nil
	}
}

// Summarize cuts text to maxLen characters, backing off to the last space
// before the cut and appending "...". Text within maxLen is returned as is.
func Summarize(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	cut := string([]rune(text)[:maxLen-3])
	if i := strings.LastIndex(cut, " "); i >= 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

func summarize(_ context.Context, args Args) (interface{}, error) {
	text, err := args.RequiredString("text")
	if err != nil {
		return nil, err
	}
	maxLen, err := args.Int("max_length", 100)
	if err != nil {
		return nil, err
	}
	if maxLen < 4 {
		return nil, fmt.Errorf("%w: max_length must be at least 4, got %d", ErrInvalidArgs, maxLen)
	}
	return Summarize(text, maxLen), nil
}

func wordCount(_ context.Context, args Args) (interface{}, error) {
	text, err := args.RequiredString("text")
	if err != nil {
		return nil, err
	}
	return len(strings.Fields(text)), nil
}

// Format applies style to text. Unknown styles fall back to upper.
func Format(text, style string) string {
	switch style {
	case "lower":
		return strings.ToLower(text)
	case "title":
		return cases.Title(language.Und).String(text)
	case "capitalize":
		r, size := utf8.DecodeRuneInString(text)
		if size == 0 {
			return text
		}
		return string(unicode.ToUpper(r)) + strings.ToLower(text[size:])
	default:
		return strings.ToUpper(text)
	}
}

func format(_ context.Context, args Args) (interface{}, error) {
	text, err := args.RequiredString("text")
	if err != nil {
		return nil, err
	}
	style, err := args.String("style", "upper")
	if err != nil {
		return nil, err
	}
	return Format(text, style), nil
}

func jsonPrettify(_ context.Context, args Args) (interface{}, error) {
	data, ok := args["data"]
	if !ok {
		return nil, fmt.Errorf("%w: missing data", ErrInvalidArgs)
	}
	if s, isString := data.(string); isString {
		var decoded interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, fmt.Errorf("%w: data is not JSON: %v", ErrInvalidArgs, err)
		}
		data = decoded
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
