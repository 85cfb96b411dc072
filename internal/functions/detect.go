package functions

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/docqa/internal/models"
	"go.uber.org/zap"
)

// Triggers recorded on models.FunctionOutput.
const (
	TriggerExplicit = "explicit"
	TriggerQuestion = "question"
)

const promptListLimit = 5

var (
	runTag = regexp.MustCompile(`<run:([\w/.]+)(.*?)>`)
	runArg = regexp.MustCompile(`(\w+)=([^\s>]+)`)
)

// Call is one function invocation found in text.
type Call struct {
	Name  string
	Args  Args
	Match string
}

// ParseCalls returns every <run:name key=value ...> tag in text, in order.
func ParseCalls(text string) []Call {
	var calls []Call
	for _, m := range runTag.FindAllStringSubmatch(text, -1) {
		args := Args{}
		for _, a := range runArg.FindAllStringSubmatch(m[2], -1) {
			args[a[1]] = ParseValue(a[2])
		}
		calls = append(calls, Call{Name: NormalizeName(m[1]), Args: args, Match: m[0]})
	}
	return calls
}

type questionRule struct {
	function string
	patterns []*regexp.Regexp
}

var questionRules = []questionRule{
	{"math/add", compileAll(
		`(?i)what\s+is\s+(\d+)\s+plus\s+(\d+)`,
		`(?i)calculate\s+(\d+)\s*\+\s*(\d+)`,
		`(?i)add\s+(\d+)\s+and\s+(\d+)`,
		`(\d+)\s+\+\s+(\d+)`,
	)},
	{"math/multiply", compileAll(
		`(?i)what\s+is\s+(\d+)\s+times\s+(\d+)`,
		`(?i)calculate\s+(\d+)\s*\*\s*(\d+)`,
		`(?i)multiply\s+(\d+)\s+by\s+(\d+)`,
		`(\d+)\s+×\s+(\d+)`,
	)},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// DetectInQuestion finds arithmetic requests such as "what is 15 plus 27".
// Each registered function is matched at most once.
func (r *Registry) DetectInQuestion(question string) []Call {
	var calls []Call
	for _, rule := range questionRules {
		if _, ok := r.Lookup(rule.function); !ok {
			continue
		}
		for _, re := range rule.patterns {
			m := re.FindStringSubmatch(question)
			if m == nil {
				continue
			}
			calls = append(calls, Call{
				Name:  rule.function,
				Args:  Args{"a": ParseValue(m[1]), "b": ParseValue(m[2])},
				Match: m[0],
			})
			break
		}
	}
	return calls
}

// Apply runs the tags in answer and the arithmetic detected in question.
// Successful tags are replaced inline by their bold result; question matches
// are appended under an "Automated Calculation" block when answer had no
// successful tags of its own. Failed tags are left in place.
func (r *Registry) Apply(ctx context.Context, question, answer string) (string, []models.FunctionOutput) {
	var outputs []models.FunctionOutput
	explicitOK := 0
	for _, c := range ParseCalls(answer) {
		out := r.run(ctx, c, TriggerExplicit)
		if out.Error == "" {
			answer = strings.Replace(answer, c.Match, "**"+FormatResult(out.Result)+"**", 1)
			explicitOK++
		}
		outputs = append(outputs, out)
	}

	var appended []string
	for _, c := range r.DetectInQuestion(question) {
		out := r.run(ctx, c, TriggerQuestion)
		if out.Error == "" {
			appended = append(appended, fmt.Sprintf("`%s(%s)` = **%s**", c.Name, formatArgs(c.Args), FormatResult(out.Result)))
		}
		outputs = append(outputs, out)
	}
	if len(appended) > 0 {
		if explicitOK == 0 {
			answer += "\n\n---\n**Automated Calculation:**"
		}
		answer += "\n" + strings.Join(appended, "\n")
	}
	return answer, outputs
}

func (r *Registry) run(ctx context.Context, c Call, trigger string) models.FunctionOutput {
	out := models.FunctionOutput{Function: c.Name, Args: c.Args, Trigger: trigger}
	result, err := r.Call(ctx, c.Name, c.Args)
	if err != nil {
		r.logger.Warn("function call failed", zap.String("function", c.Name), zap.String("trigger", trigger), zap.Error(err))
		out.Error = err.Error()
		return out
	}
	out.Result = result
	return out
}

// PromptHint lists up to five functions and the tag syntax for a model prompt.
// It is empty when nothing is registered.
func (r *Registry) PromptHint() string {
	names := r.Names()
	if len(names) == 0 {
		return ""
	}
	if len(names) > promptListLimit {
		names = names[:promptListLimit]
	}
	var b strings.Builder
	b.WriteString("Available Functions:\n")
	for _, n := range names {
		b.WriteString("  - " + n + "\n")
	}
	b.WriteString("To use a function, include: <run:function_name arg=value>\n")
	b.WriteString("Example: <run:math/add a=15 b=27>")
	return b.String()
}

// FormatResult renders a result for answer text; whole floats print without a fraction.
func FormatResult(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func formatArgs(args Args) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, args[k])
	}
	return strings.Join(parts, ", ")
}
