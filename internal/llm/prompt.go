// Package llm builds answer prompts and calls an OpenAI-compatible chat model.
package llm

import (
	"regexp"
	"sort"
	"strings"
)

// Prompt strategies.
const (
	StrategyDirect         = "direct"
	StrategyDetailed       = "detailed"
	StrategyChainOfThought = "chain_of_thought"
	StrategyReasoning      = "reasoning"
	StrategyAnalytical     = "analytical"
	StrategyComparative    = "comparative"
	StrategyExtractive     = "extractive"
	StrategyELI5           = "eli5"
)

const promptHeader = "Context: {context}\n\nQuestion: {question}\n\n"

var templates = map[string]string{
	StrategyDirect: promptHeader + "Answer concisely based only on the context above.",
	StrategyDetailed: promptHeader + "Provide a comprehensive and detailed answer based on the context. " +
		"Include relevant examples and explanations.",
	StrategyChainOfThought: promptHeader + "Let's think step by step:\n" +
		"1. First, identify the key information in the context\n" +
		"2. Then, analyze how it relates to the question\n" +
		"3. Finally, provide a clear answer\n\nAnswer:",
	StrategyReasoning: promptHeader + "<think>\n" +
		"First, analyze the context and break down the question into components.\n" +
		"</think>\n\nProvide a clear answer based on your analysis.",
	StrategyAnalytical: promptHeader + "Analyze the context carefully and provide:\n" +
		"1. Direct answer\n2. Supporting evidence from context\n3. Any relevant implications or connections",
	StrategyComparative: promptHeader + "Compare and contrast the information in the context, then answer the " +
		"question by highlighting similarities, differences, and key points.",
	StrategyExtractive: promptHeader + "Extract the most relevant information from the context and synthesize it " +
		"into a clear, factual answer. Quote key phrases when appropriate.",
	StrategyELI5: promptHeader + "Explain the answer in simple terms as if explaining to someone unfamiliar " +
		"with the topic. Use analogies if helpful.",
}

// Strategies returns the known strategy names in sorted order.
func Strategies() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidStrategy reports whether name is a known strategy.
func ValidStrategy(name string) bool {
	_, ok := templates[name]
	return ok
}

// BuildPrompt fills the strategy template. Unknown strategies use direct.
func BuildPrompt(strategy, context, question string) string {
	tmpl, ok := templates[strategy]
	if !ok {
		tmpl = templates[StrategyDirect]
	}
	r := strings.NewReplacer("{context}", context, "{question}", question)
	return r.Replace(tmpl)
}

var thinkBlock = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// SplitThinking separates the first <think> block of a model reply from the
// answer. Every think block is removed from the answer.
func SplitThinking(raw string) (thinking, answer string) {
	m := thinkBlock.FindStringSubmatch(raw)
	if m == nil {
		return "", strings.TrimSpace(raw)
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(thinkBlock.ReplaceAllString(raw, ""))
}
