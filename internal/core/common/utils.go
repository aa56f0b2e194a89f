package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
)

// ErrNoJSON is returned when a response holds no JSON object at all.
var ErrNoJSON = errors.New("no JSON object found in response")

// jsonSuffix is appended to every prompt that expects a structured answer.
const jsonSuffix = "\n\nPlease respond with valid JSON only, no additional text."

// ParseJSON cleans and unmarshals a JSON string into a type T.
// It handles common LLM quirks like markdown fences, surrounding prose and
// slightly broken JSON.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	jsonStr := stripFences(response)

	start := strings.Index(jsonStr, "{")
	end := strings.LastIndex(jsonStr, "}")
	if start == -1 {
		return zero, ErrNoJSON
	}
	if end > start {
		jsonStr = jsonStr[start : end+1]
	} else {
		jsonStr = jsonStr[start:]
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err == nil {
		return result, nil
	}

	repaired, err := jsonrepair.JSONRepair(jsonStr)
	if err != nil {
		return zero, fmt.Errorf("json repair failed: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}
	return result, nil
}

func stripFences(s string) string {
	if i := strings.Index(s, "```json"); i != -1 {
		rest := s[i+len("```json"):]
		if j := strings.Index(rest, "```"); j != -1 {
			return rest[:j]
		}
		return rest
	}
	if i := strings.Index(s, "```"); i != -1 {
		rest := s[i+3:]
		if j := strings.Index(rest, "```"); j != -1 {
			return rest[:j]
		}
		return rest
	}
	return s
}

// GenerateJSON asks the client for a structured answer and decodes it.
// Generation errors and malformed output are both returned as errors; the
// caller decides the fallback.
func GenerateJSON[T any](ctx context.Context, client llm.LLMClient, prompt string, opts ...llm.GenerateOption) (T, error) {
	var zero T
	response, err := client.Generate(ctx, prompt+jsonSuffix, opts...)
	if err != nil {
		return zero, err
	}
	return ParseJSON[T](response)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Render fills a %s template, falling back to def when tmpl is empty.
func Render(tmpl, def string, args ...any) string {
	if tmpl == "" {
		tmpl = def
	}
	return fmt.Sprintf(tmpl, args...)
}
