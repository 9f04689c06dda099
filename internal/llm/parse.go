package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	fenceOpen  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
)

// StripFences removes a leading/trailing markdown code fence from a model
// response. Models in JSON mode still occasionally wrap their output in
// ```json ... ``` despite instructions not to.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseModelJSON is the parse-or-fail boundary between the model's text
// output and typed business data. It strips code fences, tries a straight
// unmarshal, and falls back to a single jsonrepair pass for the long tail of
// almost-valid output (trailing commas, unquoted keys, truncated arrays).
// A parse failure comes back as an error; it never escapes as a panic.
func ParseModelJSON(raw string, target interface{}) error {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return fmt.Errorf("empty model response")
	}

	firstErr := json.Unmarshal([]byte(cleaned), target)
	if firstErr == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(cleaned)
	if repairErr != nil {
		return fmt.Errorf("model response is not valid JSON (%v) and could not be repaired: %w", firstErr, repairErr)
	}

	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("model response is not valid JSON even after repair: %w", err)
	}

	return nil
}
