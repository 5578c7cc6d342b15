package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MalformedOutputError means the model answered with something that is not
// the JSON we asked for. It is fatal for the request: acting on a fabricated
// or half-parsed medical classification is worse than failing.
type MalformedOutputError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model output (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed model output (%s)", e.Reason)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// ExtractJSON cuts the first top-level JSON object out of a model reply.
// Models occasionally wrap the JSON in markdown fences or a lead-in sentence
// despite the prompt; everything outside the outermost braces is discarded.
func ExtractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", &MalformedOutputError{Reason: "no JSON object found", Raw: raw}
	}
	return raw[start : end+1], nil
}

// Decode extracts and unmarshals the model reply into out. DisallowUnknownFields
// is deliberately NOT used: prompts evolve and extra fields are harmless, only
// missing or mistyped required fields are a problem (the caller validates those).
func Decode(raw string, out any) error {
	jsonStr, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return &MalformedOutputError{Reason: "invalid JSON", Raw: raw, Err: err}
	}
	return nil
}
