// Package delta recognizes and parses the change set a language model
// proposes for a memory document.
package delta

import (
	"errors"
	"strings"

	"github.com/rcliao/memtier/internal/model"
)

// ErrDeltaUnrecognized is returned when model output contains no
// identifiable JSON span.
var ErrDeltaUnrecognized = errors.New("delta: no JSON document found in model output")

const fence = "```"

// Extract returns the JSON span carried by text. It recognizes a whole
// fenced block (optionally tagged) or a bare object/array. It does not
// validate the span.
func Extract(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}

	if strings.HasPrefix(trimmed, fence) {
		lines := strings.Split(trimmed, "\n")
		if len(lines) < 3 {
			return "", false
		}
		last := strings.TrimSpace(lines[len(lines)-1])
		if !strings.HasPrefix(last, fence) {
			return "", false
		}
		return strings.Join(lines[1:len(lines)-1], "\n"), true
	}

	first, last := trimmed[0], trimmed[len(trimmed)-1]
	if (first == '{' && last == '}') || (first == '[' && last == ']') {
		return trimmed, true
	}
	return "", false
}

// ExtractAndParse runs Extract followed by Parse.
func ExtractAndParse(text string) (*model.Delta, error) {
	span, ok := Extract(text)
	if !ok {
		return nil, ErrDeltaUnrecognized
	}
	return Parse(span)
}
