package matching

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"colmatch/internal/domain"
)

// ParseErrorKind classifies why a backend response could not be interpreted.
type ParseErrorKind string

const (
	// NoJSONFound means the response contains no `{` at all.
	NoJSONFound ParseErrorKind = "no_json_found"
	// Unparseable means a `{` was found but no substring parsed as a JSON
	// object, even after the repair pass and the salvage scan.
	Unparseable ParseErrorKind = "unparseable"
)

// ParseError is a per-header parse failure. The matcher absorbs it into a
// default result; it never aborts a batch.
type ParseError struct {
	Kind    ParseErrorKind
	Preview string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case NoJSONFound:
		return fmt.Sprintf("no JSON object found in response (preview: %s)", e.Preview)
	default:
		return fmt.Sprintf("unable to extract valid JSON from response (preview: %s)", e.Preview)
	}
}

// previewLimit bounds the response excerpt carried in parse failures.
const previewLimit = 200

func preview(s string) string {
	if len(s) > previewLimit {
		return s[:previewLimit] + "..."
	}
	return s
}

// ParseResponse extracts a ColumnMatchingResult from raw backend text.
//
// Recovery pipeline: locate the first `{`; try the first complete-looking
// object, repairing common formatting damage once if it does not parse; if
// that fails, scan backward over closing braces and return the first prefix
// that parses (truncated responses often still contain a valid object up to
// an earlier `}`). sourceHeader fills in when the response omits its own.
func ParseResponse(raw, sourceHeader string) (domain.ColumnMatchingResult, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return domain.ColumnMatchingResult{}, &ParseError{Kind: NoJSONFound, Preview: preview(raw)}
	}

	if obj, ok := parseCompleteObject(raw, start); ok {
		return buildResult(obj, sourceHeader), nil
	}

	if obj, ok := salvageObject(raw, start); ok {
		return buildResult(obj, sourceHeader), nil
	}

	return domain.ColumnMatchingResult{}, &ParseError{Kind: Unparseable, Preview: preview(raw)}
}

// parseCompleteObject takes the substring up to the first closing brace and
// tries to parse it, once as-is and once after the repair pass.
func parseCompleteObject(raw string, start int) (map[string]any, bool) {
	end := strings.IndexByte(raw[start:], '}')
	if end < 0 {
		return nil, false
	}
	candidate := raw[start : start+end+1]

	if obj, ok := parseObject(candidate); ok {
		return obj, true
	}
	if obj, ok := parseObject(repairJSON(candidate)); ok {
		return obj, true
	}
	return nil, false
}

// salvageObject scans backward from the end of the text for closing braces
// and returns the first prefix substring that parses as a JSON object.
func salvageObject(raw string, start int) (map[string]any, bool) {
	for i := len(raw) - 1; i > start; i-- {
		if raw[i] != '}' {
			continue
		}
		if obj, ok := parseObject(raw[start : i+1]); ok {
			return obj, true
		}
	}
	return nil, false
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

var (
	trailingCommaArray  = regexp.MustCompile(`,\s*]`)
	trailingCommaObject = regexp.MustCompile(`,\s*}`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// repairJSON applies a small, fixed set of textual repairs for formatting
// damage models commonly produce. The rule set is deliberately closed; an
// unrepaired parse failure is a legitimate terminal state, not a bug.
func repairJSON(s string) string {
	s = stripTrailingCommas(s)
	s = collapseWhitespace(s)
	s = escapeInnerQuotes(s)
	return s
}

func stripTrailingCommas(s string) string {
	s = trailingCommaArray.ReplaceAllString(s, "]")
	return trailingCommaObject.ReplaceAllString(s, "}")
}

func collapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}

// escapeInnerQuotes escapes double quotes that appear inside string values.
// A closing quote is recognized only when the next non-space byte is a
// structural character; any other unescaped quote inside a string is treated
// as content. Best effort: ambiguous inputs stay ambiguous.
func escapeInnerQuotes(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 8)

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		b := s[i]

		if escaped {
			out.WriteByte(b)
			escaped = false
			continue
		}
		if inString && b == '\\' {
			out.WriteByte(b)
			escaped = true
			continue
		}

		if b != '"' {
			out.WriteByte(b)
			continue
		}

		if !inString {
			inString = true
			out.WriteByte(b)
			continue
		}

		if isStringTerminator(s, i+1) {
			inString = false
			out.WriteByte(b)
			continue
		}

		out.WriteString(`\"`)
	}
	return out.String()
}

// isStringTerminator reports whether the byte at or after pos (skipping
// spaces) can legally follow a closing string quote.
func isStringTerminator(s string, pos int) bool {
	for i := pos; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		case ',', ':', '}', ']':
			return true
		default:
			return false
		}
	}
	return true // end of input
}

// buildResult maps parsed fields into a result, defaulting every absent or
// mistyped field. Both historical spellings of the existing-mapping flag are
// accepted.
func buildResult(obj map[string]any, sourceHeader string) domain.ColumnMatchingResult {
	src := stringField(obj, "sourceHeader")
	if strings.TrimSpace(src) == "" {
		src = sourceHeader
	}

	return domain.ColumnMatchingResult{
		SourceHeader:         src,
		MatchedTargetHeader:  stringField(obj, "matchedTargetHeader"),
		ConfidencePercentage: numberField(obj, "confidencePercentage"),
		Reasoning:            stringField(obj, "reasoning"),
		UsedExistingMapping:  boolField(obj, "usedExistingMapping") || boolField(obj, "usedReferenceMapping"),
	}
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func numberField(obj map[string]any, key string) float64 {
	switch v := obj[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

func boolField(obj map[string]any, key string) bool {
	switch v := obj[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}
