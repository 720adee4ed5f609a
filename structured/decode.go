package structured

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ParseError reports that no JSON object could be located in, or parsed
// from, a block of model output.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return "parse error: " + e.Msg }

// ValidationError reports that a JSON document parsed but does not satisfy
// the required structure. Causes lists the individual schema violations in
// deterministic order.
type ValidationError struct {
	Msg    string
	Causes []string
}

func (e *ValidationError) Error() string {
	if len(e.Causes) == 0 {
		return "validation error: " + e.Msg
	}
	return fmt.Sprintf("validation error: %s: %s", e.Msg, strings.Join(e.Causes, "; "))
}

// Decode extracts the first balanced object span from text and parses it
// strictly. It returns the decoded document, a *ParseError when no span is
// found or the span is not syntactically valid JSON.
func Decode(text string) (map[string]any, error) {
	span, err := ExtractObject(text)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(span), &doc); err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return doc, nil
}

// Validate checks a decoded document against a JSON schema. Schema
// violations come back as a single *ValidationError with sorted causes.
func Validate(doc map[string]any, schemaJSON string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return &ValidationError{Msg: fmt.Sprintf("schema evaluation failed: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	causes := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		causes = append(causes, schemaErr.String())
	}
	sort.Strings(causes)

	return &ValidationError{Msg: "document does not match schema", Causes: causes}
}

// DecodeValidated runs both stages: extraction+parse, then schema
// validation. The returned error is always a tagged *ParseError or
// *ValidationError.
func DecodeValidated(text, schemaJSON string) (map[string]any, error) {
	doc, err := Decode(text)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc, schemaJSON); err != nil {
		return nil, err
	}
	return doc, nil
}
