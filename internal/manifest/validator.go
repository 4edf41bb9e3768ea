package manifest

import (
	"bytes"
	"cmp"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaName = "mod.schema.json"

//go:embed schema/mod.schema.json
var schemaBytes []byte

// Messages are rendered in English regardless of the host locale so that
// stored validation output is stable.
var printer = message.NewPrinter(language.English)

var loadSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("reading embedded %s: %w", schemaName, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaName, doc); err != nil {
		return nil, fmt.Errorf("registering %s: %w", schemaName, err)
	}
	s, err := c.Compile(schemaName)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", schemaName, err)
	}
	return s, nil
})

// ValidationResult contains the outcome of a schema validation.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	Path    string // JSON pointer into the document, e.g. "/dependencies/0/version"
	Message string
	Keyword string // failing schema keyword, e.g. "required"
}

// String renders the issue as "path: message".
func (i ValidationIssue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Validate checks a raw manifest document against the schema. Documents
// may be JSON or YAML. The error return is for documents that cannot be
// parsed at all; schema violations are reported in the result.
func Validate(data []byte) (*ValidationResult, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}

	jsonData, err := toJSON(data)
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var verr *jsonschema.ValidationError
	switch err := schema.Validate(inst); {
	case err == nil:
		return &ValidationResult{Valid: true}, nil
	case errors.As(err, &verr):
		return &ValidationResult{Issues: issuesOf(verr)}, nil
	default:
		return nil, fmt.Errorf("validating manifest: %w", err)
	}
}

// issuesOf flattens the leaves of a validation error tree into unique
// issues ordered by document path. Wrapper keywords that only group other
// failures are dropped.
func issuesOf(root *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	seen := make(map[ValidationIssue]bool)

	stack := []*jsonschema.ValidationError{root}
	for len(stack) > 0 {
		ve := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(ve.Causes) > 0 {
			stack = append(stack, ve.Causes...)
			continue
		}

		issue, ok := leafIssue(ve)
		if !ok || seen[issue] {
			continue
		}
		seen[issue] = true
		issues = append(issues, issue)
	}

	if len(issues) == 0 {
		return []ValidationIssue{{Message: root.Error()}}
	}
	slices.SortStableFunc(issues, func(a, b ValidationIssue) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Keyword, b.Keyword))
	})
	return issues
}

func leafIssue(ve *jsonschema.ValidationError) (ValidationIssue, bool) {
	if ve.ErrorKind == nil {
		return ValidationIssue{}, false
	}
	kw := ve.ErrorKind.KeywordPath()
	if len(kw) == 0 {
		return ValidationIssue{}, false
	}
	keyword := kw[len(kw)-1]
	if keyword == "allOf" || keyword == "$ref" {
		return ValidationIssue{}, false
	}

	var path string
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	return ValidationIssue{
		Path:    path,
		Message: ve.ErrorKind.LocalizedString(printer),
		Keyword: keyword,
	}, true
}

// toJSON returns data as JSON. JSON input is checked for syntax and passed
// through; anything else is read as YAML and converted.
func toJSON(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var probe any
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		return trimmed, nil
	}

	raw, err := unmarshalYAML(data)
	if err != nil {
		return nil, err
	}
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	return jsonData, nil
}
