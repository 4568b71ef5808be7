package recipe

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/recipe.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// ValidationResult contains the outcome of a schema validation.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue represents a single validation error from the schema.
type ValidationIssue struct {
	Path    string // Instance location (e.g., "/name", "/actions/0/anchor")
	Where   string // Recipe location (e.g., "action 3 (substitute) anchor")
	Message string // Human-readable error message
	Keyword string // Schema keyword location that failed
}

func (i ValidationIssue) String() string {
	switch {
	case i.Where != "":
		return i.Where + ": " + i.Message
	case i.Path != "":
		return i.Path + ": " + i.Message
	default:
		return i.Message
	}
}

// ValidationError is returned by Load when a recipe does not match the
// schema.
type ValidationError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("invalid recipe %s: %s", e.Path, strings.Join(msgs, "; "))
}

// getSchema compiles the embedded JSON schema once and returns it.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("recipe.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("recipe.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Validate validates raw YAML bytes against the recipe JSON schema.
// The error return is for parse or schema compilation failures.
// Validation issues are returned in the ValidationResult.
func Validate(data []byte) (*ValidationResult, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	return validateJSON(jsonData)
}

// ValidateRecipe validates an already decoded recipe. It is used for HCL
// recipes, which have no YAML form to check.
func ValidateRecipe(r *Recipe) (*ValidationResult, error) {
	jsonData, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	return validateJSON(jsonData)
}

// ValidateFile reads a recipe file of either syntax and validates it.
func ValidateFile(path string) (*ValidationResult, error) {
	if isHCL(path) {
		r, err := parseHCLFile(path)
		if err != nil {
			return nil, err
		}
		return ValidateRecipe(r)
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(data)
}

func validateJSON(jsonData []byte) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}

	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("unexpected validation error type: %w", err)
	}

	var doc map[string]any
	_ = json.Unmarshal(jsonData, &doc)
	return &ValidationResult{
		Valid:  false,
		Issues: extractIssues(validationErr, doc),
	}, nil
}

// uninformative keywords only say that a nested branch failed; the branch's
// own leaf errors carry the detail.
var uninformative = map[string]bool{"oneOf": true, "anyOf": true, "allOf": true, "$ref": true, "then": true, "": true}

// extractIssues flattens the error tree into leaf issues, one per distinct
// location, keyword and message, labelled with the action or requirement
// they belong to.
func extractIssues(ve *jsonschema.ValidationError, doc map[string]any) []ValidationIssue {
	var issues []ValidationIssue
	seen := map[string]bool{}

	stack := []*jsonschema.ValidationError{ve}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(cur.Causes) > 0 {
			for i := len(cur.Causes) - 1; i >= 0; i-- {
				stack = append(stack, cur.Causes[i])
			}
			continue
		}
		if cur.ErrorKind == nil {
			continue
		}
		kw := cur.ErrorKind.KeywordPath()
		keyword := ""
		if len(kw) > 0 {
			keyword = kw[len(kw)-1]
		}
		if uninformative[keyword] {
			continue
		}

		issue := ValidationIssue{
			Where:   describeLocation(doc, cur.InstanceLocation),
			Message: cur.ErrorKind.LocalizedString(printer),
			Keyword: keyword,
		}
		if len(cur.InstanceLocation) > 0 {
			issue.Path = "/" + strings.Join(cur.InstanceLocation, "/")
		}
		key := issue.Path + "|" + keyword + "|" + issue.Message
		if seen[key] {
			continue
		}
		seen[key] = true
		issues = append(issues, issue)
	}

	if len(issues) == 0 {
		return []ValidationIssue{{Message: ve.Error()}}
	}
	return issues
}

// describeLocation names the recipe element at loc, e.g.
// "action 2 (insert-after) anchor" or "requirement postgres".
func describeLocation(doc map[string]any, loc []string) string {
	if len(loc) < 2 {
		return ""
	}
	idx, err := strconv.Atoi(loc[1])
	if err != nil {
		return ""
	}
	item := map[string]any{}
	if list, ok := doc[loc[0]].([]any); ok && idx < len(list) {
		item, _ = list[idx].(map[string]any)
	}

	var where string
	switch loc[0] {
	case "actions":
		where = fmt.Sprintf("action %d", idx+1)
		if kind, ok := item["kind"].(string); ok && kind != "" {
			where += " (" + kind + ")"
		}
	case "requires":
		where = fmt.Sprintf("requirement %d", idx+1)
		if name, ok := item["name"].(string); ok && name != "" {
			where = "requirement " + name
		}
	default:
		return ""
	}
	if len(loc) > 2 {
		where += " " + strings.Join(loc[2:], ".")
	}
	return where
}
