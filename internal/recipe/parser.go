package recipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/tailor/internal/branding"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"go.yaml.in/yaml/v3"
)

// ErrNotFound is returned by Find when a directory holds no recipe.
var ErrNotFound = errors.New("no recipe found")

// Load reads, validates and parses a recipe file. Files ending in .hcl use
// HCL syntax; everything else is YAML.
func Load(path string) (*Recipe, error) {
	var (
		r   *Recipe
		res *ValidationResult
		err error
	)
	if isHCL(path) {
		if r, err = parseHCLFile(path); err != nil {
			return nil, err
		}
		if res, err = ValidateRecipe(r); err != nil {
			return nil, fmt.Errorf("validating %s: %w", path, err)
		}
	} else {
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if res, err = Validate(data); err != nil {
			return nil, fmt.Errorf("validating %s: %w", path, err)
		}
		if res.Valid {
			if r, err = Parse(data, path); err != nil {
				return nil, err
			}
		}
	}
	if !res.Valid {
		return nil, &ValidationError{Path: path, Issues: res.Issues}
	}
	r.Path = path
	return r, nil
}

// Parse unmarshals YAML recipe data without schema validation.
func Parse(data []byte, path string) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing recipe %s: %w", path, err)
	}
	r.Path = path
	return &r, nil
}

// ParseHCL decodes HCL recipe data without schema validation.
func ParseHCL(data []byte, path string) (*Recipe, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing recipe %s: %w", path, diags)
	}

	var r Recipe
	if diags := gohcl.DecodeBody(file.Body, nil, &r); diags.HasErrors() {
		return nil, fmt.Errorf("decoding recipe %s: %w", path, diags)
	}
	r.Path = path
	return &r, nil
}

func parseHCLFile(path string) (*Recipe, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseHCL(data, path)
}

// Find returns the recipe file in dir. The branded default name is tried
// first, then its .yml and .hcl variants.
func Find(dir string) (string, error) {
	name := branding.RecipeFile()
	base := strings.TrimSuffix(name, filepath.Ext(name))
	candidates := []string{name, base + ".yml", base + ".hcl"}
	for _, c := range candidates {
		p := filepath.Join(dir, c)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s)", ErrNotFound, dir, strings.Join(candidates, ", "))
}

func isHCL(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".hcl")
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
