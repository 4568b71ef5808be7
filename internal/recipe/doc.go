// Package recipe loads declarative action sequences from recipe.yaml or
// recipe.hcl files, validates them against the embedded JSON Schema, and
// converts them into engine actions and preconditions.
package recipe
