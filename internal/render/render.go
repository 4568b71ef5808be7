package render

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/agentx-labs/tailor/internal/engine"
	"github.com/agentx-labs/tailor/internal/pattern"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Data holds all template variables available to render templates.
type Data struct {
	ProjectName string            // base name of the project root, e.g. "shop"
	ProjectRoot string            // absolute project root
	Options     map[string]string // run options
	RunID       string
	Year        int
}

// NewData derives template variables from the run state.
func NewData(ec *engine.ExecutionContext) *Data {
	opts := make(map[string]string, len(ec.Options))
	for k, v := range ec.Options {
		opts[k] = v
	}
	return &Data{
		ProjectName: filepath.Base(ec.ProjectRoot),
		ProjectRoot: ec.ProjectRoot,
		Options:     opts,
		RunID:       ec.RunID,
		Year:        time.Now().Year(),
	}
}

// TemplateRenderer renders sources with text/template.
type TemplateRenderer struct {
	// Funcs are merged over the default function map.
	Funcs template.FuncMap
}

// New returns a renderer with the default function map.
func New() *TemplateRenderer {
	return &TemplateRenderer{}
}

// Render executes src as a template named name.
func (r *TemplateRenderer) Render(name string, src []byte, ec *engine.ExecutionContext) ([]byte, error) {
	if strings.HasSuffix(strings.TrimSuffix(name, ".tt"), ".hbs") {
		return src, nil
	}

	data := NewData(ec)
	tmpl, err := template.New(filepath.Base(name)).
		Option("missingkey=error").
		Funcs(r.funcs(ec, data)).
		Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (r *TemplateRenderer) funcs(ec *engine.ExecutionContext, data *Data) template.FuncMap {
	title := cases.Title(language.English)
	fm := template.FuncMap{
		"slug":  slug.Make,
		"title": title.String,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"option": func(key string) (string, error) {
			v, ok := data.Options[key]
			if !ok {
				return "", fmt.Errorf("option %q is not set", key)
			}
			return v, nil
		},
		"optionOr": func(key, fallback string) string {
			if v, ok := data.Options[key]; ok {
				return v
			}
			return fallback
		},
		"enabled": ec.OptionBool,
		"match": func(rel, expr string) (string, error) {
			return matchOriginal(ec, rel, expr)
		},
		"requirement": func(rel, name string) (string, error) {
			return requirement(ec, rel, name)
		},
	}
	for k, v := range r.Funcs {
		fm[k] = v
	}
	return fm
}

// matchOriginal searches rel as it was before the run and returns the first
// capture group of expr, or the whole match when expr has no groups. No
// match yields "".
func matchOriginal(ec *engine.ExecutionContext, rel, expr string) (string, error) {
	content, err := original(ec, rel)
	if err != nil {
		return "", err
	}
	p, err := pattern.Parse(expr)
	if err != nil {
		return "", err
	}
	m, _ := p.Capture(content)
	return m, nil
}

// requirement returns the version constraint declared for a gem in rel as
// it was before the run, e.g. `, "~> 6.0.3"` for gem 'rails', '~> 6.0.3'.
// A gem with no constraint, or no entry at all, yields "".
func requirement(ec *engine.ExecutionContext, rel, name string) (string, error) {
	content, err := original(ec, rel)
	if err != nil {
		return "", err
	}
	re := regexp.MustCompile(`(?m)gem\s+['"]` + regexp.QuoteMeta(name) + `['"]\s*(,[><~= \t\d\.\w'"]*)?.*$`)
	m := re.FindStringSubmatch(content)
	if m == nil || m[1] == "" {
		return "", nil
	}
	req := strings.TrimSpace(strings.ReplaceAll(m[1], "'", `"`))
	return leadingComma.ReplaceAllString(req, `, "`), nil
}

var leadingComma = regexp.MustCompile(`^,\s*"`)

func original(ec *engine.ExecutionContext, rel string) (string, error) {
	data, exists, err := ec.OriginalFile(rel)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%s does not exist in the project", rel)
	}
	return string(data), nil
}
