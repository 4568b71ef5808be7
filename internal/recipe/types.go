package recipe

// Recipe is a named, ordered sequence of actions plus the checks that must
// pass before any of them runs.
type Recipe struct {
	Name        string            `yaml:"name" json:"name" hcl:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty" hcl:"description,optional"`
	Source      string            `yaml:"source,omitempty" json:"source,omitempty" hcl:"source,optional"`
	Options     map[string]string `yaml:"options,omitempty" json:"options,omitempty" hcl:"options,optional"`
	Requires    []Requirement     `yaml:"requires,omitempty" json:"requires,omitempty" hcl:"require,block"`
	Actions     []ActionSpec      `yaml:"actions" json:"actions" hcl:"action,block"`

	// Path is the file the recipe was loaded from.
	Path string `yaml:"-" json:"-"`
}

// Requirement declares one precondition. Exactly one of Tool, File or
// Option selects the kind of check.
type Requirement struct {
	Name    string `yaml:"name" json:"name" hcl:"name,label"`
	Message string `yaml:"message,omitempty" json:"message,omitempty" hcl:"message,optional"`

	// Tool runs Tool Args... and checks its version against Version.
	Tool    string   `yaml:"tool,omitempty" json:"tool,omitempty" hcl:"tool,optional"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty" hcl:"args,optional"`
	Version string   `yaml:"version,omitempty" json:"version,omitempty" hcl:"version,optional"`

	// File must exist; when Matches is set its content must match it.
	File    string `yaml:"file,omitempty" json:"file,omitempty" hcl:"file,optional"`
	Matches string `yaml:"matches,omitempty" json:"matches,omitempty" hcl:"matches,optional"`

	// Option, when set, must equal Equals. With Required it must also be
	// set.
	Option   string `yaml:"option,omitempty" json:"option,omitempty" hcl:"option,optional"`
	Equals   string `yaml:"equals,omitempty" json:"equals,omitempty" hcl:"equals,optional"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty" hcl:"required,optional"`
}

// ActionSpec is the declarative form of one engine action.
type ActionSpec struct {
	Kind   string `yaml:"kind" json:"kind" hcl:"kind,label"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty" hcl:"name,optional"`
	Target string `yaml:"target,omitempty" json:"target,omitempty" hcl:"target,optional"`
	Source string `yaml:"source,omitempty" json:"source,omitempty" hcl:"source,optional"`
	// Anchor is a literal string, or a regular expression when written as
	// /expr/.
	Anchor      string `yaml:"anchor,omitempty" json:"anchor,omitempty" hcl:"anchor,optional"`
	Content     string `yaml:"content,omitempty" json:"content,omitempty" hcl:"content,optional"`
	ContentFile string `yaml:"content_file,omitempty" json:"content_file,omitempty" hcl:"content_file,optional"`
	Force       bool   `yaml:"force,omitempty" json:"force,omitempty" hcl:"force,optional"`
	// Strict defaults to true.
	Strict     *bool  `yaml:"strict,omitempty" json:"strict,omitempty" hcl:"strict,optional"`
	OnConflict string `yaml:"on_conflict,omitempty" json:"on_conflict,omitempty" hcl:"on_conflict,optional"`
	When       string `yaml:"when,omitempty" json:"when,omitempty" hcl:"when,optional"`
}
