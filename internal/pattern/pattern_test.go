package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyInsertBeforeRegexAnchor(t *testing.T) {
	content := "class Application\n  config.x = 1\nend\n"

	got, ok := Apply(content, MustRegex(`^end\s*$`), InsertBefore, Text("  foo\n"))
	require.True(t, ok)
	assert.Equal(t, "class Application\n  config.x = 1\n  foo\nend\n", got)
	assert.True(t, strings.HasSuffix(got, "  foo\nend\n"))
}

func TestApplyInsertOnlyFirstOccurrence(t *testing.T) {
	content := "a\nend\nb\nend\n"

	got, ok := Apply(content, MustRegex(`^end$`), InsertBefore, Text("X\n"))
	require.True(t, ok)
	assert.Equal(t, "a\nX\nend\nb\nend\n", got)
}

func TestApplyInsertAfterLiteral(t *testing.T) {
	content := "require 'rails/test_help'\n\nclass ActiveSupport::TestCase\nend\n"

	got, ok := Apply(content, Literal("require 'rails/test_help'"), InsertAfter, Text("\nrequire \"minitest/autorun\""))
	require.True(t, ok)
	assert.Equal(t, "require 'rails/test_help'\nrequire \"minitest/autorun\"\n\nclass ActiveSupport::TestCase\nend\n", got)
}

func TestApplySubstituteGlobal(t *testing.T) {
	content := "level = :debug\nother = :debug\n"

	got, ok := Apply(content, Literal(":debug"), Substitute, Text(":info"))
	require.True(t, ok)
	assert.Equal(t, "level = :info\nother = :info\n", got)
}

func TestApplySubstituteRegexKeepsDollarSigns(t *testing.T) {
	content := "PATH=OLD\n"

	got, ok := Apply(content, MustRegex(`^PATH=.*$`), Substitute, Text(`PATH="$HOME/bin:$PATH"`))
	require.True(t, ok)
	assert.Equal(t, "PATH=\"$HOME/bin:$PATH\"\n", got)

	got, ok = Apply("gem 'pg'\n", MustRegex(`gem '(\w+)'`), Substitute, Text(`gem "$1"`))
	require.True(t, ok)
	assert.Equal(t, "gem \"$1\"\n", got)
}

func TestApplyBlockReceivesMatch(t *testing.T) {
	content := "x1 y x2\n"

	got, ok := Apply(content, MustRegex(`x\d`), Substitute, Block(strings.ToUpper))
	require.True(t, ok)
	assert.Equal(t, "X1 y X2\n", got)

	got, ok = Apply("one two one", Literal("one"), Substitute, Block(func(m string) string { return "<" + m + ">" }))
	require.True(t, ok)
	assert.Equal(t, "<one> two <one>", got)

	got, ok = Apply("end\n", MustRegex(`^end`), InsertAfter, Block(func(m string) string { return " # closes " + m }))
	require.True(t, ok)
	assert.Equal(t, "end # closes end\n", got)
}

func TestApplyUnmatchedLeavesContent(t *testing.T) {
	content := "config.log_level = :warn\n"

	for _, op := range []Op{Substitute, InsertBefore, InsertAfter} {
		t.Run(op.String(), func(t *testing.T) {
			got, ok := Apply(content, Literal("config.log_level = :debug"), op, Text("x"))
			assert.False(t, ok)
			assert.Equal(t, content, got)
		})
	}
}

func TestEmptyPatternNeverMatches(t *testing.T) {
	var p Pattern
	assert.True(t, p.IsEmpty())
	assert.False(t, p.Matches("anything"))

	_, ok := Apply("anything", p, InsertBefore, Text("x"))
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		isRegex bool
		desc    string
		wantErr bool
	}{
		{"Rails.application.routes.draw do", false, `"Rails.application.routes.draw do"`, false},
		{`/^end\s*$/`, true, `/^end\s*$/`, false},
		{"/", false, `"/"`, false},
		{`\/usr/local/bin/`, false, `"/usr/local/bin/"`, false},
		{"/(/", false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.isRegex, p.IsRegex())
			assert.Equal(t, tt.desc, p.String())
		})
	}
}

func TestCapture(t *testing.T) {
	content := "ruby '2.7.1'\ngem 'rails', '~> 6.0.3'\n"

	got, ok := MustRegex(`^ruby '([\d.]+)'`).Capture(content)
	require.True(t, ok)
	assert.Equal(t, "2.7.1", got)

	got, ok = MustRegex(`gem '\w+'`).Capture(content)
	require.True(t, ok)
	assert.Equal(t, "gem 'rails'", got)

	got, ok = Literal("~> 6.0").Capture(content)
	require.True(t, ok)
	assert.Equal(t, "~> 6.0", got)

	_, ok = Literal("pg").Capture(content)
	assert.False(t, ok)
}

func TestRegexEmpty(t *testing.T) {
	_, err := Regex("")
	require.Error(t, err)
}

func TestPresent(t *testing.T) {
	anchor := MustRegex(`^end\s*$`)
	content := "routes\n  mount X\nend\n"

	assert.True(t, Present(content, anchor, InsertBefore, "  mount X\n"))
	assert.False(t, Present(content, anchor, InsertBefore, "  mount Y\n"))
	assert.False(t, Present("no anchor", anchor, InsertBefore, "x"))
	assert.True(t, Present("a\nb", Literal("a"), InsertAfter, "\nb"))
	assert.False(t, Present(content, anchor, Substitute, "x"))
}
