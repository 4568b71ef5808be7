package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/agentx-labs/tailor/internal/engine"
	"github.com/charmbracelet/lipgloss"
)

// Summary is the outcome of a run.
type Summary struct {
	RunID         string                 `json:"run_id"`
	Recipe        string                 `json:"recipe,omitempty"`
	ProjectRoot   string                 `json:"project_root"`
	Pretend       bool                   `json:"pretend,omitempty"`
	Transactional bool                   `json:"transactional,omitempty"`
	Success       bool                   `json:"success"`
	Stage         string                 `json:"stage"`
	Error         string                 `json:"error,omitempty"`
	Counts        map[engine.Outcome]int `json:"counts"`
	Entries       []engine.Entry         `json:"actions"`
}

// New builds a summary from the run state. stage names the last state the
// run reached; err is the error that stopped it, if any.
func New(ec *engine.ExecutionContext, recipe, stage string, err error) *Summary {
	s := &Summary{
		Recipe:  recipe,
		Stage:   stage,
		Success: err == nil,
		Counts:  map[engine.Outcome]int{},
	}
	if err != nil {
		s.Error = err.Error()
	}
	if ec != nil {
		s.RunID = ec.RunID
		s.ProjectRoot = ec.ProjectRoot
		s.Pretend = ec.Pretend
		s.Transactional = ec.Transactional
		s.Entries = ec.Log()
	}
	for _, e := range s.Entries {
		s.Counts[e.Outcome]++
	}
	return s
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func marker(o engine.Outcome) string {
	switch o {
	case engine.OutcomeApplied:
		return okStyle.Render("[ OK ]")
	case engine.OutcomeSkippedConflict:
		return warnStyle.Render("[WARN]")
	case engine.OutcomeSkippedNoMatch:
		return warnStyle.Render("[MISS]")
	case engine.OutcomeSkippedNoop:
		return dimStyle.Render("[SKIP]")
	default:
		return failStyle.Render("[FAIL]")
	}
}

// WriteText prints one line per action followed by a status line.
func WriteText(w io.Writer, s *Summary) error {
	var b strings.Builder

	title := s.Recipe
	if title == "" {
		title = "actions"
	}
	mode := ""
	if s.Pretend {
		mode = " (pretend)"
	}
	fmt.Fprintf(&b, "Applying %s to %s%s\n", title, s.ProjectRoot, mode)

	for _, e := range s.Entries {
		fmt.Fprintf(&b, "  %s %s", marker(e.Outcome), e.Label)
		if e.Detail != "" {
			fmt.Fprintf(&b, " %s", dimStyle.Render("("+e.Detail+")"))
		}
		b.WriteString("\n")
	}

	if s.Success {
		fmt.Fprintf(&b, "%s %s\n", okStyle.Render("✓"), countLine(s))
	} else {
		fmt.Fprintf(&b, "%s failed after %s: %s\n", failStyle.Render("✗"), s.Stage, s.Error)
		switch {
		case s.Counts[engine.OutcomeApplied] == 0:
		case s.Pretend || s.Transactional:
			fmt.Fprintf(&b, "%s no files were changed\n", warnStyle.Render("⚠"))
		default:
			fmt.Fprintf(&b, "%s %s before the failure; those changes were not rolled back\n", warnStyle.Render("⚠"), countLine(s))
		}
	}
	if s.RunID != "" {
		fmt.Fprintf(&b, "%s\n", dimStyle.Render("run "+s.RunID))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func countLine(s *Summary) string {
	skipped := s.Counts[engine.OutcomeSkippedConflict] + s.Counts[engine.OutcomeSkippedNoop] + s.Counts[engine.OutcomeSkippedNoMatch]
	verb := "applied"
	if s.Pretend {
		verb = "would apply"
	}
	return fmt.Sprintf("%d %s, %d skipped, %d conflicts", s.Counts[engine.OutcomeApplied], verb, skipped, s.Counts[engine.OutcomeSkippedConflict])
}

// WriteJSON prints the summary as indented JSON.
func WriteJSON(w io.Writer, s *Summary) error {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
