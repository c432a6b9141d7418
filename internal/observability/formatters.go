// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/egresados-admin/internal/forms"
	"github.com/jonathan/egresados-admin/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintFormList outputs the forms returned by the list endpoint.
func (p *Printer) PrintFormList(rows []types.FormRow) {
	var sb strings.Builder
	if len(rows) == 0 {
		sb.WriteString("No forms.")
	}
	for i, row := range rows {
		state := "draft"
		if row.Published {
			state = "published"
		}
		sb.WriteString(fmt.Sprintf("%s  %s\n", row.ID, truncate(row.Name, 30)))
		sb.WriteString(fmt.Sprintf("    %d answers, %s", row.NumberOfAnswers, state))
		if i < len(rows)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(fmt.Sprintf("FORMS (%d)", len(rows)), sb.String())
}

// PrintFormSummary outputs a form with the tally of each question's answers.
func (p *Printer) PrintFormSummary(form *types.Form) {
	if form == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:         %s\n", form.Name))
	if desc := form.DescriptionText(); desc != "" {
		sb.WriteString(fmt.Sprintf("Description:  %s\n", desc))
	}
	sb.WriteString(fmt.Sprintf("Published:    %t\n", form.Published))
	sb.WriteString(fmt.Sprintf("Respondents:  %d\n", len(form.AnswersCollectedFrom)))

	for _, q := range forms.Summarize(*form) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%d. %s (%d answers)\n", q.Number, q.Question, q.Answers))
		if q.Type != types.QuestionMultipleChoice {
			continue
		}
		count := min(len(q.Options), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s: %d\n", q.Options[i].Option, q.Options[i].Count))
		}
		if len(q.Options) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more options\n", len(q.Options)-maxItemsToShow))
		}
		if q.Other > 0 {
			sb.WriteString(fmt.Sprintf("  • other: %d\n", q.Other))
		}
	}

	p.printBox("FORM SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// ExportResult is the outcome of downloading one form export.
type ExportResult struct {
	FormName string
	Path     string
	Bytes    int
	Err      error
}

// PrintExportResults outputs where each export was written, or why it failed.
func (p *Printer) PrintExportResults(results []ExportResult) {
	var sb strings.Builder
	failed := 0
	for i, r := range results {
		if r.Err != nil {
			failed++
			sb.WriteString(fmt.Sprintf("✗ %s\n", r.FormName))
			sb.WriteString(fmt.Sprintf("  %s", r.Err.Error()))
		} else {
			sb.WriteString(fmt.Sprintf("✓ %s\n", r.FormName))
			sb.WriteString(fmt.Sprintf("  %s (%d bytes)", r.Path, r.Bytes))
		}
		if i < len(results)-1 {
			sb.WriteString("\n")
		}
	}

	title := fmt.Sprintf("EXPORTS (%d ok, %d failed)", len(results)-failed, failed)
	p.printBox(title, sb.String())
}
