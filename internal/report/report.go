// Package report renders an ExamResult for the command line.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/pavelanni/anskey/internal/model"
)

// Output formats accepted by Render.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Options control text rendering.
type Options struct {
	NoColor bool
	// Questions appends the question-wise table.
	Questions bool
}

var infoLabels = map[string]string{
	model.InfoRollNo:    "Roll Number",
	model.InfoCandName:  "Candidate Name",
	model.InfoVenueName: "Venue",
	model.InfoExamDate:  "Exam Date",
	model.InfoExamTime:  "Exam Time",
	model.InfoSubject:   "Subject",
}

// Render writes res to w in the given format.
func Render(w io.Writer, res *model.ExamResult, format string, opts Options) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatText:
		_, err := io.WriteString(w, Text(res, opts))
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Text renders a human readable report.
func Text(res *model.ExamResult, opts Options) string {
	var parts []string
	parts = append(parts, stylize(strings.ToUpper(res.ExamType)+" answer key ("+string(res.Format)+")", opts.NoColor, lipgloss.Color("33"), true))

	var info []string
	for _, key := range model.InfoKeys {
		v, ok := res.CandidateInfo[key]
		if !ok || v == "" {
			continue
		}
		info = append(info, fmt.Sprintf("%-15s %s", infoLabels[key]+":", v))
	}
	if len(info) > 0 {
		parts = append(parts, strings.Join(info, "\n"))
	}

	parts = append(parts, sectionTable(res, opts.NoColor).Render())

	totals := []string{"Total marks: " + formatMarks(res.Summary.TotalMarks)}
	if res.Summary.SectionOneTotal != nil {
		totals = append(totals, "Section one: "+formatMarks(*res.Summary.SectionOneTotal))
	}
	if res.Summary.SectionTwoTotal != nil {
		totals = append(totals, "Section two: "+formatMarks(*res.Summary.SectionTwoTotal))
	}
	parts = append(parts, stylize(strings.Join(totals, "   "), opts.NoColor, lipgloss.Color("42"), true))

	if opts.Questions {
		parts = append(parts, questionTable(res, opts.NoColor).Render())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func sectionTable(res *model.ExamResult, noColor bool) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Section", "Questions", "Attempted", "Right", "Wrong", "Bonus", "Marks")
	for _, s := range res.Sections {
		t.Row(
			s.Name,
			strconv.Itoa(s.TotalQuestions),
			strconv.Itoa(s.Attempted),
			strconv.Itoa(s.Right),
			strconv.Itoa(s.Wrong),
			strconv.Itoa(s.Bonus),
			formatMarks(s.Marks),
		)
	}
	if !noColor {
		header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Padding(0, 1)
		cell := lipgloss.NewStyle().Padding(0, 1)
		t.StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	}
	return t
}

func questionTable(res *model.ExamResult, noColor bool) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Question", "Outcome")
	ids := res.QuestionIDs()
	for _, id := range ids {
		t.Row(id, string(res.QuestionWise[id]))
	}
	if !noColor {
		t.StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow || col != 1 {
				return style
			}
			return style.Foreground(outcomeColor(res.QuestionWise[ids[row]]))
		})
	}
	return t
}

func outcomeColor(o model.Outcome) lipgloss.Color {
	switch o {
	case model.OutcomeRight:
		return lipgloss.Color("42")
	case model.OutcomeWrong:
		return lipgloss.Color("196")
	case model.OutcomeBonus:
		return lipgloss.Color("39")
	default:
		return lipgloss.Color("244")
	}
}

func stylize(text string, noColor bool, color lipgloss.Color, bold bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}

func formatMarks(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
