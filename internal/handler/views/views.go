// Package views renders the HTML pages of the web interface. Components live
// in the .templ files; regenerate the _templ.go files with `templ generate`.
package views

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/pavelanni/anskey/internal/model"
)

// Form field names shared with the handler.
const (
	FieldURL  = "ans_key_url"
	FieldFile = "ans_key_file"
	FieldCSRF = "csrf_token"
)

// Exam describes one exam page.
type Exam struct {
	Path    string // route relative to the base path
	TitleID string // message ID of the exam title
}

// Flash is a one-shot message shown above the form.
type Flash struct {
	Level   string // "warning" or "danger"
	Message string
}

func href(ctx context.Context, path string) templ.SafeURL {
	return templ.URL(model.BasePathFromContext(ctx) + path)
}

var infoMessages = map[string]string{
	model.InfoRollNo:    "InfoRollNo",
	model.InfoCandName:  "InfoCandName",
	model.InfoVenueName: "InfoVenueName",
	model.InfoExamDate:  "InfoExamDate",
	model.InfoExamTime:  "InfoExamTime",
	model.InfoSubject:   "InfoSubject",
}

var sectionHeaders = []string{
	"SectionHeader", "QuestionsHeader", "AttemptedHeader", "NotAttemptedHeader",
	"RightHeader", "WrongHeader", "BonusHeader", "MarksHeader",
}

// sectionCounts lists the integer columns of a section row in header order.
func sectionCounts(s model.SectionSummary) []int {
	return []int{s.TotalQuestions, s.Attempted, s.NotAttempted, s.Right, s.Wrong, s.Bonus}
}

func marks(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
