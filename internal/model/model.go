package model

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"unicode/utf8"
)

// Format identifies a vendor template grammar.
type Format string

const (
	// FormatModern is the class-tagged group/section/panel grammar.
	FormatModern Format = "modern"
	// FormatLegacy is the color-coded row grammar.
	FormatLegacy Format = "legacy"
)

// Outcome is the classification of a single graded question.
type Outcome string

const (
	OutcomeRight   Outcome = "right"
	OutcomeWrong   Outcome = "wrong"
	OutcomeSkipped Outcome = "skipped"
	OutcomeBonus   Outcome = "bonus"
)

// SkippedMarker is the chosen-option placeholder vendors print for unanswered questions.
const SkippedMarker = "--"

// Canonical candidate info keys.
const (
	InfoRollNo    = "roll_no"
	InfoCandName  = "cand_name"
	InfoVenueName = "venue_name"
	InfoExamDate  = "exam_date"
	InfoExamTime  = "exam_time"
	InfoSubject   = "subject"
)

// InfoKeys lists the candidate info keys in display order.
var InfoKeys = []string{InfoRollNo, InfoCandName, InfoVenueName, InfoExamDate, InfoExamTime, InfoSubject}

// CandidateInfo maps a canonical label to the value printed on the document.
type CandidateInfo map[string]string

// Classify derives an outcome from the chosen marker and the correct-option text.
// A missing correct option voids the question regardless of what was chosen.
func Classify(chosen, correct string, hasCorrect bool) Outcome {
	if !hasCorrect || correct == "" {
		return OutcomeBonus
	}
	if chosen == "" || chosen == SkippedMarker {
		return OutcomeSkipped
	}
	if chosen == CorrectMarker(correct) {
		return OutcomeRight
	}
	return OutcomeWrong
}

// CorrectMarker returns the canonical option marker of a correct-option text,
// its first character ("1)" -> "1").
func CorrectMarker(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}
	return text[:size]
}

// Question is one graded question recovered from a document.
type Question struct {
	ID         string  `json:"id"`
	Chosen     string  `json:"chosen,omitempty"`
	Correct    string  `json:"correct,omitempty"`
	HasCorrect bool    `json:"-"`
	Outcome    Outcome `json:"outcome"`
}

// Section is an ordered run of questions within one group.
type Section struct {
	Name      string
	Group     int
	Questions []Question
}

// Tally counts the outcomes of a section's questions.
func (s Section) Tally() Tally {
	var t Tally
	for _, q := range s.Questions {
		t.Add(q.Outcome)
	}
	return t
}

// Tally holds per-outcome counts.
type Tally struct {
	Right   int
	Wrong   int
	Skipped int
	Bonus   int
}

// Add counts one outcome.
func (t *Tally) Add(o Outcome) {
	switch o {
	case OutcomeRight:
		t.Right++
	case OutcomeWrong:
		t.Wrong++
	case OutcomeSkipped:
		t.Skipped++
	default:
		t.Bonus++
	}
}

// Total is the number of counted questions.
func (t Tally) Total() int {
	return t.Right + t.Wrong + t.Skipped + t.Bonus
}

// Rules is a per-exam marking scheme.
type Rules struct {
	Positive     float64
	Negative     float64
	WaivedGroups map[int]bool
}

// NegativeFor returns the penalty per wrong answer in the given group.
func (r Rules) NegativeFor(group int) float64 {
	if r.WaivedGroups[group] {
		return 0
	}
	return r.Negative
}

// SectionSummary is the emitted record for one section.
type SectionSummary struct {
	Name           string  `json:"section_name" yaml:"section_name"`
	Group          int     `json:"group" yaml:"group"`
	TotalQuestions int     `json:"total_questions" yaml:"total_questions"`
	Attempted      int     `json:"attempted" yaml:"attempted"`
	NotAttempted   int     `json:"not_attempted" yaml:"not_attempted"`
	Right          int     `json:"right" yaml:"right"`
	Wrong          int     `json:"wrong" yaml:"wrong"`
	Bonus          int     `json:"bonus" yaml:"bonus"`
	Marks          float64 `json:"marks_in_section" yaml:"marks_in_section"`
}

// Summary holds the overall totals.
type Summary struct {
	TotalMarks      float64  `json:"total_marks" yaml:"total_marks"`
	SectionOneTotal *float64 `json:"section_one_total,omitempty" yaml:"section_one_total,omitempty"`
	SectionTwoTotal *float64 `json:"section_two_total,omitempty" yaml:"section_two_total,omitempty"`
}

// ExamResult is the terminal artifact of one evaluation.
type ExamResult struct {
	ExamType      string             `json:"exam_type" yaml:"exam_type"`
	Format        Format             `json:"format" yaml:"format"`
	CandidateInfo CandidateInfo      `json:"candidate_info" yaml:"candidate_info"`
	Summary       Summary            `json:"exam_summary" yaml:"exam_summary"`
	Sections      []SectionSummary   `json:"section_details" yaml:"section_details"`
	QuestionWise  map[string]Outcome `json:"question_wise_data" yaml:"question_wise_data"`
}

// QuestionIDs returns the question-wise keys in natural order, so Q-2
// sorts before Q-10.
func (r *ExamResult) QuestionIDs() []string {
	ids := make([]string, 0, len(r.QuestionWise))
	for id := range r.QuestionWise {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, CompareIDs)
	return ids
}

// CompareIDs orders identifiers by comparing runs of digits numerically
// and everything else byte-wise.
func CompareIDs(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			si, sj := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na := strings.TrimLeft(a[si:i], "0")
			nb := strings.TrimLeft(b[sj:j], "0")
			if c := cmp.Compare(len(na), len(nb)); c != 0 {
				return c
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			continue
		}
		if c := cmp.Compare(a[i], b[j]); c != 0 {
			return c
		}
		i++
		j++
	}
	if c := cmp.Compare(len(a)-i, len(b)-j); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// ServerConfig holds runtime HTTP parameters set via CLI flags.
type ServerConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/ssc")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	UploadDir     string // Directory for uploaded answer keys while they are evaluated
	MaxUpload     int64  // Maximum upload size in bytes
	PublicURL     string // Absolute URL prefix listed in the sitemap; derived from the request when empty
}
