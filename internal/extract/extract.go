// Package extract recovers candidate details and graded questions from
// answer key markup. Each vendor grammar has its own entry point; both return
// a Document.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pavelanni/anskey/internal/model"
)

// Document is the structured content of one answer key.
type Document struct {
	Info     model.CandidateInfo
	Sections []model.Section
	// Malformed counts question panels that were skipped.
	Malformed int
}

// Parse builds a goquery document from raw markup.
func Parse(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return doc, nil
}

type labelRule struct {
	substr string
	key    string
}

// infoVocabulary maps lower-cased label substrings to info keys. Order matters:
// the first matching rule wins for a given label.
var infoVocabulary = []labelRule{
	{"roll", model.InfoRollNo},
	{"candidate name", model.InfoCandName},
	{"venue", model.InfoVenueName},
	{"date", model.InfoExamDate},
	{"time", model.InfoExamTime},
	{"subject", model.InfoSubject},
}

func matchLabel(label string) (string, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return "", false
	}
	for _, r := range infoVocabulary {
		if strings.Contains(label, r.substr) {
			return r.key, true
		}
	}
	return "", false
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
